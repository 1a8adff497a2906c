package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
)

type fakeRateStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (f *fakeRateStore) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	return f.counts[key], nil
}

func postLogin(t *testing.T, handler http.Handler, email, addr string) *httptest.ResponseRecorder {
	t.Helper()
	body := `{"email":"` + email + `","password":"secret"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.RemoteAddr = addr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthRateLimit_BodyStaysReadable(t *testing.T) {
	store := &fakeRateStore{counts: map[string]int64{}}
	policy := NewAuthRateLimitPolicy("login", time.Minute, 2, 2)

	var seen string
	handler := AuthRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		seen = string(body)
		w.WriteHeader(http.StatusOK)
	}))

	rec := postLogin(t, handler, "tester@example.com", "1.2.3.4:5678")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(seen, `"email":"tester@example.com"`) {
		t.Fatalf("downstream handler saw truncated body: %s", seen)
	}
}

func TestAuthRateLimit_EmailLimitTriggers(t *testing.T) {
	store := &fakeRateStore{counts: map[string]int64{}}
	policy := NewAuthRateLimitPolicy("login", time.Minute, 0, 2)
	handler := AuthRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		if rec := postLogin(t, handler, "blocked@example.com", "1.2.3.4:5678"); rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected success before limit, got %d", i, rec.Code)
		}
	}

	rec := postLogin(t, handler, "blocked@example.com", "1.2.3.4:5678")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeRateLimit) {
		t.Fatalf("unexpected code: %s", payload.Error.Code)
	}
}

func TestAuthRateLimit_EmailCaseInsensitive(t *testing.T) {
	store := &fakeRateStore{counts: map[string]int64{}}
	policy := NewAuthRateLimitPolicy("login", time.Minute, 0, 1)
	handler := AuthRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	postLogin(t, handler, "mixed@example.com", "1.2.3.4:5678")
	rec := postLogin(t, handler, "MIXED@Example.Com", "9.9.9.9:1111")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("case variants should share one counter, got %d", rec.Code)
	}
}

func TestAuthRateLimit_IPLimitTriggers(t *testing.T) {
	store := &fakeRateStore{counts: map[string]int64{}}
	policy := NewAuthRateLimitPolicy("register", time.Minute, 1, 0)
	handler := AuthRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	if rec := postLogin(t, handler, "foo@example.com", "5.6.7.8:1234"); rec.Code != http.StatusOK {
		t.Fatalf("expected success, got %d", rec.Code)
	}
	if rec := postLogin(t, handler, "bar@example.com", "5.6.7.8:4321"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on second request from same IP, got %d", rec.Code)
	}
}

func TestAuthRateLimit_DisabledPolicyIsPassThrough(t *testing.T) {
	handler := AuthRateLimit(NewAuthRateLimitPolicy("login", 0, 5, 5), &fakeRateStore{counts: map[string]int64{}}, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

	for i := 0; i < 10; i++ {
		if rec := postLogin(t, handler, "any@example.com", "1.1.1.1:1"); rec.Code != http.StatusNoContent {
			t.Fatalf("disabled policy must not throttle, got %d", rec.Code)
		}
	}
}
