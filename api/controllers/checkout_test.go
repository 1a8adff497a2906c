package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v84"

	"github.com/setdecrunner/backend/internal/checkout"
	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
)

type stubCheckoutService struct {
	session     *checkout.SessionDTO
	fulfillment *checkout.FulfillmentDTO
	err         error
	lastInput   checkout.SessionInput
	resolvedID  string
}

func (s *stubCheckoutService) CreateSession(ctx context.Context, input checkout.SessionInput) (*checkout.SessionDTO, error) {
	s.lastInput = input
	return s.session, s.err
}

func (s *stubCheckoutService) HandleEvent(ctx context.Context, event *stripe.Event) error {
	return s.err
}

func (s *stubCheckoutService) ResolveSession(ctx context.Context, sessionID string) (*checkout.FulfillmentDTO, error) {
	s.resolvedID = sessionID
	return s.fulfillment, s.err
}

func TestCheckoutCreateSessionSuccess(t *testing.T) {
	svc := &stubCheckoutService{session: &checkout.SessionDTO{ID: "cs_test_123", URL: "https://checkout.stripe.com/pay/cs_test_123"}}
	handler := CheckoutCreateSession(svc, nil)

	body := bytes.NewBufferString(`{"title":"Acme Films","slug":"acme-films","email":"buyer@example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/checkout/session", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.lastInput.Title != "Acme Films" || svc.lastInput.Slug != "acme-films" || svc.lastInput.Email != "buyer@example.com" {
		t.Fatalf("unexpected input: %+v", svc.lastInput)
	}

	var envelope struct {
		Data checkout.SessionDTO `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.URL == "" {
		t.Fatal("expected checkout url in payload")
	}
}

func TestCheckoutCreateSessionRequiresTitle(t *testing.T) {
	svc := &stubCheckoutService{}
	handler := CheckoutCreateSession(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/checkout/session", bytes.NewBufferString(`{"email":"buyer@example.com"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.lastInput.Title != "" {
		t.Fatal("expected service untouched on validation failure")
	}
}

func TestCheckoutCreateSessionNilService(t *testing.T) {
	handler := CheckoutCreateSession(nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/checkout/session", bytes.NewBufferString(`{"title":"Acme Films"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
}

func TestCheckoutResolveSessionSuccess(t *testing.T) {
	svc := &stubCheckoutService{fulfillment: &checkout.FulfillmentDTO{
		Token:          "jwt-token",
		ProductionID:   uuid.New(),
		ProductionSlug: "acme-films",
		Email:          "buyer@example.com",
	}}
	handler := CheckoutResolveSession(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/checkout/sessions/cs_test_123", nil)
	req = withURLParam(req, "sessionID", "cs_test_123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.resolvedID != "cs_test_123" {
		t.Fatalf("expected session id forwarded, got %q", svc.resolvedID)
	}

	var envelope struct {
		Data checkout.FulfillmentDTO `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Token != "jwt-token" || envelope.Data.ProductionSlug != "acme-films" {
		t.Fatalf("unexpected payload: %+v", envelope.Data)
	}
}

func TestCheckoutResolveSessionMissingID(t *testing.T) {
	handler := CheckoutResolveSession(&stubCheckoutService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/checkout/sessions/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestCheckoutResolveSessionUnpaidPassesThrough(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeValidation, "session is not paid")}
	handler := CheckoutResolveSession(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/checkout/sessions/cs_test_123", nil)
	req = withURLParam(req, "sessionID", "cs_test_123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
