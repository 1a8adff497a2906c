package security_test

import (
	"testing"
	"time"

	"github.com/setdecrunner/backend/pkg/security"
)

func TestNewResetToken(t *testing.T) {
	raw, digest, expires, err := security.NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken returned error: %v", err)
	}
	if raw == "" || digest == "" {
		t.Fatal("expected non-empty token and digest")
	}
	if raw == digest {
		t.Fatal("raw token must not equal its digest")
	}
	if security.HashResetToken(raw) != digest {
		t.Fatal("digest does not match HashResetToken(raw)")
	}
	if time.Until(expires) <= 0 {
		t.Fatal("expiry must be in the future")
	}

	raw2, digest2, _, err := security.NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken returned error: %v", err)
	}
	if raw == raw2 || digest == digest2 {
		t.Fatal("tokens must be unique across calls")
	}
}
