package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/setdecrunner/backend/pkg/auth"
	"github.com/setdecrunner/backend/pkg/config"
	"github.com/setdecrunner/backend/pkg/enums"
)

func jwtTestConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "setdec-runner",
		ExpirationMinutes: 60,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := jwtTestConfig()
	userID := uuid.New()
	now := time.Now()

	signed, err := auth.MintAccessToken(cfg, now, auth.AccessTokenPayload{
		UserID:         userID,
		Email:          "owner@acme.test",
		Role:           enums.GlobalRoleUser,
		SiteAuthorized: true,
	})
	if err != nil {
		t.Fatalf("MintAccessToken returned error: %v", err)
	}
	if strings.Count(signed, ".") != 2 {
		t.Fatalf("expected a compact JWT, got %q", signed)
	}

	claims, err := auth.ParseAccessToken(cfg, signed)
	if err != nil {
		t.Fatalf("ParseAccessToken returned error: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("user id mismatch: got %s want %s", claims.UserID, userID)
	}
	if claims.Email != "owner@acme.test" {
		t.Fatalf("email mismatch: %q", claims.Email)
	}
	if claims.Role != enums.GlobalRoleUser || claims.IsAdmin {
		t.Fatalf("role claims wrong: role=%s is_admin=%v", claims.Role, claims.IsAdmin)
	}
	if !claims.SiteAuthorized {
		t.Fatal("site_authorized should survive the round trip")
	}
	if claims.Subject != userID.String() {
		t.Fatalf("subject should mirror user id, got %q", claims.Subject)
	}
}

func TestMintAccessTokenAdminFlag(t *testing.T) {
	cfg := jwtTestConfig()
	signed, err := auth.MintAccessToken(cfg, time.Now(), auth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "root@acme.test",
		Role:   enums.GlobalRoleAdmin,
	})
	if err != nil {
		t.Fatalf("MintAccessToken returned error: %v", err)
	}
	claims, err := auth.ParseAccessToken(cfg, signed)
	if err != nil {
		t.Fatalf("ParseAccessToken returned error: %v", err)
	}
	if !claims.IsAdmin {
		t.Fatal("admin role must set is_admin")
	}
}

func TestMintAccessTokenValidation(t *testing.T) {
	cfg := jwtTestConfig()
	if _, err := auth.MintAccessToken(cfg, time.Now(), auth.AccessTokenPayload{}); err == nil {
		t.Fatal("expected error for missing user id")
	}
	if _, err := auth.MintAccessToken(cfg, time.Now(), auth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.GlobalRole("owner"),
	}); err == nil {
		t.Fatal("expected error for invalid global role")
	}
	bad := cfg
	bad.Secret = ""
	if _, err := auth.MintAccessToken(bad, time.Now(), auth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.GlobalRoleUser,
	}); err == nil {
		t.Fatal("expected error for missing secret")
	}
}

func TestParseAccessTokenRejectsExpiredAndForeign(t *testing.T) {
	cfg := jwtTestConfig()
	payload := auth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "worn@acme.test",
		Role:   enums.GlobalRoleUser,
	}

	stale, err := auth.MintAccessToken(cfg, time.Now().Add(-2*time.Hour), payload)
	if err != nil {
		t.Fatalf("MintAccessToken returned error: %v", err)
	}
	if _, err := auth.ParseAccessToken(cfg, stale); err == nil {
		t.Fatal("expected expired token to fail validation")
	}

	other := cfg
	other.Secret = "different-secret"
	signed, err := auth.MintAccessToken(other, time.Now(), payload)
	if err != nil {
		t.Fatalf("MintAccessToken returned error: %v", err)
	}
	if _, err := auth.ParseAccessToken(cfg, signed); err == nil {
		t.Fatal("expected token signed with another secret to fail")
	}
}
