package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ResetTokenTTL bounds how long invite and password reset links stay valid.
const ResetTokenTTL = 24 * time.Hour

// NewResetToken mints an opaque token for invite and password reset flows.
// The raw value goes into the email link; only its sha256 digest is stored,
// so a leaked database row cannot be replayed as a link.
func NewResetToken() (raw string, digest string, expires time.Time, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", time.Time{}, fmt.Errorf("generate reset token: %w", err)
	}
	raw = hex.EncodeToString(buf)
	digest = HashResetToken(raw)
	expires = time.Now().Add(ResetTokenTTL)
	return raw, digest, expires, nil
}

// HashResetToken maps a raw token to its stored digest.
func HashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
