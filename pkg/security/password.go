package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/setdecrunner/backend/pkg/config"
)

// ErrInvalidHash signals a malformed argon2id hash string.
var ErrInvalidHash = fmt.Errorf("invalid argon2id hash")

const tempPasswordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
	saltLen uint32
	keyLen  uint32
}

func paramsFor(cfg config.PasswordConfig) argonParams {
	return argonParams{
		memory:  clamp(cfg.ArgonMemoryKB, 8, 512*1024),
		time:    clamp(cfg.ArgonTime, 1, 10),
		threads: uint8(clamp(cfg.ArgonParallelism, 1, 255)),
		saltLen: clamp(cfg.ArgonSaltLen, 8, 64),
		keyLen:  clamp(cfg.ArgonKeyLen, 16, 64),
	}
}

// HashPassword derives an argon2id hash and encodes it in the standard
// self-describing format, so parameter changes only affect new hashes.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	p := paramsFor(cfg)
	salt := make([]byte, p.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
	return encoded, nil
}

// VerifyPassword reports whether the password matches the encoded hash. It
// rehashes with the parameters stored in the hash itself, not the current
// config.
func VerifyPassword(password, encoded string) (bool, error) {
	p, salt, key, err := parseHash(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)
	return subtle.ConstantTimeCompare(key, computed) == 1, nil
}

func parseHash(encoded string) (argonParams, []byte, []byte, error) {
	var (
		version          int
		mem, iters, par  uint32
		saltB64, hashB64 string
	)
	n, err := fmt.Sscanf(encoded, "$argon2id$v=%d$m=%d,t=%d,p=%d$%s", &version, &mem, &iters, &par, &saltB64)
	if err != nil || n != 5 {
		return argonParams{}, nil, nil, ErrInvalidHash
	}
	if version != argon2.Version {
		return argonParams{}, nil, nil, ErrInvalidHash
	}

	// Sscanf's %s is greedy, so the last field still holds "salt$hash".
	sep := -1
	for i, c := range saltB64 {
		if c == '$' {
			sep = i
			break
		}
	}
	if sep <= 0 || sep == len(saltB64)-1 {
		return argonParams{}, nil, nil, ErrInvalidHash
	}
	hashB64 = saltB64[sep+1:]
	saltB64 = saltB64[:sep]

	salt, err := base64.RawStdEncoding.DecodeString(saltB64)
	if err != nil {
		return argonParams{}, nil, nil, ErrInvalidHash
	}
	key, err := base64.RawStdEncoding.DecodeString(hashB64)
	if err != nil {
		return argonParams{}, nil, nil, ErrInvalidHash
	}

	p := argonParams{
		memory:  mem,
		time:    iters,
		threads: uint8(par),
		saltLen: uint32(len(salt)),
		keyLen:  uint32(len(key)),
	}
	return p, salt, key, nil
}

func clamp(value, min, max int) uint32 {
	if value < min {
		value = min
	}
	if value > max {
		value = max
	}
	return uint32(value)
}

// GenerateTempPassword produces a random credential for provisioned accounts.
// Sampling rejects out-of-range bytes so every character is equally likely.
func GenerateTempPassword(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}

	out := make([]byte, 0, length)
	buf := make([]byte, 1)
	limit := byte(256 - (256 % len(tempPasswordAlphabet)))
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		if buf[0] >= limit {
			continue
		}
		out = append(out, tempPasswordAlphabet[int(buf[0])%len(tempPasswordAlphabet)])
	}
	return string(out), nil
}
