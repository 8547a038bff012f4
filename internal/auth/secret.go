package auth

import (
	"fmt"
	"strings"

	apperrors "usersvc/internal/errors"
)

// Secret is the normalized HMAC signing key. It is built once at startup and
// shared by signing and verification.
type Secret struct {
	key []byte
}

// LoadSecret normalizes raw (one layer of surrounding double quotes left over
// from .env files is removed, then whitespace is trimmed) and fails with
// ErrConfig when nothing is left.
func LoadSecret(raw string) (Secret, error) {
	v := raw
	if len(v) >= 2 && strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`) {
		v = v[1 : len(v)-1]
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return Secret{}, fmt.Errorf("%w: JWT_SECRET is not set", apperrors.ErrConfig)
	}
	return Secret{key: []byte(v)}, nil
}

// Bytes returns the signing key.
func (s Secret) Bytes() []byte {
	return s.key
}

// Len returns the key length, safe to log.
func (s Secret) Len() int {
	return len(s.key)
}

// String redacts the key.
func (s Secret) String() string {
	return "[REDACTED]"
}
