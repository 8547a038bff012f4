package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	apperrors "usersvc/internal/errors"
)

// DefaultBcryptCost is the work factor used when none is configured.
const DefaultBcryptCost = 10

// Hasher hashes and verifies passwords.
type Hasher interface {
	// Hash returns a salted one-way hash of plain.
	Hash(plain string) (string, error)
	// Verify reports whether plain matches hash. A malformed hash is a mismatch.
	Verify(plain, hash string) bool
}

// BcryptHasher implements Hasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// BcryptOption configures the bcrypt hasher.
type BcryptOption func(*BcryptHasher)

// WithCost sets the bcrypt cost; values outside bcrypt's range are ignored.
func WithCost(cost int) BcryptOption {
	return func(h *BcryptHasher) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			h.cost = cost
		}
	}
}

// NewBcryptHasher creates a bcrypt-based password hasher.
func NewBcryptHasher(opts ...BcryptOption) *BcryptHasher {
	h := &BcryptHasher{cost: DefaultBcryptCost}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Cost returns the configured work factor.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

func (h *BcryptHasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password exceeds 72 bytes", apperrors.ErrValidation)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (h *BcryptHasher) Verify(plain, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// IsBcryptHash reports whether s is already a well-formed bcrypt hash.
func IsBcryptHash(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}

type keepHashes struct {
	Hasher
}

// KeepHashes wraps h so values that are already bcrypt hashes are stored
// unchanged. Use it only when importing exported records, never for
// passwords supplied by clients.
func KeepHashes(h Hasher) Hasher {
	return keepHashes{Hasher: h}
}

func (k keepHashes) Hash(plain string) (string, error) {
	if IsBcryptHash(plain) {
		return plain, nil
	}
	return k.Hasher.Hash(plain)
}
