package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	apperrors "usersvc/internal/errors"
	"usersvc/internal/model"
)

// DefaultTokenTTL is the lifetime of tokens issued by GenerateToken.
const DefaultTokenTTL = 24 * time.Hour

// Claims is the token payload. ID and UserID always carry the same user ID;
// consumers read either one.
type Claims struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// LookupID returns the user ID carried by the claims, preferring id over userId.
func (c *Claims) LookupID() string {
	if c.ID != "" {
		return c.ID
	}
	return c.UserID
}

// JWTService handles JWT token generation and validation.
type JWTService struct {
	secret []byte
	ttl    time.Duration
	parser *jwt.Parser
}

// NewJWTService creates a JWT service signing with secret. A non-positive ttl
// falls back to DefaultTokenTTL.
func NewJWTService(secret Secret, ttl time.Duration) *JWTService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTService{
		secret: secret.Bytes(),
		ttl:    ttl,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// TTL returns the default token lifetime.
func (s *JWTService) TTL() time.Duration {
	return s.ttl
}

// GenerateToken issues a token for user valid for the configured TTL.
func (s *JWTService) GenerateToken(user *model.User) (string, error) {
	return s.GenerateTokenWithTTL(user, s.ttl)
}

// GenerateTokenWithTTL issues a token for user valid for ttl.
func (s *JWTService) GenerateTokenWithTTL(user *model.User, ttl time.Duration) (string, error) {
	role := user.Role
	if role == "" {
		role = model.DefaultRole
	}

	now := time.Now()
	claims := &Claims{
		ID:     user.ID,
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken checks signature and expiry and returns the claims. Failures
// wrap ErrInvalidToken together with the reason.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := s.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidToken, tokenFailureReason(err))
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidToken, apperrors.ErrTokenMalformed)
	}
	return claims, nil
}

// DecodeToken parses the payload without checking signature or expiry. It is
// meant for diagnostics and must not be used for access decisions.
func (s *JWTService) DecodeToken(tokenString string) *Claims {
	claims := &Claims{}
	if _, _, err := s.parser.ParseUnverified(tokenString, claims); err != nil {
		return nil
	}
	return claims
}

// tokenFailureReason checks the signature first: a forged token is reported
// as such even when it is also expired.
func tokenFailureReason(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return apperrors.ErrTokenSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperrors.ErrTokenExpired
	default:
		return apperrors.ErrTokenMalformed
	}
}
