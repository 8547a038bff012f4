package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"usersvc/internal/auth"
	apperrors "usersvc/internal/errors"
	"usersvc/internal/model"
	"usersvc/internal/repository"
)

const bearerPrefix = "Bearer "

// AuthService handles authentication operations.
type AuthService interface {
	Login(ctx context.Context, email, password string) (token string, user *model.PublicUser, err error)
	Authenticate(ctx context.Context, authorization string) (*auth.Claims, error)
	CurrentUser(ctx context.Context, claims *auth.Claims) (*model.PublicUser, error)
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	hasher     auth.Hasher
	log        zerolog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, hasher auth.Hasher, log zerolog.Logger) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		hasher:     hasher,
		log:        log,
	}
}

// Login authenticates by email and password and issues a token. Unknown
// emails and wrong passwords return the same ErrInvalidCredentials.
func (s *authService) Login(ctx context.Context, email, password string) (string, *model.PublicUser, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			return "", nil, err
		}
		// Burn a comparison so unknown emails cost the same as wrong passwords.
		s.hasher.Verify(password, s.dummy())
		s.log.Debug().Msg("login rejected: unknown email")
		return "", nil, apperrors.ErrInvalidCredentials
	}

	if !s.hasher.Verify(password, user.Password) {
		s.log.Debug().Str("user_id", user.ID).Msg("login rejected: password mismatch")
		return "", nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("login succeeded")
	return token, user.Public(), nil
}

// Authenticate validates an Authorization header value of the form
// "Bearer <token>" and returns the token's claims.
func (s *authService) Authenticate(ctx context.Context, authorization string) (*auth.Claims, error) {
	raw, ok := strings.CutPrefix(authorization, bearerPrefix)
	if !ok {
		return nil, apperrors.ErrMissingToken
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, apperrors.ErrMissingToken
	}

	claims, err := s.jwtService.ValidateToken(raw)
	if err != nil {
		s.log.Warn().Err(err).Msg("token rejected")
		if decoded := s.jwtService.DecodeToken(raw); decoded != nil {
			s.log.Debug().Str("claimed_user_id", decoded.LookupID()).Msg("rejected token payload")
		}
		return nil, err
	}
	return claims, nil
}

// CurrentUser loads the live record behind claims. A user removed after the
// token was issued yields ErrUserNotFound even though the token still verifies.
func (s *authService) CurrentUser(ctx context.Context, claims *auth.Claims) (*model.PublicUser, error) {
	if claims == nil || claims.LookupID() == "" {
		return nil, apperrors.ErrUserNotFound
	}
	user, err := s.userRepo.FindByID(ctx, claims.LookupID())
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

func (s *authService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("timing-equalizer")
		if err != nil {
			s.log.Error().Err(err).Msg("prepare dummy hash")
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
