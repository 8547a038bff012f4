package repository

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"usersvc/internal/auth"
	"usersvc/internal/db"
	apperrors "usersvc/internal/errors"
	"usersvc/internal/model"
)

// UserRepository defines persistence operations.
type UserRepository interface {
	List(ctx context.Context) ([]model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, candidate *model.User) (*model.User, error)
}

// userRepository reads the full collection from the backend on every call;
// the backend is the source of truth, nothing is cached here.
type userRepository struct {
	backend db.Backend
	hasher  auth.Hasher
	log     zerolog.Logger
	now     func() time.Time

	// writeMu serializes Create's load-check-save sequence. Two creates
	// racing on the same snapshot would otherwise both pass the uniqueness
	// checks and one write would drop the other's record.
	writeMu sync.Mutex
	lastID  int64
}

// Option configures the repository.
type Option func(*userRepository)

// WithClock overrides the time source used for IDs and createdAt.
func WithClock(now func() time.Time) Option {
	return func(r *userRepository) { r.now = now }
}

// WithLogger sets the repository logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *userRepository) { r.log = log }
}

// NewUserRepository builds a repository over backend.
func NewUserRepository(backend db.Backend, hasher auth.Hasher, opts ...Option) UserRepository {
	r := &userRepository{
		backend: backend,
		hasher:  hasher,
		log:     zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *userRepository) load(ctx context.Context) ([]model.User, error) {
	users, err := r.backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load users: %w", apperrors.ErrStorage, err)
	}
	return users, nil
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	return r.load(ctx)
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

// FindByEmail matches emails exactly; "A@x.com" and "a@x.com" are different
// users.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if email == "" {
		return nil, apperrors.ErrUserNotFound
	}
	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Email == email {
			return &users[i], nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

// Create validates and persists candidate. The password is hashed before the
// write lock is taken; the plaintext never reaches the backend.
func (r *userRepository) Create(ctx context.Context, candidate *model.User) (*model.User, error) {
	if candidate == nil || candidate.Name == "" {
		return nil, fmt.Errorf("%w: name required", apperrors.ErrValidation)
	}

	user := model.User{
		ID:    candidate.ID,
		Name:  candidate.Name,
		Email: candidate.Email,
		Role:  candidate.Role,
	}
	if candidate.Password != "" {
		hash, err := r.hasher.Hash(candidate.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hash
	}
	if user.Role == "" {
		user.Role = model.DefaultRole
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	if user.Email != "" {
		for i := range users {
			if users[i].Email == user.Email {
				return nil, fmt.Errorf("user with email %s %w", user.Email, apperrors.ErrConflict)
			}
		}
	}

	now := r.now()
	if user.ID == "" {
		user.ID = r.nextID(now)
	}
	for i := range users {
		if users[i].ID == user.ID {
			return nil, fmt.Errorf("user with ID %s %w", user.ID, apperrors.ErrConflict)
		}
	}

	user.CreatedAt = now.UTC()
	users = append(users, user)

	if err := r.backend.Save(ctx, users); err != nil {
		return nil, fmt.Errorf("%w: save users: %w", apperrors.ErrStorage, err)
	}

	r.log.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("user created")
	return &user, nil
}

// nextID returns user_<unix millis>, bumped past the last generated value so
// two creates within the same millisecond still get distinct IDs. Callers
// hold writeMu.
func (r *userRepository) nextID(now time.Time) string {
	ms := now.UnixMilli()
	if ms <= r.lastID {
		ms = r.lastID + 1
	}
	r.lastID = ms
	return "user_" + strconv.FormatInt(ms, 10)
}
