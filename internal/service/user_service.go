package service

import (
	"context"
	"fmt"
	"time"

	"usersvc/internal/cache"
	"usersvc/internal/model"
	"usersvc/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// UserService exposes user operations to the HTTP layer. Every value it
// returns is a PublicUser; password hashes never leave the repository.
type UserService interface {
	CreateUser(ctx context.Context, candidate *model.User) (*model.PublicUser, error)
	GetUser(ctx context.Context, id string) (*model.PublicUser, error)
	ListUsers(ctx context.Context) ([]model.PublicUser, error)
	ValidateUser(ctx context.Context, id string) (*model.PublicUser, error)
}

type userService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewUserService builds a UserService with repository and cache. A nil cache
// disables caching.
func NewUserService(repo repository.UserRepository, cache *cache.Client) UserService {
	return &userService{repo: repo, cache: cache}
}

func (s *userService) cacheKey(id string) string {
	return fmt.Sprintf("user:%s", id)
}

func (s *userService) CreateUser(ctx context.Context, candidate *model.User) (*model.PublicUser, error) {
	user, err := s.repo.Create(ctx, candidate)
	if err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, s.cacheKey(user.ID))
	return user.Public(), nil
}

// GetUser serves from cache when possible. Records are never modified after
// creation, so a cached projection only goes stale if the store is edited
// outside the service.
func (s *userService) GetUser(ctx context.Context, id string) (*model.PublicUser, error) {
	var cached model.PublicUser
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	public := user.Public()
	s.cache.SetJSON(ctx, s.cacheKey(id), public, userCacheTTL)
	return public, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]model.PublicUser, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return model.PublicUsers(users), nil
}

// ValidateUser confirms a user exists, bypassing the cache so callers
// gatekeeping on it always see the store's current state.
func (s *userService) ValidateUser(ctx context.Context, id string) (*model.PublicUser, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}
