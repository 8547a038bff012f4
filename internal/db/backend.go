// Package db holds the persistence backends of the user store. Every backend
// loads and saves the whole user collection as one unit; callers never see a
// partially written collection.
package db

import (
	"context"

	"usersvc/internal/model"
)

// Backend loads and replaces the full, ordered user collection.
type Backend interface {
	// Load returns every stored user in insertion order, initializing empty
	// storage on first use.
	Load(ctx context.Context) ([]model.User, error)
	// Save replaces the stored collection with users.
	Save(ctx context.Context, users []model.User) error
}

func cloneUsers(users []model.User) []model.User {
	out := make([]model.User, len(users))
	copy(out, users)
	return out
}
