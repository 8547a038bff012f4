package db

import (
	"context"
	"sync"

	"usersvc/internal/model"
)

// MemoryBackend keeps the collection in process memory. Used by tests and by
// STORE_DRIVER=memory for throwaway instances.
type MemoryBackend struct {
	mu    sync.RWMutex
	users []model.User
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend creates a backend preloaded with users.
func NewMemoryBackend(users ...model.User) *MemoryBackend {
	return &MemoryBackend{users: cloneUsers(users)}
}

func (b *MemoryBackend) Load(ctx context.Context) ([]model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return cloneUsers(b.users), nil
}

func (b *MemoryBackend) Save(ctx context.Context, users []model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users = cloneUsers(users)
	return nil
}
