package account

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]Account
	byEmail map[string]string
}

// NewMemoryRepository builds an in-memory account store for testing and
// database-less development.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:    make(map[string]Account),
		byEmail: make(map[string]string),
	}
}

func (r *memoryRepository) Create(_ context.Context, acct Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[acct.Email]; exists {
		return ErrEmailTaken
	}
	r.byID[acct.ID] = acct
	r.byEmail[acct.Email] = acct.ID
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acct, ok := r.byID[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acct, nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return Account{}, ErrNotFound
	}
	return r.byID[id], nil
}
