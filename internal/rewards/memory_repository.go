package rewards

import (
	"context"
	"sync"
)

// memoryRepository implements Repository with in-process storage. It backs
// local development (DATASTORE=memory) and tests.
type memoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]*Account
	codes    map[string]struct{}
}

// NewMemoryRepository creates a new in-memory repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		accounts: make(map[string]*Account),
		codes:    make(map[string]struct{}),
	}
}

func (r *memoryRepository) Get(_ context.Context, userID string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[userID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return account.Clone(), nil
}

func (r *memoryRepository) Create(_ context.Context, account *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.UserID]; ok {
		return ErrConflict
	}
	r.accounts[account.UserID] = account.Clone()
	return nil
}

func (r *memoryRepository) Update(_ context.Context, account *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.accounts[account.UserID]
	if !ok {
		return ErrAccountNotFound
	}
	if stored.Version != account.Version {
		return ErrConflict
	}

	next := account.Clone()
	next.Version++
	r.accounts[account.UserID] = next
	account.Version = next.Version
	return nil
}

func (r *memoryRepository) List(_ context.Context) ([]Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accounts := make([]Account, 0, len(r.accounts))
	for _, account := range r.accounts {
		accounts = append(accounts, *account.Clone())
	}
	return accounts, nil
}

func (r *memoryRepository) ReserveClaimCode(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.codes[code]; ok {
		return ErrCodeCollision
	}
	r.codes[code] = struct{}{}
	return nil
}
