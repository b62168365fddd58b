package ledger

import (
	"context"
	"sync"
)

type inMemoryLedger struct {
	mu       sync.RWMutex
	balances map[string]int64
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit
// tests and database-less development.
func NewInMemory() Ledger {
	return &inMemoryLedger{balances: make(map[string]int64)}
}

func (l *inMemoryLedger) EnsureAccount(_ context.Context, code string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.balances[code]; !exists {
		l.balances[code] = 0
	}
	return nil
}

func (l *inMemoryLedger) Balance(_ context.Context, code string) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	balance, exists := l.balances[code]
	if !exists {
		return 0, ErrAccountNotFound
	}
	return balance, nil
}

func (l *inMemoryLedger) Debit(_ context.Context, code string, amount int64) (Entry, error) {
	if amount <= 0 {
		return Entry{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance, exists := l.balances[code]
	if !exists {
		return Entry{}, ErrAccountNotFound
	}
	if balance < amount {
		return Entry{}, ErrInsufficientFunds
	}

	l.balances[code] = balance - amount
	return Entry{Previous: balance, New: balance - amount}, nil
}

func (l *inMemoryLedger) Credit(_ context.Context, code string, amount int64) (Entry, error) {
	if amount <= 0 {
		return Entry{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance, exists := l.balances[code]
	if !exists {
		return Entry{}, ErrAccountNotFound
	}

	l.balances[code] = balance + amount
	return Entry{Previous: balance, New: balance + amount}, nil
}
