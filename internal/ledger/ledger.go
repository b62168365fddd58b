package ledger

import (
	"context"
	"errors"
)

var (
	// ErrInsufficientFunds occurs when a debit would take the account balance
	// below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAccountNotFound indicates the referenced ledger account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidAmount indicates a zero or negative posting amount.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Entry captures the balance snapshots around a single posting. Amounts are
// kobo (currency minor units) throughout the ledger.
type Entry struct {
	Previous int64
	New      int64
}

// Ledger defines the contract implemented by balance backends (e.g. Postgres).
// Debit and Credit must be atomic relative to concurrent postings on the same
// account: two concurrent debits may never take a balance negative.
type Ledger interface {
	EnsureAccount(ctx context.Context, code string) error
	Balance(ctx context.Context, code string) (int64, error)
	Debit(ctx context.Context, code string, amount int64) (Entry, error)
	Credit(ctx context.Context, code string, amount int64) (Entry, error)
}
