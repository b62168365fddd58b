package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger persists account balances in PostgreSQL. Postings are
// single-statement conditional updates so concurrent debits on the same
// account are linearized by the database.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// EnsureAccount guarantees a zero-balance account exists for the provided code.
func (l *PostgresLedger) EnsureAccount(ctx context.Context, code string) error {
	_, err := l.db.Exec(ctx, `INSERT INTO ledger_accounts (id, code, balance) VALUES ($1, $2, 0)
        ON CONFLICT (code) DO NOTHING`, uuid.New(), code)
	return err
}

// Balance returns the current balance for the specified account code.
func (l *PostgresLedger) Balance(ctx context.Context, code string) (int64, error) {
	var balance int64
	err := l.db.QueryRow(ctx, `SELECT balance FROM ledger_accounts WHERE code = $1`, code).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}
	return balance, nil
}

// Debit decrements the account balance, failing without mutation when the
// balance cannot cover the amount. The balance guard lives in the UPDATE
// predicate, never in application code.
func (l *PostgresLedger) Debit(ctx context.Context, code string, amount int64) (Entry, error) {
	if amount <= 0 {
		return Entry{}, ErrInvalidAmount
	}

	var newBalance int64
	err := l.db.QueryRow(ctx, `UPDATE ledger_accounts SET balance = balance - $2
        WHERE code = $1 AND balance >= $2
        RETURNING balance`, code, amount).Scan(&newBalance)
	if err == nil {
		return Entry{Previous: newBalance + amount, New: newBalance}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, err
	}

	// No row matched: either the account is missing or the balance is short.
	if _, balErr := l.Balance(ctx, code); balErr != nil {
		return Entry{}, balErr
	}
	return Entry{}, ErrInsufficientFunds
}

// Credit increments the account balance. It never checks for negative values
// and fails only when the account does not exist.
func (l *PostgresLedger) Credit(ctx context.Context, code string, amount int64) (Entry, error) {
	if amount <= 0 {
		return Entry{}, ErrInvalidAmount
	}

	var newBalance int64
	err := l.db.QueryRow(ctx, `UPDATE ledger_accounts SET balance = balance + $2
        WHERE code = $1
        RETURNING balance`, code, amount).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrAccountNotFound
		}
		return Entry{}, err
	}
	return Entry{Previous: newBalance - amount, New: newBalance}, nil
}
