package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates no account matches the lookup.
	ErrNotFound = errors.New("account not found")
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
)

// Repository persists accounts.
type Repository interface {
	Create(ctx context.Context, acct Account) error
	Get(ctx context.Context, id string) (Account, error)
	FindByEmail(ctx context.Context, email string) (Account, error)
}

// PostgresRepository stores accounts in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts an account record.
func (r *PostgresRepository) Create(ctx context.Context, acct Account) error {
	accountID, err := uuid.Parse(acct.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO accounts (id, name, email, phone, password_hash, ledger_code, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		accountID, acct.Name, acct.Email, acct.Phone, acct.PasswordHash, acct.LedgerCode, acct.CreatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

// Get fetches an account by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Account, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return Account{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, name, email, phone, password_hash, ledger_code, created_at
        FROM accounts WHERE id = $1`, accountID)
	return scanAccount(row)
}

// FindByEmail fetches an account by email address.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, email, phone, password_hash, ledger_code, created_at
        FROM accounts WHERE email = $1`, email)
	return scanAccount(row)
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		acct      Account
		id        uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&id, &acct.Name, &acct.Email, &acct.Phone, &acct.PasswordHash, &acct.LedgerCode, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	acct.ID = id.String()
	acct.CreatedAt = createdAt.UTC()
	return acct, nil
}
