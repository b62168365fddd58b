package transaction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// PostgresStore persists transaction records in PostgreSQL. The reference
// column carries a unique index; (account_id, created_at desc) is indexed for
// history listings.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a Postgres-backed record store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const recordColumns = `id, account_id, category, counterparty, recipient, amount,
    previous_balance, new_balance, status, reference, provider_response, metadata,
    created_at, completed_at`

// Create inserts a record. A reference collision surfaces as
// ErrDuplicateReference and never overwrites the existing row.
func (s *PostgresStore) Create(ctx context.Context, rec Record) error {
	if err := validate(rec); err != nil {
		return err
	}
	if rec.Status == "" {
		rec.Status = StatusPending
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	_, err = s.db.Exec(ctx, `INSERT INTO transactions
        (id, account_id, category, counterparty, recipient, amount,
         previous_balance, new_balance, status, reference, provider_response, metadata,
         created_at, completed_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		rec.ID, rec.AccountID, string(rec.Category), rec.Counterparty, rec.Recipient, rec.Amount,
		rec.PreviousBalance, rec.NewBalance, string(rec.Status), rec.Reference,
		[]byte(rec.ProviderResponse), metadata, rec.CreatedAt.UTC(), rec.CompletedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateReference
		}
		return err
	}
	return nil
}

// FindByReference fetches the record owning the given reference.
func (s *PostgresStore) FindByReference(ctx context.Context, reference string) (Record, error) {
	row := s.db.QueryRow(ctx, `SELECT `+recordColumns+` FROM transactions WHERE reference = $1`, reference)
	return scanRecord(row)
}

// GetForAccount fetches a record by id scoped to its owning account.
func (s *PostgresStore) GetForAccount(ctx context.Context, accountID, id string) (Record, error) {
	row := s.db.QueryRow(ctx, `SELECT `+recordColumns+` FROM transactions
        WHERE id = $1 AND account_id = $2`, id, accountID)
	return scanRecord(row)
}

// List returns an account's records newest first, with optional status and
// category filters plus the unpaginated total.
func (s *PostgresStore) List(ctx context.Context, accountID string, f Filter) ([]Record, int, error) {
	where := `WHERE account_id = $1`
	args := []any{accountID}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if f.Category != "" {
		args = append(args, string(f.Category))
		where += fmt.Sprintf(` AND category = $%d`, len(args))
	}

	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + recordColumns + ` FROM transactions ` + where + ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

// UpdateStatus moves a record through the state machine. Attempts against an
// already successful record return ErrAlreadySettled with the current row.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status Status) (Record, error) {
	row := s.db.QueryRow(ctx, `SELECT `+recordColumns+` FROM transactions WHERE id = $1`, id)
	current, err := scanRecord(row)
	if err != nil {
		return Record{}, err
	}
	if current.Status == StatusSuccess {
		return current, ErrAlreadySettled
	}
	if !CanTransition(current.Status, status) {
		return Record{}, ErrInvalidTransition
	}

	// The status predicate re-checks the transition so a concurrent writer
	// cannot slip a second update through.
	updated := s.db.QueryRow(ctx, `UPDATE transactions SET status = $2
        WHERE id = $1 AND status = $3
        RETURNING `+recordColumns, id, string(status), string(current.Status))
	rec, err := scanRecord(updated)
	if errors.Is(err, ErrNotFound) {
		return Record{}, ErrInvalidTransition
	}
	return rec, err
}

// Settle atomically claims the record for settlement: the row moves to
// success at most once, no matter how many callers race on the reference.
func (s *PostgresStore) Settle(ctx context.Context, reference string, newBalance int64, completedAt time.Time) (Record, error) {
	row := s.db.QueryRow(ctx, `UPDATE transactions
        SET status = $2, new_balance = $3, completed_at = $4
        WHERE reference = $1 AND status <> $2
        RETURNING `+recordColumns,
		reference, string(StatusSuccess), newBalance, completedAt.UTC())
	rec, err := scanRecord(row)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Record{}, err
	}

	// No row claimed: settled already, or the reference is unknown.
	existing, findErr := s.FindByReference(ctx, reference)
	if findErr != nil {
		return Record{}, findErr
	}
	return existing, ErrAlreadySettled
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec         Record
		category    string
		status      string
		response    []byte
		metadata    []byte
		createdAt   time.Time
		completedAt *time.Time
	)
	err := row.Scan(&rec.ID, &rec.AccountID, &category, &rec.Counterparty, &rec.Recipient,
		&rec.Amount, &rec.PreviousBalance, &rec.NewBalance, &status, &rec.Reference,
		&response, &metadata, &createdAt, &completedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	rec.Category = Category(category)
	rec.Status = Status(status)
	rec.ProviderResponse = response
	rec.CreatedAt = createdAt.UTC()
	if completedAt != nil {
		done := completedAt.UTC()
		rec.CompletedAt = &done
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &rec.Metadata); err != nil {
			return Record{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return rec, nil
}
