package transaction

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDuplicateReference indicates the reference already exists. References
	// are the idempotency key for settlement, so creation never overwrites.
	ErrDuplicateReference = errors.New("duplicate transaction reference")

	// ErrNotFound indicates no record matches the lookup.
	ErrNotFound = errors.New("transaction not found")

	// ErrAlreadySettled indicates the record is already in the terminal
	// success state. Callers treat this as an idempotent no-op.
	ErrAlreadySettled = errors.New("transaction already settled")

	// ErrInvalidTransition indicates a status change the state machine forbids.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidRecord indicates a record missing required fields.
	ErrInvalidRecord = errors.New("invalid transaction record")
)

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Status   Status
	Category Category
	Limit    int
	Offset   int
}

// Store persists transaction records. Implementations must enforce reference
// uniqueness and make Settle an atomic claim: a record moves to success at
// most once no matter how many concurrent callers race on it.
type Store interface {
	Create(ctx context.Context, rec Record) error
	FindByReference(ctx context.Context, reference string) (Record, error)
	GetForAccount(ctx context.Context, accountID, id string) (Record, error)
	List(ctx context.Context, accountID string, f Filter) ([]Record, int, error)
	UpdateStatus(ctx context.Context, id string, status Status) (Record, error)
	Settle(ctx context.Context, reference string, newBalance int64, completedAt time.Time) (Record, error)
}

func validate(rec Record) error {
	if rec.ID == "" || rec.AccountID == "" || rec.Reference == "" || rec.Recipient == "" {
		return ErrInvalidRecord
	}
	if !rec.Category.Valid() {
		return ErrInvalidRecord
	}
	if rec.Amount <= 0 {
		return ErrInvalidRecord
	}
	return nil
}
