package transaction

import (
	"encoding/json"
	"time"
)

// Category identifies the service a transaction record belongs to. The set is
// closed; records with any other value are rejected at creation.
type Category string

const (
	CategoryAirtime       Category = "airtime"
	CategoryData          Category = "data"
	CategoryCableTV       Category = "cable-tv"
	CategoryElectricity   Category = "electricity"
	CategoryWalletFunding Category = "wallet-funding"
	CategoryWalletDebit   Category = "wallet-debit"
)

// Valid reports whether the category is one of the known service types.
func (c Category) Valid() bool {
	switch c {
	case CategoryAirtime, CategoryData, CategoryCableTV, CategoryElectricity,
		CategoryWalletFunding, CategoryWalletDebit:
		return true
	}
	return false
}

// Status tracks a record through its settlement lifecycle.
type Status string

const (
	StatusPending  Status = "pending"
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusRefunded Status = "refunded"
)

// allowedTransitions encodes the record state machine. Success and refunded
// are terminal; a failed purchase may still move to refunded once the
// compensating credit lands.
var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {StatusSuccess: true, StatusFailed: true, StatusRefunded: true},
	StatusFailed:  {StatusRefunded: true},
}

// CanTransition reports whether a record may move from one status to another.
func CanTransition(from, to Status) bool {
	return allowedTransitions[from][to]
}

// Record is the audit trail of a single money movement. Records are created
// once per attempt and never deleted. Amounts are kobo.
type Record struct {
	ID               string
	AccountID        string
	Category         Category
	Counterparty     string // network or biller name, category dependent
	Recipient        string // phone, meter, smartcard number or email
	Amount           int64
	PreviousBalance  int64
	NewBalance       int64
	Status           Status
	Reference        string // globally unique, the sole deduplication key
	ProviderResponse json.RawMessage
	Metadata         map[string]string
	CreatedAt        time.Time
	CompletedAt      *time.Time
}
