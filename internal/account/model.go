package account

import "time"

// Account represents a registered wallet owner. Its spendable balance lives
// in the ledger under LedgerCode; nothing here caches it.
type Account struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash []byte
	LedgerCode   string
	CreatedAt    time.Time
}
