package adjustment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/onevtu/onevtu/internal/account"
	"github.com/onevtu/onevtu/internal/ledger"
	"github.com/onevtu/onevtu/internal/transaction"
)

// ErrInvalidAmount indicates a non-positive adjustment amount.
var ErrInvalidAmount = errors.New("invalid adjustment amount")

// Service applies operator-initiated wallet corrections. Every adjustment
// moves money through the ledger and leaves a success record with the
// operator and note in the metadata, so corrections show up in the account's
// history like any other transaction.
type Service struct {
	ledger   ledger.Ledger
	records  transaction.Store
	accounts *account.Service
	logger   *slog.Logger
}

// NewService constructs an adjustment service.
func NewService(ledgerBackend ledger.Ledger, records transaction.Store, accounts *account.Service,
	logger *slog.Logger) (*Service, error) {
	if accounts == nil {
		return nil, fmt.Errorf("account service is required")
	}
	return &Service{ledger: ledgerBackend, records: records, accounts: accounts, logger: logger}, nil
}

// Input captures one wallet adjustment. AdjustedBy identifies the operator
// for the audit trail.
type Input struct {
	AccountID  string
	Amount     int64
	Note       string
	AdjustedBy string
}

// Credit adds funds to a wallet and records it as wallet-funding.
func (s *Service) Credit(ctx context.Context, in Input) (transaction.Record, error) {
	return s.adjust(ctx, in, transaction.CategoryWalletFunding)
}

// Debit removes funds from a wallet and records it as wallet-debit. The
// ledger's conditional debit rejects overdrafts before anything is written.
func (s *Service) Debit(ctx context.Context, in Input) (transaction.Record, error) {
	return s.adjust(ctx, in, transaction.CategoryWalletDebit)
}

func (s *Service) adjust(ctx context.Context, in Input, category transaction.Category) (transaction.Record, error) {
	if in.Amount <= 0 {
		return transaction.Record{}, ErrInvalidAmount
	}

	acct, err := s.accounts.Get(ctx, in.AccountID)
	if err != nil {
		return transaction.Record{}, err
	}

	var (
		entry     ledger.Entry
		reference string
	)
	if category == transaction.CategoryWalletDebit {
		reference = "ADMIN-DEBIT-" + uuid.NewString()
		entry, err = s.ledger.Debit(ctx, acct.LedgerCode, in.Amount)
	} else {
		reference = "ADMIN-" + uuid.NewString()
		entry, err = s.ledger.Credit(ctx, acct.LedgerCode, in.Amount)
	}
	if err != nil {
		return transaction.Record{}, err
	}

	note := in.Note
	if note == "" {
		note = "wallet adjustment"
	}
	now := time.Now().UTC()
	rec := transaction.Record{
		ID:              uuid.NewString(),
		AccountID:       in.AccountID,
		Category:        category,
		Counterparty:    "Admin",
		Recipient:       acct.Email,
		Amount:          in.Amount,
		PreviousBalance: entry.Previous,
		NewBalance:      entry.New,
		Status:          transaction.StatusSuccess,
		Reference:       reference,
		Metadata: map[string]string{
			"type":        adjustmentType(category),
			"note":        note,
			"adjusted_by": in.AdjustedBy,
		},
		CreatedAt:   now,
		CompletedAt: &now,
	}
	if err := s.records.Create(ctx, rec); err != nil {
		// The money moved; a missing record is an audit gap, not a reason to
		// reverse the adjustment.
		s.logger.Error("record wallet adjustment", "reference", reference, "error", err)
		return rec, fmt.Errorf("record adjustment: %w", err)
	}

	s.logger.Info("wallet adjusted",
		"reference", reference, "account", in.AccountID, "category", string(category),
		"amount_kobo", in.Amount, "balance_kobo", entry.New, "adjusted_by", in.AdjustedBy)
	return rec, nil
}

func adjustmentType(category transaction.Category) string {
	if category == transaction.CategoryWalletDebit {
		return "admin_debit"
	}
	return "admin_credit"
}
