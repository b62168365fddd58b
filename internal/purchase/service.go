package purchase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/onevtu/onevtu/internal/account"
	"github.com/onevtu/onevtu/internal/billing"
	"github.com/onevtu/onevtu/internal/ledger"
	"github.com/onevtu/onevtu/internal/notification"
	"github.com/onevtu/onevtu/internal/transaction"
)

var (
	// ErrInvalidAmount indicates a non-positive amount or one below the
	// category minimum. No mutation has occurred.
	ErrInvalidAmount = errors.New("invalid purchase amount")

	// ErrProviderFailure indicates the billing API declined, errored or timed
	// out. The debit has been reversed; the raw payload lives on the record.
	ErrProviderFailure = errors.New("provider purchase failed, funds restored")

	// ErrUnsupportedCategory indicates a category with no configured biller.
	ErrUnsupportedCategory = errors.New("unsupported purchase category")
)

// minimums holds the floor per category in kobo. Cable-tv deliberately has
// none: plan prices come from the biller catalog, so the caller-side floor
// applies only where users type free amounts.
var minimums = map[transaction.Category]int64{
	transaction.CategoryAirtime:     5_000,   // NGN 50
	transaction.CategoryData:        5_000,   // NGN 50
	transaction.CategoryElectricity: 100_000, // NGN 1,000
}

var referencePrefixes = map[transaction.Category]string{
	transaction.CategoryAirtime:     "AIR",
	transaction.CategoryData:        "DATA",
	transaction.CategoryCableTV:     "CABLE",
	transaction.CategoryElectricity: "ELEC",
}

// DefaultProviderTimeout bounds a billing API call when no timeout is
// configured.
const DefaultProviderTimeout = 30 * time.Second

// Service orchestrates a purchase: optimistic ledger debit, provider call,
// and either a success record or a compensating refund. Once the debit lands
// the attempt always terminates in exactly one record, success or refunded.
type Service struct {
	ledger          ledger.Ledger
	records         transaction.Store
	billers         billing.Billers
	accounts        *account.Service
	notifier        notification.Notifier
	logger          *slog.Logger
	providerTimeout time.Duration
}

// NewService constructs the purchase orchestrator.
func NewService(ledgerBackend ledger.Ledger, records transaction.Store, billers billing.Billers,
	accounts *account.Service, notifier notification.Notifier, logger *slog.Logger,
	providerTimeout time.Duration) (*Service, error) {
	if accounts == nil {
		return nil, fmt.Errorf("account service is required")
	}
	if len(billers) == 0 {
		return nil, fmt.Errorf("at least one biller is required")
	}
	if providerTimeout <= 0 {
		providerTimeout = DefaultProviderTimeout
	}
	return &Service{
		ledger:          ledgerBackend,
		records:         records,
		billers:         billers,
		accounts:        accounts,
		notifier:        notifier,
		logger:          logger,
		providerTimeout: providerTimeout,
	}, nil
}

// Input captures one purchase attempt. Counterparty is the network for
// airtime/data and the biller name for cable-tv/electricity.
type Input struct {
	AccountID    string
	Category     transaction.Category
	Counterparty string
	Recipient    string
	Amount       int64
	Metadata     map[string]string
}

// Purchase runs a purchase attempt to completion. The returned record is the
// audit trail of what happened; on ErrProviderFailure it is the refunded
// record with the raw failure payload attached.
func (s *Service) Purchase(ctx context.Context, input Input) (transaction.Record, error) {
	biller, ok := s.billers[input.Category]
	if !ok {
		return transaction.Record{}, ErrUnsupportedCategory
	}
	if input.Recipient == "" {
		return transaction.Record{}, fmt.Errorf("recipient is required")
	}
	if input.Amount <= 0 {
		return transaction.Record{}, ErrInvalidAmount
	}
	if min := minimums[input.Category]; input.Amount < min {
		return transaction.Record{}, fmt.Errorf("%w: minimum for %s is %d kobo", ErrInvalidAmount, input.Category, min)
	}

	acct, err := s.accounts.Get(ctx, input.AccountID)
	if err != nil {
		return transaction.Record{}, err
	}

	reference := fmt.Sprintf("%s-%s", referencePrefixes[input.Category], uuid.NewString())

	// The balance check and the debit are a single conditional update inside
	// the ledger, so a rejected purchase never mutates anything and no record
	// is written for it.
	entry, err := s.ledger.Debit(ctx, acct.LedgerCode, input.Amount)
	if err != nil {
		return transaction.Record{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	resp, submitErr := biller.Submit(callCtx, billing.PurchaseRequest{
		Counterparty: input.Counterparty,
		Recipient:    input.Recipient,
		Amount:       input.Amount,
		PlanID:       input.Metadata["plan_id"],
	})
	cancel()

	// Once the debit lands the attempt has to terminate in a record even if
	// the caller hangs up mid-call, so the compensating credit and the record
	// write run on a context that survives cancellation.
	ctx = context.WithoutCancel(ctx)

	rec := transaction.Record{
		ID:              uuid.NewString(),
		AccountID:       input.AccountID,
		Category:        input.Category,
		Counterparty:    input.Counterparty,
		Recipient:       input.Recipient,
		Amount:          input.Amount,
		PreviousBalance: entry.Previous,
		Reference:       reference,
		Metadata:        input.Metadata,
		CreatedAt:       time.Now().UTC(),
	}

	if submitErr == nil && resp.Succeeded {
		now := time.Now().UTC()
		rec.Status = transaction.StatusSuccess
		rec.NewBalance = entry.New
		rec.ProviderResponse = resp.Raw
		rec.CompletedAt = &now
		if err := s.records.Create(ctx, rec); err != nil {
			return transaction.Record{}, fmt.Errorf("record purchase: %w", err)
		}
		if s.notifier != nil {
			_ = s.notifier.Send(ctx, notification.Message{
				Kind:        notification.KindPurchase,
				Destination: acct.Email,
				Reference:   reference,
				Body:        fmt.Sprintf("%s purchase of %d kobo for %s succeeded", input.Category, input.Amount, input.Recipient),
			})
		}
		return rec, nil
	}

	// Compensating refund: restore exactly the debited amount rather than
	// recomputing from the current balance, so concurrent postings are never
	// compounded into the reversal.
	failure := resp.Raw
	if submitErr != nil {
		failure = []byte(fmt.Sprintf(`{"error":%q}`, submitErr.Error()))
	}
	rec.ProviderResponse = failure

	if _, creditErr := s.ledger.Credit(ctx, acct.LedgerCode, input.Amount); creditErr != nil {
		// The debit stands; record the attempt as failed so a later manual
		// refund can move it to refunded.
		s.logger.Error("purchase refund failed",
			"reference", reference, "account", input.AccountID, "error", creditErr)
		rec.Status = transaction.StatusFailed
		rec.NewBalance = entry.New
		if err := s.records.Create(ctx, rec); err != nil {
			s.logger.Error("record failed purchase", "reference", reference, "error", err)
		}
		return rec, ErrProviderFailure
	}

	rec.Status = transaction.StatusRefunded
	rec.NewBalance = entry.Previous
	if err := s.records.Create(ctx, rec); err != nil {
		return transaction.Record{}, fmt.Errorf("record refunded purchase: %w", err)
	}
	s.logger.Warn("purchase refunded after provider failure",
		"reference", reference, "category", string(input.Category), "account", input.AccountID)
	return rec, ErrProviderFailure
}
