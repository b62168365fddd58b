package funding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/onevtu/onevtu/internal/account"
	"github.com/onevtu/onevtu/internal/ledger"
	"github.com/onevtu/onevtu/internal/notification"
	"github.com/onevtu/onevtu/internal/paystack"
	"github.com/onevtu/onevtu/internal/transaction"
)

var (
	// ErrInvalidAmount indicates a funding amount below the minimum.
	ErrInvalidAmount = errors.New("invalid funding amount")

	// ErrInvalidSignature indicates a webhook that fails authentication. No
	// state changes and no detail beyond a generic rejection leaves the
	// handler.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrTransactionNotFound indicates a verify call for an unknown or
	// foreign reference.
	ErrTransactionNotFound = errors.New("funding transaction not found")

	// ErrPaymentNotCompleted indicates the gateway does not (yet) report the
	// charge as successful.
	ErrPaymentNotCompleted = errors.New("payment not completed")
)

// MinFundingAmount is the smallest accepted top-up in kobo (NGN 100).
const MinFundingAmount = 10_000

const gatewayName = "Paystack"

// Service reconciles payment-gateway confirmations with the wallet ledger.
// Both the webhook and the polled verify path converge on settle, which
// credits a reference at most once.
type Service struct {
	ledger   ledger.Ledger
	records  transaction.Store
	accounts *account.Service
	gateway  paystack.Gateway
	locks    ReferenceLocker
	notifier notification.Notifier
	logger   *slog.Logger

	webhookSecret []byte
	callbackURL   string
}

// NewService constructs a funding service.
func NewService(ledgerBackend ledger.Ledger, records transaction.Store, accounts *account.Service,
	gateway paystack.Gateway, locks ReferenceLocker, notifier notification.Notifier,
	logger *slog.Logger, webhookSecret, callbackURL string) (*Service, error) {
	if accounts == nil {
		return nil, fmt.Errorf("account service is required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway is required")
	}
	if locks == nil {
		locks = NewMemoryLocker()
	}
	return &Service{
		ledger:        ledgerBackend,
		records:       records,
		accounts:      accounts,
		gateway:       gateway,
		locks:         locks,
		notifier:      notifier,
		logger:        logger,
		webhookSecret: []byte(webhookSecret),
		callbackURL:   callbackURL,
	}, nil
}

// InitializeResult carries the hosted checkout handle back to the caller.
type InitializeResult struct {
	Reference        string
	AuthorizationURL string
	AccessCode       string
}

// Initialize opens a pending funding transaction and a gateway charge for it.
// The wallet is not credited here; that happens only on reconciliation.
func (s *Service) Initialize(ctx context.Context, accountID string, amount int64) (InitializeResult, error) {
	if amount < MinFundingAmount {
		return InitializeResult{}, fmt.Errorf("%w: minimum is %d kobo", ErrInvalidAmount, MinFundingAmount)
	}

	acct, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return InitializeResult{}, err
	}
	balance, err := s.ledger.Balance(ctx, acct.LedgerCode)
	if err != nil {
		return InitializeResult{}, err
	}

	reference := "FUND-" + uuid.NewString()
	rec := transaction.Record{
		ID:              uuid.NewString(),
		AccountID:       accountID,
		Category:        transaction.CategoryWalletFunding,
		Counterparty:    gatewayName,
		Recipient:       acct.Email,
		Amount:          amount,
		PreviousBalance: balance,
		NewBalance:      balance,
		Status:          transaction.StatusPending,
		Reference:       reference,
		Metadata:        map[string]string{"payment_method": "paystack"},
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return InitializeResult{}, fmt.Errorf("record funding: %w", err)
	}

	init, err := s.gateway.Initialize(ctx, paystack.InitializeRequest{
		Email:       acct.Email,
		Amount:      amount,
		Reference:   reference,
		CallbackURL: s.callbackURL,
		Metadata:    map[string]string{"account_id": accountID, "transaction_id": rec.ID},
	})
	if err != nil {
		// The pending record keeps the reference reserved; the charge was
		// never handed to the user so it can only stay unsettled.
		s.logger.Error("payment initialization failed", "reference", reference, "error", err)
		if _, updErr := s.records.UpdateStatus(ctx, rec.ID, transaction.StatusFailed); updErr != nil {
			s.logger.Error("mark funding failed", "reference", reference, "error", updErr)
		}
		return InitializeResult{}, fmt.Errorf("initialize payment: %w", err)
	}

	return InitializeResult{
		Reference:        reference,
		AuthorizationURL: init.AuthorizationURL,
		AccessCode:       init.AccessCode,
	}, nil
}

type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
	} `json:"data"`
}

// HandleWebhook processes a pushed gateway confirmation. The signature is
// checked against the exact raw body bytes before anything is parsed. An
// unknown reference is ignored: the record may belong to another environment
// sharing the gateway account.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !paystack.ValidSignature(s.webhookSecret, body, signature) {
		return ErrInvalidSignature
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("decode webhook payload: %w", err)
	}
	if event.Event != "charge.success" {
		s.logger.Debug("ignoring webhook event", "event", event.Event)
		return nil
	}

	_, err := s.settle(ctx, event.Data.Reference, event.Data.Amount)
	if errors.Is(err, ErrTransactionNotFound) {
		s.logger.Warn("webhook for unknown reference", "reference", event.Data.Reference)
		return nil
	}
	return err
}

// VerifyResult reports a polled reconciliation outcome.
type VerifyResult struct {
	Record         transaction.Record
	Balance        int64
	AlreadySettled bool
}

// Verify reconciles a reference on demand by asking the gateway for the
// authoritative charge status.
func (s *Service) Verify(ctx context.Context, accountID, reference string) (VerifyResult, error) {
	rec, err := s.records.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, transaction.ErrNotFound) {
			return VerifyResult{}, ErrTransactionNotFound
		}
		return VerifyResult{}, err
	}
	if rec.AccountID != accountID {
		return VerifyResult{}, ErrTransactionNotFound
	}
	if rec.Status == transaction.StatusSuccess {
		return VerifyResult{Record: rec, Balance: rec.NewBalance, AlreadySettled: true}, nil
	}

	status, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("verify payment: %w", err)
	}
	if status.Status != "success" {
		return VerifyResult{}, fmt.Errorf("%w: gateway status %q", ErrPaymentNotCompleted, status.Status)
	}

	settled, err := s.settle(ctx, reference, status.Amount)
	if err != nil {
		return VerifyResult{}, err
	}
	return VerifyResult{
		Record:         settled.record,
		Balance:        settled.record.NewBalance,
		AlreadySettled: !settled.credited,
	}, nil
}

type settleOutcome struct {
	record   transaction.Record
	credited bool
}

// settle credits the ledger and flips the record to success exactly once per
// reference. The per-reference lock serializes concurrent deliveries; the
// store's conditional claim backstops it.
func (s *Service) settle(ctx context.Context, reference string, amount int64) (settleOutcome, error) {
	if amount <= 0 {
		return settleOutcome{}, fmt.Errorf("%w: gateway amount %d", ErrInvalidAmount, amount)
	}

	release, err := s.locks.Acquire(ctx, reference)
	if err != nil {
		return settleOutcome{}, err
	}
	defer release()

	rec, err := s.records.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, transaction.ErrNotFound) {
			return settleOutcome{}, ErrTransactionNotFound
		}
		return settleOutcome{}, err
	}
	if rec.Status == transaction.StatusSuccess {
		return settleOutcome{record: rec, credited: false}, nil
	}

	acct, err := s.accounts.Get(ctx, rec.AccountID)
	if err != nil {
		return settleOutcome{}, err
	}
	entry, err := s.ledger.Credit(ctx, acct.LedgerCode, amount)
	if err != nil {
		return settleOutcome{}, fmt.Errorf("credit wallet: %w", err)
	}

	settled, err := s.records.Settle(ctx, reference, entry.New, time.Now().UTC())
	if err != nil {
		if errors.Is(err, transaction.ErrAlreadySettled) {
			// Cannot happen while the lock is honored; worth shouting about
			// because it means a credit raced past the guard.
			s.logger.Error("settle claim lost despite reference lock", "reference", reference)
			return settleOutcome{record: settled, credited: true}, nil
		}
		return settleOutcome{}, err
	}

	s.logger.Info("funding settled",
		"reference", reference, "account", rec.AccountID, "amount_kobo", amount, "balance_kobo", entry.New)
	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindWalletFunded,
			Destination: acct.Email,
			Reference:   reference,
			Body:        fmt.Sprintf("wallet funded with %d kobo", amount),
		})
	}
	return settleOutcome{record: settled, credited: true}, nil
}
