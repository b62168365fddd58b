package funding

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/onevtu/onevtu/internal/account"
	"github.com/onevtu/onevtu/internal/ledger"
	"github.com/onevtu/onevtu/internal/logging"
	"github.com/onevtu/onevtu/internal/paystack"
	"github.com/onevtu/onevtu/internal/transaction"
)

const testSecret = "sk_test_webhook_secret"

type fixture struct {
	ledger   ledger.Ledger
	records  transaction.Store
	accounts *account.Service
	gateway  *paystack.StaticGateway
	acct     account.Account
}

func newFixture(t *testing.T) (*Service, *fixture) {
	t.Helper()

	led := ledger.NewInMemory()
	records := transaction.NewMemoryStore()
	accounts := account.NewService(account.NewMemoryRepository(), led)
	gateway := paystack.NewStaticGateway()

	acct, err := accounts.Register(context.Background(), account.RegisterInput{
		Name: "Ada Obi", Email: "ada@example.com", Password: "pw123456",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	svc, err := NewService(led, records, accounts, gateway, NewMemoryLocker(), nil,
		logging.Discard(), testSecret, "https://app.example.com/dashboard")
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, &fixture{ledger: led, records: records, accounts: accounts, gateway: gateway, acct: acct}
}

func signedBody(reference string, amount int64) ([]byte, string) {
	body := []byte(fmt.Sprintf(`{"event":"charge.success","data":{"reference":%q,"amount":%d}}`, reference, amount))
	mac := hmac.New(sha512.New, []byte(testSecret))
	mac.Write(body)
	return body, hex.EncodeToString(mac.Sum(nil))
}

func TestInitializeCreatesPendingRecord(t *testing.T) {
	svc, fx := newFixture(t)
	ctx := context.Background()

	result, err := svc.Initialize(ctx, fx.acct.ID, 50_000)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if result.AuthorizationURL == "" || result.Reference == "" {
		t.Fatalf("incomplete result: %+v", result)
	}

	rec, err := fx.records.FindByReference(ctx, result.Reference)
	if err != nil {
		t.Fatalf("record not created: %v", err)
	}
	if rec.Status != transaction.StatusPending {
		t.Fatalf("expected pending, got %s", rec.Status)
	}
	if rec.Category != transaction.CategoryWalletFunding || rec.Recipient != fx.acct.Email {
		t.Fatalf("unexpected record: %+v", rec)
	}

	// Initialization never credits.
	balance, _ := fx.ledger.Balance(ctx, fx.acct.LedgerCode)
	if balance != 0 {
		t.Fatalf("initialize must not credit, balance=%d", balance)
	}
}

func TestInitializeRejectsBelowMinimum(t *testing.T) {
	svc, fx := newFixture(t)

	if _, err := svc.Initialize(context.Background(), fx.acct.ID, 5_000); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
}

func TestWebhookCreditsExactlyOnce(t *testing.T) {
	svc, fx := newFixture(t)
	ctx := context.Background()

	result, err := svc.Initialize(ctx, fx.acct.ID, 50_000)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	body, signature := signedBody(result.Reference, 50_000)
	if err := svc.HandleWebhook(ctx, body, signature); err != nil {
		t.Fatalf("first delivery: %v", err)
	}

	balance, _ := fx.ledger.Balance(ctx, fx.acct.LedgerCode)
	if balance != 50_000 {
		t.Fatalf("expected balance 50000, got %d", balance)
	}
	rec, _ := fx.records.FindByReference(ctx, result.Reference)
	if rec.Status != transaction.StatusSuccess || rec.NewBalance != 50_000 || rec.CompletedAt == nil {
		t.Fatalf("unexpected settled record: %+v", rec)
	}

	// Identical redelivery is an idempotent no-op.
	if err := svc.HandleWebhook(ctx, body, signature); err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	balance, _ = fx.ledger.Balance(ctx, fx.acct.LedgerCode)
	if balance != 50_000 {
		t.Fatalf("double credit: balance=%d", balance)
	}
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	svc, fx := newFixture(t)
	ctx := context.Background()

	result, _ := svc.Initialize(ctx, fx.acct.ID, 50_000)
	body, _ := signedBody(result.Reference, 50_000)

	if err := svc.HandleWebhook(ctx, body, "deadbeef"); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}

	balance, _ := fx.ledger.Balance(ctx, fx.acct.LedgerCode)
	if balance != 0 {
		t.Fatalf("rejected webhook must not mutate, balance=%d", balance)
	}
	rec, _ := fx.records.FindByReference(ctx, result.Reference)
	if rec.Status != transaction.StatusPending {
		t.Fatalf("rejected webhook must not touch the record: %s", rec.Status)
	}
}

func TestWebhookIgnoresUnknownReference(t *testing.T) {
	svc, _ := newFixture(t)

	body, signature := signedBody("FUND-from-another-environment", 10_000)
	if err := svc.HandleWebhook(context.Background(), body, signature); err != nil {
		t.Fatalf("unknown reference must be ignored, got %v", err)
	}
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	svc, fx := newFixture(t)
	ctx := context.Background()

	result, _ := svc.Initialize(ctx, fx.acct.ID, 50_000)

	body := []byte(fmt.Sprintf(`{"event":"charge.dispute.create","data":{"reference":%q,"amount":50000}}`, result.Reference))
	mac := hmac.New(sha512.New, []byte(testSecret))
	mac.Write(body)
	if err := svc.HandleWebhook(ctx, body, hex.EncodeToString(mac.Sum(nil))); err != nil {
		t.Fatalf("non-charge event: %v", err)
	}

	balance, _ := fx.ledger.Balance(ctx, fx.acct.LedgerCode)
	if balance != 0 {
		t.Fatalf("non-charge event must not credit, balance=%d", balance)
	}
}

func TestVerifySettlesAndIsIdempotent(t *testing.T) {
	svc, fx := newFixture(t)
	ctx := context.Background()

	result, err := svc.Initialize(ctx, fx.acct.ID, 75_000)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	verified, err := svc.Verify(ctx, fx.acct.ID, result.Reference)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verified.AlreadySettled || verified.Balance != 75_000 {
		t.Fatalf("unexpected verify result: %+v", verified)
	}

	verified, err = svc.Verify(ctx, fx.acct.ID, result.Reference)
	if err != nil {
		t.Fatalf("repeat verify: %v", err)
	}
	if !verified.AlreadySettled {
		t.Fatal("repeat verify must report already settled")
	}
	balance, _ := fx.ledger.Balance(ctx, fx.acct.LedgerCode)
	if balance != 75_000 {
		t.Fatalf("double credit through verify: %d", balance)
	}
}

func TestVerifyGuards(t *testing.T) {
	svc, fx := newFixture(t)
	ctx := context.Background()

	if _, err := svc.Verify(ctx, fx.acct.ID, "FUND-missing"); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	result, _ := svc.Initialize(ctx, fx.acct.ID, 50_000)
	if _, err := svc.Verify(ctx, "someone-else", result.Reference); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("foreign reference must look missing, got %v", err)
	}

	// A record whose charge the gateway has no success for cannot settle.
	other := transaction.Record{
		ID: "rec-2", AccountID: fx.acct.ID, Category: transaction.CategoryWalletFunding,
		Recipient: fx.acct.Email, Amount: 20_000, Status: transaction.StatusPending,
		Reference: "FUND-never-paid",
	}
	if err := fx.records.Create(ctx, other); err != nil {
		t.Fatalf("create record: %v", err)
	}
	if _, err := svc.Verify(ctx, fx.acct.ID, "FUND-never-paid"); !errors.Is(err, ErrPaymentNotCompleted) {
		t.Fatalf("expected payment not completed, got %v", err)
	}
}

func TestConcurrentWebhooksCreditOnce(t *testing.T) {
	svc, fx := newFixture(t)
	ctx := context.Background()

	result, err := svc.Initialize(ctx, fx.acct.ID, 50_000)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	body, signature := signedBody(result.Reference, 50_000)

	const deliveries = 8
	var wg sync.WaitGroup
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Losing deliveries may observe the in-flight lock; the gateway
			// would redeliver those, which the settled record then absorbs.
			if err := svc.HandleWebhook(ctx, body, signature); err != nil && !errors.Is(err, ErrSettlementInProgress) {
				t.Errorf("unexpected webhook error: %v", err)
			}
		}()
	}
	wg.Wait()

	balance, _ := fx.ledger.Balance(ctx, fx.acct.LedgerCode)
	if balance != 50_000 {
		t.Fatalf("reference credited more than once: balance=%d", balance)
	}
}
