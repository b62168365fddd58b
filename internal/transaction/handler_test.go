package transaction

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func seedHistory(t *testing.T) Store {
	t.Helper()
	store := NewMemoryStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	recs := []Record{
		{ID: "tx-1", AccountID: "acct-1", Category: CategoryAirtime, Counterparty: "MTN",
			Recipient: "08030000001", Amount: 20_000, PreviousBalance: 100_000, NewBalance: 80_000,
			Status: StatusSuccess, Reference: "AIR-1", CreatedAt: base},
		{ID: "tx-2", AccountID: "acct-1", Category: CategoryData, Counterparty: "Airtel",
			Recipient: "08030000002", Amount: 30_000, PreviousBalance: 80_000, NewBalance: 80_000,
			Status: StatusRefunded, Reference: "DATA-1", CreatedAt: base.Add(time.Minute)},
		{ID: "tx-3", AccountID: "acct-2", Category: CategoryAirtime, Counterparty: "Glo",
			Recipient: "08030000003", Amount: 10_000, PreviousBalance: 50_000, NewBalance: 40_000,
			Status: StatusSuccess, Reference: "AIR-2", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, rec := range recs {
		if err := store.Create(context.Background(), rec); err != nil {
			t.Fatalf("seed %s: %v", rec.ID, err)
		}
	}
	return store
}

func historyApp(t *testing.T) *fiber.App {
	t.Helper()
	h := NewHandler(seedHistory(t))
	app := fiber.New()
	app.Get("/accounts/:accountId/transactions", h.List)
	app.Get("/accounts/:accountId/transactions/:id", h.Get)
	app.Get("/accounts/:accountId/transactions/:id/receipt", h.Receipt)
	return app
}

func TestListReturnsOwnTransactionsNewestFirst(t *testing.T) {
	app := historyApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/accounts/acct-1/transactions", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}

	var body struct {
		Transactions []View `json:"transactions"`
		Total        int    `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()

	if body.Total != 2 || len(body.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got total=%d len=%d", body.Total, len(body.Transactions))
	}
	if body.Transactions[0].ID != "tx-2" || body.Transactions[1].ID != "tx-1" {
		t.Fatalf("wrong order: %s, %s", body.Transactions[0].ID, body.Transactions[1].ID)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	app := historyApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/accounts/acct-1/transactions?status=refunded", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	var body struct {
		Transactions []View `json:"transactions"`
		Total        int    `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()

	if body.Total != 1 || body.Transactions[0].ID != "tx-2" {
		t.Fatalf("unexpected filter result: %+v", body)
	}
}

func TestListRejectsUnknownCategory(t *testing.T) {
	app := historyApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/accounts/acct-1/transactions?category=lottery", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.StatusCode)
	}
}

func TestGetHidesForeignTransactions(t *testing.T) {
	app := historyApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/accounts/acct-1/transactions/tx-3", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("foreign transaction must 404, got %d", resp.StatusCode)
	}
}

func TestReceiptRendersPlainText(t *testing.T) {
	app := historyApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/accounts/acct-1/transactions/tx-1/receipt", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get(fiber.HeaderContentType); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("expected text/plain, got %s", ct)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()

	text := string(body)
	for _, want := range []string{"TRANSACTION RECEIPT", "AIR-1", "NGN 200.00", "SUCCESS", "08030000001"} {
		if !strings.Contains(text, want) {
			t.Fatalf("receipt missing %q:\n%s", want, text)
		}
	}
}

func TestFormatKobo(t *testing.T) {
	cases := map[int64]string{
		0:       "0.00",
		5:       "0.05",
		10_000:  "100.00",
		123_456: "1234.56",
		-2_050:  "-20.50",
	}
	for kobo, want := range cases {
		if got := formatKobo(kobo); got != want {
			t.Fatalf("formatKobo(%d) = %q, want %q", kobo, got, want)
		}
	}
}
