package billing

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/onevtu/onevtu/internal/transaction"
)

// PurchaseRequest carries the fields every billing API in use accepts. The
// counterparty is the network for airtime/data and the biller for
// cable-tv/electricity.
type PurchaseRequest struct {
	Counterparty string
	Recipient    string
	Amount       int64
	PlanID       string
}

// PurchaseResponse is the normalized outcome of a provider call. Raw holds
// the provider payload untouched for the audit trail; its internal shape is
// never interpreted beyond the top-level status.
type PurchaseResponse struct {
	Succeeded bool
	Raw       json.RawMessage
}

// Biller submits a purchase to an external billing API for one service
// category. Implementations never retry: billing APIs are generally not
// idempotent on blind retry, so the orchestrator compensates with a refund
// instead.
type Biller interface {
	Submit(ctx context.Context, req PurchaseRequest) (PurchaseResponse, error)
}

// StaticBiller approves every purchase with a synthetic payload. Used in
// development when no billing API is configured, and in tests.
type StaticBiller struct{}

// Submit approves the request unconditionally.
func (StaticBiller) Submit(_ context.Context, req PurchaseRequest) (PurchaseResponse, error) {
	raw, _ := json.Marshal(map[string]string{
		"status":    "success",
		"reference": uuid.NewString(),
		"recipient": req.Recipient,
	})
	return PurchaseResponse{Succeeded: true, Raw: raw}, nil
}

// Billers is the per-category adapter set the orchestrator dispatches on.
type Billers map[transaction.Category]Biller

// StaticBillers returns an always-approve adapter for each purchasable
// category.
func StaticBillers() Billers {
	return Billers{
		transaction.CategoryAirtime:     StaticBiller{},
		transaction.CategoryData:        StaticBiller{},
		transaction.CategoryCableTV:     StaticBiller{},
		transaction.CategoryElectricity: StaticBiller{},
	}
}
