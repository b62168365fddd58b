package transaction

import (
	"encoding/json"
	"time"
)

// View is the wire representation of a record shared by the purchase,
// funding and history endpoints. Amounts are kobo.
type View struct {
	ID               string            `json:"id"`
	AccountID        string            `json:"account_id"`
	Category         Category          `json:"category"`
	Counterparty     string            `json:"counterparty,omitempty"`
	Recipient        string            `json:"recipient"`
	AmountKobo       int64             `json:"amount_kobo"`
	PreviousBalance  int64             `json:"previous_balance_kobo"`
	NewBalance       int64             `json:"new_balance_kobo"`
	Status           Status            `json:"status"`
	Reference        string            `json:"reference"`
	ProviderResponse json.RawMessage   `json:"provider_response,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
}

// ToView converts a record for JSON responses.
func ToView(rec Record) View {
	return View{
		ID:               rec.ID,
		AccountID:        rec.AccountID,
		Category:         rec.Category,
		Counterparty:     rec.Counterparty,
		Recipient:        rec.Recipient,
		AmountKobo:       rec.Amount,
		PreviousBalance:  rec.PreviousBalance,
		NewBalance:       rec.NewBalance,
		Status:           rec.Status,
		Reference:        rec.Reference,
		ProviderResponse: rec.ProviderResponse,
		Metadata:         rec.Metadata,
		CreatedAt:        rec.CreatedAt,
		CompletedAt:      rec.CompletedAt,
	}
}
