package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/onevtu/onevtu/internal/transaction"
)

// endpoints maps each purchasable category to its billing API path.
var endpoints = map[transaction.Category]string{
	transaction.CategoryAirtime:     "/topup",
	transaction.CategoryData:        "/data",
	transaction.CategoryCableTV:     "/cabletv",
	transaction.CategoryElectricity: "/electricity",
}

// HTTPBiller calls a billing API over HTTP for a single service category.
// Every non-success outcome, transport errors and timeouts included,
// normalizes to a failed PurchaseResponse so the orchestrator has exactly one
// failure path.
type HTTPBiller struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	category transaction.Category
}

// NewHTTPBiller builds an adapter for the given category. The caller bounds
// call duration through the request context.
func NewHTTPBiller(client *http.Client, baseURL, apiKey string, category transaction.Category) (*HTTPBiller, error) {
	if _, ok := endpoints[category]; !ok {
		return nil, fmt.Errorf("category %q has no billing endpoint", category)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPBiller{client: client, baseURL: baseURL, apiKey: apiKey, category: category}, nil
}

// HTTPBillers builds an HTTP adapter for every purchasable category against
// the same billing API.
func HTTPBillers(client *http.Client, baseURL, apiKey string) (Billers, error) {
	billers := make(Billers, len(endpoints))
	for category := range endpoints {
		b, err := NewHTTPBiller(client, baseURL, apiKey, category)
		if err != nil {
			return nil, err
		}
		billers[category] = b
	}
	return billers, nil
}

type submitPayload struct {
	Provider  string `json:"provider"`
	Recipient string `json:"recipient"`
	Amount    int64  `json:"amount"`
	Plan      string `json:"plan,omitempty"`
}

type submitStatus struct {
	Status string `json:"status"`
}

// Submit posts the purchase and normalizes the outcome. The raw response body
// is preserved verbatim whenever one was received.
func (b *HTTPBiller) Submit(ctx context.Context, req PurchaseRequest) (PurchaseResponse, error) {
	body, err := json.Marshal(submitPayload{
		Provider:  req.Counterparty,
		Recipient: req.Recipient,
		Amount:    req.Amount,
		Plan:      req.PlanID,
	})
	if err != nil {
		return PurchaseResponse{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+endpoints[b.category], bytes.NewReader(body))
	if err != nil {
		return PurchaseResponse{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.client.Do(httpReq)
	if err != nil {
		// Timeouts and transport failures are failures like any other. The
		// provider may still have fulfilled on their side; the payload below
		// is what manual reconciliation works from.
		raw, _ := json.Marshal(map[string]string{"error": err.Error()})
		return PurchaseResponse{Succeeded: false, Raw: raw}, nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		raw, _ = json.Marshal(map[string]string{"error": err.Error()})
		return PurchaseResponse{Succeeded: false, Raw: raw}, nil
	}
	if !json.Valid(raw) {
		raw, _ = json.Marshal(map[string]string{"body": string(raw)})
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return PurchaseResponse{Succeeded: false, Raw: raw}, nil
	}

	var status submitStatus
	if err := json.Unmarshal(raw, &status); err != nil || status.Status != "success" {
		return PurchaseResponse{Succeeded: false, Raw: raw}, nil
	}
	return PurchaseResponse{Succeeded: true, Raw: raw}, nil
}
