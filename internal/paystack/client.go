package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"
)

// DefaultBaseURL is the production Paystack API host.
const DefaultBaseURL = "https://api.paystack.co"

// InitializeRequest starts a hosted card/bank charge. Amount is kobo, as the
// gateway expects.
type InitializeRequest struct {
	Email       string
	Amount      int64
	Reference   string
	CallbackURL string
	Metadata    map[string]string
}

// InitializeResponse carries the hosted checkout handle.
type InitializeResponse struct {
	AuthorizationURL string
	AccessCode       string
}

// VerifyResponse is the gateway's authoritative view of a charge. Amount is
// kobo.
type VerifyResponse struct {
	Status string
	Amount int64
}

// Gateway abstracts the payment gateway for wallet funding.
type Gateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (InitializeResponse, error)
	Verify(ctx context.Context, reference string) (VerifyResponse, error)
}

// Client talks to the Paystack HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
}

// NewClient builds a gateway client. An empty baseURL targets production.
func NewClient(httpClient *http.Client, baseURL, secretKey string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{httpClient: httpClient, baseURL: baseURL, secretKey: secretKey}
}

type initializePayload struct {
	Email       string            `json:"email"`
	Amount      int64             `json:"amount"`
	Reference   string            `json:"reference"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type initializeEnvelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
	} `json:"data"`
}

// Initialize creates a pending charge and returns the checkout URL.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (InitializeResponse, error) {
	body, err := json.Marshal(initializePayload{
		Email:       req.Email,
		Amount:      req.Amount,
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return InitializeResponse{}, err
	}

	var envelope initializeEnvelope
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", body, &envelope); err != nil {
		return InitializeResponse{}, err
	}
	if !envelope.Status {
		return InitializeResponse{}, fmt.Errorf("paystack initialize: %s", envelope.Message)
	}
	return InitializeResponse{
		AuthorizationURL: envelope.Data.AuthorizationURL,
		AccessCode:       envelope.Data.AccessCode,
	}, nil
}

type verifyEnvelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status string `json:"status"`
		Amount int64  `json:"amount"`
	} `json:"data"`
}

// Verify fetches the authoritative charge status for a reference.
func (c *Client) Verify(ctx context.Context, reference string) (VerifyResponse, error) {
	var envelope verifyEnvelope
	path := "/transaction/verify/" + url.PathEscape(reference)
	if err := c.do(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return VerifyResponse{}, err
	}
	if !envelope.Status {
		return VerifyResponse{}, fmt.Errorf("paystack verify: %s", envelope.Message)
	}
	return VerifyResponse{Status: envelope.Data.Status, Amount: envelope.Data.Amount}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("paystack request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("paystack response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("paystack %s %s: status %d", method, path, resp.StatusCode)
	}
	return json.Unmarshal(payload, out)
}

// StaticGateway simulates the payment gateway for development and tests:
// every initialized charge verifies as successful at the initialized amount.
type StaticGateway struct {
	mu      sync.RWMutex
	amounts map[string]int64
}

// NewStaticGateway builds an empty simulator.
func NewStaticGateway() *StaticGateway {
	return &StaticGateway{amounts: make(map[string]int64)}
}

// Initialize records the charge and returns a synthetic checkout handle.
func (g *StaticGateway) Initialize(_ context.Context, req InitializeRequest) (InitializeResponse, error) {
	g.mu.Lock()
	g.amounts[req.Reference] = req.Amount
	g.mu.Unlock()
	return InitializeResponse{
		AuthorizationURL: "https://checkout.invalid/" + req.Reference,
		AccessCode:       uuid.NewString(),
	}, nil
}

// Verify reports success for any reference Initialize has seen.
func (g *StaticGateway) Verify(_ context.Context, reference string) (VerifyResponse, error) {
	g.mu.RLock()
	amount, ok := g.amounts[reference]
	g.mu.RUnlock()
	if !ok {
		return VerifyResponse{Status: "abandoned"}, nil
	}
	return VerifyResponse{Status: "success", Amount: amount}, nil
}
