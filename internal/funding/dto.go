package funding

// FundRequest captures a wallet top-up initialization.
type FundRequest struct {
	Amount int64 `json:"amount_kobo"`
}

// FundResponse returns the hosted checkout handle for a top-up.
type FundResponse struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
}
