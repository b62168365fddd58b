package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// SignatureHeader is the request header Paystack signs webhook deliveries with.
const SignatureHeader = "x-paystack-signature"

// ValidSignature reports whether the signature header matches the HMAC-SHA512
// of the exact raw body bytes under the shared secret. Verification must run
// on the bytes as received, before any JSON decoding, so re-serialization can
// never perturb the digest.
func ValidSignature(secret, body []byte, signature string) bool {
	if len(secret) == 0 || signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
