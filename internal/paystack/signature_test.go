package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
	"testing"
)

func sign(secret, body []byte) string {
	mac := hmac.New(sha512.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestValidSignature(t *testing.T) {
	secret := []byte("sk_test_secret")
	body := []byte(`{"event":"charge.success","data":{"reference":"FUND-1","amount":50000}}`)

	if !ValidSignature(secret, body, sign(secret, body)) {
		t.Fatal("valid signature rejected")
	}
	if !ValidSignature(secret, body, strings.ToUpper(sign(secret, body))) {
		t.Fatal("uppercase hex signature rejected")
	}
}

func TestValidSignatureRejects(t *testing.T) {
	secret := []byte("sk_test_secret")
	body := []byte(`{"event":"charge.success"}`)
	good := sign(secret, body)

	if ValidSignature(secret, body, "") {
		t.Fatal("empty signature accepted")
	}
	if ValidSignature(secret, body, sign([]byte("other-secret"), body)) {
		t.Fatal("signature under wrong secret accepted")
	}
	if ValidSignature(secret, []byte(`{"event":"charge.success" }`), good) {
		t.Fatal("signature accepted for altered body bytes")
	}
	if ValidSignature(nil, body, good) {
		t.Fatal("empty secret accepted")
	}
}

func TestStaticGatewayRoundTrip(t *testing.T) {
	g := NewStaticGateway()

	init, err := g.Initialize(nil, InitializeRequest{Email: "a@b.c", Amount: 50_000, Reference: "FUND-1"})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if init.AuthorizationURL == "" || init.AccessCode == "" {
		t.Fatalf("incomplete initialize response: %+v", init)
	}

	verify, err := g.Verify(nil, "FUND-1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verify.Status != "success" || verify.Amount != 50_000 {
		t.Fatalf("unexpected verify response: %+v", verify)
	}

	verify, _ = g.Verify(nil, "FUND-unknown")
	if verify.Status == "success" {
		t.Fatal("unknown reference verified as success")
	}
}
