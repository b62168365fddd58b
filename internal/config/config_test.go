package config

import (
	"testing"
	"time"
)

func TestLoadDefaultsInDev(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("PAYSTACK_SECRET_KEY", "sk_test_abc")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ProviderTimeout != 30*time.Second || cfg.SettlementLockTTL != 30*time.Second {
		t.Fatalf("unexpected timeout defaults: %+v", cfg)
	}
	if cfg.PaystackBaseURL != "https://api.paystack.co" {
		t.Fatalf("unexpected paystack base url: %s", cfg.PaystackBaseURL)
	}
}

func TestLoadRequiresPaystackSecret(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("PAYSTACK_SECRET_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected missing secret key error")
	}
}

func TestLoadRequiresStoresOutsideDev(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PAYSTACK_SECRET_KEY", "sk_live_abc")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected missing DATABASE_URL error")
	}
}

func TestDurationOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("PAYSTACK_SECRET_KEY", "sk_test_abc")
	t.Setenv("PROVIDER_TIMEOUT_SECONDS", "10")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ProviderTimeout != 10*time.Second {
		t.Fatalf("seconds override ignored: %v", cfg.ProviderTimeout)
	}
	if cfg.ShutdownPeriod != 5*time.Second {
		t.Fatalf("duration override ignored: %v", cfg.ShutdownPeriod)
	}

	t.Setenv("PROVIDER_TIMEOUT_SECONDS", "not-a-number")
	if _, err := Load(); err == nil {
		t.Fatal("expected invalid duration error")
	}
}

func TestAddress(t *testing.T) {
	if got := (Config{Port: "9090"}).Address(); got != ":9090" {
		t.Fatalf("expected :9090, got %s", got)
	}
	if got := (Config{Port: ":9090"}).Address(); got != ":9090" {
		t.Fatalf("expected :9090, got %s", got)
	}
}
