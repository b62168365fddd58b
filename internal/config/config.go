package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName         = "OneVTU"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultPaystackBaseURL = "https://api.paystack.co"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultProviderTimeout = 30 * time.Second
	defaultLockTTL         = 30 * time.Second
)

// Config captures application runtime configuration loaded from environment
// variables.
type Config struct {
	AppName  string
	AppEnv   string
	Port     string
	LogLevel string

	DatabaseURL string
	RedisURL    string

	PaystackSecretKey string
	PaystackBaseURL   string
	CallbackURL       string

	BillingBaseURL string
	BillingAPIKey  string

	ProviderTimeout   time.Duration
	SettlementLockTTL time.Duration
	ShutdownPeriod    time.Duration
	IdempotencyTTL    time.Duration
}

// Load reads configuration from the environment, after sourcing a local .env
// file when one exists, and populates a Config instance.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppName:           getEnv("APP_NAME", defaultAppName),
		AppEnv:            getEnv("APP_ENV", defaultAppEnv),
		Port:              getEnv("PORT", defaultPort),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		PaystackSecretKey: os.Getenv("PAYSTACK_SECRET_KEY"),
		PaystackBaseURL:   getEnv("PAYSTACK_BASE_URL", defaultPaystackBaseURL),
		CallbackURL:       os.Getenv("PAYMENT_CALLBACK_URL"),
		BillingBaseURL:    os.Getenv("BILLING_BASE_URL"),
		BillingAPIKey:     os.Getenv("BILLING_API_KEY"),
		ProviderTimeout:   defaultProviderTimeout,
		SettlementLockTTL: defaultLockTTL,
		ShutdownPeriod:    defaultShutdownDelay,
		IdempotencyTTL:    defaultIdempotencyTTL,
	}

	var err error
	if cfg.ProviderTimeout, err = durationEnv("PROVIDER_TIMEOUT", cfg.ProviderTimeout); err != nil {
		return Config{}, err
	}
	if cfg.SettlementLockTTL, err = durationEnv("SETTLEMENT_LOCK_TTL", cfg.SettlementLockTTL); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownPeriod, err = durationEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv("IDEMPOTENCY_TTL", cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}

	if cfg.PaystackSecretKey == "" {
		return Config{}, fmt.Errorf("PAYSTACK_SECRET_KEY must be set")
	}

	// Development runs against in-memory stores when these are absent.
	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the app runs in a development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// durationEnv reads <name>_SECONDS as an integer or <name> as a Go duration.
func durationEnv(name string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(name + "_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s_SECONDS: %w", name, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(name); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", name, err)
		}
		return d, nil
	}
	return fallback, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
