package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/onevtu/onevtu/internal/account"
	"github.com/onevtu/onevtu/internal/adjustment"
	"github.com/onevtu/onevtu/internal/billing"
	"github.com/onevtu/onevtu/internal/config"
	"github.com/onevtu/onevtu/internal/funding"
	"github.com/onevtu/onevtu/internal/ledger"
	"github.com/onevtu/onevtu/internal/middleware"
	"github.com/onevtu/onevtu/internal/notification"
	"github.com/onevtu/onevtu/internal/paystack"
	"github.com/onevtu/onevtu/internal/purchase"
	"github.com/onevtu/onevtu/internal/transaction"
)

// WebhookPath is where the payment gateway posts charge confirmations. It
// lives outside the versioned API group and skips the idempotency middleware;
// settlement deduplicates by reference instead.
const WebhookPath = "/webhooks/paystack"

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger, WebhookPath))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Storage backends, Postgres when configured, in-memory otherwise.
	var ledgerBackend ledger.Ledger
	var accountRepo account.Repository
	var records transaction.Store
	if d.DB != nil {
		ledgerBackend = ledger.NewPostgresLedger(d.DB)
		accountRepo = account.NewPostgresRepository(d.DB)
		records = transaction.NewPostgresStore(d.DB)
	} else {
		ledgerBackend = ledger.NewInMemory()
		accountRepo = account.NewMemoryRepository()
		records = transaction.NewMemoryStore()
	}

	var locks funding.ReferenceLocker
	if d.Cache != nil {
		locks = funding.NewRedisLocker(d.Cache, d.Cfg.SettlementLockTTL)
	} else {
		locks = funding.NewMemoryLocker()
	}

	// External adapters. Development without a billing API runs against
	// always-approve billers.
	var billers billing.Billers
	if d.Cfg.BillingBaseURL != "" {
		var err error
		billers, err = billing.HTTPBillers(nil, d.Cfg.BillingBaseURL, d.Cfg.BillingAPIKey)
		if err != nil {
			return err
		}
	} else {
		if !d.Cfg.IsDev() {
			return fmt.Errorf("BILLING_BASE_URL is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		billers = billing.StaticBillers()
	}
	gateway := paystack.NewClient(nil, d.Cfg.PaystackBaseURL, d.Cfg.PaystackSecretKey)

	// Services and handlers
	notifier := notification.NewLoggerNotifier(d.Logger)
	accountSvc := account.NewService(accountRepo, ledgerBackend)
	purchaseSvc, err := purchase.NewService(ledgerBackend, records, billers, accountSvc, notifier, d.Logger, d.Cfg.ProviderTimeout)
	if err != nil {
		return err
	}
	fundingSvc, err := funding.NewService(ledgerBackend, records, accountSvc, gateway, locks, notifier,
		d.Logger, d.Cfg.PaystackSecretKey, d.Cfg.CallbackURL)
	if err != nil {
		return err
	}
	adjustmentSvc, err := adjustment.NewService(ledgerBackend, records, accountSvc, d.Logger)
	if err != nil {
		return err
	}

	accountHandler := account.NewHandler(accountSvc)
	purchaseHandler := purchase.NewHandler(purchaseSvc)
	fundingHandler := funding.NewHandler(fundingSvc)
	adjustmentHandler := adjustment.NewHandler(adjustmentSvc)
	historyHandler := transaction.NewHandler(records)

	// Gateway callbacks stay off the versioned group.
	app.Post(WebhookPath, fundingHandler.Webhook)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterAccountRoutes(api, accountHandler)
	RegisterPurchaseRoutes(api, purchaseHandler)
	RegisterFundingRoutes(api, fundingHandler)
	RegisterAdminRoutes(api, adjustmentHandler)
	RegisterTransactionRoutes(api, historyHandler)

	return nil
}
