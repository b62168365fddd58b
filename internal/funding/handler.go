package funding

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/onevtu/onevtu/internal/account"
	"github.com/onevtu/onevtu/internal/paystack"
	"github.com/onevtu/onevtu/internal/transaction"
)

// Handler exposes wallet funding HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a funding handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Fund initializes a gateway charge for a wallet top-up.
func (h *Handler) Fund(c *fiber.Ctx) error {
	var req FundRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.Initialize(c.UserContext(), c.Params("accountId"), req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, account.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, "account not found")
		default:
			return fiber.NewError(http.StatusBadGateway, "failed to initialize payment")
		}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "payment initialized",
		"data": FundResponse{
			Reference:        result.Reference,
			AuthorizationURL: result.AuthorizationURL,
			AccessCode:       result.AccessCode,
		},
	})
}

// Verify reconciles a funding reference against the gateway on demand.
func (h *Handler) Verify(c *fiber.Ctx) error {
	result, err := h.service.Verify(c.UserContext(), c.Params("accountId"), c.Params("reference"))
	if err != nil {
		switch {
		case errors.Is(err, ErrTransactionNotFound):
			return fiber.NewError(http.StatusNotFound, "transaction not found")
		case errors.Is(err, ErrPaymentNotCompleted):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrSettlementInProgress):
			return fiber.NewError(http.StatusConflict, err.Error())
		default:
			return fiber.NewError(http.StatusBadGateway, "failed to verify payment")
		}
	}

	message := "payment verified"
	if result.AlreadySettled {
		message = "payment already verified"
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message":      message,
		"transaction":  transaction.ToView(result.Record),
		"balance_kobo": result.Balance,
	})
}

// Webhook receives pushed gateway confirmations. The raw body bytes feed
// signature verification; fiber hands them over without re-encoding.
func (h *Handler) Webhook(c *fiber.Ctx) error {
	err := h.service.HandleWebhook(c.UserContext(), c.Body(), c.Get(paystack.SignatureHeader))
	if err != nil {
		if errors.Is(err, ErrInvalidSignature) {
			return fiber.NewError(http.StatusUnauthorized, "invalid signature")
		}
		// Non-2xx makes the gateway redeliver, which settlement tolerates.
		return fiber.NewError(http.StatusInternalServerError, "webhook processing failed")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "ok"})
}
