package adjustment

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/onevtu/onevtu/internal/account"
	"github.com/onevtu/onevtu/internal/ledger"
	"github.com/onevtu/onevtu/internal/transaction"
)

// Handler exposes operator wallet adjustment endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an adjustment handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type adjustRequest struct {
	Amount     int64  `json:"amount_kobo"`
	Note       string `json:"note"`
	AdjustedBy string `json:"adjusted_by"`
}

// Credit adds funds to an account's wallet.
func (h *Handler) Credit(c *fiber.Ctx) error {
	return h.respond(c, h.service.Credit)
}

// Debit removes funds from an account's wallet.
func (h *Handler) Debit(c *fiber.Ctx) error {
	return h.respond(c, h.service.Debit)
}

func (h *Handler) respond(c *fiber.Ctx, apply func(ctx context.Context, in Input) (transaction.Record, error)) error {
	var req adjustRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	rec, err := apply(c.UserContext(), Input{
		AccountID:  c.Params("accountId"),
		Amount:     req.Amount,
		Note:       req.Note,
		AdjustedBy: req.AdjustedBy,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ledger.ErrInsufficientFunds):
			return fiber.NewError(http.StatusBadRequest, "insufficient wallet balance")
		case errors.Is(err, account.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, "account not found")
		default:
			return fiber.NewError(http.StatusInternalServerError, "adjustment failed")
		}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message":      "wallet adjusted",
		"transaction":  transaction.ToView(rec),
		"balance_kobo": rec.NewBalance,
	})
}
