package purchase

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/onevtu/onevtu/internal/account"
	"github.com/onevtu/onevtu/internal/ledger"
	"github.com/onevtu/onevtu/internal/transaction"
)

// Handler exposes the purchase HTTP endpoints, one per service category.
type Handler struct {
	service *Service
}

// NewHandler constructs a purchase handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type airtimeRequest struct {
	Network string `json:"network"`
	Phone   string `json:"phone"`
	Amount  int64  `json:"amount_kobo"`
}

// Airtime buys airtime for a phone number.
func (h *Handler) Airtime(c *fiber.Ctx) error {
	var req airtimeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return h.respond(c, Input{
		AccountID:    c.Params("accountId"),
		Category:     transaction.CategoryAirtime,
		Counterparty: req.Network,
		Recipient:    req.Phone,
		Amount:       req.Amount,
	})
}

type dataRequest struct {
	Network string `json:"network"`
	Phone   string `json:"phone"`
	PlanID  string `json:"plan_id"`
	Amount  int64  `json:"amount_kobo"`
}

// Data buys a data bundle for a phone number.
func (h *Handler) Data(c *fiber.Ctx) error {
	var req dataRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return h.respond(c, Input{
		AccountID:    c.Params("accountId"),
		Category:     transaction.CategoryData,
		Counterparty: req.Network,
		Recipient:    req.Phone,
		Amount:       req.Amount,
		Metadata:     map[string]string{"plan_id": req.PlanID},
	})
}

type cableTVRequest struct {
	Provider        string `json:"provider"`
	SmartCardNumber string `json:"smart_card_number"`
	PlanID          string `json:"plan_id"`
	Amount          int64  `json:"amount_kobo"`
}

// CableTV renews a cable TV subscription for a smartcard.
func (h *Handler) CableTV(c *fiber.Ctx) error {
	var req cableTVRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return h.respond(c, Input{
		AccountID:    c.Params("accountId"),
		Category:     transaction.CategoryCableTV,
		Counterparty: req.Provider,
		Recipient:    req.SmartCardNumber,
		Amount:       req.Amount,
		Metadata:     map[string]string{"plan_id": req.PlanID},
	})
}

type electricityRequest struct {
	Provider    string `json:"provider"`
	MeterNumber string `json:"meter_number"`
	MeterType   string `json:"meter_type"`
	Amount      int64  `json:"amount_kobo"`
}

// Electricity buys electricity units for a meter.
func (h *Handler) Electricity(c *fiber.Ctx) error {
	var req electricityRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return h.respond(c, Input{
		AccountID:    c.Params("accountId"),
		Category:     transaction.CategoryElectricity,
		Counterparty: req.Provider,
		Recipient:    req.MeterNumber,
		Amount:       req.Amount,
		Metadata:     map[string]string{"meter_type": req.MeterType},
	})
}

func (h *Handler) respond(c *fiber.Ctx, input Input) error {
	rec, err := h.service.Purchase(c.UserContext(), input)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrUnsupportedCategory):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ledger.ErrInsufficientFunds):
			return fiber.NewError(http.StatusBadRequest, "insufficient wallet balance")
		case errors.Is(err, account.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, "account not found")
		case errors.Is(err, ErrProviderFailure):
			// Raw provider detail stays on the record for audit; the caller
			// only learns that funds were restored.
			return c.Status(http.StatusBadGateway).JSON(fiber.Map{
				"message":     "transaction failed, wallet refunded",
				"transaction": transaction.ToView(rec),
			})
		default:
			return fiber.NewError(http.StatusInternalServerError, "purchase failed")
		}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message":     "purchase successful",
		"transaction": transaction.ToView(rec),
	})
}
