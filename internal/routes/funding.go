package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/onevtu/onevtu/internal/funding"
)

// RegisterFundingRoutes wires wallet top-up initialization and verification.
// The gateway webhook is registered separately, outside the API group.
func RegisterFundingRoutes(r fiber.Router, h *funding.Handler) {
	r.Post("/accounts/:accountId/fund", h.Fund)
	r.Get("/accounts/:accountId/fund/:reference/verify", h.Verify)
}
