package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/onevtu/onevtu/internal/purchase"
)

// RegisterPurchaseRoutes wires one endpoint per purchasable service category.
func RegisterPurchaseRoutes(r fiber.Router, h *purchase.Handler) {
	r.Post("/accounts/:accountId/purchases/airtime", h.Airtime)
	r.Post("/accounts/:accountId/purchases/data", h.Data)
	r.Post("/accounts/:accountId/purchases/cable-tv", h.CableTV)
	r.Post("/accounts/:accountId/purchases/electricity", h.Electricity)
}
