package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/onevtu/onevtu/internal/adjustment"
)

// RegisterAdminRoutes wires operator wallet adjustment endpoints.
func RegisterAdminRoutes(r fiber.Router, h *adjustment.Handler) {
	r.Post("/admin/accounts/:accountId/credit", h.Credit)
	r.Post("/admin/accounts/:accountId/debit", h.Debit)
}
