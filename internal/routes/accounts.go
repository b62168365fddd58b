package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/onevtu/onevtu/internal/account"
)

// RegisterAccountRoutes wires account registration and balance endpoints.
func RegisterAccountRoutes(r fiber.Router, h *account.Handler) {
	r.Post("/accounts", h.Register)
	r.Get("/accounts/:accountId", h.Get)
	r.Get("/accounts/:accountId/balance", h.Balance)
}
