package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/onevtu/onevtu/internal/transaction"
)

// RegisterTransactionRoutes wires transaction history and receipt endpoints.
func RegisterTransactionRoutes(r fiber.Router, h *transaction.Handler) {
	r.Get("/accounts/:accountId/transactions", h.List)
	r.Get("/accounts/:accountId/transactions/:id", h.Get)
	r.Get("/accounts/:accountId/transactions/:id/receipt", h.Receipt)
}
