package account

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes account HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds an account HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type accountResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func toResponse(acct Account) accountResponse {
	return accountResponse{ID: acct.ID, Name: acct.Name, Email: acct.Email, Phone: acct.Phone}
}

// Register opens an account with a zero wallet balance.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	acct, err := h.service.Register(c.UserContext(), RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			return fiber.NewError(http.StatusConflict, err.Error())
		case errors.Is(err, ErrInvalidInput):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, "registration failed")
		}
	}
	return c.Status(http.StatusCreated).JSON(toResponse(acct))
}

// Get returns account metadata.
func (h *Handler) Get(c *fiber.Ctx) error {
	acct, err := h.service.Get(c.UserContext(), c.Params("accountId"))
	if err != nil {
		return fiber.NewError(http.StatusNotFound, "account not found")
	}
	return c.Status(http.StatusOK).JSON(toResponse(acct))
}

// Balance returns the current wallet balance in kobo.
func (h *Handler) Balance(c *fiber.Ctx) error {
	balance, err := h.service.Balance(c.UserContext(), c.Params("accountId"))
	if err != nil {
		return fiber.NewError(http.StatusNotFound, "account not found")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"account_id":   c.Params("accountId"),
		"balance_kobo": balance,
	})
}
