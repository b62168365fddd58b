package transaction

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const defaultPageSize = 20

// Handler exposes transaction history endpoints.
type Handler struct {
	store Store
}

// NewHandler constructs a history handler backed by the given store.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// List returns an account's transactions, newest first. Status, category,
// limit and offset arrive as query parameters.
func (h *Handler) List(c *fiber.Ctx) error {
	f := Filter{
		Status:   Status(c.Query("status")),
		Category: Category(c.Query("category")),
		Limit:    queryInt(c, "limit", defaultPageSize),
		Offset:   queryInt(c, "offset", 0),
	}
	if f.Category != "" && !f.Category.Valid() {
		return fiber.NewError(http.StatusBadRequest, fmt.Sprintf("unknown category %q", f.Category))
	}

	records, total, err := h.store.List(c.UserContext(), c.Params("accountId"), f)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "failed to list transactions")
	}

	views := make([]View, 0, len(records))
	for _, rec := range records {
		views = append(views, ToView(rec))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"transactions": views,
		"total":        total,
		"limit":        f.Limit,
		"offset":       f.Offset,
	})
}

// Get returns a single transaction owned by the account.
func (h *Handler) Get(c *fiber.Ctx) error {
	rec, err := h.store.GetForAccount(c.UserContext(), c.Params("accountId"), c.Params("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "transaction not found")
		}
		return fiber.NewError(http.StatusInternalServerError, "failed to load transaction")
	}
	return c.Status(http.StatusOK).JSON(ToView(rec))
}

// Receipt renders a plain-text receipt for a completed transaction.
func (h *Handler) Receipt(c *fiber.Ctx) error {
	rec, err := h.store.GetForAccount(c.UserContext(), c.Params("accountId"), c.Params("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "transaction not found")
		}
		return fiber.NewError(http.StatusInternalServerError, "failed to load transaction")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(http.StatusOK).SendString(renderReceipt(rec))
}

func renderReceipt(rec Record) string {
	var b strings.Builder
	line := strings.Repeat("=", 40)

	fmt.Fprintln(&b, line)
	fmt.Fprintln(&b, "        TRANSACTION RECEIPT")
	fmt.Fprintln(&b, line)
	fmt.Fprintf(&b, "Reference:    %s\n", rec.Reference)
	fmt.Fprintf(&b, "Category:     %s\n", rec.Category)
	if rec.Counterparty != "" {
		fmt.Fprintf(&b, "Provider:     %s\n", rec.Counterparty)
	}
	fmt.Fprintf(&b, "Recipient:    %s\n", rec.Recipient)
	fmt.Fprintf(&b, "Amount:       NGN %s\n", formatKobo(rec.Amount))
	fmt.Fprintf(&b, "Status:       %s\n", strings.ToUpper(string(rec.Status)))
	fmt.Fprintf(&b, "Date:         %s\n", rec.CreatedAt.Format("02 Jan 2006 15:04:05 MST"))
	if rec.CompletedAt != nil {
		fmt.Fprintf(&b, "Completed:    %s\n", rec.CompletedAt.Format("02 Jan 2006 15:04:05 MST"))
	}
	fmt.Fprintln(&b, line)
	fmt.Fprintf(&b, "Balance after: NGN %s\n", formatKobo(rec.NewBalance))
	fmt.Fprintln(&b, line)
	return b.String()
}

// formatKobo renders a kobo amount as naira with two decimal places.
func formatKobo(kobo int64) string {
	sign := ""
	if kobo < 0 {
		sign = "-"
		kobo = -kobo
	}
	return fmt.Sprintf("%s%d.%02d", sign, kobo/100, kobo%100)
}

func queryInt(c *fiber.Ctx, name string, fallback int) int {
	v := c.Query(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
