package loans

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/lora-lending/lora/internal/ledger"
	"github.com/lora-lending/lora/internal/wallet"
)

// Handler exposes loan endpoints for the authenticated borrower.
type Handler struct {
	service *Service
}

// NewHandler constructs a loan handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Apply books and disburses a new loan.
func (h *Handler) Apply(c *fiber.Ctx) error {
	uid, err := borrower(c)
	if err != nil {
		return err
	}
	var app Application
	if err := c.BodyParser(&app); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	loan, err := h.service.Apply(c.UserContext(), uid, app)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusCreated).JSON(loan)
}

// Quote previews an application.
func (h *Handler) Quote(c *fiber.Ctx) error {
	var app Application
	if err := c.BodyParser(&app); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	quote, err := h.service.Quote(app)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(quote)
}

// List returns summaries of the caller's loans.
func (h *Handler) List(c *fiber.Ctx) error {
	uid, err := borrower(c)
	if err != nil {
		return err
	}
	list, err := h.service.List(c.UserContext(), uid)
	if err != nil {
		return httpError(err)
	}
	out := make([]Summary, 0, len(list))
	for _, l := range list {
		out = append(out, l.Summary())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"loans": out})
}

// Get returns one of the caller's loans with its schedule.
func (h *Handler) Get(c *fiber.Ctx) error {
	uid, err := borrower(c)
	if err != nil {
		return err
	}
	loan, err := h.service.Get(c.UserContext(), uid, c.Params("loanId"))
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(loan)
}

func borrower(c *fiber.Ctx) (string, error) {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return "", fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	return uid, nil
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrAmountOutOfRange), errors.Is(err, ErrPurposeRequired), errors.Is(err, ErrInvalidDuration),
		errors.Is(err, ErrInvalidEmployment), errors.Is(err, ErrIncomeRequired):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrActiveLoanExists):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrLoanNotFound), errors.Is(err, wallet.ErrWalletNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotBorrower):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ledger.ErrAccountNotFound):
		return fiber.NewError(http.StatusServiceUnavailable, "lending pool unavailable")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
