package wallet

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

const defaultHistoryLimit = 20

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Mine returns the caller's wallet together with its balance, provisioning
// the wallet if registration could not.
func (h *Handler) Mine(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	w, err := h.service.EnsureForOwner(c.UserContext(), uid)
	if err != nil {
		return httpError(err)
	}
	bal, err := h.service.Balance(c.UserContext(), w.ID)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"wallet": w, "balance": bal})
}

// Balance returns the balance of one of the caller's wallets.
func (h *Handler) Balance(c *fiber.Ctx) error {
	w, err := h.owned(c)
	if err != nil {
		return err
	}
	balance, err := h.service.Balance(c.UserContext(), w.ID)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(balance)
}

// Transactions lists recent ledger entries of one of the caller's wallets.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	w, err := h.owned(c)
	if err != nil {
		return err
	}
	entries, err := h.service.History(c.UserContext(), w.ID, c.QueryInt("limit", defaultHistoryLimit))
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"wallet_id": w.ID, "transactions": entries})
}

func (h *Handler) owned(c *fiber.Ctx) (Wallet, error) {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return Wallet{}, fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	w, err := h.service.Owned(c.UserContext(), c.Params("walletId"), uid)
	if err != nil {
		return Wallet{}, httpError(err)
	}
	return w, nil
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrWalletNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotOwner):
		return fiber.NewError(http.StatusForbidden, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
