package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lora-lending/lora/internal/funding"
)

// RegisterFundingRoutes wires card top-up endpoints.
func RegisterFundingRoutes(r fiber.Router, h *funding.Handler, idempotency fiber.Handler) {
	r.Post("/wallets/:walletId/top-ups", chain(idempotency, h.TopUp)...)
}
