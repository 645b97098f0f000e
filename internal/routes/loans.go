package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lora-lending/lora/internal/dashboard"
	"github.com/lora-lending/lora/internal/loans"
)

// RegisterLoanRoutes wires loan application and tracking endpoints.
func RegisterLoanRoutes(r fiber.Router, h *loans.Handler, idempotency fiber.Handler) {
	r.Post("/loans/quote", h.Quote)
	r.Post("/loans", chain(idempotency, h.Apply)...)
	r.Get("/loans", h.List)
	r.Get("/loans/:loanId", h.Get)
}

// RegisterDashboardRoutes wires the home screen endpoint.
func RegisterDashboardRoutes(r fiber.Router, h *dashboard.Handler) {
	r.Get("/dashboard", h.Get)
}
