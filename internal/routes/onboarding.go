package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lora-lending/lora/internal/onboarding"
)

// RegisterOnboardingRoutes wires the sign-up wizard. Every session route
// acts on the wizard identified by :sessionId.
func RegisterOnboardingRoutes(r fiber.Router, h *onboarding.Handler) {
	g := r.Group("/onboarding")
	g.Get("/choices", h.Choices)
	g.Post("/sessions", h.Start)

	s := g.Group("/sessions/:sessionId")
	s.Get("", h.State)
	s.Delete("", h.Discard)
	s.Patch("/registration", h.UpdateRegistration)
	s.Post("/registration/submit", h.SubmitRegistration)
	s.Put("/code/:index", h.EditCode)
	s.Delete("/code/:index", h.BackspaceCode)
	s.Post("/verify", h.Verify)
	s.Post("/resend", h.Resend)
	s.Patch("/details", h.UpdateDetails)
	s.Post("/details/submit", h.SubmitDetails)
	s.Patch("/address", h.UpdateAddress)
	s.Post("/address/submit", h.SubmitAddress)
	s.Put("/pin/:field/:index", h.EditPin)
	s.Delete("/pin/:field/:index", h.BackspacePin)
	s.Post("/pin/submit", h.SubmitPin)
	s.Post("/back", h.Back)
	s.Put("/profile-image", h.SetProfileImage)
}
