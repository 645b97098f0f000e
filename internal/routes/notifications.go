package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lora-lending/lora/internal/notification"
)

// RegisterNotificationRoutes wires the dashboard bell inbox.
func RegisterNotificationRoutes(r fiber.Router, h *notification.Handler) {
	g := r.Group("/notifications")
	g.Get("", h.List)
	g.Post("/read-all", h.MarkAllRead)
	g.Post("/:notificationId/read", h.MarkRead)
}
