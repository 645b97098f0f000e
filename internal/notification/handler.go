package notification

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the notification inbox.
type Handler struct {
	inbox *Inbox
}

// NewHandler builds the inbox handler.
func NewHandler(inbox *Inbox) *Handler {
	return &Handler{inbox: inbox}
}

// List returns the caller's notifications, newest first.
func (h *Handler) List(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	items, err := h.inbox.List(c.UserContext(), uid, c.QueryInt("limit", defaultInboxLimit))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	unread := 0
	for _, item := range items {
		if !item.Read {
			unread++
		}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"notifications": items, "has_unread": unread > 0})
}

// MarkRead marks :notificationId as read.
func (h *Handler) MarkRead(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	if err := h.inbox.MarkRead(c.UserContext(), uid, c.Params("notificationId")); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return h.unread(c, uid)
}

// MarkAllRead clears the unread state of the caller's inbox.
func (h *Handler) MarkAllRead(c *fiber.Ctx) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}
	if _, err := h.inbox.MarkAllRead(c.UserContext(), uid); err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return h.unread(c, uid)
}

func (h *Handler) unread(c *fiber.Ctx, uid string) error {
	has, err := h.inbox.HasUnread(c.UserContext(), uid)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"has_unread": has})
}

func userID(c *fiber.Ctx) (string, error) {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return "", fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	return uid, nil
}
