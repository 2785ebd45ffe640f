package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm-core/internal/notify"
)

// NotificationsHandler exposes the persisted notification feed.
type NotificationsHandler struct {
	center *notify.Center
}

// NewNotificationsHandler returns a new handler instance.
func NewNotificationsHandler(center *notify.Center) *NotificationsHandler {
	return &NotificationsHandler{center: center}
}

// List returns the acting admin's feed, newest-first.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	rows, err := h.center.Feed().ListForUser(c.UserContext(), actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"notifications": rows})
}

// UnreadCount recomputes the unread total for the acting admin.
func (h *NotificationsHandler) UnreadCount(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	count, err := h.center.Feed().UnreadCount(c.UserContext(), actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"unread": count})
}

// MarkRead flips one notification to read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	if _, err := requireActor(c); err != nil {
		return err
	}
	if err := h.center.Feed().MarkRead(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkAllRead flips every unread notification visible to the acting admin.
func (h *NotificationsHandler) MarkAllRead(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	marked, err := h.center.Feed().MarkAllRead(c.UserContext(), actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"marked": marked})
}
