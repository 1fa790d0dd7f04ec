package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/veridoc/review-backend/internal/models"
	"github.com/veridoc/review-backend/internal/store"
	"github.com/veridoc/review-backend/utils"
)

// ListNotifications returns the caller's notifications, newest first.
func (h *Handler) ListNotifications(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	unreadOnly := c.Query("unreadOnly") == "true"
	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit < 1 || limit > 200 {
		limit = 50
	}

	notifications, err := h.Store.ListNotifications(context.Background(), actor.ID, unreadOnly, int64(limit))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch notifications")
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}

	return c.JSON(fiber.Map{"notifications": notifications})
}

// MarkRead marks one of the caller's notifications as read.
func (h *Handler) MarkRead(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid notification ID")
	}

	if err := h.Store.MarkNotificationRead(context.Background(), id, actor.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Notification not found")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update notification")
	}

	return c.JSON(fiber.Map{"ok": true})
}

// MarkAllRead marks every unread notification of the caller as read.
func (h *Handler) MarkAllRead(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	if err := h.Store.MarkAllNotificationsRead(context.Background(), actor.ID); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update notifications")
	}

	return c.JSON(fiber.Map{"ok": true})
}
