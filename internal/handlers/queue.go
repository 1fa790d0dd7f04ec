package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/veridoc/review-backend/internal/models"
	"github.com/veridoc/review-backend/utils"
)

// ListQueue returns documents awaiting review, priority first, oldest first
// within a priority.
func (h *Handler) ListQueue(c *fiber.Ctx) error {
	var status *models.DocumentStatus
	if v := c.Query("status"); v != "" {
		s := models.DocumentStatus(v)
		status = &s
	}
	var priority *models.Priority
	if v := c.Query("priority"); v != "" {
		p := models.Priority(v)
		priority = &p
	}

	page, limit := pagination(c)

	docs, err := h.Engine.ListQueue(context.Background(), status, priority, int64(limit), int64((page-1)*limit))
	if err != nil {
		return utils.EngineError(c, err)
	}

	return c.JSON(fiber.Map{
		"documents": docs,
		"page":      page,
		"limit":     limit,
	})
}

// GetQueueStats returns the per-status counts feeding the queue dashboard.
func (h *Handler) GetQueueStats(c *fiber.Ctx) error {
	qs, err := h.Stats.QueueStats(context.Background())
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to compute queue stats")
	}
	return c.JSON(fiber.Map{"stats": qs})
}

// ListAssigned returns the caller's own in-flight documents.
func (h *Handler) ListAssigned(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var status *models.DocumentStatus
	if v := c.Query("status"); v != "" {
		s := models.DocumentStatus(v)
		status = &s
	}
	_, limit := pagination(c)

	docs, err := h.Engine.ListAssigned(context.Background(), actor.ID, status, int64(limit))
	if err != nil {
		return utils.EngineError(c, err)
	}

	return c.JSON(fiber.Map{"documents": docs})
}

// GetDocument returns one document with its full revision history.
func (h *Handler) GetDocument(c *fiber.Ctx) error {
	docID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid document ID")
	}

	doc, revs, err := h.Engine.GetDocument(context.Background(), docID)
	if err != nil {
		return utils.EngineError(c, err)
	}

	return c.JSON(fiber.Map{
		"document":  doc,
		"revisions": revs,
	})
}

func pagination(c *fiber.Ctx) (page, limit int) {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
