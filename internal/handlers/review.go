package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/veridoc/review-backend/internal/models"
	"github.com/veridoc/review-backend/utils"
)

// Claim takes exclusive responsibility for a document. Exactly one of any
// number of concurrent claims wins; losers get a 409.
func (h *Handler) Claim(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	docID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid document ID")
	}

	doc, err := h.Engine.Claim(context.Background(), docID, actor)
	if err != nil {
		return utils.EngineError(c, err)
	}

	return c.JSON(fiber.Map{"document": doc})
}

// Release hands a claimed document back to the queue.
func (h *Handler) Release(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	docID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid document ID")
	}

	var req models.ReleaseRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
		}
	}

	if err := h.Engine.Release(context.Background(), docID, actor, req.Reason); err != nil {
		return utils.EngineError(c, err)
	}

	return c.JSON(fiber.Map{"ok": true})
}

// Save stores the assignee's current draft and appends a revision entry.
func (h *Handler) Save(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	docID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid document ID")
	}

	var req models.SaveRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := utils.Validate.Struct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	doc, err := h.Engine.Save(context.Background(), docID, actor, req)
	if err != nil {
		return utils.EngineError(c, err)
	}

	return c.JSON(fiber.Map{"document": doc})
}

// Approve performs the terminal approved transition.
func (h *Handler) Approve(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	docID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid document ID")
	}

	var req models.ApproveRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
		}
	}

	doc, err := h.Engine.Approve(context.Background(), docID, actor, req.FinalNotes)
	if err != nil {
		return utils.EngineError(c, err)
	}

	return c.JSON(fiber.Map{"document": doc})
}

// Reject performs the terminal rejected transition; a reason is mandatory.
func (h *Handler) Reject(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	docID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid document ID")
	}

	var req models.RejectRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := utils.Validate.Struct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	doc, err := h.Engine.Reject(context.Background(), docID, actor, req.Reason, req.RejectionType)
	if err != nil {
		return utils.EngineError(c, err)
	}

	return c.JSON(fiber.Map{"document": doc})
}
