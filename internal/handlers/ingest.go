package handlers

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/veridoc/review-backend/internal/models"
	"github.com/veridoc/review-backend/utils"
)

// Ingest creates a new document in pending_review and, when the extraction
// service is configured, kicks off AI extraction in the background. An
// extraction failure leaves the document in pending_review for the pipeline
// to retry; it never blocks the queue.
func (h *Handler) Ingest(c *fiber.Ctx) error {
	actor, err := actorFromCtx(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req models.IngestRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := utils.Validate.Struct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	doc, err := h.Engine.Ingest(context.Background(), req, actor.ID)
	if err != nil {
		return utils.EngineError(c, err)
	}

	if h.Extractor != nil && req.SourceText != "" {
		go h.runExtraction(doc.ID, req.FormType, req.SourceText)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"document": doc})
}

func (h *Handler) runExtraction(docID primitive.ObjectID, formType, sourceText string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	extracted, confidence, notes, err := h.Extractor.Extract(ctx, formType, sourceText)
	if err != nil {
		log.Printf("extraction failed doc=%s: %v", docID.Hex(), err)
		return
	}

	if _, err := h.Engine.CompleteExtraction(ctx, docID, extracted, confidence, notes); err != nil {
		log.Printf("extraction result discarded doc=%s: %v", docID.Hex(), err)
	}
}

// CompleteExtraction is the boundary the external AI pipeline calls when it
// has produced a first-pass translation for a pending document.
func (h *Handler) CompleteExtraction(c *fiber.Ctx) error {
	docID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid document ID")
	}

	var req models.CompleteExtractionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := utils.Validate.Struct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	doc, err := h.Engine.CompleteExtraction(context.Background(), docID, req.ExtractedData, req.AIConfidenceScore, req.AINotes)
	if err != nil {
		return utils.EngineError(c, err)
	}

	return c.JSON(fiber.Map{"document": doc})
}
