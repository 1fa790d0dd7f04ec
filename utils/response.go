package utils

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/veridoc/review-backend/internal/workflow"
)

var Validate = validator.New()

func ErrorResponse(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

// EngineError maps a workflow error to its HTTP response. Conflict and
// Unauthorized carry the user-facing wording from the review UI; anything
// unrecognized is a store/I-O failure and surfaces as a 500.
func EngineError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, workflow.ErrConflict):
		return ErrorResponse(c, fiber.StatusConflict, "This document was just claimed by someone else")
	case errors.Is(err, workflow.ErrUnauthorized):
		return ErrorResponse(c, fiber.StatusForbidden, "You no longer hold this document")
	case errors.Is(err, workflow.ErrInvalidState):
		return ErrorResponse(c, fiber.StatusUnprocessableEntity, "This action is no longer available for this document")
	case errors.Is(err, workflow.ErrNotFound):
		return ErrorResponse(c, fiber.StatusNotFound, "Document not found")
	case errors.Is(err, workflow.ErrValidation):
		return ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}
	return ErrorResponse(c, fiber.StatusInternalServerError, "Internal server error")
}
