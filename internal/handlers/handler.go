package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/veridoc/review-backend/internal/services"
	"github.com/veridoc/review-backend/internal/stats"
	"github.com/veridoc/review-backend/internal/store"
	"github.com/veridoc/review-backend/internal/workflow"
)

// Handler holds the service dependencies the HTTP layer needs. Constructed
// once in main and shared by all routes.
type Handler struct {
	Engine    *workflow.Engine
	Stats     *stats.Aggregator
	Store     store.Store
	Users     *mongo.Collection
	Extractor *services.ExtractionService
}

func New(engine *workflow.Engine, agg *stats.Aggregator, s store.Store, users *mongo.Collection, extractor *services.ExtractionService) *Handler {
	return &Handler{
		Engine:    engine,
		Stats:     agg,
		Store:     s,
		Users:     users,
		Extractor: extractor,
	}
}

func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
