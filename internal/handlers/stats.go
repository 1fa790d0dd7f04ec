package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/veridoc/review-backend/internal/models"
	"github.com/veridoc/review-backend/utils"
)

// GetTranslatorStats returns one translator's windowed performance metrics.
func (h *Handler) GetTranslatorStats(c *fiber.Ctx) error {
	translatorID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid translator ID")
	}

	period := models.StatsPeriod(c.Query("period", string(models.PeriodWeek)))
	if !period.Valid() {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid period")
	}

	ts, err := h.Stats.TranslatorStats(context.Background(), translatorID, period)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to compute translator stats")
	}

	return c.JSON(fiber.Map{"stats": ts})
}

// GetLeaderboard ranks translators by approvals within the period.
func (h *Handler) GetLeaderboard(c *fiber.Ctx) error {
	period := models.StatsPeriod(c.Query("period", string(models.PeriodWeek)))
	if !period.Valid() {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid period")
	}

	limit, err := strconv.Atoi(c.Query("limit", "10"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 10
	}

	entries, err := h.Stats.Leaderboard(context.Background(), period, limit)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to compute leaderboard")
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}

	return c.JSON(fiber.Map{
		"period":      period,
		"leaderboard": entries,
	})
}
