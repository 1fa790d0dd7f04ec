package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/veridoc/review-backend/utils"
)

// GetAdminStats returns aggregate counts for the admin dashboard.
func (h *Handler) GetAdminStats(c *fiber.Ctx) error {
	ctx := context.Background()

	qs, err := h.Stats.QueueStats(ctx)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to compute queue stats")
	}

	usersCount, _ := h.Users.CountDocuments(ctx, bson.M{})

	return c.JSON(fiber.Map{
		"stats": fiber.Map{
			"totalUsers": usersCount,
			"queue":      qs,
		},
	})
}

// GetAllUsers returns a list of users with basic public fields
func (h *Handler) GetAllUsers(c *fiber.Ctx) error {
	ctx := context.Background()

	page, limit := pagination(c)
	q := c.Query("q", "")

	filter := bson.M{}
	if q != "" {
		// search by email or name (case-insensitive contains)
		filter = bson.M{"$or": []bson.M{
			{"email": bson.M{"$regex": q, "$options": "i"}},
			{"name": bson.M{"$regex": q, "$options": "i"}},
		}}
	}

	total, err := h.Users.CountDocuments(ctx, filter)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Internal server error")
	}

	findOpts := options.Find().
		SetProjection(bson.M{"password": 0}).
		SetSort(bson.M{"createdAt": -1}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := h.Users.Find(ctx, filter, findOpts)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Internal server error")
	}
	defer cursor.Close(ctx)

	var users []bson.M
	if err := cursor.All(ctx, &users); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Internal server error")
	}

	totalPages := (total + int64(limit) - 1) / int64(limit)

	return c.JSON(fiber.Map{
		"users":      users,
		"page":       page,
		"limit":      limit,
		"total":      total,
		"totalPages": totalPages,
	})
}
