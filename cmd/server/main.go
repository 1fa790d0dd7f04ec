package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/veridoc/review-backend/internal/database"
	"github.com/veridoc/review-backend/internal/handlers"
	"github.com/veridoc/review-backend/internal/services"
	"github.com/veridoc/review-backend/internal/stats"
	"github.com/veridoc/review-backend/internal/store"
	"github.com/veridoc/review-backend/internal/workflow"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize database
	client, db, err := database.Connect()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Disconnect(client)

	st := store.NewMongoStore(db)
	if err := st.EnsureIndexes(context.Background()); err != nil {
		log.Fatal("Failed to create indexes:", err)
	}

	engine := workflow.NewEngine(st, workflow.NewEmitter(st))
	aggregator := stats.NewAggregator(st)
	extractor := services.NewExtractionService()
	if extractor == nil {
		log.Println("EXTRACTION_API_KEY not set, automatic extraction disabled")
	}

	h := handlers.New(engine, aggregator, st, db.Collection("users"), extractor)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: os.Getenv("FRONTEND_URL"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
	}))

	// Routes
	api := app.Group("/api/v1")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", h.Signup)
	auth.Post("/login", h.Login)
	auth.Get("/me", handlers.AuthMiddleware, h.Me)

	// AI pipeline boundary (shared-key auth, not JWT)
	api.Post("/documents/:id/extraction", handlers.PipelineMiddleware, h.CompleteExtraction)

	// Protected routes
	api.Use(handlers.AuthMiddleware)

	// Queue routes
	api.Get("/queue", h.ListQueue)
	api.Get("/queue/stats", h.GetQueueStats)
	api.Get("/assigned", h.ListAssigned)

	// Document routes
	api.Post("/documents", h.Ingest)
	api.Get("/documents/:id", h.GetDocument)
	api.Post("/documents/:id/claim", h.Claim)
	api.Post("/documents/:id/release", h.Release)
	api.Put("/documents/:id/save", h.Save)
	api.Post("/documents/:id/approve", h.Approve)
	api.Post("/documents/:id/reject", h.Reject)

	// Stats routes
	api.Get("/stats/translators/:id", h.GetTranslatorStats)
	api.Get("/stats/leaderboard", h.GetLeaderboard)

	// Notification routes
	api.Get("/notifications", h.ListNotifications)
	api.Put("/notifications/read-all", h.MarkAllRead)
	api.Put("/notifications/:id/read", h.MarkRead)

	// Admin routes (protected by Auth + Admin middleware)
	admin := api.Group("/admin")
	admin.Use(handlers.AdminMiddleware)
	admin.Get("/stats", h.GetAdminStats)
	admin.Get("/users", h.GetAllUsers)

	// Optional stale-claim sweep; disabled unless configured
	if v := os.Getenv("STALE_CLAIM_MINUTES"); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil || minutes < 1 {
			log.Fatalf("Invalid STALE_CLAIM_MINUTES: %q", v)
		}
		idle := time.Duration(minutes) * time.Minute
		go func() {
			ticker := time.NewTicker(idle / 2)
			defer ticker.Stop()
			for range ticker.C {
				n, err := engine.ReleaseStale(context.Background(), idle)
				if err != nil {
					log.Printf("stale-claim sweep failed: %v", err)
					continue
				}
				if n > 0 {
					log.Printf("stale-claim sweep released %d document(s)", n)
				}
			}
		}()
		log.Printf("Stale-claim sweep enabled, idle threshold %d minutes", minutes)
	}

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	log.Fatal(app.Listen(":" + port))
}
