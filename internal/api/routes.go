/**
 * @description
 * API Route definitions.
 * Sets up the router groups and assigns handlers.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/api/handlers
 * - backend/internal/api/middleware
 * - backend/internal/services
 */

package api

import (
	"log"

	"github.com/afx-project/backend/internal/api/handlers"
	"github.com/afx-project/backend/internal/api/middleware"
	"github.com/afx-project/backend/internal/config"
	"github.com/afx-project/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, db *gorm.DB, rdb *redis.Client, cfg *config.Config) {
	// 1. Initialize Middleware
	if err := middleware.InitAuthMiddleware(cfg); err != nil {
		log.Printf("Failed to init auth middleware: %v", err)
		// We don't panic here to allow app to start in dev modes without valid keys,
		// but protected routes will fail.
	}

	// 2. Initialize Services
	feedStore := services.NewGormFeedStore(db)
	tickService := services.NewTickService(feedStore, feedStore, rdb, cfg.Engine)
	tickHub := services.NewTickStreamHub(rdb)
	statsService := services.NewStatsService(services.NewGormLedgerStore(db))
	miningService := services.NewMiningService(services.NewGormClaimStore(db), cfg.Mining)

	// 3. Initialize Handlers
	priceHandler := handlers.NewPriceHandler(tickService, tickHub)
	userHandler := handlers.NewUserHandler(db)
	statsHandler := handlers.NewStatsHandler(statsService, db)
	miningHandler := handlers.NewMiningHandler(miningService, db)

	// 4. Define Routes
	apiGroup := app.Group("/api")
	v1 := apiGroup.Group("/v1")

	// Public Routes
	v1.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Price Routes (Public)
	price := v1.Group("/price")
	price.Get("/tick", priceHandler.GenerateTick)
	price.Get("/history", priceHandler.GetHistory)
	price.Get("/stream", priceHandler.StreamTicks)

	// User Routes (Protected)
	user := v1.Group("/user", middleware.Protected())
	user.Post("/sync", userHandler.SyncUser)
	user.Get("/me", userHandler.GetMe)

	// Stats Routes (Protected)
	stats := v1.Group("/stats", middleware.Protected())
	stats.Get("/dashboard", statsHandler.GetDashboardStats)
	stats.Post("/transfer", statsHandler.TransferBalance)

	// Mining Routes (Protected)
	mining := v1.Group("/mining", middleware.Protected())
	mining.Get("/status", miningHandler.GetStatus)
	mining.Post("/claim", miningHandler.Claim)
}
