/**
 * @description
 * Worker Service Entry Point.
 * The scheduled caller of the tick engine: generates one price observation per
 * configured interval. Failures are logged and left for the next cycle; the
 * engine itself never retries.
 *
 * @dependencies
 * - backend/internal/config
 * - backend/internal/db
 * - backend/internal/services
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/afx-project/backend/internal/config"
	"github.com/afx-project/backend/internal/db"
	"github.com/afx-project/backend/internal/logger"
	"github.com/afx-project/backend/internal/services"
)

func main() {
	logger.Info("🔥 Starting AFX Tick Worker...")

	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	// 2. Connect DBs
	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("Postgres connection failed: %v", err)
	}

	redisClient, err := db.ConnectRedis(cfg)
	if err != nil {
		logger.Fatal("Redis connection failed: %v", err)
	}

	// 3. Initialize Services
	feedStore := services.NewGormFeedStore(pgDB)
	tickService := services.NewTickService(feedStore, feedStore, redisClient, cfg.Engine)

	// 4. Context with Cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 5. Tick Loop
	go func() {
		ticker := time.NewTicker(cfg.Engine.TickInterval)
		defer ticker.Stop()

		// Generate one tick immediately so a fresh deploy has data
		generateTick(ctx, tickService)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				generateTick(ctx, tickService)
			}
		}
	}()

	logger.Info("⛏️ Tick worker running (every %s)", cfg.Engine.TickInterval)

	// 6. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	cancel()

	time.Sleep(1 * time.Second) // Give in-flight work time to finish
	logger.Info("Worker exited.")
}

// generateTick runs the engine once with a bounded deadline
func generateTick(ctx context.Context, ts *services.TickService) {
	tickCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result, err := ts.GenerateTick(tickCtx)
	if err != nil {
		logger.Error("Tick generation failed: %v", err)
		return
	}

	logger.Info("Tick: price=%.2f high=%.2f low=%.2f change=%.2f%%",
		result.Price, result.High, result.Low, result.ChangePercent)
}
