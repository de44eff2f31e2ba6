/**
 * @description
 * HTTP Handlers for the AFX price feed.
 * Exposes the tick-generation trigger, the history read model, and the SSE
 * live stream.
 *
 * @dependencies
 * - backend/internal/services
 * - github.com/gofiber/fiber/v2
 */

package handlers

import (
	"bufio"
	"errors"
	"fmt"

	"github.com/afx-project/backend/internal/logger"
	"github.com/afx-project/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type PriceHandler struct {
	Service *services.TickService
	Hub     *services.TickStreamHub
}

func NewPriceHandler(service *services.TickService, hub *services.TickStreamHub) *PriceHandler {
	return &PriceHandler{Service: service, Hub: hub}
}

// GenerateTick runs the engine once and returns the fresh observation.
// GET /api/v1/price/tick
func (h *PriceHandler) GenerateTick(c *fiber.Ctx) error {
	result, err := h.Service.GenerateTick(c.Context())
	if err != nil {
		if errors.Is(err, services.ErrTickStorage) {
			logger.Error("GenerateTick: storage failure: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store price"})
		}
		logger.Error("GenerateTick: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}

	return c.JSON(result)
}

// GetHistory returns the most recent ticks, newest first.
// GET /api/v1/price/history?limit=N
func (h *PriceHandler) GetHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)

	ticks, err := h.Service.History(c.Context(), limit)
	if err != nil {
		logger.Error("GetHistory: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read price history"})
	}

	return c.JSON(ticks)
}

// StreamTicks streams live tick updates over SSE
// GET /api/v1/price/stream
func (h *PriceHandler) StreamTicks(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	requestCtx := c.Context()

	ch, unsubscribe := h.Hub.Subscribe()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()

		requestDone := requestCtx.Done()

		for {
			select {
			case <-requestDone:
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				fmt.Fprintf(w, "data: %s\n\n", msg)
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})

	return nil
}
