/**
 * @description
 * HTTP Handlers for dashboard statistics and balance transfers.
 *
 * @dependencies
 * - backend/internal/services
 * - github.com/gofiber/fiber/v2
 */

package handlers

import (
	"errors"

	"github.com/afx-project/backend/internal/logger"
	"github.com/afx-project/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type StatsHandler struct {
	Service *services.StatsService
	DB      *gorm.DB
}

func NewStatsHandler(service *services.StatsService, db *gorm.DB) *StatsHandler {
	return &StatsHandler{Service: service, DB: db}
}

// GetDashboardStats returns the user's balances and referral aggregates.
// GET /api/v1/stats/dashboard
func (h *StatsHandler) GetDashboardStats(c *fiber.Ctx) error {
	user, err := currentUser(c, h.DB)
	if err != nil {
		return currentUserError(c, err)
	}

	stats, err := h.Service.GetDashboardStats(c.Context(), user.ID)
	if err != nil {
		logger.Error("GetDashboardStats: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load dashboard stats"})
	}

	return c.JSON(stats)
}

// TransferBalanceRequest defines payload for moving funds between ledgers
type TransferBalanceRequest struct {
	Amount    float64 `json:"amount"`
	Direction string  `json:"direction"` // "to_p2p" or "to_dashboard"
}

// TransferBalance moves funds between the dashboard and P2P balances.
// POST /api/v1/stats/transfer
func (h *StatsHandler) TransferBalance(c *fiber.Ctx) error {
	user, err := currentUser(c, h.DB)
	if err != nil {
		return currentUserError(c, err)
	}

	var req TransferBalanceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "amount must be positive"})
	}

	err = h.Service.TransferBalance(c.Context(), user.ID, req.Amount, services.TransferDirection(req.Direction))
	if err != nil {
		if errors.Is(err, services.ErrInsufficientBalance) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Insufficient available balance"})
		}
		logger.Error("TransferBalance: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Transfer failed"})
	}

	return c.JSON(fiber.Map{"status": "ok"})
}
