/**
 * @description
 * HTTP Handlers for mining reward claims.
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

type MiningHandler struct {
	Service *services.MiningService
	DB      *gorm.DB
}

func NewMiningHandler(service *services.MiningService, db *gorm.DB) *MiningHandler {
	return &MiningHandler{Service: service, DB: db}
}

// GetStatus reports whether the user can claim and the cooldown remaining.
// GET /api/v1/mining/status
func (h *MiningHandler) GetStatus(c *fiber.Ctx) error {
	user, err := currentUser(c, h.DB)
	if err != nil {
		return currentUserError(c, err)
	}

	status, err := h.Service.Status(c.Context(), user.ID)
	if err != nil {
		logger.Error("MiningStatus: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load mining status"})
	}

	return c.JSON(status)
}

// Claim claims the current mining reward if the cooldown has elapsed.
// POST /api/v1/mining/claim
func (h *MiningHandler) Claim(c *fiber.Ctx) error {
	user, err := currentUser(c, h.DB)
	if err != nil {
		return currentUserError(c, err)
	}

	claim, err := h.Service.Claim(c.Context(), user.ID)
	if err != nil {
		if errors.Is(err, services.ErrClaimOnCooldown) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Claim still on cooldown"})
		}
		logger.Error("MiningClaim: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Claim failed"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"claim":   claim,
	})
}
