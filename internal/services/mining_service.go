/**
 * @description
 * Mining reward service.
 * Users claim a fixed AFX reward on a cooldown; after the configured halving
 * date the reward drops to the halved amount. A successful claim credits the
 * dashboard ledger and records the claim in one transaction.
 *
 * @dependencies
 * - backend/internal/config
 * - backend/internal/models
 */

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/afx-project/backend/internal/config"
	"github.com/afx-project/backend/internal/models"
	"github.com/google/uuid"
)

// ErrClaimOnCooldown rejects claims before the cooldown window has elapsed.
var ErrClaimOnCooldown = errors.New("mining claim still on cooldown")

// MiningStatus tells the dashboard whether the user can claim and when.
type MiningStatus struct {
	CanMine          bool       `json:"can_mine"`
	SecondsRemaining int64      `json:"seconds_remaining"`
	RewardAmount     float64    `json:"reward_amount"`
	IntervalHours    int        `json:"interval_hours"`
	IsHalved         bool       `json:"is_halved"`
	HalvingDate      *time.Time `json:"halving_date,omitempty"`
	NextClaimAt      *time.Time `json:"next_claim_at,omitempty"`
}

// MiningService handles reward claims
type MiningService struct {
	Store  ClaimStore
	Config config.MiningConfig

	// now is the injectable clock; tests pin it to fixed instants.
	now func() time.Time
}

func NewMiningService(store ClaimStore, cfg config.MiningConfig) *MiningService {
	return &MiningService{
		Store:  store,
		Config: cfg,
		now:    time.Now,
	}
}

// currentReward returns the reward size in effect at the given instant.
func (s *MiningService) currentReward(at time.Time) (float64, bool) {
	if s.Config.HalvingDate != nil && !at.Before(*s.Config.HalvingDate) {
		return s.Config.HalvedReward, true
	}
	return s.Config.RewardAmount, false
}

func (s *MiningService) cooldown() time.Duration {
	return time.Duration(s.Config.IntervalHours) * time.Hour
}

// Status reports claim availability for the user.
func (s *MiningService) Status(ctx context.Context, userID uuid.UUID) (*MiningStatus, error) {
	now := s.now()
	reward, halved := s.currentReward(now)

	status := &MiningStatus{
		CanMine:       true,
		RewardAmount:  reward,
		IntervalHours: s.Config.IntervalHours,
		IsHalved:      halved,
		HalvingDate:   s.Config.HalvingDate,
	}

	lastClaim, err := s.Store.LatestClaim(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read last claim: %w", err)
	}
	if lastClaim == nil {
		return status, nil
	}

	nextClaimAt := lastClaim.ClaimedAt.Add(s.cooldown())
	if now.Before(nextClaimAt) {
		status.CanMine = false
		status.SecondsRemaining = int64(nextClaimAt.Sub(now).Seconds())
		status.NextClaimAt = &nextClaimAt
	}
	return status, nil
}

// Claim enforces the cooldown, then records the claim and credits the
// dashboard ledger atomically.
func (s *MiningService) Claim(ctx context.Context, userID uuid.UUID) (*models.MiningClaim, error) {
	now := s.now()
	reward, _ := s.currentReward(now)

	claim := &models.MiningClaim{
		UserID:    userID,
		Amount:    reward,
		ClaimedAt: now,
	}

	err := s.Store.WithinClaim(ctx, userID, func(tx ClaimStore, last *models.MiningClaim) error {
		if last != nil && now.Before(last.ClaimedAt.Add(s.cooldown())) {
			return ErrClaimOnCooldown
		}

		if err := tx.RecordClaim(ctx, claim); err != nil {
			return fmt.Errorf("record claim: %w", err)
		}

		credit := &models.Coin{
			UserID: userID,
			Amount: reward,
			Status: models.CoinStatusAvailable,
			Source: models.CoinSourceMining,
		}
		if err := tx.CreditReward(ctx, credit); err != nil {
			return fmt.Errorf("credit reward: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}
