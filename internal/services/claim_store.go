/**
 * @description
 * Persistence layer for mining claims.
 * ClaimStore is an interface so the claim flow can be exercised against an
 * in-memory fake in tests; GormClaimStore is the PostgreSQL implementation.
 *
 * @dependencies
 * - gorm.io/gorm
 * - backend/internal/models
 */

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/afx-project/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClaimStore persists mining claims and their matched ledger credits.
type ClaimStore interface {
	// LatestClaim returns the user's most recent claim, or nil when none exists.
	LatestClaim(ctx context.Context, userID uuid.UUID) (*models.MiningClaim, error)
	// WithinClaim runs fn with the user's latest claim locked against
	// concurrent claimants. Writes made through tx commit together or not
	// at all.
	WithinClaim(ctx context.Context, userID uuid.UUID, fn func(tx ClaimStore, last *models.MiningClaim) error) error
	RecordClaim(ctx context.Context, claim *models.MiningClaim) error
	CreditReward(ctx context.Context, credit *models.Coin) error
}

// GormClaimStore implements ClaimStore on PostgreSQL.
type GormClaimStore struct {
	DB *gorm.DB
}

func NewGormClaimStore(db *gorm.DB) *GormClaimStore {
	return &GormClaimStore{DB: db}
}

func (s *GormClaimStore) LatestClaim(ctx context.Context, userID uuid.UUID) (*models.MiningClaim, error) {
	var claim models.MiningClaim
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("claimed_at DESC").
		First(&claim).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

func (s *GormClaimStore) WithinClaim(ctx context.Context, userID uuid.UUID, fn func(tx ClaimStore, last *models.MiningClaim) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the user's latest claim so two concurrent claims can't both
		// pass the cooldown check.
		var last models.MiningClaim
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			Order("claimed_at DESC").
			First(&last).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fn(&GormClaimStore{DB: tx}, nil)
		}
		if err != nil {
			return fmt.Errorf("read last claim: %w", err)
		}
		return fn(&GormClaimStore{DB: tx}, &last)
	})
}

func (s *GormClaimStore) RecordClaim(ctx context.Context, claim *models.MiningClaim) error {
	return s.DB.WithContext(ctx).Create(claim).Error
}

func (s *GormClaimStore) CreditReward(ctx context.Context, credit *models.Coin) error {
	return s.DB.WithContext(ctx).Create(credit).Error
}
