/**
 * @description
 * Persistence layer for the balance ledgers and referral aggregates.
 * LedgerStore is an interface so transfer semantics can be exercised against
 * an in-memory fake in tests; GormLedgerStore is the PostgreSQL
 * implementation. Both ledgers are append-only entry logs; a balance is the
 * sum of a user's available entries.
 *
 * @dependencies
 * - gorm.io/gorm
 * - backend/internal/models
 */

package services

import (
	"context"
	"fmt"

	"github.com/afx-project/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ledger identifies one of the two balance ledgers.
type Ledger string

const (
	LedgerDashboard Ledger = "dashboard"
	LedgerP2P       Ledger = "p2p"
)

// LedgerStore reads and appends balance ledger entries.
type LedgerStore interface {
	// AvailableBalance sums the user's available entries in the given ledger.
	AvailableBalance(ctx context.Context, userID uuid.UUID, ledger Ledger) (float64, error)
	ReferralCount(ctx context.Context, userID uuid.UUID) (int64, error)
	ReferralEarnings(ctx context.Context, userID uuid.UUID) (float64, error)
	AppendDashboardEntry(ctx context.Context, entry *models.Coin) error
	AppendP2PEntry(ctx context.Context, entry *models.TradeCoin) error
	// WithinTransfer runs fn against a transactional view of the ledgers.
	// Writes made through tx commit together or not at all.
	WithinTransfer(ctx context.Context, fn func(tx LedgerStore) error) error
}

// GormLedgerStore implements LedgerStore on PostgreSQL.
type GormLedgerStore struct {
	DB *gorm.DB
}

func NewGormLedgerStore(db *gorm.DB) *GormLedgerStore {
	return &GormLedgerStore{DB: db}
}

func (s *GormLedgerStore) AvailableBalance(ctx context.Context, userID uuid.UUID, ledger Ledger) (float64, error) {
	model := interface{}(&models.Coin{})
	if ledger == LedgerP2P {
		model = &models.TradeCoin{}
	}

	var balance float64
	err := s.DB.WithContext(ctx).
		Model(model).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND status = ?", userID, models.CoinStatusAvailable).
		Scan(&balance).Error
	if err != nil {
		return 0, fmt.Errorf("sum %s balance: %w", ledger, err)
	}
	return balance, nil
}

func (s *GormLedgerStore) ReferralCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).
		Model(&models.Referral{}).
		Where("referrer_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count referrals: %w", err)
	}
	return count, nil
}

func (s *GormLedgerStore) ReferralEarnings(ctx context.Context, userID uuid.UUID) (float64, error) {
	var earnings float64
	err := s.DB.WithContext(ctx).
		Model(&models.ReferralCommission{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("referrer_id = ? AND status = ?", userID, models.CommissionStatusCompleted).
		Scan(&earnings).Error
	if err != nil {
		return 0, fmt.Errorf("sum referral earnings: %w", err)
	}
	return earnings, nil
}

func (s *GormLedgerStore) AppendDashboardEntry(ctx context.Context, entry *models.Coin) error {
	return s.DB.WithContext(ctx).Create(entry).Error
}

func (s *GormLedgerStore) AppendP2PEntry(ctx context.Context, entry *models.TradeCoin) error {
	return s.DB.WithContext(ctx).Create(entry).Error
}

func (s *GormLedgerStore) WithinTransfer(ctx context.Context, fn func(tx LedgerStore) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormLedgerStore{DB: tx})
	})
}
