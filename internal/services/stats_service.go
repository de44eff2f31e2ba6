/**
 * @description
 * Dashboard statistics service.
 * Aggregates balances and referral earnings for the dashboard header, and
 * moves funds between the dashboard and P2P ledgers.
 *
 * @dependencies
 * - backend/internal/models
 */

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/afx-project/backend/internal/models"
	"github.com/google/uuid"
)

// ErrInsufficientBalance rejects transfers larger than the available source balance.
var ErrInsufficientBalance = errors.New("insufficient available balance")

type TransferDirection string

const (
	TransferToP2P       TransferDirection = "to_p2p"
	TransferToDashboard TransferDirection = "to_dashboard"
)

// DashboardStats is the aggregate read model behind the dashboard header.
type DashboardStats struct {
	DashboardBalance float64 `json:"dashboard_balance"`
	P2PBalance       float64 `json:"p2p_balance"`
	TotalReferrals   int64   `json:"total_referrals"`
	ReferralEarnings float64 `json:"referral_earnings"`
}

// StatsService handles balance and referral aggregation
type StatsService struct {
	Store LedgerStore
}

func NewStatsService(store LedgerStore) *StatsService {
	return &StatsService{Store: store}
}

// GetDashboardStats aggregates the user's available balances, referral count,
// and completed referral earnings.
func (s *StatsService) GetDashboardStats(ctx context.Context, userID uuid.UUID) (*DashboardStats, error) {
	stats := &DashboardStats{}
	var err error

	if stats.DashboardBalance, err = s.Store.AvailableBalance(ctx, userID, LedgerDashboard); err != nil {
		return nil, err
	}
	if stats.P2PBalance, err = s.Store.AvailableBalance(ctx, userID, LedgerP2P); err != nil {
		return nil, err
	}
	if stats.TotalReferrals, err = s.Store.ReferralCount(ctx, userID); err != nil {
		return nil, err
	}
	if stats.ReferralEarnings, err = s.Store.ReferralEarnings(ctx, userID); err != nil {
		return nil, err
	}

	return stats, nil
}

// TransferBalance moves an amount between the dashboard and P2P ledgers as a
// matched debit/credit pair in one transaction. The availability check runs
// inside the same transaction as the writes.
func (s *StatsService) TransferBalance(ctx context.Context, userID uuid.UUID, amount float64, direction TransferDirection) error {
	if amount <= 0 {
		return fmt.Errorf("transfer amount must be positive")
	}
	if direction != TransferToP2P && direction != TransferToDashboard {
		return fmt.Errorf("unknown transfer direction %q", direction)
	}

	return s.Store.WithinTransfer(ctx, func(tx LedgerStore) error {
		source := LedgerDashboard
		if direction == TransferToDashboard {
			source = LedgerP2P
		}

		available, err := tx.AvailableBalance(ctx, userID, source)
		if err != nil {
			return err
		}
		if available < amount {
			return ErrInsufficientBalance
		}

		if direction == TransferToP2P {
			debit := &models.Coin{UserID: userID, Amount: -amount, Status: models.CoinStatusAvailable, Source: models.CoinSourceTransfer}
			credit := &models.TradeCoin{UserID: userID, Amount: amount, Status: models.CoinStatusAvailable}
			if err := tx.AppendDashboardEntry(ctx, debit); err != nil {
				return fmt.Errorf("debit dashboard balance: %w", err)
			}
			if err := tx.AppendP2PEntry(ctx, credit); err != nil {
				return fmt.Errorf("credit p2p balance: %w", err)
			}
			return nil
		}

		debit := &models.TradeCoin{UserID: userID, Amount: -amount, Status: models.CoinStatusAvailable}
		credit := &models.Coin{UserID: userID, Amount: amount, Status: models.CoinStatusAvailable, Source: models.CoinSourceTransfer}
		if err := tx.AppendP2PEntry(ctx, debit); err != nil {
			return fmt.Errorf("debit p2p balance: %w", err)
		}
		if err := tx.AppendDashboardEntry(ctx, credit); err != nil {
			return fmt.Errorf("credit dashboard balance: %w", err)
		}
		return nil
	})
}
