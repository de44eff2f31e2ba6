package services

import (
	"context"
	"errors"
	"testing"

	"github.com/afx-project/backend/internal/models"
	"github.com/google/uuid"
)

// fakeLedgerStore is an in-memory LedgerStore.
type fakeLedgerStore struct {
	dashboard []models.Coin
	p2p       []models.TradeCoin
	referrals int64
	earnings  float64
}

func (f *fakeLedgerStore) AvailableBalance(ctx context.Context, userID uuid.UUID, ledger Ledger) (float64, error) {
	var sum float64
	if ledger == LedgerP2P {
		for _, entry := range f.p2p {
			if entry.UserID == userID && entry.Status == models.CoinStatusAvailable {
				sum += entry.Amount
			}
		}
		return sum, nil
	}
	for _, entry := range f.dashboard {
		if entry.UserID == userID && entry.Status == models.CoinStatusAvailable {
			sum += entry.Amount
		}
	}
	return sum, nil
}

func (f *fakeLedgerStore) ReferralCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return f.referrals, nil
}

func (f *fakeLedgerStore) ReferralEarnings(ctx context.Context, userID uuid.UUID) (float64, error) {
	return f.earnings, nil
}

func (f *fakeLedgerStore) AppendDashboardEntry(ctx context.Context, entry *models.Coin) error {
	f.dashboard = append(f.dashboard, *entry)
	return nil
}

func (f *fakeLedgerStore) AppendP2PEntry(ctx context.Context, entry *models.TradeCoin) error {
	f.p2p = append(f.p2p, *entry)
	return nil
}

func (f *fakeLedgerStore) WithinTransfer(ctx context.Context, fn func(tx LedgerStore) error) error {
	return fn(f)
}

func TestTransferRejectsAmountExceedingAvailable(t *testing.T) {
	userID := uuid.New()
	store := &fakeLedgerStore{
		dashboard: []models.Coin{{UserID: userID, Amount: 10, Status: models.CoinStatusAvailable, Source: models.CoinSourceMining}},
	}
	s := NewStatsService(store)

	err := s.TransferBalance(context.Background(), userID, 25, TransferToP2P)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("got err %v, want ErrInsufficientBalance", err)
	}
	if len(store.dashboard) != 1 || len(store.p2p) != 0 {
		t.Fatalf("rejected transfer touched the ledgers: %d dashboard, %d p2p entries",
			len(store.dashboard), len(store.p2p))
	}
}

func TestTransferMovesMatchedPair(t *testing.T) {
	userID := uuid.New()
	store := &fakeLedgerStore{
		dashboard: []models.Coin{{UserID: userID, Amount: 10, Status: models.CoinStatusAvailable, Source: models.CoinSourceMining}},
	}
	s := NewStatsService(store)

	if err := s.TransferBalance(context.Background(), userID, 4, TransferToP2P); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	debit := store.dashboard[len(store.dashboard)-1]
	if debit.Amount != -4 || debit.Source != models.CoinSourceTransfer {
		t.Fatalf("unexpected dashboard debit: %+v", debit)
	}
	credit := store.p2p[len(store.p2p)-1]
	if credit.Amount != 4 {
		t.Fatalf("unexpected p2p credit: %+v", credit)
	}

	dashboard, _ := store.AvailableBalance(context.Background(), userID, LedgerDashboard)
	p2p, _ := store.AvailableBalance(context.Background(), userID, LedgerP2P)
	if dashboard != 6 || p2p != 4 {
		t.Fatalf("got balances dashboard=%.2f p2p=%.2f, want 6.00 and 4.00", dashboard, p2p)
	}
}

func TestTransferToDashboardChecksP2PBalance(t *testing.T) {
	userID := uuid.New()
	store := &fakeLedgerStore{
		p2p: []models.TradeCoin{{UserID: userID, Amount: 3, Status: models.CoinStatusAvailable}},
	}
	s := NewStatsService(store)

	if err := s.TransferBalance(context.Background(), userID, 5, TransferToDashboard); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("got err %v, want ErrInsufficientBalance", err)
	}
	if err := s.TransferBalance(context.Background(), userID, 2, TransferToDashboard); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	dashboard, _ := store.AvailableBalance(context.Background(), userID, LedgerDashboard)
	p2p, _ := store.AvailableBalance(context.Background(), userID, LedgerP2P)
	if dashboard != 2 || p2p != 1 {
		t.Fatalf("got balances dashboard=%.2f p2p=%.2f, want 2.00 and 1.00", dashboard, p2p)
	}
}

func TestTransferRejectsInvalidInput(t *testing.T) {
	s := NewStatsService(&fakeLedgerStore{})

	if err := s.TransferBalance(context.Background(), uuid.New(), 0, TransferToP2P); err == nil {
		t.Fatal("zero amount accepted")
	}
	if err := s.TransferBalance(context.Background(), uuid.New(), -1, TransferToP2P); err == nil {
		t.Fatal("negative amount accepted")
	}
	if err := s.TransferBalance(context.Background(), uuid.New(), 1, TransferDirection("sideways")); err == nil {
		t.Fatal("unknown direction accepted")
	}
}

func TestDashboardStatsAggregation(t *testing.T) {
	userID := uuid.New()
	store := &fakeLedgerStore{
		dashboard: []models.Coin{
			{UserID: userID, Amount: 10, Status: models.CoinStatusAvailable, Source: models.CoinSourceMining},
			{UserID: userID, Amount: -4, Status: models.CoinStatusAvailable, Source: models.CoinSourceTransfer},
		},
		p2p:       []models.TradeCoin{{UserID: userID, Amount: 4, Status: models.CoinStatusAvailable}},
		referrals: 3,
		earnings:  1.5,
	}
	s := NewStatsService(store)

	stats, err := s.GetDashboardStats(context.Background(), userID)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.DashboardBalance != 6 || stats.P2PBalance != 4 {
		t.Fatalf("got balances dashboard=%.2f p2p=%.2f, want 6.00 and 4.00", stats.DashboardBalance, stats.P2PBalance)
	}
	if stats.TotalReferrals != 3 || stats.ReferralEarnings != 1.5 {
		t.Fatalf("got referrals=%d earnings=%.2f, want 3 and 1.50", stats.TotalReferrals, stats.ReferralEarnings)
	}
}
