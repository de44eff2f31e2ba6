package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/afx-project/backend/internal/config"
	"github.com/afx-project/backend/internal/models"
	"github.com/google/uuid"
)

// fakeClaimStore is an in-memory ClaimStore.
type fakeClaimStore struct {
	claims  []models.MiningClaim
	credits []models.Coin
}

func (f *fakeClaimStore) LatestClaim(ctx context.Context, userID uuid.UUID) (*models.MiningClaim, error) {
	var latest *models.MiningClaim
	for i := range f.claims {
		claim := &f.claims[i]
		if claim.UserID != userID {
			continue
		}
		if latest == nil || claim.ClaimedAt.After(latest.ClaimedAt) {
			latest = claim
		}
	}
	return latest, nil
}

func (f *fakeClaimStore) WithinClaim(ctx context.Context, userID uuid.UUID, fn func(tx ClaimStore, last *models.MiningClaim) error) error {
	last, _ := f.LatestClaim(ctx, userID)
	return fn(f, last)
}

func (f *fakeClaimStore) RecordClaim(ctx context.Context, claim *models.MiningClaim) error {
	f.claims = append(f.claims, *claim)
	return nil
}

func (f *fakeClaimStore) CreditReward(ctx context.Context, credit *models.Coin) error {
	f.credits = append(f.credits, *credit)
	return nil
}

func newTestMiningService(store ClaimStore, cfg config.MiningConfig, at time.Time) *MiningService {
	s := NewMiningService(store, cfg)
	s.now = func() time.Time { return at }
	return s
}

func TestCurrentRewardHalvesAfterHalvingDate(t *testing.T) {
	halving := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	s := NewMiningService(nil, config.MiningConfig{
		RewardAmount:  0.5,
		HalvedReward:  0.15,
		IntervalHours: 5,
		HalvingDate:   &halving,
	})

	reward, halved := s.currentReward(halving.Add(-time.Hour))
	if reward != 0.5 || halved {
		t.Fatalf("before halving: got reward %.2f halved=%v, want 0.50 false", reward, halved)
	}

	reward, halved = s.currentReward(halving)
	if reward != 0.15 || !halved {
		t.Fatalf("at halving: got reward %.2f halved=%v, want 0.15 true", reward, halved)
	}

	reward, halved = s.currentReward(halving.Add(24 * time.Hour))
	if reward != 0.15 || !halved {
		t.Fatalf("after halving: got reward %.2f halved=%v, want 0.15 true", reward, halved)
	}
}

func TestCurrentRewardWithoutHalvingDate(t *testing.T) {
	s := NewMiningService(nil, config.MiningConfig{
		RewardAmount:  0.5,
		HalvedReward:  0.15,
		IntervalHours: 5,
	})

	reward, halved := s.currentReward(time.Now().Add(10 * 365 * 24 * time.Hour))
	if reward != 0.5 || halved {
		t.Fatalf("got reward %.2f halved=%v, want 0.50 false", reward, halved)
	}
}

func TestCooldownDuration(t *testing.T) {
	s := NewMiningService(nil, config.MiningConfig{IntervalHours: 5})
	if got := s.cooldown(); got != 5*time.Hour {
		t.Fatalf("cooldown %s, want 5h", got)
	}
}

func TestClaimRejectedBeforeCooldownExpiry(t *testing.T) {
	userID := uuid.New()
	lastClaimed := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := &fakeClaimStore{
		claims: []models.MiningClaim{{UserID: userID, Amount: 0.5, ClaimedAt: lastClaimed}},
	}

	// 4h into a 5h cooldown.
	s := newTestMiningService(store, config.MiningConfig{RewardAmount: 0.5, IntervalHours: 5}, lastClaimed.Add(4*time.Hour))

	_, err := s.Claim(context.Background(), userID)
	if !errors.Is(err, ErrClaimOnCooldown) {
		t.Fatalf("got err %v, want ErrClaimOnCooldown", err)
	}
	if len(store.claims) != 1 {
		t.Fatalf("rejected claim was recorded: %d claims", len(store.claims))
	}
	if len(store.credits) != 0 {
		t.Fatalf("rejected claim credited the ledger: %d credits", len(store.credits))
	}
}

func TestClaimSucceedsAfterCooldown(t *testing.T) {
	userID := uuid.New()
	lastClaimed := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := &fakeClaimStore{
		claims: []models.MiningClaim{{UserID: userID, Amount: 0.5, ClaimedAt: lastClaimed}},
	}

	now := lastClaimed.Add(5 * time.Hour)
	s := newTestMiningService(store, config.MiningConfig{RewardAmount: 0.5, IntervalHours: 5}, now)

	claim, err := s.Claim(context.Background(), userID)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if claim.Amount != 0.5 || !claim.ClaimedAt.Equal(now) {
		t.Fatalf("got claim amount %.2f at %s, want 0.50 at %s", claim.Amount, claim.ClaimedAt, now)
	}
	if len(store.claims) != 2 {
		t.Fatalf("got %d claims, want 2", len(store.claims))
	}
	if len(store.credits) != 1 {
		t.Fatalf("got %d ledger credits, want 1", len(store.credits))
	}
	credit := store.credits[0]
	if credit.UserID != userID || credit.Amount != 0.5 || credit.Source != models.CoinSourceMining {
		t.Fatalf("unexpected ledger credit: %+v", credit)
	}
}

func TestFirstClaimSucceeds(t *testing.T) {
	store := &fakeClaimStore{}
	s := newTestMiningService(store, config.MiningConfig{RewardAmount: 0.5, IntervalHours: 5},
		time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))

	if _, err := s.Claim(context.Background(), uuid.New()); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	if len(store.claims) != 1 || len(store.credits) != 1 {
		t.Fatalf("got %d claims and %d credits, want 1 and 1", len(store.claims), len(store.credits))
	}
}

func TestClaimUsesHalvedRewardAfterHalving(t *testing.T) {
	halving := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeClaimStore{}
	s := newTestMiningService(store, config.MiningConfig{
		RewardAmount:  0.5,
		HalvedReward:  0.15,
		IntervalHours: 5,
		HalvingDate:   &halving,
	}, halving.Add(time.Hour))

	claim, err := s.Claim(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if claim.Amount != 0.15 {
		t.Fatalf("got claim amount %.2f, want halved 0.15", claim.Amount)
	}
	if store.credits[0].Amount != 0.15 {
		t.Fatalf("got credit amount %.2f, want halved 0.15", store.credits[0].Amount)
	}
}

func TestStatusReflectsCooldown(t *testing.T) {
	userID := uuid.New()
	lastClaimed := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := &fakeClaimStore{
		claims: []models.MiningClaim{{UserID: userID, Amount: 0.5, ClaimedAt: lastClaimed}},
	}

	s := newTestMiningService(store, config.MiningConfig{RewardAmount: 0.5, IntervalHours: 5}, lastClaimed.Add(2*time.Hour))

	status, err := s.Status(context.Background(), userID)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.CanMine {
		t.Fatal("can_mine true during cooldown")
	}
	if status.SecondsRemaining != int64((3 * time.Hour).Seconds()) {
		t.Fatalf("got %d seconds remaining, want %d", status.SecondsRemaining, int64((3*time.Hour).Seconds()))
	}
}
