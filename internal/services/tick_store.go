/**
 * @description
 * Persistence layer for the price feed.
 * TickStore covers the append-only tick log; SessionStore covers the durable
 * per-day session state. Both are interfaces so the engine can be exercised
 * against in-memory fakes in tests.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/jackc/pgx/v5/pgconn: Postgres error-code inspection
 * - backend/internal/models
 */

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/afx-project/backend/internal/logger"
	"github.com/afx-project/backend/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Advisory lock key serializing tick writers for the AFX instrument.
// A multi-instrument deployment would derive one key per instrument.
const feedAdvisoryLockKey = 8160

// TickStore is the append-only tick log. Absence is reported as (nil, nil),
// never as an error; real read failures propagate.
type TickStore interface {
	// LatestTick returns the most recent tick by tick_timestamp, or nil when the log is empty.
	LatestTick(ctx context.Context) (*models.CoinTick, error)
	// OpeningTick returns the earliest tick recorded under the given reference date, or nil.
	OpeningTick(ctx context.Context, date string) (*models.CoinTick, error)
	// RecentTicks returns up to limit ticks ordered by tick_timestamp descending.
	RecentTicks(ctx context.Context, limit int) ([]models.CoinTick, error)
	// InsertTick appends one tick. The record is written whole or not at all.
	InsertTick(ctx context.Context, tick *models.CoinTick) error
	// AcquireFeedLock takes the single-writer lock for the instrument and
	// returns a release func. Guarantees at most one session-reset decision
	// per boundary across processes.
	AcquireFeedLock(ctx context.Context) (func(), error)
}

// SessionStore is the durable session state keyed by session date.
type SessionStore interface {
	// SessionForDate returns the session anchored on the given date, or nil when none exists.
	SessionForDate(ctx context.Context, date string) (*models.TradingSession, error)
	// CreateSession inserts the session, or returns the already-persisted row
	// when a concurrent caller won the creation race.
	CreateSession(ctx context.Context, session *models.TradingSession) (*models.TradingSession, error)
}

// GormFeedStore implements TickStore and SessionStore on PostgreSQL.
type GormFeedStore struct {
	DB *gorm.DB
}

func NewGormFeedStore(db *gorm.DB) *GormFeedStore {
	return &GormFeedStore{DB: db}
}

func (s *GormFeedStore) LatestTick(ctx context.Context) (*models.CoinTick, error) {
	var tick models.CoinTick
	err := s.DB.WithContext(ctx).
		Order("tick_timestamp DESC").
		First(&tick).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tick, nil
}

func (s *GormFeedStore) OpeningTick(ctx context.Context, date string) (*models.CoinTick, error) {
	var tick models.CoinTick
	err := s.DB.WithContext(ctx).
		Where("reference_date = ?", date).
		Order("tick_timestamp ASC").
		First(&tick).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tick, nil
}

func (s *GormFeedStore) RecentTicks(ctx context.Context, limit int) ([]models.CoinTick, error) {
	var ticks []models.CoinTick
	err := s.DB.WithContext(ctx).
		Order("tick_timestamp DESC").
		Limit(limit).
		Find(&ticks).Error
	if err != nil {
		return nil, err
	}
	return ticks, nil
}

func (s *GormFeedStore) InsertTick(ctx context.Context, tick *models.CoinTick) error {
	return s.DB.WithContext(ctx).Create(tick).Error
}

func (s *GormFeedStore) SessionForDate(ctx context.Context, date string) (*models.TradingSession, error) {
	var session models.TradingSession
	err := s.DB.WithContext(ctx).
		Where("session_date = ?", date).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *GormFeedStore) CreateSession(ctx context.Context, session *models.TradingSession) (*models.TradingSession, error) {
	err := s.DB.WithContext(ctx).Create(session).Error
	if err == nil {
		return session, nil
	}

	// Concurrent caller created the same session date first; use their row.
	if isUniqueViolation(err) {
		existing, readErr := s.SessionForDate(ctx, session.SessionDate)
		if readErr != nil {
			return nil, readErr
		}
		if existing != nil {
			return existing, nil
		}
	}
	return nil, err
}

// isUniqueViolation reports whether err is a Postgres duplicate-key error.
// The gorm postgres driver is built on pgx/v5, so the error type to match is
// pgx/v5's PgError.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *GormFeedStore) AcquireFeedLock(ctx context.Context) (func(), error) {
	const maxAttempts = 30

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var locked bool
		err := s.DB.WithContext(ctx).Raw("SELECT pg_try_advisory_lock(?)", feedAdvisoryLockKey).Scan(&locked).Error
		if err != nil {
			return nil, err
		}
		if locked {
			return func() {
				if err := s.DB.WithContext(ctx).Exec("SELECT pg_advisory_unlock(?)", feedAdvisoryLockKey).Error; err != nil {
					logger.Error("failed to release feed lock: %v", err)
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}

	return nil, fmt.Errorf("feed lock held by another writer after %d attempts", maxAttempts)
}
