/**
 * @description
 * The tick engine: synthesizes the next AFX price observation from the
 * persisted history and the wall clock, persists it, caches it, and publishes
 * it for live consumers.
 *
 * A trading session runs from one reset-hour boundary to the next. Session
 * state (opening price, growth target) is persisted once per session date;
 * every tick within the session evolves the price toward the same target via
 * a bounded random walk with a mean-reversion drift.
 *
 * @dependencies
 * - backend/internal/config
 * - backend/internal/models
 * - github.com/redis/go-redis/v9
 */

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/afx-project/backend/internal/config"
	"github.com/afx-project/backend/internal/logger"
	"github.com/afx-project/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	CacheKeyLatestTick = "price:latest_tick"
	LatestTickCacheTTL = 5 * time.Minute

	TickUpdateChannel = "price:tick_updates"

	// Fraction of the gap between the expected trajectory price and the
	// current price applied as a corrective pull each tick.
	driftFactor = 0.05

	// Published prices never fall below one cent.
	floorPrice = 0.01

	minutesPerDay = 24 * 60
)

// ErrTickStorage marks failures reading from or writing to the tick log.
// Callers retry on their next cycle; the engine never retries.
var ErrTickStorage = errors.New("tick storage failure")

// TickResult is the outward-facing result of one engine invocation.
// All prices carry exactly two decimal places.
type TickResult struct {
	Price         float64   `json:"price"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Average       float64   `json:"average"`
	ChangePercent float64   `json:"change_percent"`
	Timestamp     time.Time `json:"timestamp"`
}

// TickService drives the synthetic price feed.
type TickService struct {
	Store    TickStore
	Sessions SessionStore
	Redis    *redis.Client
	Engine   config.EngineConfig

	// now is the injectable clock; tests pin it to fixed instants.
	now func() time.Time

	// mu serializes in-process callers and guards rng.
	mu  sync.Mutex
	rng *rand.Rand
}

func NewTickService(store TickStore, sessions SessionStore, rdb *redis.Client, engine config.EngineConfig) *TickService {
	return &TickService{
		Store:    store,
		Sessions: sessions,
		Redis:    rdb,
		Engine:   engine,
		now:      time.Now,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GenerateTick runs the engine once: read latest -> resolve session ->
// evolve price -> persist -> cache & publish. Serialized across processes by
// the store's advisory lock.
func (s *TickService) GenerateTick(ctx context.Context) (*TickResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	release, err := s.Store.AcquireFeedLock(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquire feed lock: %v", ErrTickStorage, err)
	}
	defer release()

	now := s.now()
	today := now.Format(time.DateOnly)

	latest, err := s.Store.LatestTick(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: read latest tick: %v", ErrTickStorage, err)
	}

	session, currentPrice, err := s.resolveSession(ctx, latest, now, today)
	if err != nil {
		return nil, err
	}

	progress := progressRatio(now, s.Engine.ResetHour)
	price, high, low, average := evolvePrice(
		currentPrice,
		session.OpeningPrice,
		session.TargetGrowth,
		s.Engine.Volatility,
		progress,
		s.rng.Float64(),
		s.rng.Float64(),
	)

	tick := &models.CoinTick{
		Price:         price,
		High:          high,
		Low:           low,
		Average:       average,
		ReferenceDate: today,
		TickTimestamp: now,
	}
	if err := s.Store.InsertTick(ctx, tick); err != nil {
		return nil, fmt.Errorf("%w: insert tick: %v", ErrTickStorage, err)
	}

	result := &TickResult{
		Price:         price,
		High:          high,
		Low:           low,
		Average:       average,
		ChangePercent: (price - session.OpeningPrice) / session.OpeningPrice * 100,
		Timestamp:     now,
	}

	s.cacheAndPublish(ctx, result)

	return result, nil
}

// History returns the most recent ticks, newest first, for the dashboard chart.
func (s *TickService) History(ctx context.Context, limit int) ([]models.CoinTick, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	ticks, err := s.Store.RecentTicks(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: read history: %v", ErrTickStorage, err)
	}
	return ticks, nil
}

// resolveSession determines the session the tick belongs to and the price the
// walk continues from, creating durable session state at boundaries.
//
// Note the deliberate split between two dates: ticks are stored under the
// calendar date, while session state is keyed by the date of the most recent
// reset boundary. Between midnight and the reset hour those differ.
func (s *TickService) resolveSession(ctx context.Context, latest *models.CoinTick, now time.Time, today string) (*models.TradingSession, float64, error) {
	sessionDate := sessionDateFor(now, s.Engine.ResetHour)

	// Cold start: empty log, anchor everything on the configured base price.
	if latest == nil {
		session, err := s.ensureSession(ctx, sessionDate, s.Engine.BasePrice)
		if err != nil {
			return nil, 0, err
		}
		return session, s.Engine.BasePrice, nil
	}

	// Session reset: calendar rolled over and the clock passed the reset hour.
	// The previous close anchors the new day.
	if latest.ReferenceDate != today && now.Hour() >= s.Engine.ResetHour {
		session, err := s.ensureSession(ctx, sessionDate, latest.Price)
		if err != nil {
			return nil, 0, err
		}
		return session, session.OpeningPrice, nil
	}

	// Continuation: walk on from the last published price.
	session, err := s.Sessions.SessionForDate(ctx, sessionDate)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read session: %v", ErrTickStorage, err)
	}
	if session == nil {
		// No durable session yet (feed predates session persistence, or the
		// boundary tick is missing). Recover the opening from the earliest
		// tick of the day, falling back to the current price.
		opening := latest.Price
		openingTick, err := s.Store.OpeningTick(ctx, today)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: read opening tick: %v", ErrTickStorage, err)
		}
		if openingTick != nil {
			opening = openingTick.Price
		}
		session, err = s.ensureSession(ctx, sessionDate, opening)
		if err != nil {
			return nil, 0, err
		}
	}
	return session, latest.Price, nil
}

// ensureSession persists a new session with a freshly sampled growth target.
// Concurrent creators converge on a single row via the unique session date.
func (s *TickService) ensureSession(ctx context.Context, sessionDate string, openingPrice float64) (*models.TradingSession, error) {
	session, err := s.Sessions.CreateSession(ctx, &models.TradingSession{
		SessionDate:  sessionDate,
		OpeningPrice: openingPrice,
		TargetGrowth: s.sampleTargetGrowth(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create session: %v", ErrTickStorage, err)
	}
	return session, nil
}

// sampleTargetGrowth draws the day's growth target uniformly from the
// configured bounds. Called once per session, not once per tick.
func (s *TickService) sampleTargetGrowth() float64 {
	return s.Engine.MinDailyGrowth + s.rng.Float64()*(s.Engine.MaxDailyGrowth-s.Engine.MinDailyGrowth)
}

// cacheAndPublish shares the fresh tick with read-side consumers. Best effort:
// the tick is already durable, so cache or pub/sub failures only get logged.
func (s *TickService) cacheAndPublish(ctx context.Context, result *TickResult) {
	if s.Redis == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		logger.Error("TickService: failed to marshal tick for cache: %v", err)
		return
	}
	if err := s.Redis.Set(ctx, CacheKeyLatestTick, data, LatestTickCacheTTL).Err(); err != nil {
		logger.Error("TickService: failed to cache latest tick: %v", err)
	}
	if err := s.Redis.Publish(ctx, TickUpdateChannel, data).Err(); err != nil {
		logger.Error("TickService: failed to publish tick update: %v", err)
	}
}

// sessionDateFor returns the calendar date of the most recent reset boundary:
// today once the reset hour has passed, otherwise the previous day.
func sessionDateFor(now time.Time, resetHour int) string {
	if now.Hour() >= resetHour {
		return now.Format(time.DateOnly)
	}
	return now.AddDate(0, 0, -1).Format(time.DateOnly)
}

// minutesSinceReset measures elapsed session time, wrapping across midnight
// when the clock is before the reset hour.
func minutesSinceReset(now time.Time, resetHour int) int {
	if now.Hour() >= resetHour {
		return (now.Hour()-resetHour)*60 + now.Minute()
	}
	return (24-resetHour+now.Hour())*60 + now.Minute()
}

// progressRatio is the fraction of the 24h session span elapsed, in [0, 1).
func progressRatio(now time.Time, resetHour int) float64 {
	ratio := float64(minutesSinceReset(now, resetHour)) / minutesPerDay
	if ratio < 0 {
		return 0
	}
	if ratio >= 1 {
		return math.Nextafter(1, 0)
	}
	return ratio
}

// expectedPrice linearly interpolates the day's trajectory from the opening
// price toward opening*(1+growth) over the session span.
func expectedPrice(opening, growth, progress float64) float64 {
	target := opening * (1 + growth)
	return opening + (target-opening)*progress
}

// evolvePrice advances the walk one step. The random bracket models
// short-term noise; the drift term pulls the realized price back toward the
// smooth daily growth curve. Contract: low <= high on every emitted tick, and
// the published price is at least the floor price with two decimal places.
func evolvePrice(current, opening, growth, volatility, progress, r1, r2 float64) (price, high, low, average float64) {
	drift := (expectedPrice(opening, growth, progress) - current) * driftFactor

	high = current * (1 + volatility*r1)
	low = current * (1 - volatility*r2)
	if low > high {
		high, low = low, high
	}

	average = (high+low)/2 + drift
	price = math.Max(floorPrice, round2(average))

	return price, round2(high), round2(low), round2(average)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
