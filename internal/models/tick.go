/**
 * @description
 * Price tick and trading session database models.
 * Maps to the 'coin_ticks' and 'trading_sessions' tables in PostgreSQL.
 *
 * @dependencies
 * - gorm.io/gorm
 */

package models

import (
	"time"
)

// CoinTick is one synthetic price observation in the append-only feed log.
// Rows are never updated or deleted; the log is totally ordered by TickTimestamp.
type CoinTick struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Price         float64   `gorm:"column:price;type:decimal(10,2)" json:"price"`
	High          float64   `gorm:"column:high;type:decimal(10,2)" json:"high"`
	Low           float64   `gorm:"column:low;type:decimal(10,2)" json:"low"`
	Average       float64   `gorm:"column:average;type:decimal(10,2)" json:"average"`
	ReferenceDate string    `gorm:"column:reference_date;type:date;index" json:"reference_date"`
	TickTimestamp time.Time `gorm:"column:tick_timestamp;index" json:"tick_timestamp"`
}

// TableName overrides the table name used by CoinTick to `coin_ticks`
func (CoinTick) TableName() string {
	return "coin_ticks"
}

// TradingSession is the durable per-day session state: the opening price the
// day is anchored on and the growth target the day trends toward. Created
// exactly once at session start; the unique session_date makes concurrent
// creators race safely (the loser re-reads the winner's row).
type TradingSession struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionDate  string    `gorm:"column:session_date;type:date;uniqueIndex" json:"session_date"`
	OpeningPrice float64   `gorm:"column:opening_price;type:decimal(10,2)" json:"opening_price"`
	TargetGrowth float64   `gorm:"column:target_growth;type:decimal(8,6)" json:"target_growth"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName overrides the table name used by TradingSession to `trading_sessions`
func (TradingSession) TableName() string {
	return "trading_sessions"
}
