/**
 * @description
 * Balance ledger database models.
 * Maps to the 'coins' (dashboard balance) and 'trade_coins' (P2P balance) tables.
 * Balances are sums over rows, not mutable counters: every credit or debit is
 * its own row so the ledger stays auditable.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/google/uuid
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CoinStatus string

const (
	CoinStatusAvailable CoinStatus = "available"
	CoinStatusLocked    CoinStatus = "locked"
	CoinStatusSpent     CoinStatus = "spent"
)

type CoinSource string

const (
	CoinSourceMining   CoinSource = "mining"
	CoinSourceReferral CoinSource = "referral"
	CoinSourceTransfer CoinSource = "transfer"
)

// Coin is one dashboard-balance ledger entry. Negative amounts are debits.
type Coin struct {
	ID     uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Amount float64    `gorm:"column:amount;type:decimal(20,8)" json:"amount"`
	Status CoinStatus `gorm:"column:status;size:16;default:available" json:"status"`
	Source CoinSource `gorm:"column:source;size:16" json:"source"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Coin) TableName() string {
	return "coins"
}

func (c *Coin) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

// TradeCoin is one P2P-balance ledger entry, kept separate from the dashboard
// balance so funds committed to peer trades never mix with spendable balance.
type TradeCoin struct {
	ID     uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Amount float64    `gorm:"column:amount;type:decimal(20,8)" json:"amount"`
	Status CoinStatus `gorm:"column:status;size:16;default:available" json:"status"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (TradeCoin) TableName() string {
	return "trade_coins"
}

func (t *TradeCoin) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}
