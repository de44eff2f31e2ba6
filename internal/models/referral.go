/**
 * @description
 * Referral database models.
 * Maps to the 'referrals' and 'referral_commissions' tables.
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

type CommissionStatus string

const (
	CommissionStatusPending   CommissionStatus = "pending"
	CommissionStatusCompleted CommissionStatus = "completed"
)

// Referral links a referrer to a user they brought onto the platform
type Referral struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	ReferrerID uuid.UUID `gorm:"type:uuid;not null;index" json:"referrer_id"`
	ReferredID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"referred_id"`
	CreatedAt  time.Time `json:"created_at"`

	// Relations
	Referrer *User `gorm:"foreignKey:ReferrerID" json:"referrer,omitempty"`
	Referred *User `gorm:"foreignKey:ReferredID" json:"referred,omitempty"`
}

func (Referral) TableName() string {
	return "referrals"
}

func (r *Referral) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}

// ReferralCommission is a commission earned by a referrer; only rows with
// status 'completed' count toward earnings.
type ReferralCommission struct {
	ID         uuid.UUID        `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	ReferrerID uuid.UUID        `gorm:"type:uuid;not null;index" json:"referrer_id"`
	Amount     float64          `gorm:"column:amount;type:decimal(20,8)" json:"amount"`
	Status     CommissionStatus `gorm:"column:status;size:16;default:pending" json:"status"`
	CreatedAt  time.Time        `json:"created_at"`

	// Relations
	Referrer *User `gorm:"foreignKey:ReferrerID" json:"referrer,omitempty"`
}

func (ReferralCommission) TableName() string {
	return "referral_commissions"
}

func (c *ReferralCommission) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}
