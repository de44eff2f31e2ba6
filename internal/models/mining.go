/**
 * @description
 * Mining reward database model.
 * Maps to the 'mining_claims' table. Claim cadence and reward sizing are
 * configuration, not data; only the claims themselves are persisted.
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

// MiningClaim records one successful reward claim. The most recent claim per
// user anchors the cooldown window.
type MiningClaim struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_mining_claims_user_time" json:"user_id"`
	Amount    float64   `gorm:"column:amount;type:decimal(20,8)" json:"amount"`
	ClaimedAt time.Time `gorm:"column:claimed_at;index:idx_mining_claims_user_time" json:"claimed_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (MiningClaim) TableName() string {
	return "mining_claims"
}

func (m *MiningClaim) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}
