package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// APIKey authenticates a bot application. Name doubles as the bot app name
// used for bot-user lookups.
type APIKey struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string     `gorm:"not null" json:"name"`
	Key        string     `gorm:"uniqueIndex;not null" json:"key"`
	IsActive   bool       `gorm:"not null" json:"is_active"`
	ExpiresAt  *time.Time `json:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (k *APIKey) BeforeCreate(tx *gorm.DB) error {
	newID(&k.ID)
	return nil
}

// Usable reports whether the key may authenticate at the given instant.
func (k *APIKey) Usable(now time.Time) bool {
	if !k.IsActive {
		return false
	}
	if k.ExpiresAt != nil && k.ExpiresAt.Before(now) {
		return false
	}
	return true
}
