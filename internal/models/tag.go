package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tag names are stored lowercased and trimmed.
type Tag struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string    `gorm:"uniqueIndex;not null" json:"name"`
	UsageCount int       `gorm:"not null;default:0" json:"usage_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	newID(&t.ID)
	return nil
}

// QuestionTag is the question <-> tag bridge table.
type QuestionTag struct {
	QuestionID uuid.UUID `gorm:"type:uuid;primaryKey" json:"question_id"`
	Question   *Question `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	TagID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"tag_id"`
	Tag        *Tag      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
