package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Question struct {
	ID             uuid.UUID                  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID                  `gorm:"type:uuid;not null;index" json:"user_id"`
	User           *User                      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user,omitempty"`
	CategoryID     *uuid.UUID                 `gorm:"type:uuid;index" json:"category_id"`
	Category       *Category                  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"category,omitempty"`
	Title          string                     `gorm:"not null" json:"title"`
	Body           string                     `gorm:"type:text;not null" json:"body"`
	AttachmentRefs datatypes.JSONSlice[string] `json:"attachment_refs"` // ordered blob URLs
	VoteCount      int                        `gorm:"not null;default:0" json:"vote_count"`
	HotScore       float64                    `gorm:"not null;default:0;index" json:"hot_score"`
	CreatedAt      time.Time                  `json:"created_at"`
	UpdatedAt      time.Time                  `json:"updated_at"`

	// 查询时填充
	Tags        []Tag `gorm:"-" json:"tags"`
	AnswerCount int   `gorm:"-" json:"answer_count"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	newID(&q.ID)
	return nil
}
