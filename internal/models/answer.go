package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Answer struct {
	ID             uuid.UUID                  `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionID     uuid.UUID                  `gorm:"type:uuid;not null;index" json:"question_id"`
	Question       *Question                  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID         uuid.UUID                  `gorm:"type:uuid;not null;index" json:"user_id"`
	User           *User                      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user,omitempty"`
	Body           string                     `gorm:"type:text;not null" json:"body"`
	AttachmentRefs datatypes.JSONSlice[string] `json:"attachment_refs"`
	VoteCount      int                        `gorm:"not null;default:0" json:"vote_count"`
	Accepted       bool                       `gorm:"not null;default:false" json:"accepted"`
	CreatedAt      time.Time                  `json:"created_at"`
	UpdatedAt      time.Time                  `json:"updated_at"`
}

func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	newID(&a.ID)
	return nil
}
