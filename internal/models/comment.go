package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CommentParentType string

const (
	CommentOnQuestion CommentParentType = "question"
	CommentOnAnswer   CommentParentType = "answer"
)

// Comment points at its parent through (ParentType, ParentID). There is no
// foreign key; access goes through the typed parent resolver in services.
type Comment struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ParentType CommentParentType `gorm:"size:16;not null;index:idx_comment_parent,priority:1" json:"parent_type"`
	ParentID   uuid.UUID         `gorm:"type:uuid;not null;index:idx_comment_parent,priority:2" json:"parent_id"`
	UserID     uuid.UUID         `gorm:"type:uuid;not null;index" json:"user_id"`
	User       *User             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user,omitempty"`
	Body       string            `gorm:"type:text;not null" json:"body"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	newID(&c.ID)
	return nil
}
