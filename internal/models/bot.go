package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BotUser links an external identity (bot app, external user id) to one internal user.
// Name and Email are copied from the profile when the link is made.
type BotUser struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BotAppName   string    `gorm:"not null;uniqueIndex:idx_bot_app_user,priority:1" json:"bot_app_name"`
	BotAppUserID string    `gorm:"not null;uniqueIndex:idx_bot_app_user,priority:2" json:"bot_app_user_id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User         *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Name         string    `gorm:"not null" json:"name"`
	Email        string    `gorm:"not null" json:"email"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (b *BotUser) BeforeCreate(tx *gorm.DB) error {
	newID(&b.ID)
	return nil
}

// QuestionMapping and AnswerMapping are written once at ingestion time and never updated.
type QuestionMapping struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionID         uuid.UUID `gorm:"type:uuid;not null;index" json:"question_id"`
	Question           *Question `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ExternalQuestionID string    `gorm:"not null;index" json:"external_question_id"`
	ExternalUserID     string    `gorm:"not null" json:"external_user_id"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (m *QuestionMapping) BeforeCreate(tx *gorm.DB) error {
	newID(&m.ID)
	return nil
}

type AnswerMapping struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AnswerID         uuid.UUID `gorm:"type:uuid;not null;index" json:"answer_id"`
	Answer           *Answer   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ExternalAnswerID string    `gorm:"not null;index" json:"external_answer_id"`
	ExternalUserID   string    `gorm:"not null" json:"external_user_id"`
	ExternalUserName string    `gorm:"not null" json:"external_user_name"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (m *AnswerMapping) BeforeCreate(tx *gorm.DB) error {
	newID(&m.ID)
	return nil
}
