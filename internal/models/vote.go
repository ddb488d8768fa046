package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	VoteUp   = 1
	VoteDown = -1
)

// TargetKind names what a vote applies to.
type TargetKind string

const (
	TargetQuestion TargetKind = "question"
	TargetAnswer   TargetKind = "answer"
)

// QuestionVote and AnswerVote use (target, user) as their primary key, so the
// store itself guarantees at most one row per user per target.
type QuestionVote struct {
	QuestionID uuid.UUID `gorm:"type:uuid;primaryKey" json:"question_id"`
	Question   *Question `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	User       *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Value      int       `gorm:"not null" json:"value"` // 1 or -1
	CreatedAt  time.Time `json:"created_at"`
}

type AnswerVote struct {
	AnswerID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"answer_id"`
	Answer    *Answer   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	User      *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Value     int       `gorm:"not null" json:"value"` // 1 or -1
	CreatedAt time.Time `json:"created_at"`
}

func ValidVote(value int) bool {
	return value == VoteUp || value == VoteDown
}
