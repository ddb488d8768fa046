package models

import (
	"github.com/google/uuid"
)

// All primary keys are UUIDs generated on the application side so the same
// models work against Postgres and SQLite.
func newID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All returns every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Question{},
		&Answer{},
		&Tag{},
		&QuestionTag{},
		&QuestionVote{},
		&AnswerVote{},
		&Comment{},
		&BotUser{},
		&QuestionMapping{},
		&AnswerMapping{},
		&APIKey{},
	}
}
