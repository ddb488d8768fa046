package services

import (
	"testing"

	"askhub/internal/db/dbtest"
	"askhub/internal/models"
	"askhub/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	db        *gorm.DB
	votes     *VoteService
	tags      *TagService
	questions *QuestionService
	answers   *AnswerService
	comments  *CommentService
	identity  *IdentityService
	apiKeys   *APIKeyService
	botUsers  *BotUserService
	auth      *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb := dbtest.New(t)
	cache, err := utils.NewCache(64)
	if err != nil {
		t.Fatal(err)
	}
	log := zap.NewNop()
	tags := NewTagService(gdb, cache, log)
	return &testEnv{
		db:        gdb,
		votes:     NewVoteService(gdb, log),
		tags:      tags,
		questions: NewQuestionService(gdb, tags, log),
		answers:   NewAnswerService(gdb, log),
		comments:  NewCommentService(gdb, log),
		identity:  NewIdentityService(gdb, log),
		apiKeys:   NewAPIKeyService(gdb, log),
		botUsers:  NewBotUserService(gdb, log),
		auth:      NewAuthService(gdb, log),
	}
}

func (e *testEnv) user(t *testing.T, email string) *models.User {
	t.Helper()
	u := models.User{Email: email, FirstName: "Test", Password: "x", Role: models.RoleUser}
	if err := e.db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return &u
}

func (e *testEnv) question(t *testing.T, author *models.User) *models.Question {
	t.Helper()
	q := models.Question{UserID: author.ID, Title: "How?", Body: "Body"}
	if err := e.db.Create(&q).Error; err != nil {
		t.Fatalf("create question: %v", err)
	}
	return &q
}

func (e *testEnv) answer(t *testing.T, q *models.Question, author *models.User) *models.Answer {
	t.Helper()
	a := models.Answer{QuestionID: q.ID, UserID: author.ID, Body: "Answer"}
	if err := e.db.Create(&a).Error; err != nil {
		t.Fatalf("create answer: %v", err)
	}
	return &a
}

func expectKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("expected %s error, got %s (%v)", want, got, err)
	}
}
