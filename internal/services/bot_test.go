package services

import (
	"context"
	"testing"
	"time"

	"askhub/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func newBotService(e *testEnv, guard IngestGuard) *BotService {
	return NewBotService(e.db, guard, e.tags, "https://qa.example.com/", zap.NewNop())
}

func (e *testEnv) link(t *testing.T, app, externalID string, u *models.User) {
	t.Helper()
	if _, err := e.botUsers.Create(context.Background(), BotUserInput{BotAppName: app, BotAppUserID: externalID, UserID: u.ID}); err != nil {
		t.Fatalf("link bot user: %v", err)
	}
}

func TestBotEndToEnd(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u1 := e.user(t, "u1@example.com")
	u2 := e.user(t, "u2@example.com")
	e.link(t, "slack", "bu-1", u1)
	e.link(t, "slack", "bu-2", u2)
	bot := newBotService(e, nil)
	p := APIKeyPrincipal{Name: "slack"}

	qres, err := bot.CreateQuestion(ctx, p, BotQuestionInput{
		ExternalID: "q-ext-1", Title: "T", Body: "B", User: ExternalUser{ID: "bu-1"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if qres.Question.UserID != u1.ID {
		t.Fatalf("question author should be U1, got %s", qres.Question.UserID)
	}
	if qres.URL != "https://qa.example.com/qna/"+qres.Question.ID.String() {
		t.Fatalf("unexpected url %s", qres.URL)
	}
	if qres.Mapping.ExternalQuestionID != "q-ext-1" {
		t.Fatalf("unexpected mapping %+v", qres.Mapping)
	}

	ares, err := bot.CreateAnswer(ctx, p, BotAnswerInput{
		ExternalID: "a-ext-1", ExternalQuestionID: "q-ext-1", Body: "A", User: ExternalUser{ID: "bu-1", Name: "Ada"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if ares.Answer.QuestionID != qres.Question.ID {
		t.Fatal("answer created under the wrong question")
	}
	if ares.URL != bot.AnswerURL(qres.Question.ID, ares.Answer.ID) {
		t.Fatalf("unexpected answer url %s", ares.URL)
	}

	acc, err := bot.AcceptAnswer(ctx, p, BotAcceptInput{
		ExternalAnswerID: "a-ext-1", Accept: true, User: ExternalUser{ID: "bu-2", Name: "Grace"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !acc.Answer.Accepted {
		t.Fatal("expected answer accepted")
	}
	if acc.Answer.UserID != u2.ID {
		t.Fatalf("answer user should be overwritten with U2, got %s", acc.Answer.UserID)
	}
	if acc.AcceptedBy.ID != "bu-2" || acc.AcceptedBy.Name != "Grace" {
		t.Fatalf("unexpected acceptedBy %+v", acc.AcceptedBy)
	}
}

func TestBotFailsClosed(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.user(t, "u@example.com")
	e.link(t, "slack", "bu-1", u)
	bot := newBotService(e, nil)

	_, err := bot.CreateQuestion(ctx, APIKeyPrincipal{Name: "teams"}, BotQuestionInput{
		ExternalID: "q1", Title: "T", Body: "B", User: ExternalUser{ID: "bu-1"},
	})
	expectKind(t, err, KindBotUserNotFound)

	_, err = bot.CreateAnswer(ctx, APIKeyPrincipal{Name: "slack"}, BotAnswerInput{
		ExternalID: "a1", ExternalQuestionID: "missing", Body: "A", User: ExternalUser{ID: "bu-1", Name: "x"},
	})
	expectKind(t, err, KindNotFound)

	_, err = bot.AcceptAnswer(ctx, APIKeyPrincipal{Name: "slack"}, BotAcceptInput{
		ExternalAnswerID: "missing", Accept: true, User: ExternalUser{ID: "bu-1", Name: "x"},
	})
	expectKind(t, err, KindNotFound)

	var questions, answers int64
	e.db.Model(&models.Question{}).Count(&questions)
	e.db.Model(&models.Answer{}).Count(&answers)
	if questions != 0 || answers != 0 {
		t.Fatalf("failed ingestion left %d questions %d answers", questions, answers)
	}
}

func TestBotRejectsDuplicateIngestion(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.user(t, "u@example.com")
	e.link(t, "slack", "bu-1", u)
	bot := newBotService(e, nil)
	p := APIKeyPrincipal{Name: "slack"}
	in := BotQuestionInput{ExternalID: "q1", Title: "T", Body: "B", User: ExternalUser{ID: "bu-1"}}

	if _, err := bot.CreateQuestion(ctx, p, in); err != nil {
		t.Fatal(err)
	}
	_, err := bot.CreateQuestion(ctx, p, in)
	expectKind(t, err, KindConflict)

	var mappings int64
	e.db.Model(&models.QuestionMapping{}).Where("external_question_id = ?", "q1").Count(&mappings)
	if mappings != 1 {
		t.Fatalf("expected a single mapping, got %d", mappings)
	}
}

func TestRedisIngestGuard(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	guard := NewRedisIngestGuard(client, time.Minute, zap.NewNop())
	ctx := context.Background()

	release, err := guard.Acquire(ctx, "slack:question:q1")
	if err != nil {
		t.Fatal(err)
	}
	_, err = guard.Acquire(ctx, "slack:question:q1")
	expectKind(t, err, KindConflict)

	release()
	if mr.Exists("ingest:slack:question:q1") {
		t.Fatal("lock should be released")
	}
	release2, err := guard.Acquire(ctx, "slack:question:q1")
	if err != nil {
		t.Fatalf("expected lock to be free again: %v", err)
	}
	release2()

	// Expired lock taken over by someone else is left alone.
	release3, _ := guard.Acquire(ctx, "k")
	mr.FastForward(2 * time.Minute)
	if err := mr.Set("ingest:k", "other"); err != nil {
		t.Fatal(err)
	}
	release3()
	if got, _ := mr.Get("ingest:k"); got != "other" {
		t.Fatalf("foreign lock was removed, got %q", got)
	}
}

func TestBotWithRedisGuard(t *testing.T) {
	e := newTestEnv(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	u := e.user(t, "u@example.com")
	e.link(t, "slack", "bu-1", u)
	bot := newBotService(e, NewRedisIngestGuard(client, time.Minute, zap.NewNop()))

	_, err := bot.CreateQuestion(context.Background(), APIKeyPrincipal{Name: "slack"}, BotQuestionInput{
		ExternalID: "q1", Title: "T", Body: "B", User: ExternalUser{ID: "bu-1"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("guard keys left behind: %v", mr.Keys())
	}
}
