package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestQuestionMappingRoundTrip(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.user(t, "u@example.com")
	q := e.question(t, u)

	if _, err := e.identity.RecordQuestionMapping(ctx, q.ID, "ext-42", "u-1"); err != nil {
		t.Fatal(err)
	}

	got, err := e.identity.ResolveInternalQuestion(ctx, "ext-42")
	if err != nil {
		t.Fatal(err)
	}
	if got != q.ID {
		t.Fatalf("expected %s, got %s", q.ID, got)
	}

	_, err = e.identity.ResolveInternalQuestion(ctx, "ext-999")
	expectKind(t, err, KindNotFound)
	var se *Error
	if !errors.As(err, &se) || se.Fields["externalQuestionId"] != "ext-999" {
		t.Fatalf("expected externalQuestionId in error fields, got %+v", se)
	}
}

func TestAnswerMappingRoundTrip(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.user(t, "u@example.com")
	a := e.answer(t, e.question(t, u), u)

	m, err := e.identity.RecordAnswerMapping(ctx, a.ID, "a-ext", "u-1", "Ada")
	if err != nil {
		t.Fatal(err)
	}
	if m.ExternalUserName != "Ada" {
		t.Fatalf("expected external user name stored, got %q", m.ExternalUserName)
	}

	got, err := e.identity.ResolveInternalAnswer(ctx, "a-ext")
	if err != nil || got != a.ID {
		t.Fatalf("expected %s, got %s (%v)", a.ID, got, err)
	}
	_, err = e.identity.ResolveInternalAnswer(ctx, "missing")
	expectKind(t, err, KindNotFound)
}

func TestResolveBotUser(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.user(t, "u@example.com")

	if _, err := e.botUsers.Create(ctx, BotUserInput{BotAppName: "slack", BotAppUserID: "bu-1", UserID: u.ID}); err != nil {
		t.Fatal(err)
	}

	bu, err := e.identity.ResolveBotUser(ctx, "slack", "bu-1")
	if err != nil {
		t.Fatal(err)
	}
	if bu.UserID != u.ID {
		t.Fatalf("expected user %s, got %s", u.ID, bu.UserID)
	}

	// Same external id under another app is a different identity.
	_, err = e.identity.ResolveBotUser(ctx, "teams", "bu-1")
	expectKind(t, err, KindBotUserNotFound)
	var se *Error
	errors.As(err, &se)
	if se.Fields["botAppName"] != "teams" || se.Fields["externalUserId"] != "bu-1" {
		t.Fatalf("unexpected error fields %+v", se.Fields)
	}
}

func TestResolveProfileMissing(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.identity.ResolveProfile(context.Background(), uuid.New())
	expectKind(t, err, KindProfileNotFound)
}

func TestBotUserCopiesProfile(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.user(t, "ada@example.com")
	other := e.user(t, "grace@example.com")

	bu, err := e.botUsers.Create(ctx, BotUserInput{BotAppName: "slack", BotAppUserID: "x", UserID: u.ID})
	if err != nil {
		t.Fatal(err)
	}
	if bu.Email != "ada@example.com" || bu.Name != "Test" {
		t.Fatalf("expected profile copied, got %+v", bu)
	}

	_, err = e.botUsers.Create(ctx, BotUserInput{BotAppName: "slack", BotAppUserID: "x", UserID: other.ID})
	expectKind(t, err, KindConflict)

	// One internal user can only be linked once.
	_, err = e.botUsers.Create(ctx, BotUserInput{BotAppName: "teams", BotAppUserID: "y", UserID: u.ID})
	expectKind(t, err, KindConflict)

	updated, err := e.botUsers.Update(ctx, bu.ID, BotUserInput{BotAppName: "slack", BotAppUserID: "x", UserID: other.ID})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Email != "grace@example.com" {
		t.Fatalf("expected email re-copied on update, got %q", updated.Email)
	}

	_, err = e.botUsers.Create(ctx, BotUserInput{BotAppName: "slack", BotAppUserID: "z", UserID: uuid.New()})
	expectKind(t, err, KindProfileNotFound)
}
