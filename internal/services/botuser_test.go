package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestBotUserCRUD(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u1 := e.user(t, "u1@example.com")
	u2 := e.user(t, "u2@example.com")

	bu, err := e.botUsers.Create(ctx, BotUserInput{BotAppName: " slack ", BotAppUserID: "bu-1", UserID: u1.ID})
	if err != nil {
		t.Fatal(err)
	}
	if bu.BotAppName != "slack" || bu.Name != "Test" || bu.Email != "u1@example.com" {
		t.Fatalf("unexpected link %+v", bu)
	}

	_, err = e.botUsers.Create(ctx, BotUserInput{BotAppName: "slack", BotAppUserID: "bu-1", UserID: u2.ID})
	expectKind(t, err, KindConflict)

	_, err = e.botUsers.Create(ctx, BotUserInput{BotAppName: "slack", BotAppUserID: "bu-9", UserID: uuid.New()})
	expectKind(t, err, KindProfileNotFound)

	_, err = e.botUsers.Create(ctx, BotUserInput{})
	expectKind(t, err, KindInvalidInput)

	updated, err := e.botUsers.Update(ctx, bu.ID, BotUserInput{BotAppName: "slack", BotAppUserID: "bu-2", UserID: u2.ID})
	if err != nil {
		t.Fatal(err)
	}
	if updated.UserID != u2.ID || updated.Email != "u2@example.com" {
		t.Fatalf("profile copy not refreshed: %+v", updated)
	}

	list, err := e.botUsers.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 link, got %d", len(list))
	}

	if err := e.botUsers.Delete(ctx, bu.ID); err != nil {
		t.Fatal(err)
	}
	_, err = e.botUsers.Get(ctx, bu.ID)
	expectKind(t, err, KindNotFound)
	expectKind(t, e.botUsers.Delete(ctx, bu.ID), KindNotFound)
}
