package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestParseCommentParent(t *testing.T) {
	id := uuid.New()
	p, err := ParseCommentParent("answer", id.String())
	if err != nil {
		t.Fatal(err)
	}
	if p != AnswerParent(id) {
		t.Fatalf("unexpected parent %+v", p)
	}

	_, err = ParseCommentParent("post", id.String())
	expectKind(t, err, KindInvalidInput)
	_, err = ParseCommentParent("question", "nope")
	expectKind(t, err, KindInvalidInput)
}

func TestCommentLifecycle(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.user(t, "u@example.com")
	other := e.user(t, "o@example.com")
	q := e.question(t, u)
	a := e.answer(t, q, u)

	_, err := e.comments.Create(ctx, u.ID, AnswerParent(uuid.New()), "lost")
	expectKind(t, err, KindNotFound)

	c, err := e.comments.Create(ctx, u.ID, AnswerParent(a.ID), "nice")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.comments.Create(ctx, u.ID, QuestionParent(q.ID), "on question"); err != nil {
		t.Fatal(err)
	}

	list, err := e.comments.List(ctx, AnswerParent(a.ID))
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != c.ID {
		t.Fatalf("expected only the answer comment, got %d", len(list))
	}

	_, err = e.comments.Update(ctx, c.ID, other.ID, "edit")
	expectKind(t, err, KindUnauthorized)
	updated, err := e.comments.Update(ctx, c.ID, u.ID, "nicer")
	if err != nil || updated.Body != "nicer" {
		t.Fatalf("update failed: %v", err)
	}

	expectKind(t, e.comments.Delete(ctx, c.ID, other.ID, false), KindUnauthorized)
	if err := e.comments.Delete(ctx, c.ID, u.ID, false); err != nil {
		t.Fatal(err)
	}
}

func TestResolveCommentParentReturnsQuestion(t *testing.T) {
	e := newTestEnv(t)
	u := e.user(t, "u@example.com")
	q := e.question(t, u)
	a := e.answer(t, q, u)

	got, err := resolveCommentParent(e.db, AnswerParent(a.ID))
	if err != nil {
		t.Fatal(err)
	}
	if got != q.ID {
		t.Fatalf("expected question %s, got %s", q.ID, got)
	}
}
