package services

import (
	"context"
	"testing"

	"askhub/internal/models"
)

func TestEnsureTagCaseInsensitive(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	first, err := e.tags.EnsureTag(ctx, "Rust")
	if err != nil {
		t.Fatal(err)
	}
	if first.Name != "rust" || first.UsageCount != 1 {
		t.Fatalf("unexpected new tag %+v", first)
	}

	second, err := e.tags.EnsureTag(ctx, "rust ")
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same tag, got %s and %s", first.ID, second.ID)
	}
	if second.UsageCount != 2 {
		t.Fatalf("expected usage count 2, got %d", second.UsageCount)
	}

	_, err = e.tags.EnsureTag(ctx, "   ")
	expectKind(t, err, KindInvalidInput)
}

func TestCreateTagStartsUnused(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	tag, err := e.tags.CreateTag(ctx, " Go ")
	if err != nil {
		t.Fatal(err)
	}
	if tag.Name != "go" || tag.UsageCount != 0 {
		t.Fatalf("unexpected tag %+v", tag)
	}

	_, err = e.tags.CreateTag(ctx, "GO")
	expectKind(t, err, KindConflict)

	used, err := e.tags.EnsureTag(ctx, "go")
	if err != nil {
		t.Fatal(err)
	}
	if used.ID != tag.ID || used.UsageCount != 1 {
		t.Fatalf("expected existing tag with one use, got %+v", used)
	}
}

func TestAttachTagsIsIdempotentPerBridgeRow(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.user(t, "u@example.com")
	q := e.question(t, u)

	if err := e.tags.AttachTagsToQuestion(ctx, q.ID, []string{"Go", "go", "SQL"}); err != nil {
		t.Fatal(err)
	}
	if err := e.tags.AttachTagsToQuestion(ctx, q.ID, []string{"go"}); err != nil {
		t.Fatal(err)
	}

	var bridges int64
	e.db.Model(&models.QuestionTag{}).Where("question_id = ?", q.ID).Count(&bridges)
	if bridges != 2 {
		t.Fatalf("expected 2 bridge rows, got %d", bridges)
	}

	var goTag models.Tag
	e.db.Where("name = ?", "go").Take(&goTag)
	if goTag.UsageCount != 2 {
		t.Fatalf("expected go usage 2 (create + one found-existing attach), got %d", goTag.UsageCount)
	}
}

func TestReplaceTagsKeepsUsageCounts(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.user(t, "u@example.com")

	q, err := e.questions.Create(ctx, u.ID, QuestionInput{Title: "T", Body: "B", Tags: []string{"old"}})
	if err != nil {
		t.Fatal(err)
	}
	updated, err := e.questions.Update(ctx, q.ID, u.ID, QuestionInput{Title: "T", Body: "B", Tags: []string{"new"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(updated.Tags) != 1 || updated.Tags[0].Name != "new" {
		t.Fatalf("expected only the new tag, got %+v", updated.Tags)
	}

	var old models.Tag
	e.db.Where("name = ?", "old").Take(&old)
	if old.UsageCount != 1 {
		t.Fatalf("removed tag usage should stay at 1, got %d", old.UsageCount)
	}
}

func TestTagAdmin(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	tag, err := e.tags.CreateTag(ctx, "draft")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.tags.ListTags(ctx); err != nil {
		t.Fatal(err)
	}

	renamed, err := e.tags.UpdateTag(ctx, tag.ID, " Final ")
	if err != nil {
		t.Fatal(err)
	}
	if renamed.Name != "final" {
		t.Fatalf("expected normalized rename, got %q", renamed.Name)
	}

	list, err := e.tags.ListTags(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Name != "final" {
		t.Fatalf("cache should be invalidated after rename, got %+v", list)
	}

	if err := e.tags.DeleteTag(ctx, tag.ID); err != nil {
		t.Fatal(err)
	}
	expectKind(t, e.tags.DeleteTag(ctx, tag.ID), KindNotFound)
}
