package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"askhub/internal/models"
)

func TestAuthenticateLifecycle(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	e.apiKeys.now = func() time.Time { return now }

	key, err := e.apiKeys.Create(ctx, "slack", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(key.Key, "qak_") {
		t.Fatalf("unexpected key format %q", key.Key)
	}
	if key.LastUsedAt != nil {
		t.Fatal("new key should not have been used")
	}

	p, err := e.apiKeys.Authenticate(ctx, "Bearer "+key.Key)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "slack" || p.KeyID != key.ID {
		t.Fatalf("unexpected principal %+v", p)
	}

	stored, _ := e.apiKeys.Get(ctx, key.ID)
	if stored.LastUsedAt == nil || !stored.LastUsedAt.Equal(now) {
		t.Fatalf("expected last_used_at %v, got %v", now, stored.LastUsedAt)
	}

	inactive := false
	if _, err := e.apiKeys.Update(ctx, key.ID, APIKeyUpdate{IsActive: &inactive}); err != nil {
		t.Fatal(err)
	}
	_, err = e.apiKeys.Authenticate(ctx, "Bearer "+key.Key)
	expectKind(t, err, KindInvalidAPIKey)
}

func TestAuthenticateExpired(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	past := time.Now().Add(-time.Hour)

	key, err := e.apiKeys.Create(ctx, "teams", &past)
	if err != nil {
		t.Fatal(err)
	}
	_, err = e.apiKeys.Authenticate(ctx, "Bearer "+key.Key)
	expectKind(t, err, KindInvalidAPIKey)

	var stored models.APIKey
	e.db.Where("id = ?", key.ID).Take(&stored)
	if stored.LastUsedAt != nil {
		t.Fatal("rejected key must not be marked used")
	}

	future := time.Now().Add(time.Hour)
	if _, err := e.apiKeys.Update(ctx, key.ID, APIKeyUpdate{ExpiresAt: &future}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.apiKeys.Authenticate(ctx, "Bearer "+key.Key); err != nil {
		t.Fatalf("expected extended key to authenticate: %v", err)
	}
}

func TestAuthenticateMalformedHeader(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	for _, h := range []string{"", "qak_abc", "Basic qak_abc", "Bearer "} {
		_, err := e.apiKeys.Authenticate(ctx, h)
		expectKind(t, err, KindUnauthenticated)
	}

	_, err := e.apiKeys.Authenticate(ctx, "Bearer qak_unknown")
	expectKind(t, err, KindInvalidAPIKey)
}

func TestAPIKeyCRUD(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	_, err := e.apiKeys.Create(ctx, " ", nil)
	expectKind(t, err, KindInvalidInput)

	key, err := e.apiKeys.Create(ctx, "slack", nil)
	if err != nil {
		t.Fatal(err)
	}
	name := "slack-prod"
	updated, err := e.apiKeys.Update(ctx, key.ID, APIKeyUpdate{Name: &name})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "slack-prod" || !updated.IsActive {
		t.Fatalf("unexpected update result %+v", updated)
	}

	keys, err := e.apiKeys.List(ctx)
	if err != nil || len(keys) != 1 {
		t.Fatalf("expected one key, got %d (%v)", len(keys), err)
	}

	if err := e.apiKeys.Delete(ctx, key.ID); err != nil {
		t.Fatal(err)
	}
	_, err = e.apiKeys.Get(ctx, key.ID)
	expectKind(t, err, KindNotFound)
}
