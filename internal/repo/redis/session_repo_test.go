package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	authsvc "github.com/filsammy/dating-app-whitecloak/internal/services/auth"
)

func TestSessionRepoLifecycle(t *testing.T) {
	_, client := newMiniRedisClient(t)
	repo := NewSessionRepo(client)
	ctx := context.Background()

	userID := uuid.New()
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	if err := repo.Create(ctx, authsvc.SessionRecord{SID: "sid-1", UserID: userID, ExpiresAt: expires}); err != nil {
		t.Fatalf("create session: %v", err)
	}

	got, err := repo.GetSession(ctx, "sid-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.UserID != userID || !got.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected session: %+v", got)
	}

	if err := repo.DeleteSession(ctx, "sid-1"); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := repo.GetSession(ctx, "sid-1"); !errors.Is(err, authsvc.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

func TestSessionRepoDeleteAllForUser(t *testing.T) {
	_, client := newMiniRedisClient(t)
	repo := NewSessionRepo(client)
	ctx := context.Background()

	userID := uuid.New()
	expires := time.Now().Add(time.Hour)
	for _, sid := range []string{"a", "b"} {
		if err := repo.Create(ctx, authsvc.SessionRecord{SID: sid, UserID: userID, ExpiresAt: expires}); err != nil {
			t.Fatalf("create session %s: %v", sid, err)
		}
	}

	if err := repo.DeleteAllForUser(ctx, userID); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	for _, sid := range []string{"a", "b"} {
		if _, err := repo.GetSession(ctx, sid); !errors.Is(err, authsvc.ErrSessionNotFound) {
			t.Fatalf("session %s should be gone, got %v", sid, err)
		}
	}
}

func TestSessionRepoRejectsEmptySID(t *testing.T) {
	_, client := newMiniRedisClient(t)
	repo := NewSessionRepo(client)

	err := repo.Create(context.Background(), authsvc.SessionRecord{UserID: uuid.New(), ExpiresAt: time.Now().Add(time.Minute)})
	if !errors.Is(err, authsvc.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
