package redis

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRelayRepoDeliversPublishedFrames(t *testing.T) {
	_, client := newMiniRedisClient(t)
	repo := NewRelayRepo(client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type frame struct {
		matchID uuid.UUID
		payload string
	}
	got := make(chan frame, 1)
	done := make(chan error, 1)
	go func() {
		done <- repo.Subscribe(ctx, func(matchID uuid.UUID, payload []byte) {
			select {
			case got <- frame{matchID: matchID, payload: string(payload)}:
			default:
			}
		})
	}()

	matchID := uuid.New()
	deadline := time.After(2 * time.Second)
	for {
		if err := repo.Publish(context.Background(), matchID, []byte(`{"event":"receiveMessage"}`)); err != nil {
			t.Fatalf("publish: %v", err)
		}
		select {
		case f := <-got:
			if f.matchID != matchID || f.payload != `{"event":"receiveMessage"}` {
				t.Fatalf("unexpected frame: %+v", f)
			}
			cancel()
			if err := <-done; err != nil {
				t.Fatalf("subscribe returned error: %v", err)
			}
			return
		case <-time.After(20 * time.Millisecond):
		case <-deadline:
			t.Fatalf("frame was not delivered")
		}
	}
}
