package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const relayChannelPrefix = "relay:match:"

// RelayRepo carries relay frames between API instances over redis pub/sub.
type RelayRepo struct {
	client *goredis.Client
}

func NewRelayRepo(client *goredis.Client) *RelayRepo {
	return &RelayRepo{client: client}
}

func (r *RelayRepo) Publish(ctx context.Context, matchID uuid.UUID, payload []byte) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Publish(ctx, relayChannel(matchID), payload).Err(); err != nil {
		return fmt.Errorf("publish relay frame: %w", err)
	}
	return nil
}

// Subscribe delivers every frame published to any match room until ctx is
// done. It blocks, so callers run it on its own goroutine.
func (r *RelayRepo) Subscribe(ctx context.Context, handle func(matchID uuid.UUID, payload []byte)) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	sub := r.client.PSubscribe(ctx, relayChannelPrefix+"*")
	defer func() { _ = sub.Close() }()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe relay channels: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			matchID, err := uuid.Parse(strings.TrimPrefix(msg.Channel, relayChannelPrefix))
			if err != nil {
				continue
			}
			handle(matchID, []byte(msg.Payload))
		}
	}
}

func relayChannel(matchID uuid.UUID) string {
	return relayChannelPrefix + matchID.String()
}
