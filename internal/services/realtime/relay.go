package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/filsammy/dating-app-whitecloak/internal/domain/enums"
	"github.com/filsammy/dating-app-whitecloak/internal/domain/model"
	"github.com/filsammy/dating-app-whitecloak/internal/infra/metrics"
)

const publishTimeout = 2 * time.Second

// Event is the frame pushed to websocket clients.
type Event struct {
	Event   enums.RelayEvent `json:"event"`
	MatchID *uuid.UUID       `json:"matchId,omitempty"`
	Data    any              `json:"data,omitempty"`
	Code    string           `json:"code,omitempty"`
	Message string           `json:"message,omitempty"`
}

// Broker fans frames out across API instances.
type Broker interface {
	Publish(ctx context.Context, matchID uuid.UUID, payload []byte) error
	Subscribe(ctx context.Context, handle func(matchID uuid.UUID, payload []byte)) error
}

type Config struct {
	Buffer int
}

type outbound struct {
	matchID uuid.UUID
	payload []byte
}

// Relay is a sink for committed domain events. Enqueueing never blocks the
// caller; a full queue drops the event.
type Relay struct {
	hub    *Hub
	broker Broker
	queue  chan outbound
	logger *zap.Logger
}

func NewRelay(hub *Hub, broker Broker, cfg Config, logger *zap.Logger) *Relay {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if hub == nil {
		hub = NewHub()
	}

	return &Relay{
		hub:    hub,
		broker: broker,
		queue:  make(chan outbound, cfg.Buffer),
		logger: logger,
	}
}

func (r *Relay) Hub() *Hub {
	return r.hub
}

func (r *Relay) MessageCreated(_ context.Context, msg model.Message) {
	matchID := msg.MatchID
	r.enqueue(matchID, Event{Event: enums.RelayEventReceiveMessage, MatchID: &matchID, Data: msg})
}

func (r *Relay) MatchClosed(_ context.Context, matchID uuid.UUID) {
	id := matchID
	r.enqueue(matchID, Event{Event: enums.RelayEventMatchClosed, MatchID: &id})
}

func (r *Relay) enqueue(matchID uuid.UUID, event Event) {
	payload, err := EncodeEvent(event)
	if err != nil {
		r.logger.Warn("encode relay event failed", zap.String("match_id", matchID.String()), zap.Error(err))
		metrics.IncrementRelayEvent(metrics.RelayOutcomeFailed)
		return
	}

	select {
	case r.queue <- outbound{matchID: matchID, payload: payload}:
	default:
		r.logger.Warn("relay queue full, event dropped", zap.String("match_id", matchID.String()), zap.String("event", string(event.Event)))
		metrics.IncrementRelayEvent(metrics.RelayOutcomeDropped)
	}
}

// Run drains the queue until ctx is done. With a broker, frames reach the
// local hub through the broker subscription; without one they go straight to
// the hub.
func (r *Relay) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case out := <-r.queue:
			r.dispatch(ctx, out)
		}
	}
}

func (r *Relay) dispatch(ctx context.Context, out outbound) {
	if r.broker == nil {
		r.Deliver(out.matchID, out.payload)
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := r.broker.Publish(pubCtx, out.matchID, out.payload); err != nil {
		r.logger.Warn("relay publish failed, delivering locally", zap.String("match_id", out.matchID.String()), zap.Error(err))
		metrics.IncrementRelayEvent(metrics.RelayOutcomeFailed)
		r.Deliver(out.matchID, out.payload)
	}
}

// Subscribe bridges broker frames into the local hub until ctx is done.
func (r *Relay) Subscribe(ctx context.Context) error {
	if r.broker == nil {
		<-ctx.Done()
		return nil
	}
	return r.broker.Subscribe(ctx, r.Deliver)
}

// Deliver fans payload out to local room members and closes the room when
// the frame announces the end of the match.
func (r *Relay) Deliver(matchID uuid.UUID, payload []byte) {
	delivered, dropped := r.hub.Broadcast(matchID, payload)
	for i := 0; i < delivered; i++ {
		metrics.IncrementRelayEvent(metrics.RelayOutcomeDelivered)
	}
	if dropped > 0 {
		r.logger.Warn("relay subscribers lagging, frames dropped", zap.String("match_id", matchID.String()), zap.Int("dropped", dropped))
		for i := 0; i < dropped; i++ {
			metrics.IncrementRelayEvent(metrics.RelayOutcomeDropped)
		}
	}

	var head struct {
		Event enums.RelayEvent `json:"event"`
	}
	if err := json.Unmarshal(payload, &head); err == nil && head.Event == enums.RelayEventMatchClosed {
		r.hub.CloseRoom(matchID)
	}
}

func ErrorFrame(code, message string) []byte {
	payload, _ := EncodeEvent(Event{Event: enums.RelayEventError, Code: code, Message: message})
	return payload
}

func EncodeEvent(event Event) ([]byte, error) {
	return json.Marshal(event)
}
