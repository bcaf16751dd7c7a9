package messages

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/filsammy/dating-app-whitecloak/internal/domain/errs"
	"github.com/filsammy/dating-app-whitecloak/internal/domain/model"
	pgrepo "github.com/filsammy/dating-app-whitecloak/internal/repo/postgres"
	ratesvc "github.com/filsammy/dating-app-whitecloak/internal/services/rate"
)

type txStub struct{}

func (txStub) WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	return fn(ctx, nil)
}

type storeStub struct {
	pairs    map[uuid.UUID]model.MatchPair
	messages map[uuid.UUID]model.Message
}

func newStoreStub() *storeStub {
	return &storeStub{
		pairs:    map[uuid.UUID]model.MatchPair{},
		messages: map[uuid.UUID]model.Message{},
	}
}

func (s *storeStub) GetPair(_ context.Context, _ pgx.Tx, matchID uuid.UUID) (model.MatchPair, error) {
	pair, ok := s.pairs[matchID]
	if !ok {
		return model.MatchPair{}, pgrepo.ErrMatchNotFound
	}
	return pair, nil
}

func (s *storeStub) Create(_ context.Context, _ pgx.Tx, msg model.Message) (model.Message, error) {
	s.messages[msg.ID] = msg
	return msg, nil
}

func (s *storeStub) ListByMatch(_ context.Context, _ pgx.Tx, matchID uuid.UUID) ([]model.Message, error) {
	out := make([]model.Message, 0)
	for _, msg := range s.messages {
		if msg.MatchID == matchID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (s *storeStub) GetByID(_ context.Context, _ pgx.Tx, id uuid.UUID) (model.Message, error) {
	msg, ok := s.messages[id]
	if !ok {
		return model.Message{}, pgrepo.ErrMessageNotFound
	}
	return msg, nil
}

func (s *storeStub) DeleteByID(_ context.Context, _ pgx.Tx, id uuid.UUID) error {
	if _, ok := s.messages[id]; !ok {
		return pgrepo.ErrMessageNotFound
	}
	delete(s.messages, id)
	return nil
}

func (s *storeStub) Conversations(_ context.Context, _ pgx.Tx, userID uuid.UUID) ([]model.Conversation, error) {
	out := make([]model.Conversation, 0)
	for id, pair := range s.pairs {
		if pair.Has(userID) && pair.Confirmed() {
			out = append(out, model.Conversation{MatchID: id, OtherUserID: pair.Other(userID)})
		}
	}
	return out, nil
}

type notifierStub struct {
	sent []model.Message
}

func (n *notifierStub) MessageCreated(_ context.Context, msg model.Message) {
	n.sent = append(n.sent, msg)
}

type limiterStub struct {
	allowed bool
}

func (l limiterStub) AllowMessage(context.Context, uuid.UUID) (int64, bool, error) {
	if l.allowed {
		return 0, true, nil
	}
	return 3, false, nil
}

type fixture struct {
	svc      *Service
	store    *storeStub
	notifier *notifierStub
	a, b     uuid.UUID
	matchID  uuid.UUID
}

func newFixture(confirmed bool) *fixture {
	a, b := uuid.New(), uuid.New()
	matchID := uuid.New()
	store := newStoreStub()
	store.pairs[matchID] = model.MatchPair{MatchID: matchID, UserA: a, UserB: b, AToB: true, BToA: confirmed}
	notifier := &notifierStub{}
	svc := NewService(Dependencies{Tx: txStub{}, Pairs: store, Messages: store, Notifier: notifier})
	svc.now = func() time.Time { return time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC) }
	return &fixture{svc: svc, store: store, notifier: notifier, a: a, b: b, matchID: matchID}
}

func TestSendPersistsAndNotifies(t *testing.T) {
	f := newFixture(true)

	msg, err := f.svc.Send(context.Background(), f.a, SendInput{MatchID: f.matchID, ReceiverID: f.b, Content: "  hello  "})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.Content != "hello" {
		t.Fatalf("expected trimmed content, got %q", msg.Content)
	}
	if len(f.store.messages) != 1 {
		t.Fatalf("expected stored message")
	}
	if len(f.notifier.sent) != 1 || f.notifier.sent[0].ID != msg.ID {
		t.Fatalf("expected relay notification")
	}
}

func TestSendGateFailures(t *testing.T) {
	f := newFixture(true)
	stranger := uuid.New()
	ctx := context.Background()

	cases := []struct {
		name   string
		sender uuid.UUID
		in     SendInput
		want   error
	}{
		{name: "missing fields", sender: f.a, in: SendInput{MatchID: f.matchID, Content: "x"}, want: ErrMissingFields},
		{name: "blank content", sender: f.a, in: SendInput{MatchID: f.matchID, ReceiverID: f.b, Content: "   "}, want: ErrEmptyMessage},
		{name: "too long", sender: f.a, in: SendInput{MatchID: f.matchID, ReceiverID: f.b, Content: strings.Repeat("a", MaxContentLength+1)}, want: ErrMessageTooLong},
		{name: "unknown match", sender: f.a, in: SendInput{MatchID: uuid.New(), ReceiverID: f.b, Content: "x"}, want: ErrMatchNotFound},
		{name: "not participant", sender: stranger, in: SendInput{MatchID: f.matchID, ReceiverID: f.b, Content: "x"}, want: ErrNotParticipant},
		{name: "receiver is sender", sender: f.a, in: SendInput{MatchID: f.matchID, ReceiverID: f.a, Content: "x"}, want: ErrInvalidReceiver},
		{name: "receiver outsider", sender: f.a, in: SendInput{MatchID: f.matchID, ReceiverID: stranger, Content: "x"}, want: ErrInvalidReceiver},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Send(ctx, tc.sender, tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if len(f.store.messages) != 0 || len(f.notifier.sent) != 0 {
		t.Fatalf("rejected sends must not persist or notify")
	}
}

func TestSendRequiresConfirmedMatch(t *testing.T) {
	f := newFixture(false)

	_, err := f.svc.Send(context.Background(), f.a, SendInput{MatchID: f.matchID, ReceiverID: f.b, Content: "hi"})
	if !errors.Is(err, ErrNotMatched) {
		t.Fatalf("expected NOT_MATCHED, got %v", err)
	}
	if e, ok := errs.As(err); !ok || e.Kind != errs.KindForbidden {
		t.Fatalf("expected forbidden kind, got %v", err)
	}
}

func TestSendAfterUnmatchFails(t *testing.T) {
	f := newFixture(true)
	delete(f.store.pairs, f.matchID)

	_, err := f.svc.Send(context.Background(), f.b, SendInput{MatchID: f.matchID, ReceiverID: f.a, Content: "still there?"})
	if !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("expected MATCH_NOT_FOUND after unmatch, got %v", err)
	}
}

func TestSendRateLimited(t *testing.T) {
	f := newFixture(true)
	f.svc.rateLimiter = limiterStub{allowed: false}

	_, err := f.svc.Send(context.Background(), f.a, SendInput{MatchID: f.matchID, ReceiverID: f.b, Content: "hi"})
	var tooFast ratesvc.TooFastError
	if !errors.As(err, &tooFast) || tooFast.RetryAfterSec != 3 {
		t.Fatalf("expected TooFastError, got %v", err)
	}
}

func TestListAndDelete(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()

	msg, err := f.svc.Send(ctx, f.a, SendInput{MatchID: f.matchID, ReceiverID: f.b, Content: "hi"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	items, err := f.svc.List(ctx, f.b, f.matchID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one message, got %d", len(items))
	}
	if _, err := f.svc.List(ctx, uuid.New(), f.matchID); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected UNAUTHORIZED for outsider, got %v", err)
	}

	if err := f.svc.Delete(ctx, f.b, msg.ID); !errors.Is(err, ErrNotSender) {
		t.Fatalf("expected receiver delete rejected, got %v", err)
	}
	if err := f.svc.Delete(ctx, f.a, msg.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.svc.Delete(ctx, f.a, msg.ID); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected MESSAGE_NOT_FOUND, got %v", err)
	}
}

func TestConversationsAndJoin(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()

	convs, err := f.svc.Conversations(ctx, f.a)
	if err != nil {
		t.Fatalf("conversations: %v", err)
	}
	if len(convs) != 1 || convs[0].OtherUserID != f.b {
		t.Fatalf("unexpected conversations %+v", convs)
	}

	if err := f.svc.CanJoin(ctx, f.b, f.matchID); err != nil {
		t.Fatalf("participant join: %v", err)
	}
	if err := f.svc.CanJoin(ctx, uuid.New(), f.matchID); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected outsider join rejected, got %v", err)
	}
}
