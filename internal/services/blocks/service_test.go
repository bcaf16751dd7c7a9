package blocks

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/filsammy/dating-app-whitecloak/internal/domain/model"
)

type txStub struct{}

func (txStub) WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	return fn(ctx, nil)
}

type edge [2]uuid.UUID

// world keeps accounts, blocks, swipes and messages in memory.
type world struct {
	accounts map[uuid.UUID]string
	blocks   map[edge]bool
	swipes   map[edge]model.Swipe
	messages map[uuid.UUID]int
}

func newWorld(ids ...uuid.UUID) *world {
	w := &world{
		accounts: map[uuid.UUID]string{},
		blocks:   map[edge]bool{},
		swipes:   map[edge]model.Swipe{},
		messages: map[uuid.UUID]int{},
	}
	for _, id := range ids {
		w.accounts[id] = id.String()[:8] + "@example.com"
	}
	return w
}

func (w *world) match(a, b uuid.UUID, messages int) uuid.UUID {
	matchID := uuid.New()
	id := matchID
	w.swipes[edge{a, b}] = model.Swipe{FromUser: a, ToUser: b, Liked: true, IsMatch: true, MatchID: &id}
	w.swipes[edge{b, a}] = model.Swipe{FromUser: b, ToUser: a, Liked: true, IsMatch: true, MatchID: &id}
	w.messages[matchID] = messages
	return matchID
}

func (w *world) Exists(_ context.Context, _ pgx.Tx, id uuid.UUID) (bool, error) {
	_, ok := w.accounts[id]
	return ok, nil
}

func (w *world) Insert(_ context.Context, _ pgx.Tx, actorID, targetID uuid.UUID) (bool, error) {
	if w.blocks[edge{actorID, targetID}] {
		return false, nil
	}
	w.blocks[edge{actorID, targetID}] = true
	return true, nil
}

func (w *world) Delete(_ context.Context, _ pgx.Tx, actorID, targetID uuid.UUID) (bool, error) {
	if !w.blocks[edge{actorID, targetID}] {
		return false, nil
	}
	delete(w.blocks, edge{actorID, targetID})
	return true, nil
}

func (w *world) ExistsEither(_ context.Context, _ pgx.Tx, a, b uuid.UUID) (bool, error) {
	return w.blocks[edge{a, b}] || w.blocks[edge{b, a}], nil
}

func (w *world) ListByActor(_ context.Context, _ pgx.Tx, actorID uuid.UUID) ([]model.BlockedAccount, error) {
	out := make([]model.BlockedAccount, 0)
	for e := range w.blocks {
		if e[0] == actorID {
			out = append(out, model.BlockedAccount{ID: e[1], Email: w.accounts[e[1]]})
		}
	}
	return out, nil
}

func (w *world) LockPair(context.Context, pgx.Tx, uuid.UUID, uuid.UUID) error {
	return nil
}

func (w *world) DeleteBetween(_ context.Context, _ pgx.Tx, a, b uuid.UUID) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0)
	seen := map[uuid.UUID]bool{}
	for _, e := range []edge{{a, b}, {b, a}} {
		sw, ok := w.swipes[e]
		if !ok {
			continue
		}
		if sw.MatchID != nil && !seen[*sw.MatchID] {
			seen[*sw.MatchID] = true
			ids = append(ids, *sw.MatchID)
		}
		delete(w.swipes, e)
	}
	return ids, nil
}

func (w *world) DeleteByMatchIDs(_ context.Context, _ pgx.Tx, matchIDs []uuid.UUID) (int64, error) {
	var n int64
	for _, id := range matchIDs {
		n += int64(w.messages[id])
		delete(w.messages, id)
	}
	return n, nil
}

type notifierStub struct {
	closed []uuid.UUID
}

func (n *notifierStub) MatchClosed(_ context.Context, matchID uuid.UUID) {
	n.closed = append(n.closed, matchID)
}

func newServiceForTest(w *world, n Notifier) *Service {
	return NewService(Dependencies{
		Tx:       txStub{},
		Accounts: w,
		Blocks:   w,
		Swipes:   w,
		Messages: w,
		Notifier: n,
	})
}

func TestBlockDestroysMatchAndMessages(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	w := newWorld(a, b)
	matchID := w.match(a, b, 3)
	notifier := &notifierStub{}
	svc := newServiceForTest(w, notifier)

	res, err := svc.Block(context.Background(), a, b)
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if res.DeletedMessages != 3 {
		t.Fatalf("expected 3 deleted messages, got %d", res.DeletedMessages)
	}
	if len(w.swipes) != 0 || len(w.messages) != 0 {
		t.Fatalf("block must erase swipes and messages: swipes=%d messages=%d", len(w.swipes), len(w.messages))
	}
	if len(notifier.closed) != 1 || notifier.closed[0] != matchID {
		t.Fatalf("expected matchClosed for %s, got %v", matchID, notifier.closed)
	}

	blocked, err := svc.IsBlockedEither(context.Background(), b, a)
	if err != nil || !blocked {
		t.Fatalf("expected block visible from both sides: blocked=%v err=%v", blocked, err)
	}
}

func TestBlockRemovesUnconfirmedRecords(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	w := newWorld(a, b)
	w.swipes[edge{b, a}] = model.Swipe{FromUser: b, ToUser: a, Liked: true}
	svc := newServiceForTest(w, nil)

	if _, err := svc.Block(context.Background(), a, b); err != nil {
		t.Fatalf("block: %v", err)
	}
	if len(w.swipes) != 0 {
		t.Fatalf("expected all records between pair removed")
	}
}

func TestBlockFailures(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	w := newWorld(a, b)
	svc := newServiceForTest(w, nil)
	ctx := context.Background()

	if _, err := svc.Block(ctx, a, uuid.Nil); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected MISSING_FIELDS, got %v", err)
	}
	if _, err := svc.Block(ctx, a, a); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected INVALID_ACTION, got %v", err)
	}
	if _, err := svc.Block(ctx, a, uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected USER_NOT_FOUND, got %v", err)
	}
	if _, err := svc.Block(ctx, a, b); err != nil {
		t.Fatalf("block: %v", err)
	}
	if _, err := svc.Block(ctx, a, b); !errors.Is(err, ErrAlreadyBlocked) {
		t.Fatalf("expected ALREADY_BLOCKED, got %v", err)
	}
}

func TestUnblockDoesNotRestore(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	w := newWorld(a, b)
	w.match(a, b, 2)
	svc := newServiceForTest(w, nil)
	ctx := context.Background()

	if err := svc.Unblock(ctx, a, b); !errors.Is(err, ErrNotBlocked) {
		t.Fatalf("expected NOT_BLOCKED, got %v", err)
	}
	if _, err := svc.Block(ctx, a, b); err != nil {
		t.Fatalf("block: %v", err)
	}

	list, err := svc.ListBlocked(ctx, a)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != b {
		t.Fatalf("unexpected block list %+v", list)
	}

	if err := svc.Unblock(ctx, a, b); err != nil {
		t.Fatalf("unblock: %v", err)
	}
	if len(w.swipes) != 0 || len(w.messages) != 0 {
		t.Fatalf("unblock must not restore history")
	}
	if blocked, _ := svc.IsBlockedEither(ctx, a, b); blocked {
		t.Fatalf("expected pair unblocked")
	}
}
