package matches

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/filsammy/dating-app-whitecloak/internal/domain/model"
	pgrepo "github.com/filsammy/dating-app-whitecloak/internal/repo/postgres"
)

type txStub struct{}

func (txStub) WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	return fn(ctx, nil)
}

// pairState is an in-memory view of swipes and messages for one pair of users.
type pairState struct {
	swipes   []model.Swipe
	messages map[uuid.UUID][]string
	locks    int
}

func newMatchedPair(a, b uuid.UUID, messages int) (*pairState, uuid.UUID) {
	matchID := uuid.New()
	id := matchID
	st := &pairState{
		swipes: []model.Swipe{
			{ID: uuid.New(), FromUser: a, ToUser: b, Liked: true, IsMatch: true, MatchID: &id},
			{ID: uuid.New(), FromUser: b, ToUser: a, Liked: true, IsMatch: true, MatchID: &id},
		},
		messages: map[uuid.UUID][]string{},
	}
	for i := 0; i < messages; i++ {
		st.messages[matchID] = append(st.messages[matchID], "hi")
	}
	return st, matchID
}

func (s *pairState) ListForUser(_ context.Context, _ pgx.Tx, userID uuid.UUID) ([]model.Match, error) {
	out := make([]model.Match, 0)
	for _, sw := range s.swipes {
		if sw.FromUser == userID && sw.IsMatch {
			out = append(out, model.Match{MatchID: *sw.MatchID, UserID: sw.ToUser, Profile: &model.Profile{UserID: sw.ToUser, Picture: "k.jpg"}})
		}
	}
	return out, nil
}

func (s *pairState) FindBetween(_ context.Context, _ pgx.Tx, a, b uuid.UUID) (uuid.UUID, time.Time, error) {
	var ab, ba *model.Swipe
	for i := range s.swipes {
		sw := &s.swipes[i]
		if sw.FromUser == a && sw.ToUser == b {
			ab = sw
		}
		if sw.FromUser == b && sw.ToUser == a {
			ba = sw
		}
	}
	if ab == nil || ba == nil || !ab.IsMatch || !ba.IsMatch {
		return uuid.Nil, time.Time{}, pgrepo.ErrMatchNotFound
	}
	return *ab.MatchID, time.Now(), nil
}

func (s *pairState) DeleteMatchedBetween(_ context.Context, _ pgx.Tx, a, b uuid.UUID) ([]uuid.UUID, int64, error) {
	kept := s.swipes[:0]
	ids := make([]uuid.UUID, 0)
	var deleted int64
	for _, sw := range s.swipes {
		between := (sw.FromUser == a && sw.ToUser == b) || (sw.FromUser == b && sw.ToUser == a)
		if between && sw.IsMatch {
			deleted++
			if len(ids) == 0 || ids[len(ids)-1] != *sw.MatchID {
				ids = append(ids, *sw.MatchID)
			}
			continue
		}
		kept = append(kept, sw)
	}
	s.swipes = kept
	return ids, deleted, nil
}

func (s *pairState) LockPair(context.Context, pgx.Tx, uuid.UUID, uuid.UUID) error {
	s.locks++
	return nil
}

func (s *pairState) DeleteByMatchIDs(_ context.Context, _ pgx.Tx, matchIDs []uuid.UUID) (int64, error) {
	var n int64
	for _, id := range matchIDs {
		n += int64(len(s.messages[id]))
		delete(s.messages, id)
	}
	return n, nil
}

type notifierStub struct {
	closed []uuid.UUID
}

func (n *notifierStub) MatchClosed(_ context.Context, matchID uuid.UUID) {
	n.closed = append(n.closed, matchID)
}

type pictureStub struct{}

func (pictureStub) ResolvePicture(_ context.Context, ref string) (string, error) {
	return "https://signed/" + ref, nil
}

func (pictureStub) DeletePicture(context.Context, string) error { return nil }

func newServiceForTest(st *pairState, n Notifier) *Service {
	return NewService(Dependencies{
		Tx:       txStub{},
		Matches:  st,
		Locker:   st,
		Messages: st,
		Pictures: pictureStub{},
		Notifier: n,
	})
}

func TestUnmatchDeletesRecordsAndMessages(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	st, matchID := newMatchedPair(a, b, 3)
	notifier := &notifierStub{}
	svc := newServiceForTest(st, notifier)

	res, err := svc.Unmatch(context.Background(), a, b)
	if err != nil {
		t.Fatalf("unmatch: %v", err)
	}
	if res.DeletedMessages != 3 {
		t.Fatalf("expected 3 deleted messages, got %d", res.DeletedMessages)
	}
	if len(st.swipes) != 0 || len(st.messages) != 0 {
		t.Fatalf("expected hard delete, swipes=%d messages=%d", len(st.swipes), len(st.messages))
	}
	if st.locks != 1 {
		t.Fatalf("expected pair lock, got %d", st.locks)
	}
	if len(notifier.closed) != 1 || notifier.closed[0] != matchID {
		t.Fatalf("expected matchClosed for %s, got %v", matchID, notifier.closed)
	}

	if _, err := svc.Unmatch(context.Background(), b, a); !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("expected MATCH_NOT_FOUND on second unmatch, got %v", err)
	}
}

func TestUnmatchIgnoresUnconfirmedLikes(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	st := &pairState{
		swipes:   []model.Swipe{{ID: uuid.New(), FromUser: a, ToUser: b, Liked: true}},
		messages: map[uuid.UUID][]string{},
	}
	svc := newServiceForTest(st, nil)

	if _, err := svc.Unmatch(context.Background(), a, b); !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("expected MATCH_NOT_FOUND, got %v", err)
	}
	if len(st.swipes) != 1 {
		t.Fatalf("one-sided like must survive")
	}
}

func TestListAndCheck(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	st, matchID := newMatchedPair(a, b, 0)
	svc := newServiceForTest(st, nil)

	items, err := svc.List(context.Background(), a)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].UserID != b || items[0].MatchID != matchID {
		t.Fatalf("unexpected matches %+v", items)
	}
	if items[0].Profile.Picture != "https://signed/k.jpg" {
		t.Fatalf("expected resolved picture, got %q", items[0].Profile.Picture)
	}

	res, err := svc.Check(context.Background(), b, a)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.IsMatched || res.MatchID == nil || *res.MatchID != matchID {
		t.Fatalf("unexpected check result %+v", res)
	}

	res, err = svc.Check(context.Background(), a, uuid.New())
	if err != nil {
		t.Fatalf("check stranger: %v", err)
	}
	if res.IsMatched {
		t.Fatalf("stranger must not be matched")
	}
}
