package matches

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/filsammy/dating-app-whitecloak/internal/domain/errs"
	"github.com/filsammy/dating-app-whitecloak/internal/domain/model"
	"github.com/filsammy/dating-app-whitecloak/internal/infra/metrics"
	pgrepo "github.com/filsammy/dating-app-whitecloak/internal/repo/postgres"
	profilesvc "github.com/filsammy/dating-app-whitecloak/internal/services/profiles"
)

var (
	ErrMissingUserID = errs.New(errs.KindValidation, "MISSING_USER_ID", "matched user id is required")
	ErrMatchNotFound = errs.New(errs.KindNotFound, "MATCH_NOT_FOUND", "match not found")
)

type TxRunner interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

type MatchStore interface {
	ListForUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID) ([]model.Match, error)
	FindBetween(ctx context.Context, tx pgx.Tx, a, b uuid.UUID) (uuid.UUID, time.Time, error)
	DeleteMatchedBetween(ctx context.Context, tx pgx.Tx, a, b uuid.UUID) ([]uuid.UUID, int64, error)
}

type PairLocker interface {
	LockPair(ctx context.Context, tx pgx.Tx, a, b uuid.UUID) error
}

type MessageStore interface {
	DeleteByMatchIDs(ctx context.Context, tx pgx.Tx, matchIDs []uuid.UUID) (int64, error)
}

// Notifier receives room-closing events once a dissolution has committed.
type Notifier interface {
	MatchClosed(ctx context.Context, matchID uuid.UUID)
}

type Dependencies struct {
	Tx       TxRunner
	Matches  MatchStore
	Locker   PairLocker
	Messages MessageStore
	Pictures profilesvc.PictureResolver
	Notifier Notifier
}

type Service struct {
	tx       TxRunner
	matches  MatchStore
	locker   PairLocker
	messages MessageStore
	pictures profilesvc.PictureResolver
	notifier Notifier
}

type CheckResult struct {
	IsMatched bool
	MatchID   *uuid.UUID
	MatchedAt *time.Time
}

type UnmatchResult struct {
	MatchIDs        []uuid.UUID
	DeletedMessages int64
}

func NewService(deps Dependencies) *Service {
	return &Service{
		tx:       deps.Tx,
		matches:  deps.Matches,
		locker:   deps.Locker,
		messages: deps.Messages,
		pictures: deps.Pictures,
		notifier: deps.Notifier,
	}
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]model.Match, error) {
	if userID == uuid.Nil {
		return nil, errs.ErrUnauthorized
	}
	if s.tx == nil || s.matches == nil {
		return nil, fmt.Errorf("match dependencies are not configured")
	}

	var items []model.Match
	if err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		out, err := s.matches.ListForUser(txCtx, tx, userID)
		if err != nil {
			return err
		}
		items = out
		return nil
	}); err != nil {
		return nil, err
	}

	for i := range items {
		if items[i].Profile != nil {
			presented := profilesvc.PresentWith(ctx, s.pictures, *items[i].Profile)
			items[i].Profile = &presented
		}
	}
	return items, nil
}

func (s *Service) Check(ctx context.Context, userID, otherUserID uuid.UUID) (CheckResult, error) {
	if userID == uuid.Nil {
		return CheckResult{}, errs.ErrUnauthorized
	}
	if otherUserID == uuid.Nil {
		return CheckResult{}, ErrMissingUserID
	}
	if userID == otherUserID {
		return CheckResult{}, nil
	}
	if s.tx == nil || s.matches == nil {
		return CheckResult{}, fmt.Errorf("match dependencies are not configured")
	}

	var out CheckResult
	if err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		matchID, matchedAt, err := s.matches.FindBetween(txCtx, tx, userID, otherUserID)
		if err != nil {
			if errors.Is(err, pgrepo.ErrMatchNotFound) {
				return nil
			}
			return err
		}
		out = CheckResult{IsMatched: true, MatchID: &matchID, MatchedAt: &matchedAt}
		return nil
	}); err != nil {
		return CheckResult{}, err
	}
	return out, nil
}

// Unmatch hard-deletes both flagged records of the pair together with every
// message of the match in one transaction.
func (s *Service) Unmatch(ctx context.Context, userID, otherUserID uuid.UUID) (UnmatchResult, error) {
	if userID == uuid.Nil {
		return UnmatchResult{}, errs.ErrUnauthorized
	}
	if otherUserID == uuid.Nil {
		return UnmatchResult{}, ErrMissingUserID
	}
	if userID == otherUserID {
		return UnmatchResult{}, ErrMatchNotFound
	}
	if s.tx == nil || s.matches == nil || s.locker == nil || s.messages == nil {
		return UnmatchResult{}, fmt.Errorf("match dependencies are not configured")
	}

	var out UnmatchResult
	if err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		if err := s.locker.LockPair(txCtx, tx, userID, otherUserID); err != nil {
			return err
		}

		matchIDs, deleted, err := s.matches.DeleteMatchedBetween(txCtx, tx, userID, otherUserID)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return ErrMatchNotFound
		}

		removed, err := s.messages.DeleteByMatchIDs(txCtx, tx, matchIDs)
		if err != nil {
			return err
		}
		out = UnmatchResult{MatchIDs: matchIDs, DeletedMessages: removed}
		return nil
	}); err != nil {
		return UnmatchResult{}, err
	}

	metrics.IncrementUnmatches(metrics.UnmatchReasonUnmatch, len(out.MatchIDs))
	if s.notifier != nil {
		for _, matchID := range out.MatchIDs {
			s.notifier.MatchClosed(ctx, matchID)
		}
	}
	return out, nil
}
