package blocks

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/filsammy/dating-app-whitecloak/internal/domain/errs"
	"github.com/filsammy/dating-app-whitecloak/internal/domain/model"
	"github.com/filsammy/dating-app-whitecloak/internal/infra/metrics"
)

var (
	ErrMissingFields  = errs.New(errs.KindValidation, "MISSING_FIELDS", "target user id is required")
	ErrInvalidAction  = errs.New(errs.KindValidation, "INVALID_ACTION", "you cannot block yourself")
	ErrUserNotFound   = errs.New(errs.KindNotFound, "USER_NOT_FOUND", "user not found")
	ErrAlreadyBlocked = errs.New(errs.KindValidation, "ALREADY_BLOCKED", "user already blocked")
	ErrNotBlocked     = errs.New(errs.KindValidation, "NOT_BLOCKED", "user is not blocked")
)

type TxRunner interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

type AccountChecker interface {
	Exists(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
}

type BlockStore interface {
	Insert(ctx context.Context, tx pgx.Tx, actorID, targetID uuid.UUID) (bool, error)
	Delete(ctx context.Context, tx pgx.Tx, actorID, targetID uuid.UUID) (bool, error)
	ExistsEither(ctx context.Context, tx pgx.Tx, a, b uuid.UUID) (bool, error)
	ListByActor(ctx context.Context, tx pgx.Tx, actorID uuid.UUID) ([]model.BlockedAccount, error)
}

type SwipeStore interface {
	LockPair(ctx context.Context, tx pgx.Tx, a, b uuid.UUID) error
	DeleteBetween(ctx context.Context, tx pgx.Tx, a, b uuid.UUID) ([]uuid.UUID, error)
}

type MessageStore interface {
	DeleteByMatchIDs(ctx context.Context, tx pgx.Tx, matchIDs []uuid.UUID) (int64, error)
}

type Notifier interface {
	MatchClosed(ctx context.Context, matchID uuid.UUID)
}

type Dependencies struct {
	Tx       TxRunner
	Accounts AccountChecker
	Blocks   BlockStore
	Swipes   SwipeStore
	Messages MessageStore
	Notifier Notifier
}

type Service struct {
	tx       TxRunner
	accounts AccountChecker
	blocks   BlockStore
	swipes   SwipeStore
	messages MessageStore
	notifier Notifier
}

type BlockResult struct {
	ClosedMatchIDs  []uuid.UUID
	DeletedMessages int64
}

func NewService(deps Dependencies) *Service {
	return &Service{
		tx:       deps.Tx,
		accounts: deps.Accounts,
		blocks:   deps.Blocks,
		swipes:   deps.Swipes,
		messages: deps.Messages,
		notifier: deps.Notifier,
	}
}

// Block records the directed block and, in the same transaction, erases every
// swipe record between the pair in both directions along with the messages of
// any match they formed.
func (s *Service) Block(ctx context.Context, actorID, targetID uuid.UUID) (BlockResult, error) {
	if actorID == uuid.Nil {
		return BlockResult{}, errs.ErrUnauthorized
	}
	if targetID == uuid.Nil {
		return BlockResult{}, ErrMissingFields
	}
	if actorID == targetID {
		return BlockResult{}, ErrInvalidAction
	}
	if err := s.ready(); err != nil {
		return BlockResult{}, err
	}

	var out BlockResult
	if err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		if err := s.swipes.LockPair(txCtx, tx, actorID, targetID); err != nil {
			return err
		}

		exists, err := s.accounts.Exists(txCtx, tx, targetID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrUserNotFound
		}

		inserted, err := s.blocks.Insert(txCtx, tx, actorID, targetID)
		if err != nil {
			return err
		}
		if !inserted {
			return ErrAlreadyBlocked
		}

		matchIDs, err := s.swipes.DeleteBetween(txCtx, tx, actorID, targetID)
		if err != nil {
			return err
		}

		var removed int64
		if len(matchIDs) > 0 {
			removed, err = s.messages.DeleteByMatchIDs(txCtx, tx, matchIDs)
			if err != nil {
				return err
			}
		}

		out = BlockResult{ClosedMatchIDs: matchIDs, DeletedMessages: removed}
		return nil
	}); err != nil {
		return BlockResult{}, err
	}

	metrics.IncrementUnmatches(metrics.UnmatchReasonBlock, len(out.ClosedMatchIDs))
	if s.notifier != nil {
		for _, matchID := range out.ClosedMatchIDs {
			s.notifier.MatchClosed(ctx, matchID)
		}
	}
	return out, nil
}

// Unblock removes the directed block only. Nothing erased by Block comes back.
func (s *Service) Unblock(ctx context.Context, actorID, targetID uuid.UUID) error {
	if actorID == uuid.Nil {
		return errs.ErrUnauthorized
	}
	if targetID == uuid.Nil {
		return ErrMissingFields
	}
	if err := s.ready(); err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		deleted, err := s.blocks.Delete(txCtx, tx, actorID, targetID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrNotBlocked
		}
		return nil
	})
}

func (s *Service) ListBlocked(ctx context.Context, actorID uuid.UUID) ([]model.BlockedAccount, error) {
	if actorID == uuid.Nil {
		return nil, errs.ErrUnauthorized
	}
	if err := s.ready(); err != nil {
		return nil, err
	}

	var out []model.BlockedAccount
	if err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		items, err := s.blocks.ListByActor(txCtx, tx, actorID)
		if err != nil {
			return err
		}
		out = items
		return nil
	}); err != nil {
		return nil, err
	}
	return out, nil
}

// IsBlockedEither reports whether a block exists in either direction.
func (s *Service) IsBlockedEither(ctx context.Context, a, b uuid.UUID) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}

	var blocked bool
	err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		v, err := s.blocks.ExistsEither(txCtx, tx, a, b)
		blocked = v
		return err
	})
	return blocked, err
}

func (s *Service) ready() error {
	if s.tx == nil || s.accounts == nil || s.blocks == nil || s.swipes == nil || s.messages == nil {
		return fmt.Errorf("block dependencies are not configured")
	}
	return nil
}
