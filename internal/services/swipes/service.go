package swipes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/filsammy/dating-app-whitecloak/internal/domain/enums"
	"github.com/filsammy/dating-app-whitecloak/internal/domain/errs"
	"github.com/filsammy/dating-app-whitecloak/internal/domain/model"
	"github.com/filsammy/dating-app-whitecloak/internal/domain/rules"
	"github.com/filsammy/dating-app-whitecloak/internal/infra/metrics"
	pgrepo "github.com/filsammy/dating-app-whitecloak/internal/repo/postgres"
	ratesvc "github.com/filsammy/dating-app-whitecloak/internal/services/rate"
)

var (
	ErrMissingUserID = errs.New(errs.KindValidation, "MISSING_USER_ID", "target user id is required")
	ErrSelfSwipe     = errs.New(errs.KindValidation, "SELF_SWIPE", "cannot swipe on yourself")
	ErrUserNotFound  = errs.New(errs.KindNotFound, "USER_NOT_FOUND", "user profile not found")
	ErrUserBlocked   = errs.New(errs.KindForbidden, "USER_BLOCKED", "cannot interact with this user")
	ErrAlreadySwiped = errs.New(errs.KindConflict, "ALREADY_SWIPED", "you have already swiped on this user")
)

type TxRunner interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

type SwipeStore interface {
	LockPair(ctx context.Context, tx pgx.Tx, a, b uuid.UUID) error
	GetForUpdate(ctx context.Context, tx pgx.Tx, fromUser, toUser uuid.UUID) (model.Swipe, error)
	Create(ctx context.Context, tx pgx.Tx, s model.Swipe) (model.Swipe, error)
	MarkMatched(ctx context.Context, tx pgx.Tx, swipeID, matchID uuid.UUID) error
	DeleteByID(ctx context.Context, tx pgx.Tx, swipeID uuid.UUID) error
}

type ProfileChecker interface {
	Exists(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (bool, error)
}

type BlockChecker interface {
	ExistsEither(ctx context.Context, tx pgx.Tx, a, b uuid.UUID) (bool, error)
}

type RateLimiter interface {
	AllowSwipe(ctx context.Context, userID uuid.UUID) (int64, bool, error)
}

type Config struct {
	SkipTimeout time.Duration
}

type Dependencies struct {
	Tx          TxRunner
	Swipes      SwipeStore
	Profiles    ProfileChecker
	Blocks      BlockChecker
	RateLimiter RateLimiter
}

type Service struct {
	tx          TxRunner
	swipes      SwipeStore
	profiles    ProfileChecker
	blocks      BlockChecker
	rateLimiter RateLimiter
	cfg         Config
	now         func() time.Time
}

type SwipeResult struct {
	IsMatch bool
	Outcome enums.SwipeOutcome
	Swipe   model.Swipe
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.SkipTimeout <= 0 {
		cfg.SkipTimeout = 7 * 24 * time.Hour
	}

	return &Service{
		tx:          deps.Tx,
		swipes:      deps.Swipes,
		profiles:    deps.Profiles,
		blocks:      deps.Blocks,
		rateLimiter: deps.RateLimiter,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Swipe records fromUser's decision on toUser. The whole check-then-write runs
// under the pair lock so mutual likes racing each other produce one match.
func (s *Service) Swipe(ctx context.Context, fromUser, toUser uuid.UUID, liked bool) (SwipeResult, error) {
	if fromUser == uuid.Nil {
		return SwipeResult{}, errs.ErrUnauthorized
	}
	if toUser == uuid.Nil {
		return SwipeResult{}, ErrMissingUserID
	}
	if fromUser == toUser {
		return SwipeResult{}, ErrSelfSwipe
	}
	if s.tx == nil || s.swipes == nil || s.profiles == nil || s.blocks == nil {
		return SwipeResult{}, fmt.Errorf("swipe dependencies are not configured")
	}

	if s.rateLimiter != nil {
		retryAfter, allowed, err := s.rateLimiter.AllowSwipe(ctx, fromUser)
		if err == nil && !allowed {
			return SwipeResult{}, ratesvc.TooFastError{RetryAfterSec: retryAfter}
		}
	}

	now := s.now().UTC()
	var result SwipeResult
	if err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		if err := s.swipes.LockPair(txCtx, tx, fromUser, toUser); err != nil {
			return err
		}

		exists, err := s.profiles.Exists(txCtx, tx, toUser)
		if err != nil {
			return err
		}
		if !exists {
			return ErrUserNotFound
		}

		blocked, err := s.blocks.ExistsEither(txCtx, tx, fromUser, toUser)
		if err != nil {
			return err
		}
		if blocked {
			return ErrUserBlocked
		}

		if err := s.clearExpired(txCtx, tx, fromUser, toUser, now); err != nil {
			return err
		}

		record := model.Swipe{
			ID:        uuid.New(),
			FromUser:  fromUser,
			ToUser:    toUser,
			Liked:     liked,
			CreatedAt: now,
		}

		if !liked {
			skippedAt := now
			record.SkippedAt = &skippedAt
		} else {
			reverse, err := s.swipes.GetForUpdate(txCtx, tx, toUser, fromUser)
			switch {
			case err == nil && reverse.Liked:
				matchID := uuid.New()
				if err := s.swipes.MarkMatched(txCtx, tx, reverse.ID, matchID); err != nil {
					return err
				}
				record.IsMatch = true
				record.MatchID = &matchID
			case err == nil, errors.Is(err, pgrepo.ErrSwipeNotFound):
			default:
				return err
			}
		}

		created, err := s.swipes.Create(txCtx, tx, record)
		if err != nil {
			if errors.Is(err, pgrepo.ErrSwipeExists) {
				return ErrAlreadySwiped
			}
			return err
		}

		result = SwipeResult{
			IsMatch: created.IsMatch,
			Outcome: outcomeOf(created),
			Swipe:   created,
		}
		return nil
	}); err != nil {
		return SwipeResult{}, err
	}

	metrics.IncrementSwipe(string(result.Outcome))
	if result.IsMatch {
		metrics.IncrementMatchesCreated()
	}
	return result, nil
}

// clearExpired enforces at most one active record per ordered pair: an
// expired skip is deleted so the new swipe replaces it, anything else is a
// conflict.
func (s *Service) clearExpired(ctx context.Context, tx pgx.Tx, fromUser, toUser uuid.UUID, now time.Time) error {
	existing, err := s.swipes.GetForUpdate(ctx, tx, fromUser, toUser)
	if err != nil {
		if errors.Is(err, pgrepo.ErrSwipeNotFound) {
			return nil
		}
		return err
	}

	if rules.SwipeBlocksReswipe(existing.Liked, existing.IsMatch, existing.SkippedAt, now, s.cfg.SkipTimeout) {
		return ErrAlreadySwiped
	}

	if err := s.swipes.DeleteByID(ctx, tx, existing.ID); err != nil && !errors.Is(err, pgrepo.ErrSwipeNotFound) {
		return err
	}
	return nil
}

func outcomeOf(s model.Swipe) enums.SwipeOutcome {
	switch {
	case s.IsMatch:
		return enums.SwipeOutcomeMatched
	case s.Liked:
		return enums.SwipeOutcomeLiked
	default:
		return enums.SwipeOutcomeSkipped
	}
}

// ResultMessage is the human readable summary returned with a swipe.
func ResultMessage(outcome enums.SwipeOutcome) string {
	switch outcome {
	case enums.SwipeOutcomeMatched:
		return "It's a match!"
	case enums.SwipeOutcomeLiked:
		return "Liked"
	default:
		return "Skipped"
	}
}
