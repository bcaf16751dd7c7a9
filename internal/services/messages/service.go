package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/filsammy/dating-app-whitecloak/internal/domain/errs"
	"github.com/filsammy/dating-app-whitecloak/internal/domain/model"
	"github.com/filsammy/dating-app-whitecloak/internal/infra/metrics"
	pgrepo "github.com/filsammy/dating-app-whitecloak/internal/repo/postgres"
	ratesvc "github.com/filsammy/dating-app-whitecloak/internal/services/rate"
)

const MaxContentLength = 2000

var (
	ErrMissingFields   = errs.New(errs.KindValidation, "MISSING_FIELDS", "match id, receiver id, and content are required")
	ErrEmptyMessage    = errs.New(errs.KindValidation, "EMPTY_MESSAGE", "message content cannot be empty")
	ErrMessageTooLong  = errs.New(errs.KindValidation, "MESSAGE_TOO_LONG", "message content is too long")
	ErrMatchNotFound   = errs.New(errs.KindNotFound, "MATCH_NOT_FOUND", "match not found")
	ErrNotParticipant  = errs.New(errs.KindForbidden, "UNAUTHORIZED", "not a participant of this match")
	ErrNotMatched      = errs.New(errs.KindForbidden, "NOT_MATCHED", "can only message after matching")
	ErrInvalidReceiver = errs.New(errs.KindValidation, "INVALID_RECEIVER", "invalid receiver for this match")
	ErrMessageNotFound = errs.New(errs.KindNotFound, "MESSAGE_NOT_FOUND", "message not found")
	ErrNotSender       = errs.New(errs.KindForbidden, "UNAUTHORIZED", "only the sender can delete this message")
)

type TxRunner interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

type PairStore interface {
	GetPair(ctx context.Context, tx pgx.Tx, matchID uuid.UUID) (model.MatchPair, error)
}

type MessageStore interface {
	Create(ctx context.Context, tx pgx.Tx, msg model.Message) (model.Message, error)
	ListByMatch(ctx context.Context, tx pgx.Tx, matchID uuid.UUID) ([]model.Message, error)
	GetByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (model.Message, error)
	DeleteByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	Conversations(ctx context.Context, tx pgx.Tx, userID uuid.UUID) ([]model.Conversation, error)
}

type RateLimiter interface {
	AllowMessage(ctx context.Context, userID uuid.UUID) (int64, bool, error)
}

// Notifier is handed every committed message. Delivery is best-effort.
type Notifier interface {
	MessageCreated(ctx context.Context, msg model.Message)
}

type Dependencies struct {
	Tx          TxRunner
	Pairs       PairStore
	Messages    MessageStore
	RateLimiter RateLimiter
	Notifier    Notifier
}

type Service struct {
	tx          TxRunner
	pairs       PairStore
	messages    MessageStore
	rateLimiter RateLimiter
	notifier    Notifier
	now         func() time.Time
}

type SendInput struct {
	MatchID    uuid.UUID
	ReceiverID uuid.UUID
	Content    string
}

func NewService(deps Dependencies) *Service {
	return &Service{
		tx:          deps.Tx,
		pairs:       deps.Pairs,
		messages:    deps.Messages,
		rateLimiter: deps.RateLimiter,
		notifier:    deps.Notifier,
		now:         time.Now,
	}
}

// Authorize applies the conversation gate to senderID sending into matchID
// toward receiverID. It must run inside the transaction that writes.
func Authorize(pair model.MatchPair, senderID, receiverID uuid.UUID) error {
	if !pair.Has(senderID) {
		return ErrNotParticipant
	}
	if !pair.Confirmed() {
		return ErrNotMatched
	}
	if receiverID != pair.Other(senderID) {
		return ErrInvalidReceiver
	}
	return nil
}

// Send persists the message only if the match is confirmed at write time and
// then signals the relay without waiting on it.
func (s *Service) Send(ctx context.Context, senderID uuid.UUID, in SendInput) (model.Message, error) {
	if senderID == uuid.Nil {
		return model.Message{}, errs.ErrUnauthorized
	}
	if in.MatchID == uuid.Nil || in.ReceiverID == uuid.Nil || in.Content == "" {
		return model.Message{}, ErrMissingFields
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return model.Message{}, ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return model.Message{}, ErrMessageTooLong
	}
	if err := s.ready(); err != nil {
		return model.Message{}, err
	}

	if s.rateLimiter != nil {
		retryAfter, allowed, err := s.rateLimiter.AllowMessage(ctx, senderID)
		if err == nil && !allowed {
			return model.Message{}, ratesvc.TooFastError{RetryAfterSec: retryAfter}
		}
	}

	var created model.Message
	if err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		pair, err := s.loadPair(txCtx, tx, in.MatchID)
		if err != nil {
			return err
		}
		if err := Authorize(pair, senderID, in.ReceiverID); err != nil {
			return err
		}

		msg, err := s.messages.Create(txCtx, tx, model.Message{
			ID:         uuid.New(),
			MatchID:    in.MatchID,
			SenderID:   senderID,
			ReceiverID: in.ReceiverID,
			Content:    content,
			CreatedAt:  s.now().UTC(),
		})
		if err != nil {
			return err
		}
		created = msg
		return nil
	}); err != nil {
		return model.Message{}, err
	}

	metrics.IncrementMessagesSent()
	if s.notifier != nil {
		s.notifier.MessageCreated(ctx, created)
	}
	return created, nil
}

// CanJoin reports whether userID may observe the room of matchID.
func (s *Service) CanJoin(ctx context.Context, userID, matchID uuid.UUID) error {
	if userID == uuid.Nil {
		return errs.ErrUnauthorized
	}
	if matchID == uuid.Nil {
		return ErrMatchNotFound
	}
	if err := s.ready(); err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		pair, err := s.loadPair(txCtx, tx, matchID)
		if err != nil {
			return err
		}
		return authorizeView(pair, userID)
	})
}

func (s *Service) List(ctx context.Context, userID, matchID uuid.UUID) ([]model.Message, error) {
	if userID == uuid.Nil {
		return nil, errs.ErrUnauthorized
	}
	if matchID == uuid.Nil {
		return nil, ErrMatchNotFound
	}
	if err := s.ready(); err != nil {
		return nil, err
	}

	var out []model.Message
	if err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		pair, err := s.loadPair(txCtx, tx, matchID)
		if err != nil {
			return err
		}
		if err := authorizeView(pair, userID); err != nil {
			return err
		}

		items, err := s.messages.ListByMatch(txCtx, tx, matchID)
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

func (s *Service) Conversations(ctx context.Context, userID uuid.UUID) ([]model.Conversation, error) {
	if userID == uuid.Nil {
		return nil, errs.ErrUnauthorized
	}
	if err := s.ready(); err != nil {
		return nil, err
	}

	var out []model.Conversation
	if err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		items, err := s.messages.Conversations(txCtx, tx, userID)
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

// Delete removes a message. Only its sender may do so.
func (s *Service) Delete(ctx context.Context, userID, messageID uuid.UUID) error {
	if userID == uuid.Nil {
		return errs.ErrUnauthorized
	}
	if messageID == uuid.Nil {
		return ErrMessageNotFound
	}
	if err := s.ready(); err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		msg, err := s.messages.GetByID(txCtx, tx, messageID)
		if err != nil {
			if errors.Is(err, pgrepo.ErrMessageNotFound) {
				return ErrMessageNotFound
			}
			return err
		}
		if msg.SenderID != userID {
			return ErrNotSender
		}
		if err := s.messages.DeleteByID(txCtx, tx, messageID); err != nil {
			if errors.Is(err, pgrepo.ErrMessageNotFound) {
				return ErrMessageNotFound
			}
			return err
		}
		return nil
	})
}

func (s *Service) loadPair(ctx context.Context, tx pgx.Tx, matchID uuid.UUID) (model.MatchPair, error) {
	pair, err := s.pairs.GetPair(ctx, tx, matchID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrMatchNotFound) {
			return model.MatchPair{}, ErrMatchNotFound
		}
		return model.MatchPair{}, err
	}
	return pair, nil
}

func authorizeView(pair model.MatchPair, userID uuid.UUID) error {
	if !pair.Has(userID) {
		return ErrNotParticipant
	}
	if !pair.Confirmed() {
		return ErrNotMatched
	}
	return nil
}

func (s *Service) ready() error {
	if s.tx == nil || s.pairs == nil || s.messages == nil {
		return fmt.Errorf("message dependencies are not configured")
	}
	return nil
}
