package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/filsammy/dating-app-whitecloak/internal/domain/model"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

const messageColumns = `id, match_id, sender_id, receiver_id, content, created_at`

func (r *MessageRepo) Create(ctx context.Context, tx pgx.Tx, msg model.Message) (model.Message, error) {
	if tx == nil {
		return model.Message{}, fmt.Errorf("transaction is required")
	}
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}

	out, err := scanMessage(tx.QueryRow(ctx, `
INSERT INTO messages (`+messageColumns+`)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+messageColumns+`
`, msg.ID, msg.MatchID, msg.SenderID, msg.ReceiverID, msg.Content, msg.CreatedAt.UTC()))
	if err != nil {
		return model.Message{}, fmt.Errorf("create message: %w", err)
	}
	return out, nil
}

func (r *MessageRepo) ListByMatch(ctx context.Context, tx pgx.Tx, matchID uuid.UUID) ([]model.Message, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction is required")
	}

	rows, err := tx.Query(ctx, `
SELECT `+messageColumns+`
FROM messages
WHERE match_id = $1
ORDER BY created_at ASC, id ASC
`, matchID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	items := make([]model.Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		items = append(items, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return items, nil
}

func (r *MessageRepo) GetByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (model.Message, error) {
	if tx == nil {
		return model.Message{}, fmt.Errorf("transaction is required")
	}

	msg, err := scanMessage(tx.QueryRow(ctx, `
SELECT `+messageColumns+`
FROM messages
WHERE id = $1
FOR UPDATE
`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Message{}, ErrMessageNotFound
		}
		return model.Message{}, fmt.Errorf("get message: %w", err)
	}
	return msg, nil
}

func (r *MessageRepo) DeleteByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	result, err := tx.Exec(ctx, `
DELETE FROM messages
WHERE id = $1
`, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *MessageRepo) DeleteByMatchIDs(ctx context.Context, tx pgx.Tx, matchIDs []uuid.UUID) (int64, error) {
	if tx == nil {
		return 0, fmt.Errorf("transaction is required")
	}
	if len(matchIDs) == 0 {
		return 0, nil
	}

	result, err := tx.Exec(ctx, `
DELETE FROM messages
WHERE match_id = ANY($1::uuid[])
`, uuidStrings(matchIDs))
	if err != nil {
		return 0, fmt.Errorf("delete messages by match ids: %w", err)
	}
	return result.RowsAffected(), nil
}

// Conversations lists every confirmed match of userID with its latest
// message and message count, most recent activity first.
func (r *MessageRepo) Conversations(ctx context.Context, tx pgx.Tx, userID uuid.UUID) ([]model.Conversation, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction is required")
	}

	rows, err := tx.Query(ctx, `
SELECT
	mine.match_id,
	mine.to_user,
	GREATEST(mine.created_at, theirs.created_at) AS matched_at,
	COALESCE(stats.message_count, 0),
	last.id,
	last.match_id,
	last.sender_id,
	last.receiver_id,
	last.content,
	last.created_at
FROM swipes mine
JOIN swipes theirs
	ON theirs.from_user = mine.to_user
	AND theirs.to_user = mine.from_user
	AND theirs.is_match
	AND theirs.match_id = mine.match_id
LEFT JOIN LATERAL (
	SELECT COUNT(*) AS message_count
	FROM messages m
	WHERE m.match_id = mine.match_id
) stats ON TRUE
LEFT JOIN LATERAL (
	SELECT `+messageColumns+`
	FROM messages m
	WHERE m.match_id = mine.match_id
	ORDER BY m.created_at DESC, m.id DESC
	LIMIT 1
) last ON TRUE
WHERE mine.from_user = $1
	AND mine.is_match
ORDER BY COALESCE(last.created_at, GREATEST(mine.created_at, theirs.created_at)) DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	items := make([]model.Conversation, 0)
	for rows.Next() {
		var (
			conv       model.Conversation
			lastID     *uuid.UUID
			lastMatch  *uuid.UUID
			lastSender *uuid.UUID
			lastRecv   *uuid.UUID
			lastText   *string
			lastAt     *time.Time
		)
		if err := rows.Scan(
			&conv.MatchID,
			&conv.OtherUserID,
			&conv.MatchedAt,
			&conv.MessageCount,
			&lastID,
			&lastMatch,
			&lastSender,
			&lastRecv,
			&lastText,
			&lastAt,
		); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		if lastID != nil {
			conv.LastMessage = &model.Message{
				ID:         *lastID,
				MatchID:    deref(lastMatch),
				SenderID:   deref(lastSender),
				ReceiverID: deref(lastRecv),
				Content:    deref(lastText),
				CreatedAt:  deref(lastAt),
			}
		}
		items = append(items, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}

	return items, nil
}

func scanMessage(row pgx.Row) (model.Message, error) {
	var msg model.Message
	err := row.Scan(
		&msg.ID,
		&msg.MatchID,
		&msg.SenderID,
		&msg.ReceiverID,
		&msg.Content,
		&msg.CreatedAt,
	)
	return msg, err
}
