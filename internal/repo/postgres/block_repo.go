package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/filsammy/dating-app-whitecloak/internal/domain/model"
)

type BlockRepo struct {
	pool *pgxpool.Pool
}

func NewBlockRepo(pool *pgxpool.Pool) *BlockRepo {
	return &BlockRepo{pool: pool}
}

// Insert reports false when actor already blocks target.
func (r *BlockRepo) Insert(ctx context.Context, tx pgx.Tx, actorID, targetID uuid.UUID) (bool, error) {
	if actorID == targetID {
		return false, fmt.Errorf("invalid block payload")
	}
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	result, err := tx.Exec(ctx, `
INSERT INTO account_blocks (actor_id, target_id, created_at)
VALUES ($1, $2, NOW())
ON CONFLICT (actor_id, target_id) DO NOTHING
`, actorID, targetID)
	if err != nil {
		return false, fmt.Errorf("insert block: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (r *BlockRepo) Delete(ctx context.Context, tx pgx.Tx, actorID, targetID uuid.UUID) (bool, error) {
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	result, err := tx.Exec(ctx, `
DELETE FROM account_blocks
WHERE actor_id = $1 AND target_id = $2
`, actorID, targetID)
	if err != nil {
		return false, fmt.Errorf("delete block: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (r *BlockRepo) ExistsEither(ctx context.Context, tx pgx.Tx, a, b uuid.UUID) (bool, error) {
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	var exists bool
	if err := tx.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1
	FROM account_blocks
	WHERE (actor_id = $1 AND target_id = $2)
		OR (actor_id = $2 AND target_id = $1)
)
`, a, b).Scan(&exists); err != nil {
		return false, fmt.Errorf("check block either direction: %w", err)
	}
	return exists, nil
}

func (r *BlockRepo) ListByActor(ctx context.Context, tx pgx.Tx, actorID uuid.UUID) ([]model.BlockedAccount, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction is required")
	}

	rows, err := tx.Query(ctx, `
SELECT a.id, a.email, b.created_at
FROM account_blocks b
JOIN accounts a ON a.id = b.target_id
WHERE b.actor_id = $1
ORDER BY b.created_at DESC
`, actorID)
	if err != nil {
		return nil, fmt.Errorf("list blocked accounts: %w", err)
	}
	defer rows.Close()

	items := make([]model.BlockedAccount, 0)
	for rows.Next() {
		var item model.BlockedAccount
		if err := rows.Scan(&item.ID, &item.Email, &item.BlockedAt); err != nil {
			return nil, fmt.Errorf("scan blocked account: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blocked accounts: %w", err)
	}

	return items, nil
}
