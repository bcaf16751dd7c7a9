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

type SwipeRepo struct {
	pool *pgxpool.Pool
}

func NewSwipeRepo(pool *pgxpool.Pool) *SwipeRepo {
	return &SwipeRepo{pool: pool}
}

const swipeColumns = `id, from_user, to_user, liked, is_match, match_id, skipped_at, created_at`

// LockPair serializes every writer touching the unordered pair (a, b) until
// the surrounding transaction ends.
func (r *SwipeRepo) LockPair(ctx context.Context, tx pgx.Tx, a, b uuid.UUID) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	if _, err := tx.Exec(ctx, `
SELECT pg_advisory_xact_lock(hashtextextended($1, 0))
`, PairKey(a, b)); err != nil {
		return fmt.Errorf("lock swipe pair: %w", err)
	}
	return nil
}

// PairKey is identical for (a, b) and (b, a).
func PairKey(a, b uuid.UUID) string {
	x, y := a.String(), b.String()
	if x > y {
		x, y = y, x
	}
	return "pair:" + x + ":" + y
}

func (r *SwipeRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, fromUser, toUser uuid.UUID) (model.Swipe, error) {
	if tx == nil {
		return model.Swipe{}, fmt.Errorf("transaction is required")
	}

	rec, err := scanSwipe(tx.QueryRow(ctx, `
SELECT `+swipeColumns+`
FROM swipes
WHERE from_user = $1 AND to_user = $2
FOR UPDATE
`, fromUser, toUser))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Swipe{}, ErrSwipeNotFound
		}
		return model.Swipe{}, fmt.Errorf("get swipe for update: %w", err)
	}
	return rec, nil
}

// Create inserts a new directed record. A concurrent or earlier record for the
// same ordered pair yields ErrSwipeExists.
func (r *SwipeRepo) Create(ctx context.Context, tx pgx.Tx, s model.Swipe) (model.Swipe, error) {
	if tx == nil {
		return model.Swipe{}, fmt.Errorf("transaction is required")
	}
	if s.FromUser == s.ToUser {
		return model.Swipe{}, fmt.Errorf("invalid swipe payload")
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	rec, err := scanSwipe(tx.QueryRow(ctx, `
INSERT INTO swipes (
	id,
	from_user,
	to_user,
	liked,
	is_match,
	match_id,
	skipped_at,
	created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (from_user, to_user) DO NOTHING
RETURNING `+swipeColumns+`
`, s.ID, s.FromUser, s.ToUser, s.Liked, s.IsMatch, s.MatchID, s.SkippedAt, s.CreatedAt.UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err) {
			return model.Swipe{}, ErrSwipeExists
		}
		return model.Swipe{}, fmt.Errorf("create swipe: %w", err)
	}
	return rec, nil
}

func (r *SwipeRepo) MarkMatched(ctx context.Context, tx pgx.Tx, swipeID, matchID uuid.UUID) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	result, err := tx.Exec(ctx, `
UPDATE swipes
SET is_match = TRUE, match_id = $2
WHERE id = $1 AND liked
`, swipeID, matchID)
	if err != nil {
		return fmt.Errorf("mark swipe matched: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrSwipeNotFound
	}
	return nil
}

func (r *SwipeRepo) DeleteByID(ctx context.Context, tx pgx.Tx, swipeID uuid.UUID) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	result, err := tx.Exec(ctx, `
DELETE FROM swipes
WHERE id = $1
`, swipeID)
	if err != nil {
		return fmt.Errorf("delete swipe: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrSwipeNotFound
	}
	return nil
}

// DeleteBetween removes every record between a and b in both directions and
// returns the distinct match ids those records carried.
func (r *SwipeRepo) DeleteBetween(ctx context.Context, tx pgx.Tx, a, b uuid.UUID) ([]uuid.UUID, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction is required")
	}

	rows, err := tx.Query(ctx, `
DELETE FROM swipes
WHERE (from_user = $1 AND to_user = $2)
	OR (from_user = $2 AND to_user = $1)
RETURNING match_id
`, a, b)
	if err != nil {
		return nil, fmt.Errorf("delete swipes between pair: %w", err)
	}
	return collectMatchIDs(rows)
}

// DeleteExpiredSkips purges skip-only records older than cutoff.
func (r *SwipeRepo) DeleteExpiredSkips(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
DELETE FROM swipes
WHERE NOT liked
	AND skipped_at IS NOT NULL
	AND skipped_at <= $1
`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired skips: %w", err)
	}
	return result.RowsAffected(), nil
}

func scanSwipe(row pgx.Row) (model.Swipe, error) {
	var rec model.Swipe
	err := row.Scan(
		&rec.ID,
		&rec.FromUser,
		&rec.ToUser,
		&rec.Liked,
		&rec.IsMatch,
		&rec.MatchID,
		&rec.SkippedAt,
		&rec.CreatedAt,
	)
	return rec, err
}

func collectMatchIDs(rows pgx.Rows) ([]uuid.UUID, error) {
	defer rows.Close()

	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var matchID *uuid.UUID
		if err := rows.Scan(&matchID); err != nil {
			return nil, fmt.Errorf("scan match id: %w", err)
		}
		if matchID == nil {
			continue
		}
		if _, ok := seen[*matchID]; ok {
			continue
		}
		seen[*matchID] = struct{}{}
		ids = append(ids, *matchID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match ids: %w", err)
	}
	return ids, nil
}
