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

type MatchRepo struct {
	pool *pgxpool.Pool
}

func NewMatchRepo(pool *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{pool: pool}
}

// ListForUser returns one row per confirmed match of userID, newest first.
// Pairs separated by a block in either direction are skipped.
func (r *MatchRepo) ListForUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID) ([]model.Match, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction is required")
	}

	rows, err := tx.Query(ctx, `
SELECT
	mine.match_id,
	mine.to_user,
	GREATEST(mine.created_at, theirs.created_at) AS matched_at,
	`+profileColumns+`
FROM swipes mine
JOIN swipes theirs
	ON theirs.from_user = mine.to_user
	AND theirs.to_user = mine.from_user
	AND theirs.is_match
	AND theirs.match_id = mine.match_id
LEFT JOIN profiles p ON p.user_id = mine.to_user
WHERE mine.from_user = $1
	AND mine.is_match
	AND NOT EXISTS (
		SELECT 1
		FROM account_blocks b
		WHERE (b.actor_id = $1 AND b.target_id = mine.to_user)
			OR (b.actor_id = mine.to_user AND b.target_id = $1)
	)
ORDER BY matched_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	items := make([]model.Match, 0)
	for rows.Next() {
		var (
			item    model.Match
			profile nullableProfileScan
		)
		targets := append([]any{&item.MatchID, &item.UserID, &item.MatchedAt}, profile.targets()...)
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		item.Profile = profile.profile()
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}

	return items, nil
}

// FindBetween returns the match id shared by a and b when both records are
// flagged, or ErrMatchNotFound.
func (r *MatchRepo) FindBetween(ctx context.Context, tx pgx.Tx, a, b uuid.UUID) (uuid.UUID, time.Time, error) {
	if tx == nil {
		return uuid.Nil, time.Time{}, fmt.Errorf("transaction is required")
	}

	var (
		matchID   uuid.UUID
		matchedAt time.Time
	)
	err := tx.QueryRow(ctx, `
SELECT ab.match_id, GREATEST(ab.created_at, ba.created_at)
FROM swipes ab
JOIN swipes ba
	ON ba.from_user = ab.to_user
	AND ba.to_user = ab.from_user
	AND ba.match_id = ab.match_id
WHERE ab.from_user = $1
	AND ab.to_user = $2
	AND ab.is_match
	AND ba.is_match
`, a, b).Scan(&matchID, &matchedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, time.Time{}, ErrMatchNotFound
		}
		return uuid.Nil, time.Time{}, fmt.Errorf("find match between: %w", err)
	}
	return matchID, matchedAt, nil
}

// DeleteMatchedBetween removes the flagged records of the pair and returns
// the match ids they carried. Non-matched records stay untouched.
func (r *MatchRepo) DeleteMatchedBetween(ctx context.Context, tx pgx.Tx, a, b uuid.UUID) ([]uuid.UUID, int64, error) {
	if tx == nil {
		return nil, 0, fmt.Errorf("transaction is required")
	}

	rows, err := tx.Query(ctx, `
DELETE FROM swipes
WHERE ((from_user = $1 AND to_user = $2) OR (from_user = $2 AND to_user = $1))
	AND is_match
RETURNING match_id
`, a, b)
	if err != nil {
		return nil, 0, fmt.Errorf("delete matched swipes: %w", err)
	}

	var deleted int64
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0, 1)
	defer rows.Close()
	for rows.Next() {
		var matchID *uuid.UUID
		if err := rows.Scan(&matchID); err != nil {
			return nil, 0, fmt.Errorf("scan deleted match id: %w", err)
		}
		deleted++
		if matchID == nil {
			continue
		}
		if _, ok := seen[*matchID]; !ok {
			seen[*matchID] = struct{}{}
			ids = append(ids, *matchID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate deleted match ids: %w", err)
	}

	return ids, deleted, nil
}

// GetPair loads both records of a match under a share lock, so a concurrent
// unmatch either completes first or waits for the caller's transaction.
func (r *MatchRepo) GetPair(ctx context.Context, tx pgx.Tx, matchID uuid.UUID) (model.MatchPair, error) {
	if tx == nil {
		return model.MatchPair{}, fmt.Errorf("transaction is required")
	}

	rows, err := tx.Query(ctx, `
SELECT from_user, to_user, is_match
FROM swipes
WHERE match_id = $1
ORDER BY from_user
FOR SHARE
`, matchID)
	if err != nil {
		return model.MatchPair{}, fmt.Errorf("load match pair: %w", err)
	}
	defer rows.Close()

	pair := model.MatchPair{MatchID: matchID}
	count := 0
	for rows.Next() {
		var (
			from, to uuid.UUID
			isMatch  bool
		)
		if err := rows.Scan(&from, &to, &isMatch); err != nil {
			return model.MatchPair{}, fmt.Errorf("scan match pair: %w", err)
		}
		if count == 0 {
			pair.UserA, pair.UserB, pair.AToB = from, to, isMatch
		} else if from == pair.UserB && to == pair.UserA {
			pair.BToA = isMatch
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return model.MatchPair{}, fmt.Errorf("iterate match pair: %w", err)
	}
	if count == 0 {
		return model.MatchPair{}, ErrMatchNotFound
	}

	return pair, nil
}

type nullableProfileScan struct {
	userID       *uuid.UUID
	name         *string
	age          *int
	bio          *string
	picture      *string
	gender       *string
	interestedIn []string
	interests    []string
	lon          *float64
	lat          *float64
	createdAt    *time.Time
	updatedAt    *time.Time
}

func (s *nullableProfileScan) targets() []any {
	return []any{
		&s.userID,
		&s.name,
		&s.age,
		&s.bio,
		&s.picture,
		&s.gender,
		&s.interestedIn,
		&s.interests,
		&s.lon,
		&s.lat,
		&s.createdAt,
		&s.updatedAt,
	}
}

func (s *nullableProfileScan) profile() *model.Profile {
	if s.userID == nil {
		return nil
	}
	scan := profileScan{
		userID:       *s.userID,
		name:         deref(s.name),
		age:          deref(s.age),
		bio:          deref(s.bio),
		picture:      deref(s.picture),
		gender:       deref(s.gender),
		interestedIn: s.interestedIn,
		interests:    s.interests,
		lon:          s.lon,
		lat:          s.lat,
		createdAt:    deref(s.createdAt),
		updatedAt:    deref(s.updatedAt),
	}
	p := scan.profile()
	return &p
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}
