package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/filsammy/dating-app-whitecloak/internal/domain/enums"
	"github.com/filsammy/dating-app-whitecloak/internal/domain/model"
)

type DiscoveryRepo struct {
	pool *pgxpool.Pool
}

func NewDiscoveryRepo(pool *pgxpool.Pool) *DiscoveryRepo {
	return &DiscoveryRepo{pool: pool}
}

type DiscoveryQuery struct {
	ViewerID           uuid.UUID
	ViewerGender       enums.Gender
	ViewerInterestedIn []enums.Gender
	MinAge             *int
	MaxAge             *int
	SkipCutoff         time.Time

	// Geo filter is applied only when HasOrigin is set.
	HasOrigin bool
	OriginLat float64
	OriginLon float64
	RadiusKM  float64
	MinLat    float64
	MaxLat    float64
	MinLon    float64
	MaxLon    float64

	Limit int
}

// ListCandidates runs the whole exclusion and eligibility filter in one
// statement. The (lat, lon) index serves the bounding-box prefilter, the exact
// haversine distance trims the corners, and results come back nearest first.
func (r *DiscoveryRepo) ListCandidates(ctx context.Context, tx pgx.Tx, q DiscoveryQuery) ([]model.Profile, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction is required")
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}

	rows, err := tx.Query(ctx, `
WITH eligible AS (
	SELECT
		`+profileColumns+`,
		CASE
			WHEN $7::boolean AND p.lat IS NOT NULL AND p.lon IS NOT NULL
			THEN 2 * 6371.0 * ASIN(SQRT(
				POWER(SIN(RADIANS(p.lat - $8::float8) / 2), 2)
				+ COS(RADIANS($8::float8)) * COS(RADIANS(p.lat)) * POWER(SIN(RADIANS(p.lon - $9::float8) / 2), 2)
			))
			ELSE NULL
		END AS distance_km
	FROM profiles p
	WHERE p.user_id <> $1
		AND p.gender = ANY($2::text[])
		AND $3::text = ANY(p.interested_in)
		AND ($4::int IS NULL OR p.age >= $4::int)
		AND ($5::int IS NULL OR p.age <= $5::int)
		AND NOT EXISTS (
			SELECT 1
			FROM account_blocks b
			WHERE (b.actor_id = $1 AND b.target_id = p.user_id)
				OR (b.actor_id = p.user_id AND b.target_id = $1)
		)
		AND NOT EXISTS (
			SELECT 1
			FROM swipes s
			WHERE s.from_user = $1
				AND s.to_user = p.user_id
				AND (
					s.liked
					OR s.is_match
					OR s.skipped_at IS NULL
					OR s.skipped_at > $6::timestamptz
				)
		)
		AND (
			$7::boolean = FALSE
			OR (
				p.lat BETWEEN $11::float8 AND $12::float8
				AND p.lon BETWEEN $13::float8 AND $14::float8
			)
		)
)
SELECT
	p.user_id,
	p.name,
	p.age,
	p.bio,
	p.picture,
	p.gender,
	p.interested_in,
	p.interests,
	p.lon,
	p.lat,
	p.created_at,
	p.updated_at,
	p.distance_km
FROM eligible p
WHERE $7::boolean = FALSE OR p.distance_km <= $10::float8
ORDER BY
	CASE WHEN $7::boolean THEN p.distance_km END ASC NULLS LAST,
	p.created_at DESC
LIMIT $15
`,
		q.ViewerID,
		gendersToStrings(q.ViewerInterestedIn),
		string(q.ViewerGender),
		q.MinAge,
		q.MaxAge,
		q.SkipCutoff.UTC(),
		q.HasOrigin,
		q.OriginLat,
		q.OriginLon,
		q.RadiusKM,
		q.MinLat,
		q.MaxLat,
		q.MinLon,
		q.MaxLon,
		q.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list discovery candidates: %w", err)
	}
	defer rows.Close()

	items := make([]model.Profile, 0, q.Limit)
	for rows.Next() {
		var (
			scan     profileScan
			distance *float64
		)
		if err := rows.Scan(append(scan.targets(), &distance)...); err != nil {
			return nil, fmt.Errorf("scan discovery candidate: %w", err)
		}
		p := scan.profile()
		p.DistanceKM = distance
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate discovery candidates: %w", err)
	}

	return items, nil
}
