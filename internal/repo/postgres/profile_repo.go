package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/filsammy/dating-app-whitecloak/internal/domain/enums"
	"github.com/filsammy/dating-app-whitecloak/internal/domain/model"
)

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

const profileColumns = `
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
	p.updated_at`

// Upsert writes the owner's profile and reports whether a new row was created.
func (r *ProfileRepo) Upsert(ctx context.Context, tx pgx.Tx, p model.Profile, now time.Time) (model.Profile, bool, error) {
	if tx == nil {
		return model.Profile{}, false, fmt.Errorf("transaction is required")
	}

	var lon, lat *float64
	if p.Location != nil {
		lon, lat = &p.Location.Lon, &p.Location.Lat
	}

	var created bool
	var out model.Profile
	row := tx.QueryRow(ctx, `
INSERT INTO profiles AS p (
	user_id,
	name,
	age,
	bio,
	picture,
	gender,
	interested_in,
	interests,
	lon,
	lat,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
ON CONFLICT (user_id) DO UPDATE SET
	name = EXCLUDED.name,
	age = EXCLUDED.age,
	bio = EXCLUDED.bio,
	picture = EXCLUDED.picture,
	gender = EXCLUDED.gender,
	interested_in = EXCLUDED.interested_in,
	interests = EXCLUDED.interests,
	lon = EXCLUDED.lon,
	lat = EXCLUDED.lat,
	updated_at = EXCLUDED.updated_at
RETURNING `+profileColumns+`, (xmax = 0) AS inserted
`,
		p.UserID,
		p.Name,
		p.Age,
		p.Bio,
		p.Picture,
		string(p.Gender),
		gendersToStrings(p.InterestedIn),
		nonNilStrings(p.Interests),
		lon,
		lat,
		now.UTC(),
	)

	var scan profileScan
	if err := row.Scan(append(scan.targets(), &created)...); err != nil {
		return model.Profile{}, false, fmt.Errorf("upsert profile: %w", err)
	}
	out = scan.profile()

	return out, created, nil
}

func (r *ProfileRepo) GetByUserID(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (model.Profile, error) {
	if tx == nil {
		return model.Profile{}, fmt.Errorf("transaction is required")
	}

	var scan profileScan
	err := tx.QueryRow(ctx, `
SELECT `+profileColumns+`
FROM profiles p
WHERE p.user_id = $1
`, userID).Scan(scan.targets()...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("get profile by user id: %w", err)
	}

	return scan.profile(), nil
}

func (r *ProfileRepo) Exists(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (bool, error) {
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	var exists bool
	if err := tx.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM profiles WHERE user_id = $1)
`, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check profile exists: %w", err)
	}
	return exists, nil
}

func (r *ProfileRepo) Delete(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (bool, error) {
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	result, err := tx.Exec(ctx, `
DELETE FROM profiles
WHERE user_id = $1
`, userID)
	if err != nil {
		return false, fmt.Errorf("delete profile: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

type profileScan struct {
	userID       uuid.UUID
	name         string
	age          int
	bio          string
	picture      string
	gender       string
	interestedIn []string
	interests    []string
	lon          *float64
	lat          *float64
	createdAt    time.Time
	updatedAt    time.Time
}

func (s *profileScan) targets() []any {
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

func (s *profileScan) profile() model.Profile {
	p := model.Profile{
		UserID:       s.userID,
		Name:         s.name,
		Age:          s.age,
		Bio:          s.bio,
		Picture:      s.picture,
		Gender:       enums.Gender(s.gender),
		InterestedIn: stringsToGenders(s.interestedIn),
		Interests:    nonNilStrings(s.interests),
		CreatedAt:    s.createdAt,
		UpdatedAt:    s.updatedAt,
	}
	if s.lon != nil && s.lat != nil {
		p.Location = &model.GeoPoint{Lon: *s.lon, Lat: *s.lat}
	}
	return p
}

func gendersToStrings(values []enums.Gender) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}
	return out
}

func stringsToGenders(values []string) []enums.Gender {
	out := make([]enums.Gender, 0, len(values))
	for _, v := range values {
		out = append(out, enums.Gender(v))
	}
	return out
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
