package discovery

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/filsammy/dating-app-whitecloak/internal/domain/errs"
	"github.com/filsammy/dating-app-whitecloak/internal/domain/model"
	"github.com/filsammy/dating-app-whitecloak/internal/domain/rules"
	pgrepo "github.com/filsammy/dating-app-whitecloak/internal/repo/postgres"
	profilesvc "github.com/filsammy/dating-app-whitecloak/internal/services/profiles"
)

var (
	ErrInvalidQuery    = errs.New(errs.KindValidation, "INVALID_QUERY", "invalid discovery query")
	ErrProfileNotFound = profilesvc.ErrProfileNotFound.WithMessage("create a profile before discovering matches")
)

type TxRunner interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

type ProfileReader interface {
	GetByUserID(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (model.Profile, error)
}

type CandidateStore interface {
	ListCandidates(ctx context.Context, tx pgx.Tx, q pgrepo.DiscoveryQuery) ([]model.Profile, error)
}

type Config struct {
	SkipTimeout          time.Duration
	DefaultMaxDistanceKM float64
	DefaultLimit         int
	MaxLimit             int
}

type Dependencies struct {
	Tx         TxRunner
	Profiles   ProfileReader
	Candidates CandidateStore
	Pictures   profilesvc.PictureResolver
}

type Service struct {
	tx         TxRunner
	profiles   ProfileReader
	candidates CandidateStore
	pictures   profilesvc.PictureResolver
	cfg        Config
	now        func() time.Time
}

// Query carries the optional filters of one discovery request.
type Query struct {
	MaxDistanceKM *float64
	MinAge        *int
	MaxAge        *int
	Limit         int
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.SkipTimeout <= 0 {
		cfg.SkipTimeout = 7 * 24 * time.Hour
	}
	if cfg.DefaultMaxDistanceKM <= 0 {
		cfg.DefaultMaxDistanceKM = 50
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 20
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		cfg.MaxLimit = cfg.DefaultLimit
	}

	return &Service{
		tx:         deps.Tx,
		profiles:   deps.Profiles,
		candidates: deps.Candidates,
		pictures:   deps.Pictures,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Discover lists candidate profiles for viewerID. It has no side effects.
func (s *Service) Discover(ctx context.Context, viewerID uuid.UUID, q Query) ([]model.Profile, error) {
	if viewerID == uuid.Nil {
		return nil, errs.ErrUnauthorized
	}
	if err := s.validate(q); err != nil {
		return nil, err
	}
	if s.tx == nil || s.profiles == nil || s.candidates == nil {
		return nil, fmt.Errorf("discovery dependencies are not configured")
	}

	now := s.now().UTC()
	var out []model.Profile
	if err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		viewer, err := s.profiles.GetByUserID(txCtx, tx, viewerID)
		if err != nil {
			if errors.Is(err, pgrepo.ErrProfileNotFound) {
				return ErrProfileNotFound
			}
			return err
		}

		candidates, err := s.candidates.ListCandidates(txCtx, tx, s.buildQuery(viewer, q, now))
		if err != nil {
			return err
		}
		out = candidates
		return nil
	}); err != nil {
		return nil, err
	}

	for i := range out {
		out[i] = profilesvc.PresentWith(ctx, s.pictures, out[i])
	}
	return out, nil
}

func (s *Service) validate(q Query) error {
	if q.MaxDistanceKM != nil && (*q.MaxDistanceKM < 0 || math.IsNaN(*q.MaxDistanceKM) || math.IsInf(*q.MaxDistanceKM, 0)) {
		return ErrInvalidQuery.WithMessage("maxDistance must be a non-negative number")
	}
	if q.MinAge != nil && *q.MinAge < 0 {
		return ErrInvalidQuery.WithMessage("minAge must not be negative")
	}
	if q.MaxAge != nil && *q.MaxAge < 0 {
		return ErrInvalidQuery.WithMessage("maxAge must not be negative")
	}
	if q.MinAge != nil && q.MaxAge != nil && *q.MinAge > *q.MaxAge {
		return ErrInvalidQuery.WithMessage("minAge must not exceed maxAge")
	}
	if q.Limit < 0 {
		return ErrInvalidQuery.WithMessage("limit must be positive")
	}
	return nil
}

func (s *Service) buildQuery(viewer model.Profile, q Query, now time.Time) pgrepo.DiscoveryQuery {
	limit := q.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}

	out := pgrepo.DiscoveryQuery{
		ViewerID:           viewer.UserID,
		ViewerGender:       viewer.Gender,
		ViewerInterestedIn: viewer.InterestedIn,
		MinAge:             q.MinAge,
		MaxAge:             q.MaxAge,
		SkipCutoff:         rules.SkipCutoff(now, s.cfg.SkipTimeout),
		Limit:              limit,
	}

	if viewer.Location != nil {
		radius := s.cfg.DefaultMaxDistanceKM
		if q.MaxDistanceKM != nil {
			radius = *q.MaxDistanceKM
		}
		out.HasOrigin = true
		out.OriginLat = viewer.Location.Lat
		out.OriginLon = viewer.Location.Lon
		out.RadiusKM = radius
		out.MinLat, out.MaxLat, out.MinLon, out.MaxLon = rules.BoundingBox(viewer.Location.Lat, viewer.Location.Lon, radius)
	}

	return out
}
