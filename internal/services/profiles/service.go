package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/filsammy/dating-app-whitecloak/internal/domain/enums"
	"github.com/filsammy/dating-app-whitecloak/internal/domain/errs"
	"github.com/filsammy/dating-app-whitecloak/internal/domain/model"
	"github.com/filsammy/dating-app-whitecloak/internal/domain/rules"
	pgrepo "github.com/filsammy/dating-app-whitecloak/internal/repo/postgres"
)

const (
	maxNameLength = 100
	maxBioLength  = 1000
	maxInterests  = 30
)

var (
	ErrInvalidName         = errs.New(errs.KindValidation, "INVALID_NAME", "name is required")
	ErrInvalidAge          = errs.New(errs.KindValidation, "INVALID_AGE", "age must be between 18 and 100")
	ErrInvalidGender       = errs.New(errs.KindValidation, "INVALID_GENDER", "invalid gender value")
	ErrInvalidInterestedIn = errs.New(errs.KindValidation, "INVALID_INTERESTED_IN", "please specify gender preferences")
	ErrInvalidLocation     = errs.New(errs.KindValidation, "INVALID_LOCATION", "valid location coordinates required [longitude, latitude]")
	ErrInvalidCoordinates  = errs.New(errs.KindValidation, "INVALID_COORDINATES", "invalid coordinates range")
	ErrProfileNotFound     = errs.New(errs.KindNotFound, "PROFILE_NOT_FOUND", "profile not found")
)

type TxRunner interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

type ProfileStore interface {
	Upsert(ctx context.Context, tx pgx.Tx, p model.Profile, now time.Time) (model.Profile, bool, error)
	GetByUserID(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (model.Profile, error)
	Delete(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (bool, error)
}

type BlockChecker interface {
	ExistsEither(ctx context.Context, tx pgx.Tx, a, b uuid.UUID) (bool, error)
}

// PictureResolver maps a stored picture reference to a fetchable URL.
type PictureResolver interface {
	ResolvePicture(ctx context.Context, ref string) (string, error)
	DeletePicture(ctx context.Context, ref string) error
}

type Dependencies struct {
	Tx       TxRunner
	Profiles ProfileStore
	Blocks   BlockChecker
	Pictures PictureResolver
}

type Service struct {
	tx       TxRunner
	profiles ProfileStore
	blocks   BlockChecker
	pictures PictureResolver
	now      func() time.Time
}

// UpsertInput is the owner-supplied profile. A nil Location leaves the
// profile without coordinates; a non-nil one must hold exactly [lon, lat].
type UpsertInput struct {
	Name         string
	Age          int
	Bio          string
	Picture      string
	Gender       string
	InterestedIn []string
	Interests    []string
	Location     []float64
}

func NewService(deps Dependencies) *Service {
	return &Service{
		tx:       deps.Tx,
		profiles: deps.Profiles,
		blocks:   deps.Blocks,
		pictures: deps.Pictures,
		now:      time.Now,
	}
}

// Upsert creates or replaces the owner's profile and reports whether it was created.
func (s *Service) Upsert(ctx context.Context, ownerID uuid.UUID, in UpsertInput) (model.Profile, bool, error) {
	if ownerID == uuid.Nil {
		return model.Profile{}, false, errs.ErrUnauthorized
	}

	profile, err := normalizeAndValidate(ownerID, in)
	if err != nil {
		return model.Profile{}, false, err
	}
	if s.tx == nil || s.profiles == nil {
		return model.Profile{}, false, fmt.Errorf("profile dependencies are not configured")
	}

	var (
		saved   model.Profile
		created bool
	)
	if err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		out, isNew, err := s.profiles.Upsert(txCtx, tx, profile, s.now().UTC())
		if err != nil {
			return err
		}
		saved, created = out, isNew
		return nil
	}); err != nil {
		return model.Profile{}, false, err
	}

	return s.Present(ctx, saved), created, nil
}

func (s *Service) GetMine(ctx context.Context, ownerID uuid.UUID) (model.Profile, error) {
	if ownerID == uuid.Nil {
		return model.Profile{}, errs.ErrUnauthorized
	}
	if s.tx == nil || s.profiles == nil {
		return model.Profile{}, fmt.Errorf("profile dependencies are not configured")
	}

	var profile model.Profile
	if err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		p, err := s.profiles.GetByUserID(txCtx, tx, ownerID)
		if err != nil {
			return mapNotFound(err)
		}
		profile = p
		return nil
	}); err != nil {
		return model.Profile{}, err
	}

	return s.Present(ctx, profile), nil
}

// GetByUserID returns another account's profile. A block in either direction
// hides the profile as if it did not exist.
func (s *Service) GetByUserID(ctx context.Context, viewerID, userID uuid.UUID) (model.Profile, error) {
	if viewerID == uuid.Nil {
		return model.Profile{}, errs.ErrUnauthorized
	}
	if userID == uuid.Nil {
		return model.Profile{}, ErrProfileNotFound
	}
	if s.tx == nil || s.profiles == nil || s.blocks == nil {
		return model.Profile{}, fmt.Errorf("profile dependencies are not configured")
	}

	var profile model.Profile
	if err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		if viewerID != userID {
			blocked, err := s.blocks.ExistsEither(txCtx, tx, viewerID, userID)
			if err != nil {
				return err
			}
			if blocked {
				return ErrProfileNotFound
			}
		}

		p, err := s.profiles.GetByUserID(txCtx, tx, userID)
		if err != nil {
			return mapNotFound(err)
		}
		profile = p
		return nil
	}); err != nil {
		return model.Profile{}, err
	}

	return s.Present(ctx, profile), nil
}

func (s *Service) Delete(ctx context.Context, ownerID uuid.UUID) error {
	if ownerID == uuid.Nil {
		return errs.ErrUnauthorized
	}
	if s.tx == nil || s.profiles == nil {
		return fmt.Errorf("profile dependencies are not configured")
	}

	var picture string
	if err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		p, err := s.profiles.GetByUserID(txCtx, tx, ownerID)
		if err != nil {
			return mapNotFound(err)
		}
		picture = p.Picture

		deleted, err := s.profiles.Delete(txCtx, tx, ownerID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrProfileNotFound
		}
		return nil
	}); err != nil {
		return err
	}

	if s.pictures != nil {
		_ = s.pictures.DeletePicture(ctx, picture)
	}
	return nil
}

// Present resolves the picture reference for output. Resolution failures
// leave the stored reference in place.
func (s *Service) Present(ctx context.Context, p model.Profile) model.Profile {
	return PresentWith(ctx, s.pictures, p)
}

func PresentWith(ctx context.Context, pictures PictureResolver, p model.Profile) model.Profile {
	if pictures == nil || p.Picture == "" {
		return p
	}
	if resolved, err := pictures.ResolvePicture(ctx, p.Picture); err == nil {
		p.Picture = resolved
	}
	return p
}

func mapNotFound(err error) error {
	if errors.Is(err, pgrepo.ErrProfileNotFound) {
		return ErrProfileNotFound
	}
	return err
}

func normalizeAndValidate(ownerID uuid.UUID, in UpsertInput) (model.Profile, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || len([]rune(name)) > maxNameLength {
		return model.Profile{}, ErrInvalidName
	}
	if !rules.ValidAge(in.Age) {
		return model.Profile{}, ErrInvalidAge
	}

	gender, ok := enums.ParseGender(in.Gender)
	if !ok {
		return model.Profile{}, ErrInvalidGender
	}

	if len(in.InterestedIn) == 0 {
		return model.Profile{}, ErrInvalidInterestedIn
	}
	interestedIn := make([]enums.Gender, 0, len(in.InterestedIn))
	seenGender := make(map[enums.Gender]struct{}, len(in.InterestedIn))
	for _, raw := range in.InterestedIn {
		g, ok := enums.ParseGender(raw)
		if !ok {
			return model.Profile{}, ErrInvalidInterestedIn.WithMessage("invalid gender preference values")
		}
		if _, dup := seenGender[g]; dup {
			continue
		}
		seenGender[g] = struct{}{}
		interestedIn = append(interestedIn, g)
	}

	var location *model.GeoPoint
	if in.Location != nil {
		if len(in.Location) != 2 {
			return model.Profile{}, ErrInvalidLocation
		}
		lon, lat := in.Location[0], in.Location[1]
		if !rules.ValidCoordinates(lon, lat) {
			return model.Profile{}, ErrInvalidCoordinates
		}
		location = &model.GeoPoint{Lon: lon, Lat: lat}
	}

	bio := strings.TrimSpace(in.Bio)
	if len([]rune(bio)) > maxBioLength {
		bio = string([]rune(bio)[:maxBioLength])
	}

	return model.Profile{
		UserID:       ownerID,
		Name:         name,
		Age:          in.Age,
		Bio:          bio,
		Picture:      strings.TrimSpace(in.Picture),
		Gender:       gender,
		InterestedIn: interestedIn,
		Interests:    normalizeInterests(in.Interests),
		Location:     location,
	}, nil
}

func normalizeInterests(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, raw := range values {
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
		if len(out) == maxInterests {
			break
		}
	}
	return out
}
