package media

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrEmptyKey = errors.New("object key is empty")

const defaultPresignTTL = 15 * time.Minute

type ObjectStorage interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// Service turns stored picture references into URLs a client can fetch.
// References that are already absolute URLs are passed through; anything
// else is treated as an object key in the pictures bucket.
type Service struct {
	storage ObjectStorage
	ttl     time.Duration
}

func NewService(storage ObjectStorage, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = defaultPresignTTL
	}
	return &Service{
		storage: storage,
		ttl:     ttl,
	}
}

func (s *Service) ResolvePicture(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || !IsObjectKey(ref) || s == nil || s.storage == nil {
		return ref, nil
	}

	signed, err := s.storage.PresignGet(ctx, ref, s.ttl)
	if err != nil {
		return ref, err
	}
	return signed, nil
}

// DeletePicture removes the object behind ref when it lives in the bucket.
func (s *Service) DeletePicture(ctx context.Context, ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" || !IsObjectKey(ref) || s == nil || s.storage == nil {
		return nil
	}
	return s.storage.Delete(ctx, ref)
}

func IsObjectKey(ref string) bool {
	lower := strings.ToLower(ref)
	return !strings.HasPrefix(lower, "http://") &&
		!strings.HasPrefix(lower, "https://") &&
		!strings.HasPrefix(lower, "data:")
}
