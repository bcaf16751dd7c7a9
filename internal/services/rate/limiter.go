package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	minuteWindow = time.Minute
	tenSecWindow = 10 * time.Second
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	WindowState(ctx context.Context, key string) (int64, time.Duration, error)
}

// TooFastError reports how long the caller must wait before the next attempt.
type TooFastError struct {
	RetryAfterSec int64
}

func (e TooFastError) Error() string {
	return fmt.Sprintf("too fast, retry after %ds", e.RetryAfterSec)
}

type Config struct {
	SwipesPerMinute   int
	SwipesPer10Sec    int
	MessagesPerMinute int
}

type Limiter struct {
	store WindowStore
	cfg   Config
}

func NewLimiter(store WindowStore, cfg Config) *Limiter {
	if cfg.SwipesPerMinute < 0 {
		cfg.SwipesPerMinute = 0
	}
	if cfg.SwipesPer10Sec < 0 {
		cfg.SwipesPer10Sec = 0
	}
	if cfg.MessagesPerMinute < 0 {
		cfg.MessagesPerMinute = 0
	}

	return &Limiter{
		store: store,
		cfg:   cfg,
	}
}

// AllowSwipe counts one swipe attempt. A zero retry with ok=true means allowed.
func (l *Limiter) AllowSwipe(ctx context.Context, userID uuid.UUID) (int64, bool, error) {
	return l.allow(ctx, userID, []window{
		{key: swipeMinuteKey(userID), size: minuteWindow, limit: l.cfg.SwipesPerMinute},
		{key: swipeTenSecKey(userID), size: tenSecWindow, limit: l.cfg.SwipesPer10Sec},
	})
}

func (l *Limiter) AllowMessage(ctx context.Context, userID uuid.UUID) (int64, bool, error) {
	return l.allow(ctx, userID, []window{
		{key: messageMinuteKey(userID), size: minuteWindow, limit: l.cfg.MessagesPerMinute},
	})
}

func (l *Limiter) RetryAfterSwipe(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, fmt.Errorf("invalid user id")
	}
	if l.store == nil {
		return 0, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)
	for _, w := range []window{
		{key: swipeMinuteKey(userID), limit: l.cfg.SwipesPerMinute},
		{key: swipeTenSecKey(userID), limit: l.cfg.SwipesPer10Sec},
	} {
		if w.limit <= 0 {
			continue
		}
		count, ttl, err := l.store.WindowState(ctx, w.key)
		if err != nil {
			return 0, err
		}
		if count >= int64(w.limit) {
			retryAfterSec = max(retryAfterSec, ceilSeconds(ttl))
		}
	}

	return retryAfterSec, nil
}

type window struct {
	key   string
	size  time.Duration
	limit int
}

func (l *Limiter) allow(ctx context.Context, userID uuid.UUID, windows []window) (int64, bool, error) {
	if userID == uuid.Nil {
		return 0, false, fmt.Errorf("invalid user id")
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)
	for _, w := range windows {
		if w.limit <= 0 {
			continue
		}
		count, ttl, err := l.store.IncrementWindow(ctx, w.key, w.size)
		if err != nil {
			return 0, false, err
		}
		if count > int64(w.limit) {
			retryAfterSec = max(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if retryAfterSec > 0 {
		return retryAfterSec, false, nil
	}

	return 0, true, nil
}

func swipeMinuteKey(userID uuid.UUID) string {
	return "rate:swipes:min:" + userID.String()
}

func swipeTenSecKey(userID uuid.UUID) string {
	return "rate:swipes:10s:" + userID.String()
}

func messageMinuteKey(userID uuid.UUID) string {
	return "rate:messages:min:" + userID.String()
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 1
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}
