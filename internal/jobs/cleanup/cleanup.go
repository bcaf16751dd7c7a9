package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/filsammy/dating-app-whitecloak/internal/domain/rules"
	"github.com/filsammy/dating-app-whitecloak/internal/infra/metrics"
)

type expiredSkipSweeper interface {
	DeleteExpiredSkips(ctx context.Context, cutoff time.Time) (int64, error)
}

// Job purges skip records whose timeout has elapsed. Discovery and swipe
// already treat such records as absent, so the sweep only reclaims rows.
type Job struct {
	skips       expiredSkipSweeper
	skipTimeout time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

func New(skips expiredSkipSweeper, skipTimeout time.Duration, logger *zap.Logger) *Job {
	if skipTimeout <= 0 {
		skipTimeout = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		skips:       skips,
		skipTimeout: skipTimeout,
		now:         time.Now,
		logger:      logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.skips == nil {
		return nil
	}

	cutoff := rules.SkipCutoff(j.now(), j.skipTimeout)
	rows, err := j.skips.DeleteExpiredSkips(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("sweep expired skips: %w", err)
	}

	metrics.AddExpiredSkipsSwept(rows)
	if rows > 0 {
		j.logger.Info("sweep expired skips completed", zap.Int64("deleted", rows), zap.Time("cutoff", cutoff))
	}
	return nil
}
