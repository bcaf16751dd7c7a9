package workerapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/filsammy/dating-app-whitecloak/internal/config"
	"github.com/filsammy/dating-app-whitecloak/internal/jobs/cleanup"
	pgrepo "github.com/filsammy/dating-app-whitecloak/internal/repo/postgres"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	postgres   *pgxpool.Pool
	cleanupJob *cleanup.Job
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("init postgres for worker app: %w", err)
	}

	swipeRepo := pgrepo.NewSwipeRepo(pool)
	cleanupJob := cleanup.New(swipeRepo, cfg.Matching.SkipTimeout, logger)

	return &App{
		cfg:        cfg,
		logger:     logger,
		postgres:   pool,
		cleanupJob: cleanupJob,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("worker app started", zap.Duration("sweep_interval", a.cfg.Worker.SweepInterval))

	err := a.runCleanupLoop(ctx)
	if err == nil || errors.Is(err, context.Canceled) {
		a.logger.Info("worker app stopped")
		return nil
	}
	return err
}

func (a *App) Close() {
	if a.postgres != nil {
		a.postgres.Close()
	}
}

// runCleanupLoop sweeps once at start and then on every tick. A failed sweep
// is logged and retried on the next tick.
func (a *App) runCleanupLoop(ctx context.Context) error {
	if a.cleanupJob == nil {
		return nil
	}

	interval := a.cfg.Worker.SweepInterval
	if interval <= 0 {
		interval = time.Hour
	}

	a.sweep(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.sweep(ctx)
		}
	}
}

func (a *App) sweep(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, a.sweepTimeout())
	defer cancel()

	if err := a.cleanupJob.Run(runCtx); err != nil {
		a.logger.Warn("expired skip sweep failed", zap.Error(err))
	}
}

func (a *App) sweepTimeout() time.Duration {
	if a.cfg.Postgres.QueryTimeout > 0 {
		return 6 * a.cfg.Postgres.QueryTimeout
	}
	return 30 * time.Second
}
