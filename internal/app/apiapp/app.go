package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/filsammy/dating-app-whitecloak/internal/config"
	s3infra "github.com/filsammy/dating-app-whitecloak/internal/infra/s3"
	pgrepo "github.com/filsammy/dating-app-whitecloak/internal/repo/postgres"
	redrepo "github.com/filsammy/dating-app-whitecloak/internal/repo/redis"
	accountsvc "github.com/filsammy/dating-app-whitecloak/internal/services/accounts"
	authsvc "github.com/filsammy/dating-app-whitecloak/internal/services/auth"
	blocksvc "github.com/filsammy/dating-app-whitecloak/internal/services/blocks"
	discoverysvc "github.com/filsammy/dating-app-whitecloak/internal/services/discovery"
	matchsvc "github.com/filsammy/dating-app-whitecloak/internal/services/matches"
	mediasvc "github.com/filsammy/dating-app-whitecloak/internal/services/media"
	messagesvc "github.com/filsammy/dating-app-whitecloak/internal/services/messages"
	profilesvc "github.com/filsammy/dating-app-whitecloak/internal/services/profiles"
	ratesvc "github.com/filsammy/dating-app-whitecloak/internal/services/rate"
	"github.com/filsammy/dating-app-whitecloak/internal/services/realtime"
	swipesvc "github.com/filsammy/dating-app-whitecloak/internal/services/swipes"
	"github.com/filsammy/dating-app-whitecloak/internal/transport/http/handlers"
)

const bootProbeTimeout = 3 * time.Second

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	relay      *realtime.Relay
	httpRouter http.Handler

	relayCtx  context.Context
	stopRelay context.CancelFunc
}

// New wires every store and service. Postgres, redis and s3 failures at boot
// are logged and the app starts degraded; requests touching a missing store
// fail on their own.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log, cfg.CORS.AllowedOrigins)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
		if cfg.Postgres.AutoMigrate {
			if err := pgrepo.Migrate(cfg.Postgres.DSN); err != nil {
				log.Warn("postgres migrations failed", zap.Error(err))
			}
		}
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	redisUp := true
	probeCtx, cancelProbe := context.WithTimeout(ctx, bootProbeTimeout)
	if err := redrepo.Ping(probeCtx, redisClient); err != nil {
		redisUp = false
		log.Warn("redis ping failed, relay runs local only", zap.Error(err))
	}
	cancelProbe()

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, picture references served as stored", zap.Error(err))
	} else {
		s3Client = c
	}

	var pictureStorage mediasvc.ObjectStorage
	if s3Client != nil {
		storage := mediasvc.NewS3Storage(s3Client, cfg.S3.Bucket)
		bucketCtx, cancelBucket := context.WithTimeout(ctx, bootProbeTimeout)
		if err := storage.EnsureBucket(bucketCtx); err != nil {
			log.Warn("s3 bucket check failed", zap.String("bucket", cfg.S3.Bucket), zap.Error(err))
		}
		cancelBucket()
		pictureStorage = storage
	}

	txRunner := pgrepo.NewTxRunner(pool, cfg.Postgres.QueryTimeout)
	accountRepo := pgrepo.NewAccountRepo(pool)
	blockRepo := pgrepo.NewBlockRepo(pool)
	profileRepo := pgrepo.NewProfileRepo(pool)
	swipeRepo := pgrepo.NewSwipeRepo(pool)
	matchRepo := pgrepo.NewMatchRepo(pool)
	messageRepo := pgrepo.NewMessageRepo(pool)
	discoveryRepo := pgrepo.NewDiscoveryRepo(pool)
	sessionRepo := redrepo.NewSessionRepo(redisClient)
	rateRepo := redrepo.NewRateRepo(redisClient)

	var broker realtime.Broker
	if redisUp {
		broker = redrepo.NewRelayRepo(redisClient)
	}
	relay := realtime.NewRelay(realtime.NewHub(), broker, realtime.Config{Buffer: cfg.Realtime.Buffer}, log)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager, sessionRepo)
	accountService := accountsvc.NewService(accountsvc.Dependencies{
		Tx:       txRunner,
		Accounts: accountRepo,
		Tokens:   authService,
	}, accountsvc.Config{BcryptCost: cfg.Auth.BcryptCost})
	pictures := mediasvc.NewService(pictureStorage, cfg.S3.PresignTTL)
	rateLimiter := ratesvc.NewLimiter(rateRepo, ratesvc.Config{
		SwipesPerMinute:   cfg.Limits.SwipesPerMinute,
		SwipesPer10Sec:    cfg.Limits.SwipesPer10Sec,
		MessagesPerMinute: cfg.Limits.MessagesPerMinute,
	})
	profileService := profilesvc.NewService(profilesvc.Dependencies{
		Tx:       txRunner,
		Profiles: profileRepo,
		Blocks:   blockRepo,
		Pictures: pictures,
	})
	discoveryService := discoverysvc.NewService(discoverysvc.Dependencies{
		Tx:         txRunner,
		Profiles:   profileRepo,
		Candidates: discoveryRepo,
		Pictures:   pictures,
	}, discoverysvc.Config{
		SkipTimeout:          cfg.Matching.SkipTimeout,
		DefaultMaxDistanceKM: cfg.Matching.DefaultMaxDistanceKM,
		DefaultLimit:         cfg.Matching.DefaultLimit,
		MaxLimit:             cfg.Matching.MaxLimit,
	})
	swipeService := swipesvc.NewService(swipesvc.Dependencies{
		Tx:          txRunner,
		Swipes:      swipeRepo,
		Profiles:    profileRepo,
		Blocks:      blockRepo,
		RateLimiter: rateLimiter,
	}, swipesvc.Config{SkipTimeout: cfg.Matching.SkipTimeout})
	matchService := matchsvc.NewService(matchsvc.Dependencies{
		Tx:       txRunner,
		Matches:  matchRepo,
		Locker:   swipeRepo,
		Messages: messageRepo,
		Pictures: pictures,
		Notifier: relay,
	})
	blockService := blocksvc.NewService(blocksvc.Dependencies{
		Tx:       txRunner,
		Accounts: accountRepo,
		Blocks:   blockRepo,
		Swipes:   swipeRepo,
		Messages: messageRepo,
		Notifier: relay,
	})
	messageService := messagesvc.NewService(messagesvc.Dependencies{
		Tx:          txRunner,
		Pairs:       matchRepo,
		Messages:    messageRepo,
		RateLimiter: rateLimiter,
		Notifier:    relay,
	})

	checks := map[string]handlers.Pinger{"redis": redisPinger{client: redisClient}}
	if pool != nil {
		checks["postgres"] = pool
	} else {
		checks["postgres"] = nil
	}

	RegisterRoutes(r, Dependencies{
		AuthService:      authService,
		AccountService:   accountService,
		ProfileService:   profileService,
		DiscoveryService: discoveryService,
		SwipeService:     swipeService,
		MatchService:     matchService,
		BlockService:     blockService,
		MessageService:   messageService,
		Relay:            relay,
		HealthChecks:     checks,
		Logger:           log,
		Config:           cfg,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	relayCtx, stopRelay := context.WithCancel(context.Background())

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		relay:      relay,
		httpRouter: r,
		relayCtx:   relayCtx,
		stopRelay:  stopRelay,
	}, nil
}

func (a *App) Run() error {
	go a.relay.Run(a.relayCtx)
	go func() {
		if err := a.relay.Subscribe(a.relayCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn("relay subscription ended", zap.Error(err))
		}
	}()

	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	a.stopRelay()
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}

type redisPinger struct {
	client *goredis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return redrepo.Ping(ctx, p.client)
}
