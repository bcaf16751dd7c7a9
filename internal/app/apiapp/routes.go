package apiapp

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/filsammy/dating-app-whitecloak/internal/config"
	"github.com/filsammy/dating-app-whitecloak/internal/infra/metrics"
	accountsvc "github.com/filsammy/dating-app-whitecloak/internal/services/accounts"
	authsvc "github.com/filsammy/dating-app-whitecloak/internal/services/auth"
	blocksvc "github.com/filsammy/dating-app-whitecloak/internal/services/blocks"
	discoverysvc "github.com/filsammy/dating-app-whitecloak/internal/services/discovery"
	matchsvc "github.com/filsammy/dating-app-whitecloak/internal/services/matches"
	messagesvc "github.com/filsammy/dating-app-whitecloak/internal/services/messages"
	profilesvc "github.com/filsammy/dating-app-whitecloak/internal/services/profiles"
	"github.com/filsammy/dating-app-whitecloak/internal/services/realtime"
	swipesvc "github.com/filsammy/dating-app-whitecloak/internal/services/swipes"
	"github.com/filsammy/dating-app-whitecloak/internal/transport/http/handlers"
	"github.com/filsammy/dating-app-whitecloak/internal/transport/ws"
)

type Dependencies struct {
	AuthService      *authsvc.Service
	AccountService   *accountsvc.Service
	ProfileService   *profilesvc.Service
	DiscoveryService *discoverysvc.Service
	SwipeService     *swipesvc.Service
	MatchService     *matchsvc.Service
	BlockService     *blocksvc.Service
	MessageService   *messagesvc.Service
	Relay            *realtime.Relay
	HealthChecks     map[string]handlers.Pinger
	Logger           *zap.Logger
	Config           config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.AccountService, deps.AuthService, deps.Logger)
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks)
	profileHandler := handlers.NewProfileHandler(deps.ProfileService, deps.Logger)
	matchesHandler := handlers.NewMatchesHandler(deps.DiscoveryService, deps.SwipeService, deps.MatchService, deps.Logger)
	blocksHandler := handlers.NewBlocksHandler(deps.BlockService, deps.Logger)
	messagesHandler := handlers.NewMessagesHandler(deps.MessageService, deps.Logger)
	authMW := AuthMiddleware(deps.AuthService, deps.Logger)

	r.Get("/healthz", healthHandler.Get)
	r.Handle("/metrics", metrics.Handler())

	// The websocket upgrade needs the raw writer, so /ws stays outside the
	// metrics and timeout wrappers.
	if deps.Relay != nil && deps.AuthService != nil && deps.MessageService != nil {
		r.Handle("/ws", ws.NewHandler(deps.AuthService, deps.MessageService, deps.Relay.Hub(), ws.Config{
			Buffer:         deps.Config.Realtime.Buffer,
			WriteTimeout:   deps.Config.Realtime.WriteTimeout,
			PingInterval:   deps.Config.Realtime.PingInterval,
			AllowedOrigins: deps.Config.Realtime.AllowedOrigins,
		}, deps.Logger))
	}

	r.Group(func(r chi.Router) {
		r.Use(metrics.Middleware)
		if deps.Config.HTTP.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(deps.Config.HTTP.RequestTimeout))
		}

		r.Route("/users", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.With(authMW).Get("/profile", authHandler.Me)
			r.With(authMW).Post("/logout", authHandler.Logout)
			r.With(authMW).Post("/logout/all", authHandler.LogoutAll)
			r.With(authMW).Post("/block", blocksHandler.Block)
			r.With(authMW).Post("/unblock", blocksHandler.Unblock)
			r.With(authMW).Get("/blocked", blocksHandler.List)
		})

		r.Route("/profiles", func(r chi.Router) {
			r.Use(authMW)
			r.Post("/", profileHandler.Upsert)
			r.Delete("/", profileHandler.Delete)
			r.Get("/me", profileHandler.Mine)
			r.Get("/{userId}", profileHandler.ByUserID)
		})

		r.Route("/matches", func(r chi.Router) {
			r.Use(authMW)
			r.Get("/", matchesHandler.List)
			r.Get("/discover", matchesHandler.Discover)
			r.Post("/swipe", matchesHandler.Swipe)
			r.Get("/check/{otherUserId}", matchesHandler.Check)
			r.Delete("/{matchedUserId}", matchesHandler.Unmatch)
		})

		r.Route("/messages", func(r chi.Router) {
			r.Use(authMW)
			r.Post("/", messagesHandler.Send)
			r.Get("/conversations", messagesHandler.Conversations)
			r.Get("/{matchId}", messagesHandler.List)
			r.Delete("/{messageId}", messagesHandler.Delete)
		})
	})
}
