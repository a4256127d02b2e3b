package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/gosuda/kira/internal/api/ws"
	"github.com/gosuda/kira/internal/board"
	"github.com/gosuda/kira/internal/config"
	"github.com/gosuda/kira/internal/server/middleware"
	"github.com/gosuda/kira/internal/store/postgres"
	redisstore "github.com/gosuda/kira/internal/store/redis"
	"github.com/gosuda/kira/internal/tasks"
)

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	store      *postgres.Store
	tasks      *tasks.Service
	wsHub      *ws.Hub
	cfg        *config.Config
}

// New creates a Server with all routes wired. ctx bounds background
// middleware goroutines.
func New(ctx context.Context, cfg *config.Config, store *postgres.Store, pubsub *redisstore.PubSub) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)
	if cfg.Server.RateLimit > 0 {
		router.Use(middleware.RateLimitByIP(ctx, cfg.Server.RateLimit, cfg.Server.RateBurst))
	}

	svc := tasks.NewService(store.Boards(), store.Tasks(), pubsub, cfg.Columns)
	hub := ws.NewHub(pubsub, svc, sessionOptions(cfg)...)

	s := &Server{
		router: router,
		store:  store,
		tasks:  svc,
		wsHub:  hub,
		cfg:    cfg,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	router.Route("/api/v1", func(r chi.Router) {
		if cfg.Server.RateLimit > 0 {
			r.Use(middleware.RateLimitBoardWrites(ctx, cfg.Server.RateLimit, cfg.Server.RateBurst))
		}

		apiConfig := huma.DefaultConfig("Kira API", "1.0.0")
		apiConfig.Servers = []*huma.Server{
			{URL: "/api/v1"},
		}
		api := humachi.New(r, apiConfig)
		registerAPIRoutes(api, store, svc, cfg)
	})

	// WebSocket routes.
	router.Route("/ws", func(r chi.Router) {
		registerWSRoutes(r, hub)
	})

	router.Handle("/metrics", promhttp.Handler())

	// Health check.
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return s
}

// sessionOptions maps board settings onto interactive session options.
func sessionOptions(cfg *config.Config) []board.SessionOption {
	return []board.SessionOption{
		board.WithSensorConfig(board.SensorConfig{
			PointerDistance: cfg.Board.PointerThreshold,
			TouchDelay:      cfg.Board.TouchDelay,
			TouchTolerance:  cfg.Board.TouchTolerance,
		}),
		board.WithLocale(cfg.Board.LocaleTag()),
		board.WithReconcilerOptions(
			board.WithMutationTimeout(cfg.Board.MutationTimeout),
			board.WithRefetchDebounce(cfg.Board.RefetchDebounce),
		),
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
