// Package api serves the mouthpiece HTTP API.
//
// Stateless routes expose the engines directly (phoneme parsing, viseme
// lookup, timelines, scoring). Session routes drive a client's practice
// session, and history routes read and manage the attempt store.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrWong99/mouthpiece/internal/health"
	"github.com/MrWong99/mouthpiece/internal/observe"
	"github.com/MrWong99/mouthpiece/internal/practice"
	"github.com/MrWong99/mouthpiece/internal/store"
)

// DefaultMaxUploadBytes caps recordings when Config.MaxUploadBytes is zero.
const DefaultMaxUploadBytes = 10 << 20

// Config holds the dependencies of a [Server]. Practice is required.
type Config struct {
	Practice *practice.Service

	// Store defaults to the practice service's store.
	Store store.Store

	// Health serves /healthz and /readyz when set.
	Health *health.Handler

	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler

	Metrics        *observe.Metrics
	CORSOrigins    []string
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	practice  *practice.Service
	store     store.Store
	health    *health.Handler
	metrics   *observe.Metrics
	validator *Validator
	maxUpload int64
	origins   []string
	router    *chi.Mux
	logger    *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Practice == nil {
		return nil, errors.New("api: practice service must not be nil")
	}
	s := &Server{
		practice:  cfg.Practice,
		store:     cfg.Store,
		health:    cfg.Health,
		metrics:   cfg.Metrics,
		validator: NewValidator(),
		maxUpload: cfg.MaxUploadBytes,
		origins:   cfg.CORSOrigins,
		router:    chi.NewRouter(),
		logger:    cfg.Logger,
	}
	if s.store == nil {
		s.store = cfg.Practice.Store()
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.maxUpload <= 0 {
		s.maxUpload = DefaultMaxUploadBytes
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.MetricsHandler)

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(observe.Middleware(s.metrics))
	if len(s.origins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "Traceparent"},
			ExposedHeaders:   []string{"X-Correlation-ID"},
			AllowCredentials: false,
			MaxAge:           int((10 * time.Minute).Seconds()),
		}))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(metricsHandler http.Handler) {
	if s.health != nil {
		s.health.Register(s.router)
	}
	if metricsHandler != nil {
		s.router.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	s.router.Route("/v1", func(r chi.Router) {
		// Stateless engines.
		r.Get("/languages", s.handleListLanguages)
		r.Get("/languages/{lang}/letters", s.handleListLetters)
		r.Post("/phonemes", s.handleParsePhonemes)
		r.Post("/visemes", s.handleResolveVisemes)
		r.Post("/timeline", s.handleBuildTimeline)
		r.Post("/timeline/letter", s.handleBuildLetterTimeline)
		r.Post("/score", s.handleScore)

		// Practice sessions.
		r.Route("/sessions/{client}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleCloseSession)
			r.Get("/target", s.handleGetTarget)
			r.Post("/target", s.handleSetTarget)
			r.Post("/attempts", s.handleSubmitAttempt)
		})

		// Settings.
		r.Get("/settings", s.handleGetPracticeSettings)
		r.Get("/settings/{key}", s.handleGetSetting)
		r.Put("/settings/{key}", s.handlePutSetting)

		// History.
		r.Route("/attempts", func(r chi.Router) {
			r.Get("/", s.handleListAttempts)
			r.Get("/{id}", s.handleGetAttempt)
			r.Delete("/{id}", s.handleDeleteAttempt)
		})

		r.Route("/clients", func(r chi.Router) {
			r.Post("/", s.handleCreateClient)
			r.Get("/", s.handleListClients)
			r.Get("/{id}", s.handleGetClient)
			r.Put("/{id}", s.handleUpdateClient)
			r.Delete("/{id}", s.handleDeleteClient)
		})
	})
}
