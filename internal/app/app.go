// Package app wires all mouthpiece subsystems into a running server.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves the HTTP API until the context is cancelled, and
// Shutdown tears everything down in order.
//
// For testing, inject doubles via functional options (WithStore,
// WithDetectorFactory, etc.). When an option is not provided, New creates
// real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/mouthpiece/internal/api"
	"github.com/MrWong99/mouthpiece/internal/config"
	"github.com/MrWong99/mouthpiece/internal/health"
	"github.com/MrWong99/mouthpiece/internal/observe"
	"github.com/MrWong99/mouthpiece/internal/practice"
	"github.com/MrWong99/mouthpiece/internal/resilience"
	"github.com/MrWong99/mouthpiece/internal/store"
	"github.com/MrWong99/mouthpiece/internal/store/postgres"
	"github.com/MrWong99/mouthpiece/internal/store/sqlite"
	"github.com/MrWong99/mouthpiece/pkg/g2p"
	"github.com/MrWong99/mouthpiece/pkg/phoneme"
)

const readHeaderTimeout = 10 * time.Second

// App owns all subsystem lifetimes of the mouthpiece server.
type App struct {
	cfg *config.Config

	registry       *config.Registry
	g2p            *g2p.Engine
	store          store.Store
	detection      *resilience.DetectFallback
	practice       *practice.Service
	health         *health.Handler
	metrics        *observe.Metrics
	metricsHandler http.Handler
	api            *api.Server
	logLevel       *slog.LevelVar
	logger         *slog.Logger

	// closers are called in reverse order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithStore injects an attempt store instead of opening one from config.
// The caller keeps ownership and closes it.
func WithStore(s store.Store) Option {
	return func(a *App) { a.store = s }
}

// WithDetectorFactory registers an additional detection backend factory
// under name, replacing a built-in one of the same name.
func WithDetectorFactory(name string, f config.DetectorFactory) Option {
	return func(a *App) { a.registry.RegisterDetector(name, f) }
}

// WithMetrics injects the metric instruments.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(a *App) { a.metricsHandler = h }
}

// WithLogLevel lets [App.ApplyConfig] adjust the log level at runtime.
func WithLogLevel(v *slog.LevelVar) Option {
	return func(a *App) { a.logLevel = v }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.logger = l }
}

// New creates a new App by wiring all subsystems together. Subsystems not
// injected via opts are created from cfg.
//
// On error every subsystem opened so far is closed again.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{
		cfg:      cfg,
		registry: config.NewRegistry(),
		g2p:      g2p.New(),
	}
	RegisterBuiltinDetectors(a.registry, a.g2p)
	for _, o := range opts {
		o(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	fail := func(err error) (*App, error) {
		a.runClosers()
		return nil, err
	}

	// 1. Attempt store.
	if err := a.initStore(ctx); err != nil {
		return fail(fmt.Errorf("app: init store: %w", err))
	}

	// 2. Detection backends behind retries and breakers.
	if err := a.initDetection(); err != nil {
		return fail(fmt.Errorf("app: init detection: %w", err))
	}

	// 3. Practice service.
	settings, err := SettingsFromConfig(cfg.Practice)
	if err != nil {
		return fail(fmt.Errorf("app: practice settings: %w", err))
	}
	a.practice, err = practice.NewService(practice.Config{
		Detector:     a.detection,
		DetectorName: cfg.Detection.Primary.Name,
		G2P:          a.g2p,
		Store:        a.store,
		Metrics:      a.metrics,
		Logger:       a.logger,
		Settings:     settings,
	})
	if err != nil {
		return fail(fmt.Errorf("app: init practice: %w", err))
	}
	a.closers = append(a.closers, func() error {
		a.practice.Close()
		return nil
	})

	// 4. Health probes and HTTP API.
	a.health = health.New(
		health.PingChecker("store", a.store),
		health.BackendsChecker("detection", a.detection),
	)
	a.api, err = api.NewServer(api.Config{
		Practice:       a.practice,
		Store:          a.store,
		Health:         a.health,
		MetricsHandler: a.metricsHandler,
		Metrics:        a.metrics,
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Logger:         a.logger,
	})
	if err != nil {
		return fail(fmt.Errorf("app: init api: %w", err))
	}

	return a, nil
}

// initStore opens the configured attempt store unless one was injected.
func (a *App) initStore(ctx context.Context) error {
	if a.store != nil {
		return nil
	}
	switch a.cfg.Store.Driver {
	case config.StoreSQLite:
		s, err := sqlite.Open(a.cfg.Store.Path, a.logger)
		if err != nil {
			return err
		}
		a.store = s
		a.closers = append(a.closers, s.Close)
		a.logger.Info("attempt store opened", "driver", "sqlite", "path", a.cfg.Store.Path)
	case config.StorePostgres:
		s, err := postgres.Open(ctx, a.cfg.Store.PostgresDSN)
		if err != nil {
			return err
		}
		a.store = s
		a.closers = append(a.closers, s.Close)
		a.logger.Info("attempt store opened", "driver", "postgres")
	default:
		a.store = store.NewMemStore()
		a.logger.Info("attempt store opened", "driver", "memory")
	}
	return nil
}

// initDetection builds the primary and fallback backends and wraps them in
// a [resilience.DetectFallback].
func (a *App) initDetection() error {
	dc := a.cfg.Detection
	primary, err := a.registry.CreateDetector(dc.Primary)
	if err != nil {
		return err
	}
	a.detection = resilience.NewDetectFallback(primary, dc.Primary.Name, resilience.DetectConfig{
		Fallback: resilience.FallbackConfig{
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Name:         "detection",
				MaxFailures:  dc.Breaker.MaxFailures,
				ResetTimeout: dc.Breaker.ResetTimeout,
				HalfOpenMax:  dc.Breaker.HalfOpenMax,
				OnStateChange: func(name string, _, to resilience.State) {
					a.metrics.RecordBreakerTransition(context.Background(), name, to.String())
				},
			},
			Logger: a.logger,
		},
		Retry: resilience.RetryConfig{
			Attempts:       dc.RetryAttempts,
			AttemptTimeout: dc.AttemptTimeout,
		},
	})
	for i, entry := range dc.Fallbacks {
		fb, err := a.registry.CreateDetector(entry)
		if err != nil {
			return fmt.Errorf("fallback[%d]: %w", i, err)
		}
		a.detection.AddFallback(backendName(entry, i), fb)
	}
	a.logger.Info("detection backends ready", "backends", a.detection.Backends())
	return nil
}

// backendName keeps breaker names unique when the same backend type is
// configured more than once.
func backendName(entry config.ProviderEntry, i int) string {
	if entry.BaseURL == "" {
		return fmt.Sprintf("%s#%d", entry.Name, i+1)
	}
	return entry.Name + "@" + entry.BaseURL
}

// SettingsFromConfig converts the practice section of the config into
// service settings.
func SettingsFromConfig(pc config.PracticeConfig) (practice.Settings, error) {
	s := practice.Settings{
		MsPerUnit:       pc.MsPerUnit,
		EdgePaddingMs:   pc.EdgePaddingMs,
		PauseMs:         pc.PauseMs,
		WordPolicy:      pc.WordPolicy,
		LetterPolicy:    pc.LetterPolicy,
		DefaultLanguage: phoneme.English,
	}
	if pc.Language != "" {
		lang, ok := phoneme.ParseLanguage(pc.Language)
		if !ok {
			return practice.Settings{}, fmt.Errorf("unsupported language %q", pc.Language)
		}
		s.DefaultLanguage = lang
	}
	return s, s.Validate()
}

// Practice returns the practice service.
func (a *App) Practice() *practice.Service { return a.practice }

// Handler returns the HTTP handler serving the API.
func (a *App) Handler() http.Handler { return a.api }

// Detection returns the detection fallback group.
func (a *App) Detection() *resilience.DetectFallback { return a.detection }

// ApplyConfig applies the hot-reloadable parts of a config change. It is
// meant to be passed to [config.NewWatcher]. Changes that need a restart are
// logged and otherwise ignored.
func (a *App) ApplyConfig(old, new *config.Config) {
	d := config.Diff(old, new)

	if d.LogLevelChanged && a.logLevel != nil {
		a.logLevel.Set(d.NewLogLevel.Slog())
		a.logger.Info("log level changed", "level", d.NewLogLevel)
	}

	if d.PracticeChanged {
		settings, err := SettingsFromConfig(d.NewPractice)
		if err == nil {
			err = a.practice.Apply(settings)
		}
		if err != nil {
			a.logger.Warn("practice settings not applied", "err", err)
		} else {
			a.logger.Info("practice settings applied",
				"ms_per_unit", settings.MsPerUnit,
				"word_policy", settings.WordPolicy,
				"letter_policy", settings.LetterPolicy,
			)
		}
	}

	if d.NeedsRestart() {
		a.logger.Warn("config change requires a restart to take effect",
			"server", d.ServerChanged,
			"detection", d.DetectionChanged,
			"store", d.StoreChanged,
		)
	}
}

// Run listens on the configured address and serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("app: listen %s: %w", a.cfg.Server.ListenAddr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves the API on ln until ctx is cancelled, then drains in-flight
// requests within the configured shutdown timeout. A graceful stop returns
// nil.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.api,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(a.logger.Handler(), slog.LevelWarn),
	}
	tls := a.cfg.Server.TLS

	a.logger.Info("serving", "addr", ln.Addr().String(), "tls", tls != nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if tls != nil {
			err = srv.ServeTLS(ln, tls.CertFile, tls.KeyFile)
		} else {
			err = srv.Serve(ln)
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		timeout := a.cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = config.DefaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Shutdown closes all subsystems in reverse order of creation. It respects
// the context deadline.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		a.logger.Info("shutting down", "closers", len(a.closers))
		for i := len(a.closers) - 1; i >= 0; i-- {
			select {
			case <-ctx.Done():
				a.logger.Warn("shutdown deadline exceeded", "remaining", i+1)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := a.closers[i](); err != nil {
				a.logger.Warn("closer error", "index", i, "err", err)
			}
		}
		a.logger.Info("shutdown complete")
	})
	return shutdownErr
}

func (a *App) runClosers() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("closer error", "err", err)
		}
	}
	a.closers = nil
}
