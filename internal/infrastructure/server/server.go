package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/codeplayground/internal/api/http"
	"github.com/GriffinCanCode/codeplayground/internal/api/middleware"
	"github.com/GriffinCanCode/codeplayground/internal/api/ws"
	"github.com/GriffinCanCode/codeplayground/internal/domain/capture"
	"github.com/GriffinCanCode/codeplayground/internal/domain/dispatch"
	"github.com/GriffinCanCode/codeplayground/internal/domain/language"
	"github.com/GriffinCanCode/codeplayground/internal/domain/session"
	"github.com/GriffinCanCode/codeplayground/internal/infrastructure/config"
	"github.com/GriffinCanCode/codeplayground/internal/infrastructure/logging"
	"github.com/GriffinCanCode/codeplayground/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/codeplayground/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/codeplayground/internal/providers/catalog"
	"github.com/GriffinCanCode/codeplayground/internal/providers/markup"
	"github.com/GriffinCanCode/codeplayground/internal/providers/progress"
	"github.com/GriffinCanCode/codeplayground/internal/providers/sandbox"
	"github.com/GriffinCanCode/codeplayground/internal/providers/storage"
)

// multipartOverhead is added to the source limit for import form encoding.
const multipartOverhead = 64 * 1024

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	http     *http.Server
	sessions *session.Manager
	pool     *sandbox.Pool
	store    storage.Store
	tracer   *tracing.Tracer
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Initializing Code Playground",
		zap.String("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Driver),
		zap.Int("pool_size", cfg.Sandbox.PoolSize),
	)

	// Metrics first, other components report to them
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	tracer := tracing.New("playground", logger.Logger)

	registry := language.Default()
	pool, err := sandbox.NewPool(sandbox.Config{
		MaxCallStackSize: cfg.Sandbox.MaxCallStack,
		Timeout:          cfg.Sandbox.EvalTimeout,
		PoolSize:         cfg.Sandbox.PoolSize,
		AcquireTimeout:   cfg.Sandbox.AcquireTimeout,
	}, logger.Logger)
	if err != nil {
		tracer.Close()
		return nil, fmt.Errorf("failed to create sandbox pool: %w", err)
	}

	renderer := markup.NewRenderer()
	dispatchLogger := logger.Component("dispatch")
	dispatcher := dispatch.New(registry, capture.NewChannel(capture.NewLoggerSink(logger.Logger)), dispatch.Options{
		Evaluators: map[string]dispatch.Evaluator{
			"javascript": pool,
			"typescript": sandbox.TypeScript{JS: pool},
		},
		Renderer: renderer,
		Observer: metrics,
		Logger:   dispatchLogger,
		OnTransition: func(languageID string, from, to dispatch.State) {
			dispatchLogger.Debug("Run state",
				zap.String("language", languageID),
				zap.String("from", string(from)),
				zap.String("to", string(to)))
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store, err := storage.Open(ctx, storage.Config{
		Driver:     cfg.Storage.Driver,
		Path:       cfg.Storage.Path,
		RedisAddr:  cfg.Storage.RedisAddr,
		QuotaBytes: cfg.Storage.QuotaBytes,
	})
	if err != nil {
		pool.Close()
		tracer.Close()
		return nil, fmt.Errorf("failed to open snippet store: %w", err)
	}
	guard := storage.NewGuard(store, logger.Component("storage"))
	logger.Info("Snippet store ready", zap.String("driver", cfg.Storage.Driver))

	runner := tracing.WrapRunner(dispatcher, tracer)
	sessions := session.NewManager(registry, runner, guard, session.Options{
		ReloadSavedOnSwitch: cfg.Playground.ReloadSavedOnSwitch,
		Logger:              logger.Component("session"),
	}).WithRecorder(metrics)

	cat, err := catalog.Default()
	if err != nil {
		pool.Close()
		store.Close()
		tracer.Close()
		return nil, err
	}

	progressClient := progress.NewClient(progress.Config{
		BaseURL:    cfg.Progress.BaseURL,
		Timeout:    cfg.Progress.Timeout,
		MaxRetries: 2,
		RateLimit:  cfg.Progress.RateLimit,
	})

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.CORSFromOrigins(cfg.Server.AllowedOrigins)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}
	router.Use(middleware.BodyLimit(cfg.Playground.MaxSourceBytes*2 + multipartOverhead))

	handlers := apihttp.NewHandlers(apihttp.Deps{
		Registry:       registry,
		Runner:         runner,
		Sessions:       sessions,
		Catalog:        cat,
		Progress:       progressClient,
		Metrics:        metrics,
		Storage:        guard,
		Sandbox:        pool,
		Frames:         renderer,
		MaxSourceBytes: cfg.Playground.MaxSourceBytes,
		Logger:         logger.Logger,
	})
	wsHandler := ws.NewHandler(sessions, metrics, logger.Logger, ws.Config{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxMessageSize: cfg.Playground.MaxSourceBytes + multipartOverhead,
	})

	handlers.Register(router)
	router.GET("/sessions/:id/stream", wsHandler.HandleConnection)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		sessions: sessions,
		pool:     pool,
		store:    store,
		tracer:   tracer,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Close releases the sandbox pool, the snippet store and the tracer.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...",
		zap.Int("sessions", s.sessions.Stats().Total))

	var errs []error
	if err := s.pool.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close sandbox pool: %w", err))
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close snippet store: %w", err))
	}
	s.tracer.Close()

	for _, err := range errs {
		s.logger.Error("Shutdown error", zap.Error(err))
	}
	s.logger.Info("Server shutdown complete")
	s.logger.Close()
	return errors.Join(errs...)
}
