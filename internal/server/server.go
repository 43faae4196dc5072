package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/SketchBox/internal/api/http"
	"github.com/GriffinCanCode/SketchBox/internal/api/middleware"
	"github.com/GriffinCanCode/SketchBox/internal/api/ws"
	"github.com/GriffinCanCode/SketchBox/internal/infrastructure/config"
	"github.com/GriffinCanCode/SketchBox/internal/infrastructure/logging"
	"github.com/GriffinCanCode/SketchBox/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/SketchBox/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/SketchBox/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/SketchBox/internal/sketch/sandbox"
	"github.com/GriffinCanCode/SketchBox/internal/sketch/session"
	"github.com/GriffinCanCode/SketchBox/internal/studio"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	config  *config.Config
	logger  *logging.Logger
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer
	pool    *sandbox.Pool
	manager *session.Manager
	router  *gin.Engine
	http    *http.Server
}

// NewServer creates a new server instance. completer may be nil, in which
// case the prompt and fix endpoints report that no code source is configured.
func NewServer(cfg *config.Config, completer studio.Completer) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	logger.Info("Initializing SketchBox server",
		zap.String("addr", cfg.Server.Addr()),
		zap.Int("pool_size", cfg.Sandbox.PoolSize),
		zap.Int("max_sessions", cfg.Sketch.MaxSessions),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New(logger.Named("trace").Logger)

	pool := sandbox.NewPool(sandbox.Config{
		CallbackTimeout: cfg.Sandbox.CallbackTimeout,
		AcquireTimeout:  cfg.Sandbox.AcquireTimeout,
		MaxCallStack:    cfg.Sandbox.MaxCallStack,
		EnableConsole:   true,
	}, cfg.Sandbox.PoolSize)

	var flows *studio.Flows
	if completer != nil {
		breaker := resilience.New("code-source", resilience.Settings{
			Timeout: cfg.Studio.BreakerTimeout,
			ReadyToTrip: func(counts resilience.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.Studio.BreakerTrip
			},
			OnStateChange: func(name string, from, to resilience.State) {
				logger.Warn("Circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})
		flows = studio.NewFlows(completer, studio.FlowsConfig{
			MaxRetries: cfg.Studio.MaxRetries,
			Breaker:    breaker,
			Logger:     logger.Named("studio"),
			Metrics:    metrics,
		})
		logger.Info("Code source configured", zap.Int("max_retries", cfg.Studio.MaxRetries))
	} else {
		logger.Info("No code source configured, studio prompts are disabled")
	}

	manager := session.NewManager(session.Config{
		Pool:        pool,
		Flows:       flows,
		Logger:      logger.Named("session"),
		Metrics:     metrics,
		FrameRate:   cfg.Sketch.FrameRate,
		MaxSessions: cfg.Sketch.MaxSessions,
	})

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.Middleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORS.Origins...)))
	if cfg.Server.Compress {
		router.Use(middleware.Compress(middleware.DefaultCompressConfig()))
	}
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		limits := middleware.DefaultRateLimitConfig()
		limits.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		limits.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(limits))
	}

	handlers := apihttp.NewHandlers(apihttp.Options{
		Manager:        manager,
		Pool:           pool,
		Metrics:        metrics,
		Logger:         logger.Named("http"),
		MaxSourceBytes: cfg.Sketch.MaxSourceBytes,
		DefaultWidth:   cfg.Sketch.DefaultWidth,
		DefaultHeight:  cfg.Sketch.DefaultHeight,
	})
	wsHandler := ws.NewHandler(ws.Options{
		Manager:        manager,
		Metrics:        metrics,
		Logger:         logger.Named("ws"),
		AllowedOrigins: cfg.CORS.Origins,
	})

	handlers.Register(router)
	router.GET("/sketches/:id/stream", wsHandler.Stream)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		config:  cfg,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
		pool:    pool,
		manager: manager,
		router:  router,
		http: &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Handler exposes the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Logger returns the server logger
func (s *Server) Logger() *logging.Logger {
	return s.logger
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully
// and releases every session and runtime.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		s.Close()
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down gracefully", zap.Duration("timeout", s.config.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	err := s.http.Shutdown(shutdownCtx)
	s.Close()
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close stops every session and releases runtimes. Safe to call more than once.
func (s *Server) Close() {
	s.manager.Shutdown()
	if err := s.pool.Close(); err != nil {
		s.logger.Error("Failed to close sandbox pool", zap.Error(err))
	}
	s.tracer.Close()
	_ = s.logger.Sync()
}
