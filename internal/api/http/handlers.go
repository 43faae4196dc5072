package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/SketchBox/internal/infrastructure/logging"
	"github.com/GriffinCanCode/SketchBox/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/SketchBox/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/SketchBox/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/SketchBox/internal/shared/id"
	"github.com/GriffinCanCode/SketchBox/internal/sketch/container"
	"github.com/GriffinCanCode/SketchBox/internal/sketch/sandbox"
	"github.com/GriffinCanCode/SketchBox/internal/sketch/session"
	"github.com/GriffinCanCode/SketchBox/internal/studio"
)

// Version is reported by the root endpoint
const Version = "0.1.0"

// Options configures Handlers
type Options struct {
	Manager        *session.Manager
	Pool           *sandbox.Pool
	Metrics        *monitoring.Metrics
	Logger         *logging.Logger
	MaxSourceBytes int
	DefaultWidth   int
	DefaultHeight  int
}

// Handlers contains all HTTP handlers
type Handlers struct {
	manager        *session.Manager
	pool           *sandbox.Pool
	metrics        *monitoring.Metrics
	logger         *logging.Logger
	maxSourceBytes int64
	defaultWidth   int
	defaultHeight  int
}

// NewHandlers creates a new handler set
func NewHandlers(opts Options) *Handlers {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.MaxSourceBytes <= 0 {
		opts.MaxSourceBytes = 256 << 10
	}
	if opts.DefaultWidth <= 0 || opts.DefaultHeight <= 0 {
		opts.DefaultWidth, opts.DefaultHeight = 800, 600
	}
	return &Handlers{
		manager:        opts.Manager,
		pool:           opts.Pool,
		metrics:        opts.Metrics,
		logger:         opts.Logger,
		maxSourceBytes: int64(opts.MaxSourceBytes),
		defaultWidth:   opts.DefaultWidth,
		defaultHeight:  opts.DefaultHeight,
	}
}

// Register mounts every sketch route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	sketches := r.Group("/sketches")
	sketches.POST("", h.CreateSketch)
	sketches.GET("", h.ListSketches)
	sketches.GET("/:id", h.GetSketch)
	sketches.DELETE("/:id", h.DeleteSketch)
	sketches.PUT("/:id/source", h.PutSource)
	sketches.DELETE("/:id/source", h.DeleteSource)
	sketches.POST("/:id/resize", h.Resize)
	sketches.POST("/:id/events", h.DispatchEvent)
	sketches.GET("/:id/frame.png", h.Frame)
	sketches.POST("/:id/prompt", h.Prompt)
	sketches.POST("/:id/fix", h.Fix)
	sketches.POST("/:id/clear", h.Clear)
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "SketchBox",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	var pool sandbox.PoolStats
	if h.pool != nil {
		pool = h.pool.Stats()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"sessions": h.manager.Count(),
		"pool":     pool,
		"uptime":   h.metrics.UptimeDuration().String(),
	})
}

// lookup resolves the :id parameter, writing a 404 when it fails
func (h *Handlers) lookup(c *gin.Context) (*session.Session, bool) {
	sid, err := id.ParseSessionID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": session.ErrSessionNotFound.Error()})
		return nil, false
	}
	s, err := h.manager.Get(sid)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return s, true
}

// fail writes err with the status it maps to
func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			tracing.Field(c.Request.Context()),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, container.ErrInvalidSize),
		errors.Is(err, studio.ErrEmptyPrompt):
		return http.StatusBadRequest
	case errors.Is(err, studio.ErrBusy),
		errors.Is(err, studio.ErrNothingToFix):
		return http.StatusConflict
	case errors.Is(err, studio.ErrNoCodeSource):
		return http.StatusNotImplemented
	case errors.Is(err, studio.ErrMalformedOutput):
		return http.StatusBadGateway
	case errors.Is(err, session.ErrTooManySessions),
		errors.Is(err, session.ErrManagerClosed),
		errors.Is(err, resilience.ErrCircuitOpen),
		errors.Is(err, resilience.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
