package tracing

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/SketchBox/internal/shared/id"
)

// HeaderRequestID carries the request id in both directions
const HeaderRequestID = "X-Request-ID"

// Span records one traced request
type Span struct {
	RequestID  id.RequestID
	Name       string
	Method     string
	Path       string
	ClientIP   string
	Start      time.Time
	Duration   time.Duration
	StatusCode int
	Err        error
}

// Tracer collects finished spans and logs them off the request path
type Tracer struct {
	logger *zap.Logger
	spans  chan *Span
	done   chan struct{}
	once   sync.Once
}

// New starts a tracer whose collector runs until Close
func New(logger *zap.Logger) *Tracer {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracer{
		logger: logger,
		spans:  make(chan *Span, 1000),
		done:   make(chan struct{}),
	}
	go t.collect()
	return t
}

// Submit queues a finished span; a full buffer drops it
func (t *Tracer) Submit(span *Span) {
	select {
	case t.spans <- span:
	default:
		t.logger.Warn("span buffer full, dropping span",
			zap.String("request_id", span.RequestID.String()))
	}
}

// Close stops the collector after draining queued spans
func (t *Tracer) Close() {
	t.once.Do(func() {
		close(t.spans)
		<-t.done
	})
}

func (t *Tracer) collect() {
	defer close(t.done)
	for span := range t.spans {
		t.process(span)
	}
}

func (t *Tracer) process(span *Span) {
	fields := []zap.Field{
		zap.String("request_id", span.RequestID.String()),
		zap.String("route", span.Name),
		zap.String("method", span.Method),
		zap.String("path", span.Path),
		zap.String("client_ip", span.ClientIP),
		zap.Int("status", span.StatusCode),
		zap.Duration("duration", span.Duration),
	}

	switch {
	case span.Err != nil:
		t.logger.Error("request failed", append(fields, zap.Error(span.Err))...)
	case span.StatusCode >= 500:
		t.logger.Error("request completed", fields...)
	default:
		t.logger.Debug("request completed", fields...)
	}
}

type contextKey struct{}

// WithRequestID stores a request id on ctx
func WithRequestID(ctx context.Context, rid id.RequestID) context.Context {
	return context.WithValue(ctx, contextKey{}, rid)
}

// RequestID returns the request id stored on ctx, if any
func RequestID(ctx context.Context) id.RequestID {
	rid, _ := ctx.Value(contextKey{}).(id.RequestID)
	return rid
}

// Field returns a zap field carrying the request id from ctx
func Field(ctx context.Context) zap.Field {
	return zap.String("request_id", RequestID(ctx).String())
}
