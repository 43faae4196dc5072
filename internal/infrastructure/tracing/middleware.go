package tracing

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/SketchBox/internal/shared/id"
)

// maxInboundID bounds caller-supplied request ids
const maxInboundID = 128

// Middleware assigns every request an id, echoes it in X-Request-ID and
// submits a span when the handler chain finishes. A well-formed inbound
// X-Request-ID is kept so callers can correlate retries.
func Middleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := id.RequestID(c.GetHeader(HeaderRequestID))
		if rid == "" || len(rid) > maxInboundID || !id.IsValid(rid.String()) {
			rid = id.NewRequestID()
		}

		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), rid))
		c.Set("request_id", rid.String())
		c.Header(HeaderRequestID, rid.String())

		span := &Span{
			RequestID: rid,
			Method:    c.Request.Method,
			Path:      c.Request.URL.Path,
			ClientIP:  c.ClientIP(),
			Start:     time.Now(),
		}

		c.Next()

		span.Name = c.FullPath()
		span.Duration = time.Since(span.Start)
		span.StatusCode = c.Writer.Status()
		if len(c.Errors) > 0 {
			span.Err = c.Errors.Last()
		}

		if tracer != nil {
			tracer.Submit(span)
		}
	}
}
