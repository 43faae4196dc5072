/*
Package tracing tags every HTTP request with a ULID request id.

The id is read from or written to the X-Request-ID header, stored on the
request context, and reported in a span that a background collector logs
once the handler chain returns.

	tracer := tracing.New(logger.Named("http"))
	defer tracer.Close()
	router.Use(tracing.Middleware(tracer))

	// inside a handler
	log.Info("mounted", tracing.Field(c.Request.Context()))
*/
package tracing
