// Package server wires the SketchBox service together.
//
// NewServer builds, in order: the zap logger, the Prometheus metrics
// registry, the request tracer, the sandbox runtime pool, the optional
// code source flows (guarded by a circuit breaker), the session manager
// and the Gin router with its middleware stack.
//
// Routes:
//   - REST sketch API from package api/http
//   - GET /sketches/:id/stream, the WebSocket stream from package api/ws
//   - GET /metrics, Prometheus exposition
//
// Example Usage:
//
//	cfg, err := config.Load()
//	srv, err := server.NewServer(cfg, nil)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
