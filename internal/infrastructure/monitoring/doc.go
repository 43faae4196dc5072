/*
Package monitoring provides Prometheus metrics for the sketch service.

# Overview

Every Metrics value owns a private registry, so the exposition endpoint only
reports what this process registered and tests can build as many collectors
as they like. Recording methods tolerate a nil receiver, which lets
components run without metrics.

# Metrics

  - HTTP requests (count, latency, request and response size)
  - Sketch mounts by outcome and delivered errors by kind
  - Frames drawn and draw duration
  - Running instances and resize reallocations
  - Sessions, studio flow calls and WebSocket traffic

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "generate")
	// ... run the flow ...
	timer.Stop("success")
*/
package monitoring
