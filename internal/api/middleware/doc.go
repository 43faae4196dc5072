// Package middleware provides the HTTP middleware stack for the sketch API.
//
//   - CORS: origins come from CORS_ORIGINS; "*" allows any origin
//   - RateLimit: per-IP token buckets with idle eviction; health and
//     metrics endpoints are exempt
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORS.Origins...)))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
