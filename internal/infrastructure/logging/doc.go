// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components take named child loggers (Named) so every entry carries the
// subsystem that wrote it. Sketch console output is relayed through Console,
// which maps console.log/info/warn/error/debug onto zap levels.
//
// Example Usage:
//
//	logger, err := logging.New(logging.Config{Level: "info"})
//	logger.Info("Server starting", zap.String("port", "8000"))
//	logger.Named("harness").Error("Mount failed", zap.Error(err))
package logging
