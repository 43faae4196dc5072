package sandbox

import (
	"context"
	"time"

	"github.com/dop251/goja"
)

// Config defines sandbox configuration
type Config struct {
	CallbackTimeout time.Duration // Watchdog per Run call, 0 disables
	AcquireTimeout  time.Duration // Pool acquisition limit, 0 waits for ctx only
	MaxCallStack    int           // goja call stack depth, 0 keeps the engine default
	EnableConsole   bool          // Capture console.log/info/warn/error
}

// LogEntry represents console output
type LogEntry struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// ConsoleSink receives console output as it is produced
type ConsoleSink func(LogEntry)

// Sandbox defines the sketch execution interface
type Sandbox interface {
	VM() *goja.Runtime
	Run(ctx context.Context, fn func() error) error
	Reset() error
	Close() error
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config {
	return Config{
		CallbackTimeout: 2 * time.Second,
		AcquireTimeout:  5 * time.Second,
		MaxCallStack:    1024,
		EnableConsole:   true,
	}
}
