package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Sandbox   SandboxConfig
	Sketch    SketchConfig
	Studio    StudioConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8000"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	Compress        bool          `envconfig:"HTTP_COMPRESS" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds per-client rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// CORSConfig lists the origins allowed to call the API.
type CORSConfig struct {
	Origins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
}

// SandboxConfig sizes the JavaScript runtime pool.
type SandboxConfig struct {
	PoolSize        int           `envconfig:"SANDBOX_POOL_SIZE" default:"16"`
	CallbackTimeout time.Duration `envconfig:"SANDBOX_CALLBACK_TIMEOUT" default:"2s"`
	AcquireTimeout  time.Duration `envconfig:"SANDBOX_ACQUIRE_TIMEOUT" default:"5s"`
	MaxCallStack    int           `envconfig:"SANDBOX_MAX_CALL_STACK" default:"1024"`
}

// SketchConfig holds session and surface limits.
type SketchConfig struct {
	DefaultWidth   int `envconfig:"SKETCH_DEFAULT_WIDTH" default:"800"`
	DefaultHeight  int `envconfig:"SKETCH_DEFAULT_HEIGHT" default:"600"`
	FrameRate      int `envconfig:"SKETCH_FRAME_RATE" default:"30"`
	MaxSessions    int `envconfig:"SKETCH_MAX_SESSIONS" default:"16"`
	MaxSourceBytes int `envconfig:"SKETCH_MAX_SOURCE_BYTES" default:"262144"`
}

// StudioConfig holds code source settings.
type StudioConfig struct {
	MaxRetries     int           `envconfig:"STUDIO_MAX_RETRIES" default:"2"`
	BreakerTimeout time.Duration `envconfig:"STUDIO_BREAKER_TIMEOUT" default:"30s"`
	BreakerTrip    uint32        `envconfig:"STUDIO_BREAKER_TRIP" default:"3"`
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Sandbox.PoolSize <= 0:
		return fmt.Errorf("SANDBOX_POOL_SIZE must be positive, got %d", c.Sandbox.PoolSize)
	case c.Sketch.DefaultWidth <= 0 || c.Sketch.DefaultHeight <= 0:
		return fmt.Errorf("sketch default size must be positive, got %dx%d",
			c.Sketch.DefaultWidth, c.Sketch.DefaultHeight)
	case c.Sketch.FrameRate <= 0:
		return fmt.Errorf("SKETCH_FRAME_RATE must be positive, got %d", c.Sketch.FrameRate)
	case c.Sketch.MaxSessions <= 0:
		return fmt.Errorf("SKETCH_MAX_SESSIONS must be positive, got %d", c.Sketch.MaxSessions)
	case c.Sandbox.PoolSize < c.Sketch.MaxSessions:
		// every running session holds one runtime
		return fmt.Errorf("SANDBOX_POOL_SIZE (%d) must be at least SKETCH_MAX_SESSIONS (%d)",
			c.Sandbox.PoolSize, c.Sketch.MaxSessions)
	case c.Sketch.MaxSourceBytes <= 0:
		return fmt.Errorf("SKETCH_MAX_SOURCE_BYTES must be positive, got %d", c.Sketch.MaxSourceBytes)
	case c.Studio.MaxRetries < 0:
		return fmt.Errorf("STUDIO_MAX_RETRIES must not be negative, got %d", c.Studio.MaxRetries)
	}
	return nil
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := processEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func processEnv(cfg *Config) error {
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			ShutdownTimeout: 10 * time.Second,
			Compress:        true,
		},
		Logging: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		CORS: CORSConfig{
			Origins: []string{"http://localhost:3000"},
		},
		Sandbox: SandboxConfig{
			PoolSize:        16,
			CallbackTimeout: 2 * time.Second,
			AcquireTimeout:  5 * time.Second,
			MaxCallStack:    1024,
		},
		Sketch: SketchConfig{
			DefaultWidth:   800,
			DefaultHeight:  600,
			FrameRate:      30,
			MaxSessions:    16,
			MaxSourceBytes: 256 << 10,
		},
		Studio: StudioConfig{
			MaxRetries:     2,
			BreakerTimeout: 30 * time.Second,
			BreakerTrip:    3,
		},
	}
}
