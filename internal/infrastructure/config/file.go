package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// fileConfig mirrors Config for YAML and TOML files. Durations are
// strings in time.ParseDuration syntax; zero values leave settings alone.
type fileConfig struct {
	Server struct {
		Port            string `yaml:"port" toml:"port"`
		Host            string `yaml:"host" toml:"host"`
		ShutdownTimeout string `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
		Compress        *bool  `yaml:"compress" toml:"compress"`
	} `yaml:"server" toml:"server"`
	Logging struct {
		Level       string `yaml:"level" toml:"level"`
		Development *bool  `yaml:"development" toml:"development"`
	} `yaml:"logging" toml:"logging"`
	RateLimit struct {
		RequestsPerSecond int   `yaml:"rps" toml:"rps"`
		Burst             int   `yaml:"burst" toml:"burst"`
		Enabled           *bool `yaml:"enabled" toml:"enabled"`
	} `yaml:"rate_limit" toml:"rate_limit"`
	CORS struct {
		Origins []string `yaml:"origins" toml:"origins"`
	} `yaml:"cors" toml:"cors"`
	Sandbox struct {
		PoolSize        int    `yaml:"pool_size" toml:"pool_size"`
		CallbackTimeout string `yaml:"callback_timeout" toml:"callback_timeout"`
		AcquireTimeout  string `yaml:"acquire_timeout" toml:"acquire_timeout"`
		MaxCallStack    int    `yaml:"max_call_stack" toml:"max_call_stack"`
	} `yaml:"sandbox" toml:"sandbox"`
	Sketch struct {
		DefaultWidth   int `yaml:"default_width" toml:"default_width"`
		DefaultHeight  int `yaml:"default_height" toml:"default_height"`
		FrameRate      int `yaml:"frame_rate" toml:"frame_rate"`
		MaxSessions    int `yaml:"max_sessions" toml:"max_sessions"`
		MaxSourceBytes int `yaml:"max_source_bytes" toml:"max_source_bytes"`
	} `yaml:"sketch" toml:"sketch"`
	Studio struct {
		MaxRetries     *int   `yaml:"max_retries" toml:"max_retries"`
		BreakerTimeout string `yaml:"breaker_timeout" toml:"breaker_timeout"`
		BreakerTrip    uint32 `yaml:"breaker_trip" toml:"breaker_trip"`
	} `yaml:"studio" toml:"studio"`
}

// LoadFile loads the environment like Load, then applies the YAML or TOML
// file at path on top. The format follows the file extension.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.UnmarshalWithOptions(data, &fc, yaml.Strict())
	case ".toml":
		err = toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&fc)
	default:
		return nil, fmt.Errorf("unsupported config file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	var cfg Config
	if err := processEnv(&cfg); err != nil {
		return nil, err
	}
	if err := fc.apply(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (fc *fileConfig) apply(cfg *Config) error {
	setString(&cfg.Server.Port, fc.Server.Port)
	setString(&cfg.Server.Host, fc.Server.Host)
	setBool(&cfg.Server.Compress, fc.Server.Compress)

	setString(&cfg.Logging.Level, fc.Logging.Level)
	setBool(&cfg.Logging.Development, fc.Logging.Development)

	setInt(&cfg.RateLimit.RequestsPerSecond, fc.RateLimit.RequestsPerSecond)
	setInt(&cfg.RateLimit.Burst, fc.RateLimit.Burst)
	setBool(&cfg.RateLimit.Enabled, fc.RateLimit.Enabled)

	if len(fc.CORS.Origins) > 0 {
		cfg.CORS.Origins = fc.CORS.Origins
	}

	setInt(&cfg.Sandbox.PoolSize, fc.Sandbox.PoolSize)
	setInt(&cfg.Sandbox.MaxCallStack, fc.Sandbox.MaxCallStack)

	setInt(&cfg.Sketch.DefaultWidth, fc.Sketch.DefaultWidth)
	setInt(&cfg.Sketch.DefaultHeight, fc.Sketch.DefaultHeight)
	setInt(&cfg.Sketch.FrameRate, fc.Sketch.FrameRate)
	setInt(&cfg.Sketch.MaxSessions, fc.Sketch.MaxSessions)
	setInt(&cfg.Sketch.MaxSourceBytes, fc.Sketch.MaxSourceBytes)

	if fc.Studio.MaxRetries != nil {
		cfg.Studio.MaxRetries = *fc.Studio.MaxRetries
	}
	if fc.Studio.BreakerTrip != 0 {
		cfg.Studio.BreakerTrip = fc.Studio.BreakerTrip
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"server.shutdown_timeout", fc.Server.ShutdownTimeout, &cfg.Server.ShutdownTimeout},
		{"sandbox.callback_timeout", fc.Sandbox.CallbackTimeout, &cfg.Sandbox.CallbackTimeout},
		{"sandbox.acquire_timeout", fc.Sandbox.AcquireTimeout, &cfg.Sandbox.AcquireTimeout},
		{"studio.breaker_timeout", fc.Studio.BreakerTimeout, &cfg.Studio.BreakerTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = v
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
