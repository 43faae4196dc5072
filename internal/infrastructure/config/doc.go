// Package config loads service configuration from environment variables
// with envconfig. Every field has a default so the service starts with no
// environment at all.
package config
