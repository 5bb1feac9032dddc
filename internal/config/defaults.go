package config

import (
	"time"

	"github.com/leapstack-labs/leapdb/pkg/crypt"
)

// Default configuration values.
const (
	DefaultDatabase       = ":memory:"
	DefaultMaxOpenConns   = 10
	DefaultMaxIdleConns   = 2
	DefaultConnectTimeout = 10 * time.Second
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultOutput         = "auto" // TTY=table, otherwise json
)

// Accepted values for the enumerated settings.
var (
	LogLevels     = []string{"debug", "info", "warn", "error"}
	LogFormats    = []string{"text", "json"}
	OutputFormats = []string{"auto", "table", "json", "yaml"}
)

// defaults returns the lowest configuration layer.
func defaults() map[string]any {
	return map[string]any{
		"database":               DefaultDatabase,
		"encryption.key_env":     crypt.DefaultKeyEnv,
		"encryption.key_file":    crypt.DefaultKeyFile,
		"pool.max_open_conns":    DefaultMaxOpenConns,
		"pool.max_idle_conns":    DefaultMaxIdleConns,
		"pool.conn_max_lifetime": "0s",
		"pool.connect_timeout":   DefaultConnectTimeout.String(),
		"log_level":              DefaultLogLevel,
		"log_format":             DefaultLogFormat,
		"output":                 DefaultOutput,
	}
}
