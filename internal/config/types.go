// Package config loads leapdb configuration.
//
// Values are layered, lowest priority first: built-in defaults, an optional
// YAML file (leapdb.yaml or leapdb.yml, or the file named by --config),
// LEAPDB_ environment variables, then flags that were explicitly set.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/crypt"
)

// Config holds all leapdb configuration.
type Config struct {
	Database   string           `koanf:"database"`
	Encryption EncryptionConfig `koanf:"encryption"`
	Pool       PoolConfig       `koanf:"pool"`
	Params     map[string]any   `koanf:"params"`
	LogLevel   string           `koanf:"log_level"`
	LogFormat  string           `koanf:"log_format"`
	Output     string           `koanf:"output"`

	// File is the config file that was loaded, if any.
	File string `koanf:"-"`
}

// EncryptionConfig locates the field encryption key.
type EncryptionConfig struct {
	Key     string `koanf:"key"`
	KeyEnv  string `koanf:"key_env"`
	KeyFile string `koanf:"key_file"`
}

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
}

// AdapterConfig returns the pool settings and adapter params. Type, Path
// and DSN come from the descriptor when the database is opened.
func (c *Config) AdapterConfig() core.AdapterConfig {
	return core.AdapterConfig{
		MaxOpenConns:    c.Pool.MaxOpenConns,
		MaxIdleConns:    c.Pool.MaxIdleConns,
		ConnMaxLifetime: c.Pool.ConnMaxLifetime,
		ConnectTimeout:  c.Pool.ConnectTimeout,
		Params:          c.Params,
	}
}

// KeySource returns where the encryption key is looked up.
func (c *Config) KeySource() crypt.Source {
	return crypt.Source{
		Key:  c.Encryption.Key,
		Env:  c.Encryption.KeyEnv,
		File: c.Encryption.KeyFile,
	}
}

// Validate checks the configuration. The descriptor is routed through the
// adapter registry so that an unregistered scheme is reported before any
// command runs.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database) == "" {
		return fmt.Errorf("database is required")
	}
	if _, err := adapter.ParseDescriptor(c.Database); err != nil {
		return fmt.Errorf("invalid database: %w", err)
	}
	if !contains(LogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log_level %q (want one of %s)", c.LogLevel, strings.Join(LogLevels, ", "))
	}
	if !contains(LogFormats, c.LogFormat) {
		return fmt.Errorf("invalid log_format %q (want one of %s)", c.LogFormat, strings.Join(LogFormats, ", "))
	}
	if !contains(OutputFormats, c.Output) {
		return fmt.Errorf("invalid output %q (want one of %s)", c.Output, strings.Join(OutputFormats, ", "))
	}
	if c.Pool.MaxOpenConns < 0 || c.Pool.MaxIdleConns < 0 {
		return fmt.Errorf("pool sizes must not be negative")
	}
	if c.Pool.ConnMaxLifetime < 0 || c.Pool.ConnectTimeout < 0 {
		return fmt.Errorf("pool durations must not be negative")
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
