package core

import "time"

// AdapterConfig holds configuration for connecting to a database.
type AdapterConfig struct {
	// Type is the registered adapter name ("sqlite", "postgres", "duckdb").
	Type string
	// Path is the file path for embedded backends (":memory:" for ephemeral).
	Path string
	// DSN is the connection string for networked backends.
	DSN string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration

	// Params holds adapter-specific settings, decoded by each adapter.
	Params map[string]any
}

// TableColumn describes a column as it exists in the live database.
type TableColumn struct {
	Name       string
	Type       string
	Nullable   bool
	PrimaryKey bool
	Position   int
}
