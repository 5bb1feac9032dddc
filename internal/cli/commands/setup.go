package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapdb/internal/config"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/crypt"
	"github.com/leapstack-labs/leapdb/pkg/sqldb"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	DB       *sqldb.DB
	Renderer *Renderer
}

// NewCommandContext creates a CommandContext with an open database.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx := NewCommandContextWithoutDB(cmd)

	db, err := openDB(cmd, cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return nil, nil, err
	}
	cmdCtx.DB = db

	cleanup := func() {
		if err := db.Close(); err != nil {
			cmdCtx.Logger.Warn("failed to close database", "error", err)
		}
	}
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutDB creates a CommandContext without a database.
// Useful for commands that don't need database access.
func NewCommandContextWithoutDB(cmd *cobra.Command) *CommandContext {
	cfg := getConfig(cmd)
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: NewRenderer(cmd.OutOrStdout(), cfg.Output),
	}
}

// getConfig returns the configuration loaded by the root command, or the
// defaults when the command runs on its own.
func getConfig(cmd *cobra.Command) *config.Config {
	if cfg := config.GetConfig(cmd.Context()); cfg != nil {
		return cfg
	}
	return &config.Config{
		Database:  config.DefaultDatabase,
		LogLevel:  config.DefaultLogLevel,
		LogFormat: config.DefaultLogFormat,
		Output:    config.DefaultOutput,
	}
}

func openDB(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) (*sqldb.DB, error) {
	opts := []sqldb.Option{
		sqldb.WithLogger(logger),
		sqldb.WithAdapterConfig(cfg.AdapterConfig()),
	}

	enc, err := crypt.Load(cfg.KeySource())
	switch {
	case err == nil:
		opts = append(opts, sqldb.WithEncrypter(enc))
	case errors.Is(err, core.ErrKeyNotConfigured):
		logger.Debug("no encryption key configured")
	default:
		return nil, fmt.Errorf("failed to load encryption key: %w", err)
	}

	db, err := sqldb.Open(cmd.Context(), cfg.Database, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}
