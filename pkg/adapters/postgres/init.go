// Package postgres provides the PostgreSQL adapter for leapdb.
//
// This file registers the PostgreSQL adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/leapdb/pkg/adapters/postgres"
package postgres

import (
	"log/slog"

	"github.com/leapstack-labs/leapdb/pkg/adapter"
)

func init() {
	adapter.Register(adapter.Registration{
		Name:       "postgres",
		Factory:    func(logger *slog.Logger) adapter.Adapter { return New(logger) },
		URLSchemes: []string{"postgres", "postgresql"},
	})
}
