// Package duckdb provides the DuckDB adapter for leapdb.
//
// This file registers the DuckDB adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/leapdb/pkg/adapters/duckdb"
package duckdb

import (
	"log/slog"

	"github.com/leapstack-labs/leapdb/pkg/adapter"
)

func init() {
	adapter.Register(adapter.Registration{
		Name:       "duckdb",
		Factory:    func(logger *slog.Logger) adapter.Adapter { return New(logger) },
		FileBacked: true,
	})
}
