// Package sqlite provides the embedded SQLite adapter for leapdb.
//
// This file registers the SQLite adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/leapdb/pkg/adapters/sqlite"
package sqlite

import (
	"log/slog"

	"github.com/leapstack-labs/leapdb/pkg/adapter"
)

func init() {
	adapter.Register(adapter.Registration{
		Name:         "sqlite",
		Factory:      func(logger *slog.Logger) adapter.Adapter { return New(logger) },
		FileBacked:   true,
		HandlesPaths: true,
	})
}
