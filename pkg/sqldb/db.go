// Package sqldb is the transactional data-access layer of leapdb.
//
// A DB owns one adapter and a registry of tables. Work runs inside a
// Connection scope: one transaction on one connection, committed when the
// scope returns nil and rolled back otherwise. The transaction travels in
// the context, so every Table and Query call made with the scope's context
// joins it; a call made outside any scope runs in a scope of its own.
//
// Writes go through the table pipeline (hooks, JSON encoding, encryption)
// and reads come back through the reverse pipeline (decryption, decoding,
// type normalization). The Raw variants skip the pipeline entirely.
package sqldb

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/crypt"
	"github.com/leapstack-labs/leapdb/pkg/schema"
)

// DB is the transaction manager: one adapter plus the table registry.
type DB struct {
	adapter adapter.Adapter
	logger  *slog.Logger
	enc     crypt.Encrypter

	mu     sync.RWMutex
	tables map[string]*Table
	order  []string
}

// Option configures a DB.
type Option func(*options)

type options struct {
	logger *slog.Logger
	enc    crypt.Encrypter
	cfg    core.AdapterConfig
}

// WithLogger sets the logger. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithEncrypter sets the field encryption service used for encrypted
// columns. Without one, writing an encrypted column fails.
func WithEncrypter(enc crypt.Encrypter) Option {
	return func(o *options) { o.enc = enc }
}

// WithAdapterConfig sets pool settings and adapter params. Type, Path and
// DSN are always taken from the descriptor.
func WithAdapterConfig(cfg core.AdapterConfig) Option {
	return func(o *options) { o.cfg = cfg }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Open routes descriptor to an adapter, opens it and returns a DB with an
// empty table registry.
func Open(ctx context.Context, descriptor string, opts ...Option) (*DB, error) {
	o := buildOptions(opts)
	a, err := adapter.Open(ctx, descriptor, o.cfg, o.logger)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("database opened", "adapter", a.Name())
	return newDB(a, o), nil
}

// New wraps an adapter that is already open.
func New(a adapter.Adapter, opts ...Option) *DB {
	return newDB(a, buildOptions(opts))
}

func newDB(a adapter.Adapter, o options) *DB {
	return &DB{
		adapter: a,
		logger:  o.logger,
		enc:     o.enc,
		tables:  make(map[string]*Table),
	}
}

// Adapter returns the underlying adapter.
func (db *DB) Adapter() adapter.Adapter {
	return db.adapter
}

// Dialect returns the dialect of the backend.
func (db *DB) Dialect() adapter.Dialect {
	return db.adapter.Dialect()
}

// Close shuts the adapter down. Transactions still open are rolled back.
func (db *DB) Close() error {
	return db.adapter.Shutdown()
}

// AddTable registers a table. Registering a second table under the same
// name is a *core.SchemaError.
func (db *DB) AddTable(cfg TableConfig) (*Table, error) {
	t, err := newTable(db, cfg)
	if err != nil {
		return nil, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if _, exists := db.tables[cfg.Name]; exists {
		return nil, &core.SchemaError{Table: cfg.Name, Message: "table already registered"}
	}
	db.tables[cfg.Name] = t
	db.order = append(db.order, cfg.Name)
	return t, nil
}

// MustAddTable is like AddTable but panics on error.
func (db *DB) MustAddTable(cfg TableConfig) *Table {
	t, err := db.AddTable(cfg)
	if err != nil {
		panic(err)
	}
	return t
}

// Table looks up a registered table by name.
func (db *DB) Table(name string) (*Table, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	t, ok := db.tables[name]
	return t, ok
}

// Tables returns the registered tables in registration order.
func (db *DB) Tables() []*Table {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]*Table, len(db.order))
	for i, name := range db.order {
		out[i] = db.tables[name]
	}
	return out
}

// CheckStructure creates every registered table that does not exist yet,
// in registration order.
func (db *DB) CheckStructure(ctx context.Context) error {
	return db.run(ctx, func(ctx context.Context, tx *adapter.Tx) error {
		for _, t := range db.Tables() {
			ddl, err := t.CreateTableSQL()
			if err != nil {
				return err
			}
			if err := tx.ExecuteScript(ctx, ddl); err != nil {
				return fmt.Errorf("failed to create table %s: %w", t.name, err)
			}
			db.logger.Info("table checked", "table", t.name)
		}
		return nil
	})
}

// SyncResult reports what SyncSchema changed on one table.
type SyncResult struct {
	Table   string
	Created bool
	Added   []string
}

// Changed reports whether the sync altered the table.
func (r SyncResult) Changed() bool {
	return r.Created || len(r.Added) > 0
}

// SyncSchema brings every registered table up to its schema: missing
// tables are created and missing columns added. Existing columns are never
// altered or dropped.
func (db *DB) SyncSchema(ctx context.Context) ([]SyncResult, error) {
	var results []SyncResult
	err := db.run(ctx, func(ctx context.Context, _ *adapter.Tx) error {
		for _, t := range db.Tables() {
			res, err := t.SyncSchema(ctx)
			if err != nil {
				return err
			}
			results = append(results, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// tableDef is shared by DDL rendering and sync.
func (t *Table) tableDef() schema.TableDef {
	return schema.TableDef{
		Name:          t.name,
		Schema:        t.schema,
		PrimaryKey:    t.pk,
		AutoIncrement: t.autoIncrement,
	}
}
