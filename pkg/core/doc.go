// Package core defines the shared language of leapdb.
//
// This package contains:
//   - Record, the transient row value exchanged between tables and adapters
//   - ColumnType and TableColumn, the declared and live column vocabularies
//   - Dialect, the per-backend rendering contract
//   - The error taxonomy (SchemaError, ValidationError, NotFoundError, ...)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
