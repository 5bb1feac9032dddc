package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is matched by every *NotFoundError via errors.Is.
	ErrNotFound = errors.New("record not found")

	// ErrConnectionReleased is returned when a transaction is used after it
	// was committed-and-released, rolled back, or shut down.
	ErrConnectionReleased = errors.New("connection already released")

	// ErrNoTransaction is returned when a transaction-scoped operation runs
	// without an active transaction.
	ErrNoTransaction = errors.New("no active transaction")

	// ErrKeyNotConfigured is returned when an encrypted column is written or
	// read and no encryption key was established at startup.
	ErrKeyNotConfigured = errors.New("encryption key not configured")
)

// SchemaError reports an invalid schema definition or an incompatible
// difference between the configured schema and the live table.
type SchemaError struct {
	Table   string
	Column  string
	Message string
}

func (e *SchemaError) Error() string {
	return "schema: " + location(e.Table, e.Column) + e.Message
}

// ValidationError reports a malformed query or write request. It is raised
// before any statement reaches the backend.
type ValidationError struct {
	Table   string
	Column  string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	msg := "validation: " + location(e.Table, e.Column) + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NotFoundError is returned when a lookup that requires a row finds none.
type NotFoundError struct {
	Table string
	Key   any
}

func (e *NotFoundError) Error() string {
	if e.Key != nil {
		return fmt.Sprintf("%s: record %v not found", e.Table, e.Key)
	}
	return e.Table + ": record not found"
}

// Is makes errors.Is(err, ErrNotFound) true for every NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsNotFound returns a boolean indicating whether the error is a not found error.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e)
}

// DuplicateError is returned when a lookup that requires a single row finds
// more than one.
type DuplicateError struct {
	Table string
	Count int
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s: expected one record, found %d", e.Table, e.Count)
}

// TransactionError wraps a failure reported by the backend.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// EncryptionError reports a failure to encrypt or decrypt a column value.
type EncryptionError struct {
	Table  string
	Column string
	Err    error
}

func (e *EncryptionError) Error() string {
	return "encryption: " + location(e.Table, e.Column) + e.Err.Error()
}

func (e *EncryptionError) Unwrap() error { return e.Err }

func location(table, column string) string {
	var parts []string
	if table != "" {
		parts = append(parts, table)
	}
	if column != "" {
		parts = append(parts, column)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ".") + ": "
}
