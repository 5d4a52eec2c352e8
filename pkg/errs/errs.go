package errs

import (
	"fmt"

	"github.com/pkg/errors"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrAlreadyPrepared is returned when Prepare is called on a prepared handle.
	ErrAlreadyPrepared = errors.New("cannot re-prepare a prepared database")

	// ErrNotPrepared is returned when a handle is used before Prepare.
	ErrNotPrepared = errors.New("database not prepared yet")

	// ErrArgumentCount is returned when the bound arguments don't match the
	// statement's placeholders.
	ErrArgumentCount = errors.New("argument count does not match placeholder count")

	// ErrBatchLength is returned when a batch has a different number of argument
	// lists than statements.
	ErrBatchLength = errors.New("argument list length does not match statement list length")

	// ErrUnreachableVersion is returned when a table descriptor cannot produce a
	// version the engine needs.
	ErrUnreachableVersion = errors.New("unreachable table version")

	// ErrInvalidTable is returned for descriptors with an empty name or an
	// impossible target version.
	ErrInvalidTable = errors.New("invalid table descriptor")
)

type (
	// ConfigurationError reports a fatal misuse of the API or a broken table
	// descriptor.
	ConfigurationError struct {
		// Op names the operation that failed (e.g. "prepare", "bind").
		Op string

		// Err is the underlying cause, usually one of the package sentinels.
		Err error
	}

	// StoreError reports a statement rejected by the underlying store.
	StoreError struct {
		// Op names the store capability that failed (exec, query, insert, ...).
		Op string

		// Statement is the SQL text handed to the store.
		Statement string

		// Code is the SQLite extended result code, or 0 when the driver didn't
		// report one.
		Code int

		// Err is the driver error.
		Err error
	}
)

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *StoreError) Error() string {
	if e.Statement == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("%s %q: %v", e.Op, e.Statement, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Configuration creates a ConfigurationError for op caused by err.
func Configuration(op string, err error) error {
	return &ConfigurationError{Op: op, Err: err}
}

// Configurationf creates a ConfigurationError whose cause wraps sentinel with a
// formatted message. errors.Is(err, sentinel) holds for the result.
func Configurationf(op string, sentinel error, format string, args ...any) error {
	return &ConfigurationError{Op: op, Err: errors.Wrapf(sentinel, format, args...)}
}

// Store creates a StoreError for a failed statement.
func Store(op, stmt string, code int, err error) error {
	return &StoreError{Op: op, Statement: stmt, Code: code, Err: err}
}

// IsConfiguration reports whether err is, or wraps, a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsStore reports whether err is, or wraps, a StoreError.
func IsStore(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// IsConstraint reports whether err is a StoreError caused by a constraint
// violation (UNIQUE, NOT NULL, CHECK, FOREIGN KEY, ...).
func IsConstraint(err error) bool {
	var se *StoreError
	if !errors.As(err, &se) {
		return false
	}

	// Extended codes carry the primary code in the low byte
	return se.Code&0xff == sqlite3.SQLITE_CONSTRAINT
}
