package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/pseudomuto/squeaky/pkg/binder"
	"github.com/pseudomuto/squeaky/pkg/errs"
	"modernc.org/sqlite"
)

type (
	// querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
	querier interface {
		ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
		QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	}

	// Conn runs statements against a database or transaction.
	Conn struct {
		q querier
	}

	// Store is a Conn backed by a connection pool.
	Store struct {
		Conn
		db *sql.DB
	}

	// Tx is a Conn bound to a transaction.
	Tx struct {
		Conn
		tx *sql.Tx
	}
)

// New wraps db as a Store.
func New(db *sql.DB) *Store {
	return &Store{Conn: Conn{q: db}, db: db}
}

// Exec runs stmt as-is. stmt may contain several statements separated by
// semicolons.
func (c *Conn) Exec(ctx context.Context, stmt string) error {
	if _, err := c.q.ExecContext(ctx, stmt); err != nil {
		return storeError("exec", stmt, err)
	}

	return nil
}

// ExecUpdate runs a parameterized statement and returns the number of affected
// rows.
func (c *Conn) ExecUpdate(ctx context.Context, stmt string, args ...any) (int64, error) {
	res, err := c.exec(ctx, "update", stmt, args)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeError("update", stmt, err)
	}

	return n, nil
}

// ExecInsert runs a parameterized statement and returns the rowid of the last
// inserted row.
func (c *Conn) ExecInsert(ctx context.Context, stmt string, args ...any) (int64, error) {
	res, err := c.exec(ctx, "insert", stmt, args)
	if err != nil {
		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeError("insert", stmt, err)
	}

	return id, nil
}

// Query runs a read query and buffers its results.
func (c *Conn) Query(ctx context.Context, stmt string, args ...any) (*Rows, error) {
	bound, err := binder.Bind(stmt, args)
	if err != nil {
		return nil, err
	}

	rows, err := c.q.QueryContext(ctx, stmt, bound...)
	if err != nil {
		return nil, storeError("query", stmt, err)
	}
	defer func() { _ = rows.Close() }()

	buffered, err := readRows(rows)
	if err != nil {
		return nil, storeError("query", stmt, err)
	}

	return buffered, nil
}

func (c *Conn) exec(ctx context.Context, op, stmt string, args []any) (sql.Result, error) {
	bound, err := binder.Bind(stmt, args)
	if err != nil {
		return nil, err
	}

	res, err := c.q.ExecContext(ctx, stmt, bound...)
	if err != nil {
		return nil, storeError(op, stmt, err)
	}

	return res, nil
}

// DB returns the underlying pool.
func (s *Store) DB() *sql.DB { return s.db }

// Begin starts a transaction.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeError("begin", "", err)
	}

	return &Tx{Conn: Conn{q: tx}, tx: tx}, nil
}

// TableNames lists the user tables in the database, sorted by name.
func (s *Store) TableNames(ctx context.Context) ([]string, error) {
	rows, err := s.Query(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, rows.Count())
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "failed to scan table name")
		}

		names = append(names, name)
	}

	return names, nil
}

// HasTable reports whether a table called name exists.
func (s *Store) HasTable(ctx context.Context, name string) (bool, error) {
	rows, err := s.Query(ctx, "SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?", name)
	if err != nil {
		return false, err
	}

	return rows.Count() > 0, nil
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return errors.Wrap(err, "failed to close store")
	}

	return nil
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return storeError("commit", "", err)
	}

	return nil
}

// Rollback aborts the transaction. Rolling back a finished transaction is a no-op.
func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return storeError("rollback", "", err)
	}

	return nil
}

func storeError(op, stmt string, err error) error {
	code := 0

	var se *sqlite.Error
	if errors.As(err, &se) {
		code = se.Code()
	}

	return errs.Store(op, stmt, code, err)
}
