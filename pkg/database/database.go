package database

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/squeaky/pkg/errs"
	"github.com/pseudomuto/squeaky/pkg/format"
	"github.com/pseudomuto/squeaky/pkg/metrics"
	"github.com/pseudomuto/squeaky/pkg/migrator"
	"github.com/pseudomuto/squeaky/pkg/store"
	"github.com/pseudomuto/squeaky/pkg/table"
	"github.com/pseudomuto/squeaky/pkg/versions"
)

type (
	// Database is a handle on one named store and the tables registered against it.
	//
	// Tables are registered with AddTable and reconciled once by Prepare. After that
	// the handle serves queries and writes until Close. All operations are
	// serialized by the handle.
	//
	// Example usage:
	//
	//	db := database.New("app.db", database.WithLogger(logger))
	//	defer db.Close()
	//
	//	db.AddTable(table.New("users", 1, "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)"))
	//	if err := db.Prepare(ctx); err != nil {
	//		log.Fatal(err)
	//	}
	//
	//	id, err := db.Insert(ctx, "INSERT INTO users (name) VALUES (?)", "bob")
	Database struct {
		name          string
		versions      *versions.Table
		factory       store.HelperFactory
		logger        *slog.Logger
		metrics       *metrics.Collector
		transactional bool

		mu       sync.Mutex
		helper   store.Helper
		tables   []table.Table
		names    map[string]struct{}
		prepared bool
		results  []*migrator.Result
	}

	// Option configures a Database.
	Option func(*Database)
)

// WithVersionsTable sets the name of the bookkeeping table. Defaults to "versions".
func WithVersionsTable(name string) Option {
	return func(db *Database) {
		db.versions = versions.New(name)
	}
}

// WithHelperFactory sets the factory creating the store helper. Defaults to
// store.SQLite, which treats the database name as a file path.
func WithHelperFactory(factory store.HelperFactory) Option {
	return func(db *Database) {
		if factory != nil {
			db.factory = factory
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(db *Database) {
		if logger != nil {
			db.logger = logger
		}
	}
}

// WithMetrics records prepare, migration and statement metrics in collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(db *Database) {
		db.metrics = collector
	}
}

// WithTransactionalMigrations runs each table's migration in its own transaction.
func WithTransactionalMigrations() Option {
	return func(db *Database) {
		db.transactional = true
	}
}

// New creates a handle for the database called name. Nothing is opened until
// Prepare.
func New(name string, opts ...Option) *Database {
	db := &Database{
		name:     name,
		versions: versions.New(""),
		factory:  store.SQLite,
		logger:   slog.Default(),
		names:    make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(db)
	}

	return db
}

// Name returns the database name.
func (db *Database) Name() string { return db.name }

// VersionsTable returns the name of the bookkeeping table.
func (db *Database) VersionsTable() string { return db.versions.Name() }

// AddTable registers t. Registering a name a second time is a no-op; the first
// registration wins. Tables added after Prepare take effect only once the handle is
// closed and prepared again.
func (db *Database) AddTable(t table.Table) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.names[t.Name()]; ok {
		return
	}

	if db.prepared {
		db.logger.Warn("Table registered after prepare", "database", db.name, "table", t.Name())
	}

	db.names[t.Name()] = struct{}{}
	db.tables = append(db.tables, t)
}

// Tables returns the registered tables in registration order.
func (db *Database) Tables() []table.Table {
	db.mu.Lock()
	defer db.mu.Unlock()

	return slices.Clone(db.tables)
}

// Prepare opens the store and brings every registered table to its declared
// version. It may be called once per open handle.
func (db *Database) Prepare(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.prepared {
		return errs.Configurationf("prepare", errs.ErrAlreadyPrepared, "database %s", db.name)
	}

	startTime := time.Now()
	db.logger.Info("Preparing database", "name", db.name, "tables", len(db.tables))

	err := db.prepare(ctx)
	db.metrics.ObservePrepare(db.name, err, time.Since(startTime))
	if err != nil {
		return err
	}

	db.prepared = true
	db.logger.Info("Database prepared", "name", db.name, "duration", time.Since(startTime))
	return nil
}

func (db *Database) prepare(ctx context.Context) error {
	writer, err := db.helperLocked().Writer(ctx)
	if err != nil {
		return err
	}

	m := migrator.New(migrator.Config{
		DB:            writer,
		Versions:      db.versions,
		Logger:        db.logger,
		Metrics:       db.metrics,
		Transactional: db.transactional,
	})

	db.results, err = m.Run(ctx, db.tables)
	return err
}

// IsPrepared reports whether Prepare has completed successfully since the handle was
// created or last closed.
func (db *Database) IsPrepared() bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.prepared
}

// Results returns the per-table results of the last Prepare, including a failed
// one.
func (db *Database) Results() []*migrator.Result {
	db.mu.Lock()
	defer db.mu.Unlock()

	return slices.Clone(db.results)
}

// Query runs stmt against the reader and returns the buffered rows.
func (db *Database) Query(ctx context.Context, stmt string, args ...any) (*store.Rows, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	reader, err := db.readerLocked(ctx, "query")
	if err != nil {
		return nil, err
	}

	rows, err := reader.Query(ctx, stmt, args...)
	db.metrics.ObserveStatement("query", err)
	return rows, err
}

// Insert runs stmt against the writer and returns the rowid of the inserted row.
func (db *Database) Insert(ctx context.Context, stmt string, args ...any) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	writer, err := db.writerLocked(ctx, "insert")
	if err != nil {
		return 0, err
	}

	id, err := writer.ExecInsert(ctx, stmt, args...)
	db.metrics.ObserveStatement("insert", err)
	return id, err
}

// Update runs stmt against the writer and returns the number of affected rows.
func (db *Database) Update(ctx context.Context, stmt string, args ...any) (int64, error) {
	return db.UpdateBatch(ctx, []string{stmt}, [][]any{args}, false)
}

// UpdateBatch runs stmts in order, binding argsPerStmt[i] to stmts[i], and returns
// the total number of affected rows.
//
// A nil argsPerStmt runs every statement without arguments; otherwise it must have
// one entry per statement. With useTransaction, either every statement commits or
// none does.
func (db *Database) UpdateBatch(ctx context.Context, stmts []string, argsPerStmt [][]any, useTransaction bool) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if argsPerStmt != nil && len(argsPerStmt) != len(stmts) {
		return 0, errs.Configurationf("update", errs.ErrBatchLength,
			"%d statements but %d argument lists", len(stmts), len(argsPerStmt))
	}

	writer, err := db.writerLocked(ctx, "update")
	if err != nil {
		return 0, err
	}

	if !useTransaction {
		return db.execBatch(ctx, writer, stmts, argsPerStmt)
	}

	tx, err := writer.Begin(ctx)
	if err != nil {
		return 0, err
	}

	total, err := db.execBatch(ctx, tx, stmts, argsPerStmt)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return 0, errors.Wrapf(err, "rollback failed: %v", rbErr)
		}

		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return total, nil
}

// Dump writes an ASCII rendering of the bookkeeping table and every other table
// in the database to w. A positive limit caps the rows shown per table.
func (db *Database) Dump(ctx context.Context, w io.Writer, limit int) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	reader, err := db.readerLocked(ctx, "dump")
	if err != nil {
		return err
	}

	names, err := reader.TableNames(ctx)
	if err != nil {
		return err
	}

	names = slices.DeleteFunc(names, func(name string) bool {
		return name == db.versions.Name()
	})

	return format.DumpTables(ctx, w, reader, db.versions.Name(), names, limit)
}

// Close releases the store connections and clears the prepared state. The handle
// may be prepared again afterwards.
func (db *Database) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.prepared = false
	if db.helper == nil {
		return nil
	}

	err := db.helper.Close()
	db.helper = nil
	return err
}

type updater interface {
	ExecUpdate(ctx context.Context, stmt string, args ...any) (int64, error)
}

func (db *Database) execBatch(ctx context.Context, u updater, stmts []string, argsPerStmt [][]any) (int64, error) {
	var total int64
	for i, stmt := range stmts {
		var args []any
		if argsPerStmt != nil {
			args = argsPerStmt[i]
		}

		n, err := u.ExecUpdate(ctx, stmt, args...)
		db.metrics.ObserveStatement("update", err)
		if err != nil {
			return 0, err
		}

		total += n
	}

	return total, nil
}

func (db *Database) helperLocked() store.Helper {
	if db.helper == nil {
		db.helper = db.factory(db.name)
	}

	return db.helper
}

func (db *Database) readerLocked(ctx context.Context, op string) (*store.Store, error) {
	if !db.prepared {
		return nil, db.notPrepared(op)
	}

	return db.helperLocked().Reader(ctx)
}

func (db *Database) writerLocked(ctx context.Context, op string) (*store.Store, error) {
	if !db.prepared {
		return nil, db.notPrepared(op)
	}

	return db.helperLocked().Writer(ctx)
}

func (db *Database) notPrepared(op string) error {
	return errs.Configurationf(op, errs.ErrNotPrepared, "database %s", db.name)
}
