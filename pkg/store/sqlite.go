package store

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/squeaky/pkg/consts"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

type (
	// Helper opens and owns the stores backing one database.
	Helper interface {
		// Writer returns the store used for schema changes and writes, opening it on
		// first use.
		Writer(ctx context.Context) (*Store, error)

		// Reader returns the store used for queries, opening it on first use. Reads
		// through it observe every write committed through Writer.
		Reader(ctx context.Context) (*Store, error)

		// Close closes any open stores. A closed helper may be opened again.
		Close() error
	}

	// HelperFactory creates the Helper for the database called name.
	HelperFactory func(name string) Helper

	// SQLiteConfig holds the connection settings applied to every SQLite connection.
	SQLiteConfig struct {
		// Path is the database file, or ":memory:" (or "") for a private in-memory
		// database.
		Path string

		// BusyTimeout sets how long to wait for database locks
		BusyTimeout time.Duration

		// JournalMode sets the SQLite journal mode (WAL, DELETE, TRUNCATE, etc.)
		JournalMode string

		// Synchronous sets the synchronous mode (FULL, NORMAL, OFF)
		Synchronous string

		// ForeignKeys enables foreign key constraint checking
		ForeignKeys bool

		// CacheSize sets the page cache size in KB (negative) or pages (positive)
		CacheSize int
	}

	// SQLiteHelper is the modernc.org/sqlite Helper.
	SQLiteHelper struct {
		config SQLiteConfig

		mu     sync.Mutex
		writer *Store
		reader *Store
	}
)

// DefaultSQLiteConfig returns the default settings for the database at path.
func DefaultSQLiteConfig(path string) SQLiteConfig {
	return SQLiteConfig{
		Path:        path,
		BusyTimeout: consts.DefaultBusyTimeout,
		JournalMode: consts.DefaultJournalMode,
		Synchronous: consts.DefaultSynchronous,
		ForeignKeys: true,
	}
}

// SQLiteFactory returns a HelperFactory opening the database named by its argument
// with the remaining settings taken from base.
func SQLiteFactory(base SQLiteConfig) HelperFactory {
	return func(name string) Helper {
		cfg := base
		cfg.Path = name
		return NewSQLiteHelper(cfg)
	}
}

// SQLite is the default HelperFactory: it opens the file name with
// DefaultSQLiteConfig.
func SQLite(name string) Helper {
	return NewSQLiteHelper(DefaultSQLiteConfig(name))
}

// NewSQLiteHelper creates a helper for cfg. Nothing is opened until Writer or
// Reader is called.
func NewSQLiteHelper(cfg SQLiteConfig) *SQLiteHelper {
	return &SQLiteHelper{config: cfg}
}

// InMemory reports whether the configuration names an in-memory database.
func (c SQLiteConfig) InMemory() bool {
	return c.Path == "" || c.Path == ":memory:" || strings.Contains(c.Path, "mode=memory")
}

// Exists reports whether the database file is present. In-memory databases always
// exist.
func (c SQLiteConfig) Exists() (bool, error) {
	if c.InMemory() {
		return true, nil
	}

	path := strings.TrimPrefix(c.Path, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}

		return false, errors.Wrapf(err, "failed to stat %s", path)
	}

	return true, nil
}

// DSN builds the modernc.org/sqlite data source name, carrying the settings as
// _pragma parameters so they apply to every pooled connection.
func (c SQLiteConfig) DSN(readOnly bool) string {
	path := c.Path
	if path == "" {
		path = ":memory:"
	}

	pragmas := []string{}
	if c.BusyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout.Milliseconds()))
	}

	// Journal mode is a property of the file; only the writer sets it
	if !readOnly && !c.InMemory() && c.JournalMode != "" {
		pragmas = append(pragmas, fmt.Sprintf("journal_mode(%s)", c.JournalMode))
	}

	if c.Synchronous != "" {
		pragmas = append(pragmas, fmt.Sprintf("synchronous(%s)", c.Synchronous))
	}

	if c.ForeignKeys {
		pragmas = append(pragmas, "foreign_keys(1)")
	}

	if c.CacheSize != 0 {
		pragmas = append(pragmas, fmt.Sprintf("cache_size(%d)", c.CacheSize))
	}

	if readOnly {
		pragmas = append(pragmas, "query_only(1)")
	}

	if len(pragmas) == 0 {
		return path
	}

	q := url.Values{"_pragma": pragmas}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	return path + sep + q.Encode()
}

// Config returns the helper's configuration.
func (h *SQLiteHelper) Config() SQLiteConfig { return h.config }

func (h *SQLiteHelper) Writer(ctx context.Context) (*Store, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.writerLocked(ctx)
}

func (h *SQLiteHelper) Reader(ctx context.Context) (*Store, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Every connection to :memory: is its own database
	if h.config.InMemory() {
		return h.writerLocked(ctx)
	}

	if h.reader != nil {
		return h.reader, nil
	}

	db, err := h.open(ctx, h.config.DSN(true))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open reader")
	}

	h.reader = New(db)
	return h.reader, nil
}

func (h *SQLiteHelper) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var firstErr error
	for _, s := range []*Store{h.reader, h.writer} {
		if s == nil {
			continue
		}

		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	h.reader = nil
	h.writer = nil
	return firstErr
}

func (h *SQLiteHelper) writerLocked(ctx context.Context) (*Store, error) {
	if h.writer != nil {
		return h.writer, nil
	}

	if !h.config.InMemory() {
		if dir := filepath.Dir(h.config.Path); dir != "." {
			if err := os.MkdirAll(dir, consts.ModeDir); err != nil {
				return nil, errors.Wrapf(err, "failed to create database directory %s", dir)
			}
		}
	}

	db, err := h.open(ctx, h.config.DSN(false))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open writer")
	}

	// SQLite serializes writers; one connection also keeps :memory: alive and shared
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	h.writer = New(db)
	return h.writer, nil
}

func (h *SQLiteHelper) open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open SQLite database %s", h.config.Path)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, storeError("ping", "", err)
	}

	return db, nil
}
