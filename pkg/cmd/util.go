package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/pseudomuto/squeaky/pkg/config"
	"github.com/pseudomuto/squeaky/pkg/database"
	"github.com/pseudomuto/squeaky/pkg/format"
	"github.com/pseudomuto/squeaky/pkg/metrics"
	"github.com/pseudomuto/squeaky/pkg/migrator"
	"github.com/pseudomuto/squeaky/pkg/store"
	"github.com/pseudomuto/squeaky/pkg/table"
	"github.com/pseudomuto/squeaky/pkg/versions"
)

// openDatabase creates the database handle described by cfg with every declared
// table registered.
func openDatabase(cfg *config.Config, logger *slog.Logger, collector *metrics.Collector) (*database.Database, error) {
	tables, err := cfg.BuildTables()
	if err != nil {
		return nil, err
	}

	opts := []database.Option{
		database.WithVersionsTable(cfg.Database.VersionsTable),
		database.WithHelperFactory(store.SQLiteFactory(cfg.SQLite())),
		database.WithLogger(logger),
		database.WithMetrics(collector),
	}

	if cfg.Database.Transactional {
		opts = append(opts, database.WithTransactionalMigrations())
	}

	db := database.New(cfg.Database.Path, opts...)
	for _, t := range tables {
		db.AddTable(t)
	}

	return db, nil
}

// newMigrator creates a migrator over db for planning and status reports.
func newMigrator(cfg *config.Config, db *store.Store, logger *slog.Logger) *migrator.Migrator {
	return migrator.New(migrator.Config{
		DB:       db,
		Versions: versions.New(cfg.Database.VersionsTable),
		Logger:   logger,
	})
}

// openReader opens the configured database for inspection without creating it. A
// missing file is read as an empty in-memory database.
func openReader(ctx context.Context, cfg *config.Config) (*store.SQLiteHelper, *store.Store, error) {
	sqlite := cfg.SQLite()
	exists, err := sqlite.Exists()
	if err != nil {
		return nil, nil, err
	}

	if !exists {
		sqlite = store.SQLiteConfig{}
	}

	helper := store.NewSQLiteHelper(sqlite)
	reader, err := helper.Reader(ctx)
	if err != nil {
		_ = helper.Close()
		return nil, nil, err
	}

	return helper, reader, nil
}

// writeResults renders migration results as a table.
func writeResults(w io.Writer, title string, results []*migrator.Result) error {
	values := make([][]any, 0, len(results))
	for _, r := range results {
		values = append(values, []any{
			r.Table,
			string(r.Status),
			versionLabel(r.FromVersion),
			versionLabel(r.ToVersion),
			int64(r.Steps),
			int64(r.StatementsApplied),
		})
	}

	rows := store.NewRows([]string{"table", "status", "from", "to", "steps", "statements"}, values...)
	if err := format.Table(w, title, rows); err != nil {
		return err
	}

	for _, r := range results {
		if r.Error != nil {
			fmt.Fprintf(w, "%s: %v\n", r.Table, r.Error)
		}
	}

	return nil
}

func versionLabel(version int) string {
	switch version {
	case 0:
		return "-"
	case table.Drop:
		return "drop"
	default:
		return strconv.Itoa(version)
	}
}
