package database_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/pseudomuto/squeaky/pkg/binder"
	"github.com/pseudomuto/squeaky/pkg/database"
	"github.com/pseudomuto/squeaky/pkg/errs"
	"github.com/pseudomuto/squeaky/pkg/metrics"
	"github.com/pseudomuto/squeaky/pkg/migrator"
	"github.com/pseudomuto/squeaky/pkg/store"
	"github.com/pseudomuto/squeaky/pkg/table"
	"github.com/stretchr/testify/require"
)

// countingTable counts how often its create statements are requested
type countingTable struct {
	*table.Definition
	creates int
}

func (c *countingTable) CreateStatements() []string {
	c.creates++
	return c.Definition.CreateStatements()
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newDatabase(t *testing.T, path string, opts ...database.Option) *database.Database {
	t.Helper()

	db := database.New(path, append([]database.Option{database.WithLogger(quiet)}, opts...)...)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tempPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "app.db")
}

func queryInt(t *testing.T, db *database.Database, stmt string, args ...any) int64 {
	t.Helper()

	rows, err := db.Query(context.Background(), stmt, args...)
	require.NoError(t, err)
	require.True(t, rows.Next())

	n, err := rows.Int64(0)
	require.NoError(t, err)
	return n
}

func TestDatabase_PrepareCreatesRecords(t *testing.T) {
	ctx := context.Background()
	db := newDatabase(t, tempPath(t))

	db.AddTable(table.New("users", 2, "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)"))
	db.AddTable(table.New("posts", 1, "CREATE TABLE posts (id INTEGER PRIMARY KEY)"))

	require.False(t, db.IsPrepared())
	require.NoError(t, db.Prepare(ctx))
	require.True(t, db.IsPrepared())

	rows, err := db.Query(ctx, "SELECT table_name, version FROM versions ORDER BY table_name")
	require.NoError(t, err)
	require.Equal(t, 2, rows.Count())

	var (
		name    string
		version int
	)

	require.True(t, rows.Next())
	require.NoError(t, rows.Scan(&name, &version))
	require.Equal(t, "posts", name)
	require.Equal(t, 1, version)

	require.True(t, rows.Next())
	require.NoError(t, rows.Scan(&name, &version))
	require.Equal(t, "users", name)
	require.Equal(t, 2, version)

	results := db.Results()
	require.Len(t, results, 2)
	require.Equal(t, migrator.StatusCreated, results[0].Status)
	require.Equal(t, migrator.StatusCreated, results[1].Status)
}

func TestDatabase_PrepareTwice(t *testing.T) {
	ctx := context.Background()
	db := newDatabase(t, tempPath(t))

	users := &countingTable{Definition: table.New("users", 1, "CREATE TABLE users (id INTEGER PRIMARY KEY)")}
	db.AddTable(users)

	require.NoError(t, db.Prepare(ctx))

	err := db.Prepare(ctx)
	require.Error(t, err)
	require.True(t, errs.IsConfiguration(err))
	require.ErrorIs(t, err, errs.ErrAlreadyPrepared)
	require.Equal(t, 1, users.creates)
	require.True(t, db.IsPrepared())
}

func TestDatabase_CloseAllowsPrepareAgain(t *testing.T) {
	ctx := context.Background()
	db := newDatabase(t, tempPath(t))
	db.AddTable(table.New("users", 1, "CREATE TABLE users (id INTEGER PRIMARY KEY)"))

	require.NoError(t, db.Prepare(ctx))
	require.NoError(t, db.Close())
	require.False(t, db.IsPrepared())

	_, err := db.Query(ctx, "SELECT * FROM users")
	require.ErrorIs(t, err, errs.ErrNotPrepared)

	require.NoError(t, db.Prepare(ctx))
	require.Equal(t, migrator.StatusUnchanged, db.Results()[0].Status)
}

func TestDatabase_NotPrepared(t *testing.T) {
	ctx := context.Background()
	db := newDatabase(t, tempPath(t))

	_, err := db.Query(ctx, "SELECT 1")
	require.True(t, errs.IsConfiguration(err))
	require.ErrorIs(t, err, errs.ErrNotPrepared)
	require.Contains(t, err.Error(), "not prepared yet")

	_, err = db.Insert(ctx, "INSERT INTO users VALUES (1)")
	require.ErrorIs(t, err, errs.ErrNotPrepared)

	_, err = db.Update(ctx, "DELETE FROM users")
	require.ErrorIs(t, err, errs.ErrNotPrepared)

	require.ErrorIs(t, db.Dump(ctx, io.Discard, 0), errs.ErrNotPrepared)
}

func TestDatabase_AddTableFirstWins(t *testing.T) {
	db := newDatabase(t, tempPath(t))

	first := table.New("users", 1, "CREATE TABLE users (id INTEGER PRIMARY KEY)")
	db.AddTable(first)
	db.AddTable(table.New("users", 5, "CREATE TABLE users (id TEXT)"))
	db.AddTable(table.New("posts", 1, "CREATE TABLE posts (id INTEGER PRIMARY KEY)"))

	tables := db.Tables()
	require.Len(t, tables, 2)
	require.Same(t, first, tables[0])
	require.Equal(t, "posts", tables[1].Name())
}

func TestDatabase_TypeAffinity(t *testing.T) {
	ctx := context.Background()
	db := newDatabase(t, tempPath(t))
	db.AddTable(table.New("test", 1, "CREATE TABLE test (a INTEGER, b REAL, c TEXT, d NUMERIC)"))
	require.NoError(t, db.Prepare(ctx))

	_, err := db.Insert(ctx, "INSERT INTO test (a, b, c, d) VALUES (1, 1.0, '1', 1)")
	require.NoError(t, err)

	tests := []struct {
		name  string
		value any
		text  bool
	}{
		{name: "integer", value: 2, text: true},
		{name: "character", value: binder.Char('2'), text: true},
		{name: "text", value: "2", text: true},
		{name: "float", value: 2.0, text: false},
		{name: "float text", value: "2.0", text: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := db.Insert(ctx, "INSERT INTO test (a, b, c, d) VALUES (?, ?, ?, ?)",
				tt.value, tt.value, tt.value, tt.value)
			require.NoError(t, err)

			rows, err := db.Query(ctx, "SELECT a = 2, b = 2, c = '2', d = 2 FROM test WHERE rowid = ?", id)
			require.NoError(t, err)
			require.True(t, rows.Next())

			var a, b, c, d bool
			require.NoError(t, rows.Scan(&a, &b, &c, &d))
			require.True(t, a, "INTEGER column")
			require.True(t, b, "REAL column")
			require.Equal(t, tt.text, c, "TEXT column")
			require.True(t, d, "NUMERIC column")
		})
	}

	// Text bound values never match the seeded REAL in a TEXT column
	require.Equal(t, int64(1), queryInt(t, db, "SELECT COUNT(*) FROM test WHERE c = ?", "1"))
	require.Equal(t, int64(0), queryInt(t, db, "SELECT COUNT(*) FROM test WHERE c = ?", "1.0"))
}

func TestDatabase_InsertAndUpdate(t *testing.T) {
	ctx := context.Background()
	db := newDatabase(t, tempPath(t))
	db.AddTable(table.New("users", 1, "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT UNIQUE)"))
	require.NoError(t, db.Prepare(ctx))

	id, err := db.Insert(ctx, "INSERT INTO users (name) VALUES (?)", "alice")
	require.NoError(t, err)
	require.Equal(t, int64(1), id)

	id, err = db.Insert(ctx, "INSERT INTO users (name) VALUES (?)", "bob")
	require.NoError(t, err)
	require.Equal(t, int64(2), id)

	n, err := db.Update(ctx, "UPDATE users SET name = name || ?", "!")
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	_, err = db.Insert(ctx, "INSERT INTO users (name) VALUES (?)", "bob!")
	require.True(t, errs.IsStore(err))
	require.True(t, errs.IsConstraint(err))

	_, err = db.Update(ctx, "UPDATE users SET name = ? WHERE id = ?", "carol")
	require.True(t, errs.IsConfiguration(err))
	require.ErrorIs(t, err, errs.ErrArgumentCount)
}

func TestDatabase_UpdateBatch(t *testing.T) {
	ctx := context.Background()
	db := newDatabase(t, tempPath(t))
	db.AddTable(table.New("users", 1, "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT UNIQUE)"))
	require.NoError(t, db.Prepare(ctx))

	count := func() int64 { return queryInt(t, db, "SELECT COUNT(*) FROM users") }

	t.Run("length mismatch", func(t *testing.T) {
		_, err := db.UpdateBatch(ctx, []string{"DELETE FROM users", "DELETE FROM users"}, [][]any{nil}, false)
		require.True(t, errs.IsConfiguration(err))
		require.ErrorIs(t, err, errs.ErrBatchLength)
	})

	t.Run("nil arguments", func(t *testing.T) {
		n, err := db.UpdateBatch(ctx, []string{
			"INSERT INTO users (name) VALUES ('a')",
			"INSERT INTO users (name) VALUES ('b')",
		}, nil, false)
		require.NoError(t, err)
		require.Equal(t, int64(2), n)
		require.Equal(t, int64(2), count())
	})

	t.Run("transaction commits", func(t *testing.T) {
		n, err := db.UpdateBatch(ctx,
			[]string{"INSERT INTO users (name) VALUES (?)", "UPDATE users SET name = ? WHERE name = ?"},
			[][]any{{"c"}, {"z", "a"}},
			true,
		)
		require.NoError(t, err)
		require.Equal(t, int64(2), n)
		require.Equal(t, int64(3), count())
	})

	t.Run("transaction rolls back", func(t *testing.T) {
		_, err := db.UpdateBatch(ctx,
			[]string{"INSERT INTO users (name) VALUES (?)", "INSERT INTO users (name) VALUES (?)"},
			[][]any{{"d"}, {"b"}},
			true,
		)
		require.True(t, errs.IsConstraint(err))
		require.Equal(t, int64(3), count())
	})

	t.Run("without transaction keeps earlier statements", func(t *testing.T) {
		_, err := db.UpdateBatch(ctx,
			[]string{"INSERT INTO users (name) VALUES (?)", "INSERT INTO users (name) VALUES (?)"},
			[][]any{{"e"}, {"b"}},
			false,
		)
		require.True(t, errs.IsConstraint(err))
		require.Equal(t, int64(4), count())
	})
}

func TestDatabase_Drop(t *testing.T) {
	ctx := context.Background()
	path := tempPath(t)

	first := newDatabase(t, path)
	first.AddTable(table.New("test_table_to_drop", 1, "CREATE TABLE test_table_to_drop (a TEXT)"))
	require.NoError(t, first.Prepare(ctx))
	require.NoError(t, first.Close())

	second := newDatabase(t, path)
	second.AddTable(table.Dropped("test_table_to_drop"))
	require.NoError(t, second.Prepare(ctx))
	require.Equal(t, migrator.StatusDropped, second.Results()[0].Status)

	require.Equal(t, int64(0), queryInt(t, second, "SELECT COUNT(*) FROM versions"))

	_, err := second.Query(ctx, "SELECT * FROM test_table_to_drop")
	require.True(t, errs.IsStore(err))
	require.Contains(t, err.Error(), "no such table")
}

func TestDatabase_EndToEndUpgrade(t *testing.T) {
	ctx := context.Background()
	path := tempPath(t)

	first := newDatabase(t, path)
	first.AddTable(table.New("a", 1, "CREATE TABLE a (id INTEGER PRIMARY KEY)"))
	require.NoError(t, first.Prepare(ctx))
	_, err := first.Insert(ctx, "INSERT INTO a (id) VALUES (?)", 42)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := newDatabase(t, path)
	second.AddTable(table.New("a", 2, "CREATE TABLE a (id INTEGER PRIMARY KEY, name TEXT)").
		Step(2, "ALTER TABLE a ADD COLUMN name TEXT"))
	require.NoError(t, second.Prepare(ctx))

	rows, err := second.Query(ctx, "PRAGMA table_info(a)")
	require.NoError(t, err)

	var names []string
	col := rows.ColumnIndex("name")
	for rows.Next() {
		name, err := rows.String(col)
		require.NoError(t, err)
		names = append(names, name)
	}

	require.Equal(t, []string{"id", "name"}, names)
	require.Equal(t, int64(2), queryInt(t, second, "SELECT version FROM versions WHERE table_name = ?", "a"))
	require.Equal(t, int64(42), queryInt(t, second, "SELECT id FROM a"))
}

func TestDatabase_PrepareFailure(t *testing.T) {
	ctx := context.Background()
	collector := metrics.New("")
	db := newDatabase(t, tempPath(t), database.WithMetrics(collector))

	db.AddTable(table.New("good", 1, "CREATE TABLE good (a TEXT)"))
	db.AddTable(table.New("bad", 1, "CREATE TABLE bad ("))

	err := db.Prepare(ctx)
	require.True(t, errs.IsStore(err))
	require.False(t, db.IsPrepared())

	results := db.Results()
	require.Len(t, results, 2)
	require.Equal(t, migrator.StatusCreated, results[0].Status)
	require.Equal(t, migrator.StatusFailed, results[1].Status)

	require.InDelta(t, 1, testutil.ToFloat64(collector.Prepares.WithLabelValues(db.Name(), "failure")), 0)
}

func TestDatabase_Options(t *testing.T) {
	ctx := context.Background()
	collector := metrics.New("")

	db := newDatabase(t, ":memory:",
		database.WithVersionsTable("schema_versions"),
		database.WithHelperFactory(store.SQLiteFactory(store.SQLiteConfig{})),
		database.WithMetrics(collector),
		database.WithTransactionalMigrations(),
	)
	require.Equal(t, ":memory:", db.Name())
	require.Equal(t, "schema_versions", db.VersionsTable())

	db.AddTable(table.New("users", 1, "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)"))
	require.NoError(t, db.Prepare(ctx))

	// The reader of an in-memory database sees the writer's data
	_, err := db.Insert(ctx, "INSERT INTO users (name) VALUES (?)", "alice")
	require.NoError(t, err)
	require.Equal(t, int64(1), queryInt(t, db, "SELECT COUNT(*) FROM users"))
	require.Equal(t, int64(1), queryInt(t, db, "SELECT version FROM schema_versions WHERE table_name = ?", "users"))

	require.InDelta(t, 1, testutil.ToFloat64(collector.Prepares.WithLabelValues(":memory:", "success")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(collector.Statements.WithLabelValues("insert", "success")), 0)
	require.InDelta(t, 2, testutil.ToFloat64(collector.Statements.WithLabelValues("query", "success")), 0)
}

func TestDatabase_Dump(t *testing.T) {
	ctx := context.Background()
	db := newDatabase(t, tempPath(t))
	db.AddTable(table.New("users", 1, "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)"))
	require.NoError(t, db.Prepare(ctx))

	_, err := db.Insert(ctx, "INSERT INTO users (name) VALUES (?)", "alice")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, db.Dump(ctx, &buf, 0))
	require.Contains(t, buf.String(), "| table_name | version |")
	require.Contains(t, buf.String(), "|      users |       1 |")
	require.Contains(t, buf.String(), "|  1 | alice |")
}
