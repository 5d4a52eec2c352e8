package versions_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pseudomuto/squeaky/pkg/errs"
	"github.com/pseudomuto/squeaky/pkg/store"
	"github.com/pseudomuto/squeaky/pkg/versions"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, vt *versions.Table) *store.Store {
	t.Helper()

	helper := store.SQLite(filepath.Join(t.TempDir(), "versions.db"))
	t.Cleanup(func() { _ = helper.Close() })

	db, err := helper.Writer(context.Background())
	require.NoError(t, err)

	for _, stmt := range vt.CreateStatements() {
		require.NoError(t, db.Exec(context.Background(), stmt))
	}

	return db
}

func TestTable_Descriptor(t *testing.T) {
	vt := versions.New("")
	require.Equal(t, "versions", vt.Name())
	require.Equal(t, 1, vt.Version())
	require.Nil(t, vt.Migration(2))
	require.Equal(t,
		[]string{`CREATE TABLE "versions" (table_name TEXT NOT NULL UNIQUE, version INTEGER NOT NULL)`},
		vt.CreateStatements(),
	)

	require.Equal(t, "schema_versions", versions.New("schema_versions").Name())
}

func TestTable_Records(t *testing.T) {
	ctx := context.Background()
	vt := versions.New("table versions")
	db := setup(t, vt)

	set, err := vt.Load(ctx, db)
	require.NoError(t, err)
	require.Zero(t, set.Len())

	require.NoError(t, vt.Insert(ctx, db, "users", 1))
	require.NoError(t, vt.Insert(ctx, db, "accounts", 3))
	require.NoError(t, vt.Update(ctx, db, "users", 2))

	set, err = vt.Load(ctx, db)
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())

	v, ok := set.Get("users")
	require.True(t, ok)
	require.Equal(t, 2, v)

	_, ok = set.Get("missing")
	require.False(t, ok)

	require.Equal(t, []versions.Record{
		{Table: "accounts", Version: 3},
		{Table: "users", Version: 2},
	}, set.Records())

	require.NoError(t, vt.Delete(ctx, db, "accounts"))
	set, err = vt.Load(ctx, db)
	require.NoError(t, err)
	require.Equal(t, []versions.Record{{Table: "users", Version: 2}}, set.Records())
}

func TestTable_UniqueTableNames(t *testing.T) {
	ctx := context.Background()
	vt := versions.New("")
	db := setup(t, vt)

	require.NoError(t, vt.Insert(ctx, db, "users", 1))
	err := vt.Insert(ctx, db, "users", 2)
	require.True(t, errs.IsConstraint(err))
}

func TestTable_UpdateMissing(t *testing.T) {
	ctx := context.Background()
	vt := versions.New("")
	db := setup(t, vt)

	err := vt.Update(ctx, db, "ghost", 2)
	require.ErrorContains(t, err, "no version record for table ghost")
}

func TestTable_LoadWithoutTable(t *testing.T) {
	ctx := context.Background()
	helper := store.SQLite(filepath.Join(t.TempDir(), "empty.db"))
	defer func() { _ = helper.Close() }()

	db, err := helper.Writer(ctx)
	require.NoError(t, err)

	_, err = versions.New("").Load(ctx, db)
	require.True(t, errs.IsStore(err))
	require.Contains(t, err.Error(), "no such table")
}

func TestNewSet(t *testing.T) {
	set := versions.NewSet(
		versions.Record{Table: "a", Version: 1},
		versions.Record{Table: "a", Version: 4},
	)

	v, ok := set.Get("a")
	require.True(t, ok)
	require.Equal(t, 4, v)
	require.Equal(t, 1, set.Len())
}
