package table_test

import (
	"testing"

	"github.com/pseudomuto/squeaky/pkg/errs"
	"github.com/pseudomuto/squeaky/pkg/table"
	"github.com/stretchr/testify/require"
)

func TestDefinition(t *testing.T) {
	users := table.New("users", 3, "CREATE TABLE users (id INTEGER, name TEXT, email TEXT, age INTEGER)").
		Step(2, "ALTER TABLE users ADD COLUMN email TEXT").
		Step(3, "ALTER TABLE users ADD COLUMN age INTEGER").
		DownStep(2, "ALTER TABLE users DROP COLUMN age")

	require.Equal(t, "users", users.Name())
	require.Equal(t, 3, users.Version())
	require.Equal(t, []string{"CREATE TABLE users (id INTEGER, name TEXT, email TEXT, age INTEGER)"}, users.CreateStatements())
	require.Equal(t, []string{"ALTER TABLE users ADD COLUMN email TEXT"}, users.Migration(2))
	require.Equal(t, []string{"ALTER TABLE users ADD COLUMN age INTEGER"}, users.Migration(3))
	require.Nil(t, users.Migration(4))
	require.Equal(t, []string{"ALTER TABLE users DROP COLUMN age"}, users.Downgrade(2))
	require.Nil(t, users.Downgrade(1))
	require.Equal(t, []int{2, 3}, users.Steps())

	var _ table.Downgrader = users
}

func TestDefinition_EmptyStep(t *testing.T) {
	d := table.New("t", 2, "CREATE TABLE t (a TEXT)").Step(2)

	step := d.Migration(2)
	require.NotNil(t, step)
	require.Empty(t, step)
}

func TestDefinition_ReturnsCopies(t *testing.T) {
	d := table.New("t", 2, "CREATE TABLE t (a TEXT)").Step(2, "ALTER TABLE t ADD COLUMN b TEXT")

	d.CreateStatements()[0] = "mutated"
	d.Migration(2)[0] = "mutated"

	require.Equal(t, "CREATE TABLE t (a TEXT)", d.CreateStatements()[0])
	require.Equal(t, "ALTER TABLE t ADD COLUMN b TEXT", d.Migration(2)[0])
}

func TestDropped(t *testing.T) {
	d := table.Dropped("legacy")
	require.Equal(t, "legacy", d.Name())
	require.Equal(t, table.Drop, d.Version())
	require.Empty(t, d.CreateStatements())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		table   table.Table
		wantErr bool
	}{
		{name: "valid", table: table.New("t", 1, "CREATE TABLE t (a TEXT)")},
		{name: "drop sentinel", table: table.Dropped("t")},
		{name: "empty name", table: table.New("", 1), wantErr: true},
		{name: "zero version", table: table.New("t", 0), wantErr: true},
		{name: "negative version", table: table.New("t", -2), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := table.Validate(tt.table)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			require.True(t, errs.IsConfiguration(err))
			require.ErrorIs(t, err, errs.ErrInvalidTable)
		})
	}
}
