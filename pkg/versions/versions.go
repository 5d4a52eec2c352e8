package versions

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/pkg/errors"
	"github.com/pseudomuto/squeaky/pkg/consts"
	"github.com/pseudomuto/squeaky/pkg/store"
	"github.com/pseudomuto/squeaky/pkg/utils"
)

type (
	// Conn is the subset of the store used to read and write records. It is
	// satisfied by *store.Store and *store.Tx.
	Conn interface {
		ExecUpdate(ctx context.Context, stmt string, args ...any) (int64, error)
		Query(ctx context.Context, stmt string, args ...any) (*store.Rows, error)
	}

	// Table is the bookkeeping table descriptor.
	Table struct {
		name string
	}

	// Record is the applied version of one table.
	Record struct {
		// Table is the name of the registered table
		Table string

		// Version is the version the table is currently at
		Version int
	}

	// Set holds the records loaded from the bookkeeping table.
	Set struct {
		records map[string]int
	}
)

// New creates the bookkeeping table descriptor called name. An empty name selects
// consts.DefaultVersionsTable.
func New(name string) *Table {
	if name == "" {
		name = consts.DefaultVersionsTable
	}

	return &Table{name: name}
}

func (t *Table) Name() string { return t.name }

// Version is always 1; the bookkeeping schema never changes.
func (t *Table) Version() int { return 1 }

func (t *Table) CreateStatements() []string {
	return []string{
		fmt.Sprintf("CREATE TABLE %s (table_name TEXT NOT NULL UNIQUE, version INTEGER NOT NULL)", t.quoted()),
	}
}

// Migration always returns nil.
func (t *Table) Migration(int) []string { return nil }

// Load reads every record.
func (t *Table) Load(ctx context.Context, c Conn) (*Set, error) {
	rows, err := c.Query(ctx, fmt.Sprintf("SELECT table_name, version FROM %s", t.quoted()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load table versions")
	}

	records := make([]Record, 0, rows.Count())
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Table, &rec.Version); err != nil {
			return nil, errors.Wrap(err, "failed to scan version row")
		}

		records = append(records, rec)
	}

	return NewSet(records...), nil
}

// Insert records name at version.
func (t *Table) Insert(ctx context.Context, c Conn, name string, version int) error {
	_, err := c.ExecUpdate(ctx,
		fmt.Sprintf("INSERT INTO %s (table_name, version) VALUES (?, ?)", t.quoted()),
		name, version,
	)
	return err
}

// Update moves the record of name to version.
func (t *Table) Update(ctx context.Context, c Conn, name string, version int) error {
	n, err := c.ExecUpdate(ctx,
		fmt.Sprintf("UPDATE %s SET version = ? WHERE table_name = ?", t.quoted()),
		version, name,
	)
	if err != nil {
		return err
	}

	if n == 0 {
		return errors.Errorf("no version record for table %s", name)
	}

	return nil
}

// Delete removes the record of name.
func (t *Table) Delete(ctx context.Context, c Conn, name string) error {
	_, err := c.ExecUpdate(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE table_name = ?", t.quoted()),
		name,
	)
	return err
}

func (t *Table) quoted() string {
	return utils.QuoteIdentifier(t.name)
}

// NewSet creates a Set from records. Later records for the same table win.
func NewSet(records ...Record) *Set {
	s := &Set{records: make(map[string]int, len(records))}
	for _, rec := range records {
		s.records[rec.Table] = rec.Version
	}

	return s
}

// Get returns the recorded version of name.
func (s *Set) Get(name string) (int, bool) {
	v, ok := s.records[name]
	return v, ok
}

// Len returns the number of records.
func (s *Set) Len() int { return len(s.records) }

// Records returns all records sorted by table name.
func (s *Set) Records() []Record {
	records := make([]Record, 0, len(s.records))
	for _, name := range slices.Sorted(maps.Keys(s.records)) {
		records = append(records, Record{Table: name, Version: s.records[name]})
	}

	return records
}
