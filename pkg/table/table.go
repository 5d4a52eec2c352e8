package table

import (
	"maps"
	"slices"

	"github.com/pseudomuto/squeaky/pkg/errs"
)

// Drop is the target version of a table that should no longer exist.
const Drop = -1

type (
	// Table describes one versioned table.
	Table interface {
		// Name is the unique, stable name of the table.
		Name() string

		// Version is the desired version: a positive integer or Drop.
		Version() int

		// CreateStatements returns the statements creating the table from scratch at
		// Version.
		CreateStatements() []string

		// Migration returns the statements that bring the table to version next from
		// next-1. A nil result means the descriptor can't produce next.
		Migration(next int) []string
	}

	// Downgrader is implemented by tables that supply dedicated statements for
	// moving to an older version. Without it the engine asks Migration for the
	// lower version number.
	Downgrader interface {
		// Downgrade returns the statements that bring the table to version next from
		// next+1. A nil result means the descriptor can't produce next.
		Downgrade(next int) []string
	}

	// Definition is a Table (and Downgrader) built from literal statements.
	Definition struct {
		name    string
		version int
		create  []string
		up      map[int][]string
		down    map[int][]string
	}
)

// New creates a Definition of the table name at version, created by stmts.
func New(name string, version int, stmts ...string) *Definition {
	return &Definition{
		name:    name,
		version: version,
		create:  stmts,
		up:      make(map[int][]string),
		down:    make(map[int][]string),
	}
}

// Dropped creates a Definition declaring that the table name should be removed.
func Dropped(name string) *Definition {
	return New(name, Drop)
}

// Step registers the statements migrating the table to version. Registering a step
// with no statements declares an intentional no-op step.
func (d *Definition) Step(version int, stmts ...string) *Definition {
	d.up[version] = append([]string{}, stmts...)
	return d
}

// DownStep registers the statements migrating the table down to version.
func (d *Definition) DownStep(version int, stmts ...string) *Definition {
	d.down[version] = append([]string{}, stmts...)
	return d
}

func (d *Definition) Name() string { return d.name }

func (d *Definition) Version() int { return d.version }

func (d *Definition) CreateStatements() []string { return slices.Clone(d.create) }

func (d *Definition) Migration(next int) []string {
	return cloneStep(d.up, next)
}

func (d *Definition) Downgrade(next int) []string {
	return cloneStep(d.down, next)
}

// Steps returns the versions with registered upgrade steps, in ascending order.
func (d *Definition) Steps() []int {
	return slices.Sorted(maps.Keys(d.up))
}

// Validate checks that t has a name and a reachable target version.
func Validate(t Table) error {
	if t.Name() == "" {
		return errs.Configurationf("validate", errs.ErrInvalidTable, "table name must not be empty")
	}

	if v := t.Version(); v < 1 && v != Drop {
		return errs.Configurationf("validate", errs.ErrInvalidTable,
			"table %s has invalid version %d", t.Name(), v)
	}

	return nil
}

func cloneStep(steps map[int][]string, version int) []string {
	stmts, ok := steps[version]
	if !ok {
		return nil
	}

	// Keep empty steps distinguishable from missing ones
	return append([]string{}, stmts...)
}
