package migrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/squeaky/pkg/errs"
	"github.com/pseudomuto/squeaky/pkg/metrics"
	"github.com/pseudomuto/squeaky/pkg/store"
	"github.com/pseudomuto/squeaky/pkg/table"
	"github.com/pseudomuto/squeaky/pkg/utils"
	"github.com/pseudomuto/squeaky/pkg/versions"
)

type (
	// Executor runs statements. It is satisfied by *store.Store and *store.Tx.
	Executor interface {
		Exec(ctx context.Context, stmt string) error
		ExecUpdate(ctx context.Context, stmt string, args ...any) (int64, error)
		Query(ctx context.Context, stmt string, args ...any) (*store.Rows, error)
	}

	// DB is the store the engine reconciles. It is satisfied by *store.Store.
	DB interface {
		Executor
		HasTable(ctx context.Context, name string) (bool, error)
		Begin(ctx context.Context) (*store.Tx, error)
	}

	// Migrator reconciles registered table descriptors against the versions
	// recorded in the bookkeeping table.
	//
	// Tables are processed in the order given. Each table is either created (no
	// record), upgraded one version at a time (record behind), downgraded (record
	// ahead), dropped (Drop sentinel) or left alone (record current). Execution
	// stops at the first failing table; everything applied before it stays applied.
	//
	// Example usage:
	//
	//	m := migrator.New(migrator.Config{
	//		DB:       writer,
	//		Versions: versions.New(""),
	//		Logger:   slog.Default(),
	//	})
	//
	//	results, err := m.Run(ctx, []table.Table{users, accounts})
	//	if err != nil {
	//		log.Fatal(err)
	//	}
	//
	//	for _, result := range results {
	//		fmt.Printf("%s: %s (v%d -> v%d)\n", result.Table, result.Status, result.FromVersion, result.ToVersion)
	//	}
	Migrator struct {
		db            DB
		versions      *versions.Table
		logger        *slog.Logger
		metrics       *metrics.Collector
		transactional bool
	}

	// Config contains configuration options for creating a new Migrator.
	Config struct {
		// DB is the writable store to reconcile
		DB DB

		// Versions is the bookkeeping table; defaults to versions.New("")
		Versions *versions.Table

		// Logger receives progress logs; defaults to slog.Default()
		Logger *slog.Logger

		// Metrics records table outcomes and steps when set
		Metrics *metrics.Collector

		// Transactional runs each table's statements and its record write in one
		// transaction
		Transactional bool
	}

	// Result describes the reconciliation of a single table.
	Result struct {
		// Table is the name of the table
		Table string

		// Status is the outcome
		Status Status

		// FromVersion is the recorded version before the run (0 when unrecorded)
		FromVersion int

		// ToVersion is the descriptor's target version
		ToVersion int

		// Steps is the number of single-version steps applied (or planned)
		Steps int

		// StatementsApplied counts the statements executed successfully
		StatementsApplied int

		// Error is set when Status is StatusFailed
		Error error

		// ExecutionTime records how long the table took to reconcile
		ExecutionTime time.Duration
	}

	// Status is the outcome of reconciling a table.
	Status string
)

const (
	// StatusCreated indicates the table was created and its record inserted
	StatusCreated Status = "created"

	// StatusUpgraded indicates one or more upgrade steps were applied
	StatusUpgraded Status = "upgraded"

	// StatusDowngraded indicates one or more downgrade steps were applied
	StatusDowngraded Status = "downgraded"

	// StatusDropped indicates the table and its record were removed
	StatusDropped Status = "dropped"

	// StatusUnchanged indicates there was nothing to do
	StatusUnchanged Status = "unchanged"

	// StatusFailed indicates reconciliation failed; see Result.Error
	StatusFailed Status = "failed"
)

// New creates a Migrator from config.
func New(config Config) *Migrator {
	m := &Migrator{
		db:            config.DB,
		versions:      config.Versions,
		logger:        config.Logger,
		metrics:       config.Metrics,
		transactional: config.Transactional,
	}

	if m.versions == nil {
		m.versions = versions.New("")
	}

	if m.logger == nil {
		m.logger = slog.Default()
	}

	return m
}

// Run brings every table to its declared version.
//
// The bookkeeping table is created first if it doesn't exist, then all records
// are loaded and each table is reconciled in order. A table sharing the
// bookkeeping table's name is skipped.
//
// On failure the results up to and including the failed table are returned
// together with the failure itself, unwrapped: a rejected statement surfaces as
// the *errs.StoreError the store produced. Statements already applied stay
// applied and the failed table's record is left untouched, so a later Run resumes
// from the recorded version.
func (m *Migrator) Run(ctx context.Context, tables []table.Table) ([]*Result, error) {
	if err := m.ensureBootstrap(ctx); err != nil {
		return nil, err
	}

	set, err := m.versions.Load(ctx, m.db)
	if err != nil {
		return nil, err
	}

	results := make([]*Result, 0, len(tables))
	for _, t := range tables {
		if t.Name() == m.versions.Name() {
			m.logger.Warn("Skipping table named like the versions table", "table", t.Name())
			continue
		}

		result := m.reconcile(ctx, t, set)
		results = append(results, result)
		m.metrics.ObserveTable(result.Table, string(result.Status))

		// Stop execution on first failure
		if result.Status == StatusFailed {
			return results, result.Error
		}
	}

	return results, nil
}

// Plan reports what Run would do without executing anything. The Steps field of
// each result holds the number of steps that would run.
func (m *Migrator) Plan(ctx context.Context, tables []table.Table) ([]*Result, error) {
	set, err := m.Versions(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*Result, 0, len(tables))
	for _, t := range tables {
		if t.Name() == m.versions.Name() {
			continue
		}

		current, recorded := set.Get(t.Name())
		result := &Result{
			Table:       t.Name(),
			FromVersion: current,
			ToVersion:   t.Version(),
		}

		if err := table.Validate(t); err != nil {
			result.Status = StatusFailed
			result.Error = err
			results = append(results, result)
			continue
		}

		result.Status = classify(t.Version(), current, recorded)
		switch result.Status {
		case StatusUpgraded:
			result.Steps = t.Version() - current
		case StatusDowngraded:
			result.Steps = current - t.Version()
		}

		results = append(results, result)
	}

	return results, nil
}

// Versions returns the recorded versions, or an empty set when the bookkeeping
// table doesn't exist yet.
func (m *Migrator) Versions(ctx context.Context) (*versions.Set, error) {
	bootstrapped, err := m.IsBootstrapped(ctx)
	if err != nil {
		return nil, err
	}

	if !bootstrapped {
		return versions.NewSet(), nil
	}

	return m.versions.Load(ctx, m.db)
}

// IsBootstrapped checks whether the bookkeeping table exists.
func (m *Migrator) IsBootstrapped(ctx context.Context) (bool, error) {
	ok, err := m.db.HasTable(ctx, m.versions.Name())
	if err != nil {
		return false, errors.Wrap(err, "failed to check for versions table")
	}

	return ok, nil
}

// ensureBootstrap creates the bookkeeping table if it doesn't exist.
func (m *Migrator) ensureBootstrap(ctx context.Context) error {
	bootstrapped, err := m.IsBootstrapped(ctx)
	if err != nil {
		return err
	}

	if bootstrapped {
		return nil
	}

	m.logger.Info("Creating versions table", "table", m.versions.Name())
	for _, stmt := range m.versions.CreateStatements() {
		if err := m.db.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}

func (m *Migrator) reconcile(ctx context.Context, t table.Table, set *versions.Set) *Result {
	startTime := time.Now()
	current, recorded := set.Get(t.Name())

	result := &Result{
		Table:       t.Name(),
		FromVersion: current,
		ToVersion:   t.Version(),
	}

	err := table.Validate(t)
	if err == nil {
		result.Status = classify(t.Version(), current, recorded)
		err = m.apply(ctx, t, result)
	}

	result.ExecutionTime = time.Since(startTime)
	if err != nil {
		m.logger.Error("Table migration failed", "table", t.Name(), "err", err)
		result.Status = StatusFailed
		result.Error = err
	}

	return result
}

func (m *Migrator) apply(ctx context.Context, t table.Table, result *Result) error {
	var run func(context.Context, Executor, table.Table, *Result) error

	switch result.Status {
	case StatusCreated:
		run = m.create
	case StatusUpgraded:
		run = m.upgrade
	case StatusDowngraded:
		run = m.downgrade
	case StatusDropped:
		run = m.drop
	default:
		m.logger.Debug("Table is up to date", "table", t.Name(), "version", result.FromVersion)
		return nil
	}

	if !m.transactional {
		return run(ctx, m.db, t, result)
	}

	tx, err := m.db.Begin(ctx)
	if err != nil {
		return err
	}

	if err := run(ctx, tx, t, result); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			m.logger.Error("Failed to roll back table migration", "table", t.Name(), "err", rbErr)
		}

		// Nothing of a rolled back table was applied
		result.StatementsApplied = 0
		result.Steps = 0
		return err
	}

	return tx.Commit()
}

func (m *Migrator) create(ctx context.Context, ex Executor, t table.Table, result *Result) error {
	m.logger.Info("Creating table", "table", t.Name(), "version", t.Version())

	if err := m.execAll(ctx, ex, t.Name(), t.CreateStatements(), result); err != nil {
		return err
	}

	return m.versions.Insert(ctx, ex, t.Name(), t.Version())
}

func (m *Migrator) upgrade(ctx context.Context, ex Executor, t table.Table, result *Result) error {
	steps, err := collectSteps(t, t.Migration, result.FromVersion+1, t.Version(), 1)
	if err != nil {
		return err
	}

	for i, stmts := range steps {
		next := result.FromVersion + 1 + i
		m.logger.Info("Upgrading table", "table", t.Name(), "from", next-1, "to", next)

		if err := m.execAll(ctx, ex, t.Name(), stmts, result); err != nil {
			return err
		}

		result.Steps++
		m.metrics.ObserveStep(t.Name(), "up")
	}

	// One write after all steps; a failure above leaves the record where it was
	return m.versions.Update(ctx, ex, t.Name(), t.Version())
}

func (m *Migrator) downgrade(ctx context.Context, ex Executor, t table.Table, result *Result) error {
	step := t.Migration
	if d, ok := t.(table.Downgrader); ok {
		step = d.Downgrade
	}

	steps, err := collectSteps(t, step, result.FromVersion-1, t.Version(), -1)
	if err != nil {
		return err
	}

	m.logger.Warn("Downgrading table", "table", t.Name(), "from", result.FromVersion, "to", t.Version())
	for i, stmts := range steps {
		next := result.FromVersion - 1 - i
		m.logger.Info("Downgrading table", "table", t.Name(), "from", next+1, "to", next)

		if err := m.execAll(ctx, ex, t.Name(), stmts, result); err != nil {
			return err
		}

		result.Steps++
		m.metrics.ObserveStep(t.Name(), "down")
	}

	return m.versions.Update(ctx, ex, t.Name(), t.Version())
}

func (m *Migrator) drop(ctx context.Context, ex Executor, t table.Table, result *Result) error {
	m.logger.Info("Dropping table", "table", t.Name(), "version", result.FromVersion)

	stmt := "DROP TABLE IF EXISTS " + utils.QuoteIdentifier(t.Name())
	if err := m.execAll(ctx, ex, t.Name(), []string{stmt}, result); err != nil {
		return err
	}

	return m.versions.Delete(ctx, ex, t.Name())
}

func (m *Migrator) execAll(ctx context.Context, ex Executor, name string, stmts []string, result *Result) error {
	for _, stmt := range stmts {
		m.logger.Debug("Executing statement", "table", name, "sql", stmt)

		if err := ex.Exec(ctx, stmt); err != nil {
			return err
		}

		result.StatementsApplied++
	}

	return nil
}

// collectSteps gathers every step between from and to (inclusive) before anything
// runs, so an unreachable version fails without applying partial steps.
func collectSteps(t table.Table, step func(int) []string, from, to, dir int) ([][]string, error) {
	var steps [][]string
	for next := from; dir*(to-next) >= 0; next += dir {
		stmts := step(next)
		if stmts == nil {
			return nil, errs.Configurationf("migrate", errs.ErrUnreachableVersion,
				"table %s has no migration to version %d", t.Name(), next)
		}

		steps = append(steps, stmts)
	}

	return steps, nil
}

func classify(target, current int, recorded bool) Status {
	switch {
	case target == table.Drop && recorded:
		return StatusDropped
	case target == table.Drop:
		return StatusUnchanged
	case !recorded:
		return StatusCreated
	case current < target:
		return StatusUpgraded
	case current > target:
		return StatusDowngraded
	default:
		return StatusUnchanged
	}
}
