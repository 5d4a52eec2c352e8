// Package migrator reconciles versioned table descriptors against a SQLite
// database.
//
// The engine keeps one record per managed table in a bookkeeping table (see
// package versions) and, for every registered table, decides between four
// actions:
//
//   - create: no record exists, so the table's create statements run and the
//     record is inserted at the target version
//   - upgrade: the record is behind, so steps record+1 through target run in
//     order and the record is written once at the end
//   - downgrade: the record is ahead, so steps run in descending order using the
//     table's Downgrade statements when it implements table.Downgrader
//   - drop: the target is table.Drop, so the table and its record are removed
//
// # Failure Semantics
//
// Execution stops at the first failing table. Statements already applied stay
// applied and the failed table's record is left untouched, so the next run
// resumes from the recorded version. With Config.Transactional each table's
// statements and record write share a transaction and a failure rolls the whole
// table back.
//
// Every step between the recorded and the target version is resolved before any
// statement runs. A missing step fails with errs.ErrUnreachableVersion, wrapped in
// an *errs.ConfigurationError, without touching the database.
//
// # Usage Example
//
//	m := migrator.New(migrator.Config{
//		DB:      writer,
//		Logger:  logger,
//		Metrics: metrics.New("squeaky"),
//	})
//
//	// Preview the run
//	plan, err := m.Plan(ctx, tables)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, p := range plan {
//		fmt.Printf("%s: %s (%d steps)\n", p.Table, p.Status, p.Steps)
//	}
//
//	if _, err := m.Run(ctx, tables); err != nil {
//		log.Fatal(err)
//	}
package migrator
