// Package metrics exposes Prometheus instrumentation for squeaky.
//
// A Collector is handed to a database handle with database.WithMetrics; the handle
// and its migration engine then record:
//
//   - squeaky_prepares_total{database,status} and
//     squeaky_prepare_duration_seconds{database} per prepare run
//   - squeaky_table_migrations_total{table,status} per reconciled table, with the
//     engine's result status (created, upgraded, downgraded, unchanged, dropped,
//     failed)
//   - squeaky_migration_steps_total{table,direction} per applied step
//   - squeaky_statements_total{operation,status} per query, insert and update
//
// Serve the metrics with Handler:
//
//	collector := metrics.New("")
//	db := database.New("app.db", database.WithMetrics(collector))
//	http.Handle("/metrics", collector.Handler())
package metrics
