// Package database provides the handle applications use to own a SQLite database.
//
// A Database registers table descriptors, reconciles them once with Prepare and
// then serves queries and writes. Queries go to the reader store; inserts and
// updates go to the writer store, and both observe the same committed data.
//
//	db := database.New("app.db",
//		database.WithLogger(logger),
//		database.WithMetrics(collector),
//	)
//	defer db.Close()
//
//	db.AddTable(users)
//	db.AddTable(table.Dropped("legacy"))
//
//	if err := db.Prepare(ctx); err != nil {
//		return err
//	}
//
//	rows, err := db.Query(ctx, "SELECT name FROM users WHERE id = ?", 1)
//
// Prepare may run once per open handle; a second call fails with
// errs.ErrAlreadyPrepared. Close releases the connections and allows the handle to
// be prepared again, picking up any tables registered in the meantime.
package database
