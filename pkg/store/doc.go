// Package store provides the SQL capability set the migration engine and database
// handles are built on.
//
// The engine treats SQLite as an external collaborator exposed through a small
// surface:
//
//   - Exec runs a raw statement (DDL) without binding
//   - ExecUpdate runs a parameterized statement and returns the affected row count
//   - ExecInsert runs a parameterized statement and returns the new rowid
//   - Query runs a read query and returns a buffered Rows cursor
//   - Begin starts a transaction exposing the same surface plus Commit/Rollback
//   - TableNames and HasTable read sqlite_master
//
// Parameterized calls pass their arguments through binder.Bind, so argument
// classification and count checks are identical everywhere. Every error reported
// by the driver is returned as an *errs.StoreError carrying the statement and the
// SQLite result code.
//
// # Helpers
//
// A Helper lazily opens the writer and reader stores for one database and closes
// them again. SQLiteHelper is the modernc.org/sqlite implementation:
//
//	helper := store.NewSQLiteHelper(store.DefaultSQLiteConfig("app.db"))
//	defer helper.Close()
//
//	w, err := helper.Writer(ctx)
//	if err != nil {
//		return err
//	}
//
//	id, err := w.ExecInsert(ctx, "INSERT INTO users (name) VALUES (?)", "alice")
//
// The writer holds a single connection since SQLite serializes writers anyway. File
// databases get a separate query-only reader pool which sees everything the writer
// has committed; in-memory databases share the writer because each connection
// would otherwise see its own empty database.
package store
