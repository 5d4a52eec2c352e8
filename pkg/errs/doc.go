// Package errs defines the error kinds surfaced by squeaky.
//
// Two kinds of failure reach callers:
//
//   - ConfigurationError: the caller or a table descriptor asked for something that
//     can never succeed (re-preparing a prepared handle, a statement/argument count
//     mismatch, a descriptor that cannot produce a requested version). These are
//     fatal and never retried.
//   - StoreError: SQLite rejected a statement. The driver's diagnostic is kept in
//     the message together with the failing statement.
//
// Callers distinguish them with IsConfiguration and IsStore, or test for a specific
// cause with errors.Is against the exported sentinels:
//
//	if err := db.Prepare(ctx); errors.Is(err, errs.ErrAlreadyPrepared) {
//		// handle was prepared earlier
//	}
package errs
