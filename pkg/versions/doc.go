// Package versions implements the bookkeeping table recording the applied version
// of every registered table.
//
// The bookkeeping table is itself a table descriptor (version 1, no migrations)
// with exactly two columns:
//
//	CREATE TABLE "versions" (table_name TEXT NOT NULL UNIQUE, version INTEGER NOT NULL)
//
// The migration engine creates it before evaluating any other table, loads all
// records into a Set, and afterwards inserts, updates or deletes one record per
// reconciled table. Application code never writes to it.
//
// Example usage:
//
//	vt := versions.New("") // defaults to "versions"
//
//	set, err := vt.Load(ctx, db)
//	if err != nil {
//		return err
//	}
//
//	if v, ok := set.Get("users"); ok {
//		fmt.Printf("users is at version %d\n", v)
//	}
package versions
