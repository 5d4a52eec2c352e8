// Package table defines the contract for versioned table descriptors.
//
// A descriptor is passive data: the table's name, the version the application
// wants it at, the statements that create it from scratch and a step function that
// returns the statements moving it one version forward. The migration engine
// reads descriptors; it never mutates them.
//
// Most applications use Definition rather than implementing Table themselves:
//
//	users := table.New("users", 2,
//		"CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, email TEXT)",
//	).Step(2, "ALTER TABLE users ADD COLUMN email TEXT")
//
//	legacy := table.Dropped("legacy_sessions")
//
// Create statements build the table *as it is at the declared version*; they only
// run when the table has never been recorded. Steps run for tables that already
// exist at an older version, one version at a time.
package table
