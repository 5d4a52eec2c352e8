// Package utils provides common utility functions used throughout the squeaky codebase.
//
// # Identifier Utilities (identifier.go)
//
// Table names reach the migration engine as opaque strings supplied by the
// application. Whenever the engine generates SQL around such a name (the
// bookkeeping table's DDL, DROP TABLE for dropped descriptors, SELECT * for table
// dumps) it quotes the name with QuoteIdentifier so reserved words and unusual
// characters survive:
//
//	stmt := "DROP TABLE IF EXISTS " + utils.QuoteIdentifier("order")
//	// Result: DROP TABLE IF EXISTS "order"
//
// IsQuoted and UnquoteIdentifier are the inverse helpers; the config loader uses
// them so a table declared as "order" is stored under its bare name.
//
// # Pointer Utilities (ptr.go)
//
// Ptr returns a pointer to any value, which is how optional config fields get
// their defaults:
//
//	cfg.Database.ForeignKeys = utils.Ptr(true)
package utils
