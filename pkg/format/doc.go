// Package format renders query results as plain-text tables.
//
// Table draws a single result set; DumpTables writes a banner followed by the
// bookkeeping table and then each named table, which is what the dump command and
// database.Database.Dump print:
//
//	+------------------------------------------------------------------------------+
//	|                              Squeaky Table Dump                              |
//	+------------------------------------------------------------------------------+
//	versions
//	+----------------------+
//	| table_name | version |
//	+----------------------+
//	|      users |       2 |
//	+----------------------+
//
//	users
//	...
package format
