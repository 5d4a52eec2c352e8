// Package binder converts application arguments into the values handed to the
// SQLite driver.
//
// Every parameterized statement squeaky runs, whether issued by application code
// through a database handle or by the migration engine itself, passes its
// arguments through Bind. Each argument is classified by its runtime type in a
// fixed order, and the first matching rule wins:
//
//  1. nil (including nil pointers) binds NULL
//  2. []byte binds BLOB
//  3. text (string, Char and named string kinds) binds TEXT verbatim
//  4. integral kinds bind INTEGER
//  5. floating-point kinds bind REAL
//  6. values implementing Blob bind BLOB with the bytes they produce
//  7. driver.Valuer results are classified again with the rules above
//  8. anything else binds TEXT using its fmt.Sprint representation
//
// The order matters for values that look numeric. "1" and "1.0" stay distinct
// TEXT values even when compared against a TEXT column, while 1 and 1.0 are
// compared numerically by columns with numeric affinity.
//
// A Go rune is an int32 and therefore binds as INTEGER. Use Char to bind a single
// character as TEXT:
//
//	args, err := binder.Bind("INSERT INTO t (c) VALUES (?)", []any{binder.Char('2')})
//	// args == []any{"2"}
//
// Bind also checks that the number of arguments equals the number of parameters
// the statement declares, returning a ConfigurationError otherwise. Named
// parameters are passed to the driver as sql.NamedArg values:
//
//	args, err := binder.Bind("SELECT * FROM kv WHERE k = :k OR k = :k", []any{"a"})
//	// args == []any{sql.Named("k", "a")}
package binder
