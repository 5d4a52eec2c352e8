package store

import (
	"database/sql"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// StorageClass is the SQLite storage class of a value.
type StorageClass int

const (
	// Null is the SQL NULL value
	Null StorageClass = iota

	// Integer is a signed 64-bit integer
	Integer

	// Real is an 8-byte IEEE floating point number
	Real

	// Text is a UTF-8 string
	Text

	// Blob is raw bytes
	Blob
)

func (c StorageClass) String() string {
	switch c {
	case Null:
		return "NULL"
	case Integer:
		return "INTEGER"
	case Real:
		return "REAL"
	case Text:
		return "TEXT"
	case Blob:
		return "BLOB"
	default:
		return "UNKNOWN"
	}
}

// Rows is a fully buffered result set. Unlike *sql.Rows it holds no connection, so
// callers never need to close it and may iterate it more than once via Reset.
//
// Example usage:
//
//	rows, err := db.Query(ctx, "SELECT id, name FROM users WHERE age > ?", 30)
//	if err != nil {
//		return err
//	}
//
//	for rows.Next() {
//		var (
//			id   int64
//			name string
//		)
//		if err := rows.Scan(&id, &name); err != nil {
//			return err
//		}
//	}
type Rows struct {
	columns []string
	values  [][]any
	pos     int
}

// NewRows builds Rows from literal values, one slice per row. Values should use the
// driver's types: nil, int64, float64, string or []byte.
func NewRows(columns []string, values ...[]any) *Rows {
	return &Rows{columns: columns, values: values, pos: -1}
}

func readRows(rows *sql.Rows) (*Rows, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &Rows{columns: columns, pos: -1}
	for rows.Next() {
		row := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range row {
			ptrs[i] = &row[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		result.values = append(result.values, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Next advances to the next row, returning false once the rows are exhausted.
func (r *Rows) Next() bool {
	if r.pos < len(r.values) {
		r.pos++
	}

	return r.pos < len(r.values)
}

// Reset moves the cursor back before the first row.
func (r *Rows) Reset() { r.pos = -1 }

// Count returns the number of rows in the result.
func (r *Rows) Count() int { return len(r.values) }

// Columns returns the result column names.
func (r *Rows) Columns() []string { return append([]string{}, r.columns...) }

// ColumnIndex returns the position of the named column (case-insensitive), or -1.
func (r *Rows) ColumnIndex(name string) int {
	for i, col := range r.columns {
		if strings.EqualFold(col, name) {
			return i
		}
	}

	return -1
}

// Value returns the raw driver value of column i in the current row.
func (r *Rows) Value(i int) (any, error) {
	if r.pos < 0 || r.pos >= len(r.values) {
		return nil, errors.New("no current row")
	}

	if i < 0 || i >= len(r.columns) {
		return nil, errors.Errorf("column index %d out of range [0, %d)", i, len(r.columns))
	}

	return r.values[r.pos][i], nil
}

// Type returns the storage class of column i in the current row.
func (r *Rows) Type(i int) (StorageClass, error) {
	v, err := r.Value(i)
	if err != nil {
		return Null, err
	}

	switch v.(type) {
	case nil:
		return Null, nil
	case int64:
		return Integer, nil
	case float64:
		return Real, nil
	case []byte:
		return Blob, nil
	default:
		return Text, nil
	}
}

// IsNull reports whether column i in the current row is NULL.
func (r *Rows) IsNull(i int) (bool, error) {
	v, err := r.Value(i)
	return v == nil, err
}

// String returns column i of the current row converted to a string. REAL values
// always carry a decimal point (2.0 is "2.0") so they stay distinct from INTEGER.
func (r *Rows) String(i int) (string, error) {
	v, err := r.Value(i)
	if err != nil {
		return "", err
	}

	return toString(v)
}

// Int64 returns column i of the current row converted to an int64. TEXT is parsed
// as a base 10 number, the way SQLite casts it.
func (r *Rows) Int64(i int) (int64, error) {
	v, err := r.Value(i)
	if err != nil {
		return 0, err
	}

	return toInt64(v)
}

// Float64 returns column i of the current row converted to a float64.
func (r *Rows) Float64(i int) (float64, error) {
	v, err := r.Value(i)
	if err != nil {
		return 0, err
	}

	return toFloat64(v)
}

// Bytes returns column i of the current row as bytes. Text is returned as its
// UTF-8 encoding and NULL as nil.
func (r *Rows) Bytes(i int) ([]byte, error) {
	v, err := r.Value(i)
	if err != nil {
		return nil, err
	}

	switch b := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return append([]byte{}, b...), nil
	case string:
		return []byte(b), nil
	default:
		return nil, errors.Errorf("unable to convert %T to []byte", v)
	}
}

// Scan copies the columns of the current row into dest, converting values the way
// the typed getters do. Supported destinations are *string, *int, *int32, *int64,
// *float64, *bool, *[]byte, *time.Time, *any and sql.Scanner implementations.
func (r *Rows) Scan(dest ...any) error {
	if r.pos < 0 || r.pos >= len(r.values) {
		return errors.New("no current row")
	}

	if len(dest) != len(r.columns) {
		return errors.Errorf("expected %d destination arguments in Scan, not %d", len(r.columns), len(dest))
	}

	for i, d := range dest {
		if err := assign(d, r.values[r.pos][i]); err != nil {
			return errors.Wrapf(err, "failed to scan column %d (%s)", i, r.columns[i])
		}
	}

	return nil
}

func assign(dest, src any) error {
	var err error

	switch d := dest.(type) {
	case sql.Scanner:
		return d.Scan(src)
	case *any:
		*d = src
	case *string:
		*d, err = toString(src)
	case *int:
		var n int64
		n, err = toInt64(src)
		*d = int(n)
	case *int32:
		var n int64
		if n, err = toInt64(src); err == nil && (n < math.MinInt32 || n > math.MaxInt32) {
			err = errors.Errorf("value %d overflows int32", n)
		}
		*d = int32(n)
	case *int64:
		*d, err = toInt64(src)
	case *float64:
		*d, err = toFloat64(src)
	case *bool:
		*d, err = cast.ToBoolE(src)
	case *time.Time:
		*d, err = cast.ToTimeE(src)
	case *[]byte:
		switch b := src.(type) {
		case nil:
			*d = nil
		case []byte:
			*d = append([]byte{}, b...)
		case string:
			*d = []byte(b)
		default:
			err = errors.Errorf("unable to convert %T to []byte", src)
		}
	default:
		err = errors.Errorf("unsupported scan destination %T", dest)
	}

	return err
}

// FormatReal renders f in its shortest form, keeping a decimal point on whole
// numbers (2 renders as 2.0).
func FormatReal(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, ".eIN") {
		return s
	}

	return s + ".0"
}

func toString(v any) (string, error) {
	if f, ok := v.(float64); ok {
		return FormatReal(f), nil
	}

	return cast.ToStringE(v)
}

// cast parses strings with base prefixes ("010" is 8), so text is handled here.
func toInt64(v any) (int64, error) {
	s, ok := v.(string)
	if !ok {
		return cast.ToInt64E(v)
	}

	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}

	// Whole REAL text such as "2.0" or "1e3"
	if f, err := toFloat64(s); err == nil && f == math.Trunc(f) &&
		f >= math.MinInt64 && f < math.MaxInt64 {
		return int64(f), nil
	}

	return 0, errors.Errorf("unable to convert %q to int64", s)
}

func toFloat64(v any) (float64, error) {
	s, ok := v.(string)
	if !ok {
		return cast.ToFloat64E(v)
	}

	s = strings.TrimSpace(s)
	if isPrefixed(s) {
		return 0, errors.Errorf("unable to convert %q to float64", s)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Errorf("unable to convert %q to float64", s)
	}

	return f, nil
}

// isPrefixed reports whether s carries a Go base prefix (0x, 0b, 0o) or digit
// separators, neither of which SQLite accepts.
func isPrefixed(s string) bool {
	s = strings.TrimLeft(s, "+-")
	if strings.Contains(s, "_") {
		return true
	}

	return len(s) > 1 && s[0] == '0' && strings.ContainsAny(s[1:2], "xXbBoO")
}
