package binder

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"math"
	"reflect"
	"slices"
	"unicode"
	"unicode/utf8"

	"github.com/pseudomuto/squeaky/pkg/errs"
	"github.com/pseudomuto/squeaky/pkg/parser"
)

type (
	// Blob is implemented by values that know how to serialize themselves for
	// storage as a BLOB.
	Blob interface {
		Bytes() []byte
	}

	// Char is a single character bound as one-character TEXT.
	Char rune
)

// String returns the character as a string.
func (c Char) String() string { return string(rune(c)) }

// Bind validates args against the placeholders declared by stmt and converts each
// argument to its driver representation: nil, []byte, string, int64 or float64.
//
// A nil args slice is equivalent to an empty one.
//
// Named parameters (":name", "@name" and "$name") are bound by name. Arguments fill
// parameters in number order, except for sql.NamedArg values, which go to the
// parameter of the same name whatever their position.
//
// Example usage:
//
//	args, err := binder.Bind(
//		"INSERT INTO users (name, age, avatar) VALUES (?, ?, ?)",
//		[]any{"alice", 42, nil},
//	)
//	if err != nil {
//		return err
//	}
//
//	_, err = db.ExecContext(ctx, stmt, args...)
func Bind(stmt string, args []any) ([]any, error) {
	params, err := parser.Parameters(stmt)
	if err != nil {
		return nil, errs.Configuration("bind", err)
	}

	if len(params) != len(args) {
		return nil, errs.Configurationf("bind", errs.ErrArgumentCount,
			"statement expects %d arguments, got %d", len(params), len(args))
	}

	if err := checkNames(params); err != nil {
		return nil, err
	}

	var (
		bound      = make([]any, len(params))
		filled     = make([]bool, len(params))
		positional []any
	)

	for _, arg := range args {
		named, ok := arg.(sql.NamedArg)
		if !ok || named.Name == "" {
			positional = append(positional, arg)
			continue
		}

		i := slices.IndexFunc(params, func(p string) bool { return p != "" && p[1:] == named.Name })
		if i < 0 {
			return nil, errs.Configurationf("bind", errs.ErrArgumentCount,
				"statement has no parameter named %q", named.Name)
		}

		if filled[i] {
			return nil, errs.Configurationf("bind", errs.ErrArgumentCount,
				"parameter %s is bound more than once", params[i])
		}

		bound[i], filled[i] = value(named.Value, true), true
	}

	next := 0
	for i := range bound {
		if !filled[i] {
			bound[i] = Value(positional[next])
			next++
		}

		if params[i] != "" {
			bound[i] = sql.Named(params[i][1:], bound[i])
		}
	}

	return bound, nil
}

// checkNames rejects named parameters the driver can't tell apart or can't match:
// names must start with a letter, and a name may only be used with one prefix.
func checkNames(params []string) error {
	seen := make(map[string]string, len(params))
	for _, p := range params {
		if p == "" {
			continue
		}

		name := p[1:]
		if r, _ := utf8.DecodeRuneInString(name); !unicode.IsLetter(r) {
			return errs.Configurationf("bind", errs.ErrArgumentCount,
				"parameter %s cannot be bound by name (names must start with a letter)", p)
		}

		if other, ok := seen[name]; ok {
			return errs.Configurationf("bind", errs.ErrArgumentCount,
				"parameters %s and %s share the name %q", other, p, name)
		}

		seen[name] = p
	}

	return nil
}

// Value converts a single argument to the value bound for it. See the package
// documentation for the classification order.
func Value(arg any) any {
	return value(arg, true)
}

func value(arg any, valuer bool) any {
	if arg == nil {
		return nil
	}

	switch v := arg.(type) {
	case []byte:
		return v
	case string:
		return v
	case Char:
		return v.String()
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case uint:
		return unsigned(uint64(v))
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return unsigned(v)
	case float32:
		return float64(v)
	case float64:
		return v
	case sql.NamedArg:
		return value(v.Value, valuer)
	}

	rv := reflect.ValueOf(arg)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}

		// Pointer receivers of Blob and Valuer keep their methods
		if !implements(arg) {
			return value(rv.Elem().Interface(), valuer)
		}
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return rv.Bytes()
		}
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return unsigned(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}

	if b, ok := arg.(Blob); ok {
		return b.Bytes()
	}

	// Valuer results are classified once; a Valuer returning another Valuer falls
	// through to text.
	if v, ok := arg.(driver.Valuer); ok && valuer {
		if dv, err := v.Value(); err == nil {
			return value(dv, false)
		}
	}

	return fmt.Sprint(arg)
}

func implements(arg any) bool {
	switch arg.(type) {
	case Blob, driver.Valuer:
		return true
	default:
		return false
	}
}

// unsigned binds values that don't fit SQLite's signed 64-bit integers as their
// decimal text.
func unsigned(v uint64) any {
	if v > math.MaxInt64 {
		return fmt.Sprint(v)
	}

	return int64(v)
}
