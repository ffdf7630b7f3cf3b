package sqlwith

import (
	"database/sql"
	"reflect"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	"github.com/syssam/sqlwith/dialect"
)

// TryGet decodes the named column of row into dst. It is the default decode
// path of generated decoders.
//
// Conversion rules, in order:
//   - if *T implements sql.Scanner, its Scan method receives the raw value;
//   - NULL is stored as the zero value of pointer, slice, map and interface
//     types, and is an *UnexpectedNullError for every other type;
//   - textual timestamps are parsed into time.Time using the rules of the
//     row's dialect, and PostgreSQL array literals are decoded into slices;
//   - everything else follows the database/sql conversion rules used by
//     sql.Rows.Scan.
//
// On failure dst is left untouched and the error is a *ColumnNotFoundError
// or a *DecodeError.
func TryGet[T any](row Rower, column string, dst *T) error {
	v, err := row.Value(column)
	if err != nil {
		return err
	}
	return Assign(row.Dialect(), column, dst, v)
}

// Get decodes the named column of row into a new value of type T.
// It is a convenience for decode overrides:
//
//	func splitX(column string, row *sqlwith.SQLiteRow) (Pair, error) {
//		n, err := sqlwith.Get[int64](row, column)
//		if err != nil {
//			return Pair{}, err
//		}
//		return Pair{n, n + 2}, nil
//	}
func Get[T any](row Rower, column string) (T, error) {
	var v T
	if err := TryGet(row, column, &v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// Reset sets *dst to the zero value of T. Generated decoders call it for
// fields marked `default` whose column is missing.
func Reset[T any](dst *T) {
	var zero T
	*dst = zero
}

// Assign converts the raw column value src into dst following the rules
// of TryGet. The column name is only used for error reporting.
func Assign[T any](dialectName, column string, dst *T, src any) error {
	typ := reflect.TypeFor[T]()
	if _, ok := any(dst).(sql.Scanner); ok {
		// Scan into a copy so a failing Scan leaves dst untouched.
		tmp := *dst
		if err := any(&tmp).(sql.Scanner).Scan(src); err != nil {
			return &DecodeError{Column: column, Type: typ, Value: src, Cause: err}
		}
		*dst = tmp
		return nil
	}
	if src == nil {
		if !nillable(typ) {
			return &UnexpectedNullError{Column: column, Type: typ}
		}
		Reset(dst)
		return nil
	}
	var tmp T
	ok, err := assignDialect(dialectName, reflect.ValueOf(&tmp).Elem(), src)
	if err != nil {
		return &DecodeError{Column: column, Type: typ, Value: src, Cause: err}
	}
	if ok {
		*dst = tmp
		return nil
	}
	var n sql.Null[T]
	if err := n.Scan(src); err != nil {
		return &DecodeError{Column: column, Type: typ, Value: src, Cause: err}
	}
	*dst = n.V
	return nil
}

var timeType = reflect.TypeFor[time.Time]()

// assignDialect handles the conversions database/sql does not know about.
// It reports false when the value should take the generic path.
func assignDialect(dialectName string, dv reflect.Value, src any) (bool, error) {
	if dv.Kind() == reflect.Pointer {
		elem := reflect.New(dv.Type().Elem())
		ok, err := assignDialect(dialectName, elem.Elem(), src)
		if ok && err == nil {
			dv.Set(elem)
		}
		return ok, err
	}
	text, isText := asText(src)
	if !isText {
		return false, nil
	}
	switch {
	case dv.Type() == timeType:
		t, err := parseTime(dialectName, text)
		if err != nil {
			return true, err
		}
		dv.Set(reflect.ValueOf(t))
		return true, nil
	case dialectName == dialect.Postgres && isArrayTarget(dv.Type()) && strings.HasPrefix(text, "{"):
		return true, pq.Array(dv.Addr().Interface()).Scan(src)
	}
	return false, nil
}

// sqliteTimeFormats are the layouts SQLite drivers write timestamps in.
var sqliteTimeFormats = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseTime(dialectName, text string) (time.Time, error) {
	switch dialectName {
	case dialect.MySQL:
		var nt mysql.NullTime
		if err := nt.Scan(text); err != nil {
			return time.Time{}, err
		}
		return nt.Time, nil
	case dialect.Postgres:
		return pq.ParseTimestamp(time.UTC, text)
	default:
		text = strings.TrimSuffix(text, "Z")
		var err error
		for _, layout := range sqliteTimeFormats {
			var t time.Time
			if t, err = time.ParseInLocation(layout, text, time.UTC); err == nil {
				return t, nil
			}
		}
		return time.Time{}, err
	}
}

func asText(src any) (string, bool) {
	switch v := src.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	}
	return "", false
}

// isArrayTarget reports whether t is a slice that is not raw bytes.
func isArrayTarget(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() != reflect.Uint8
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return true
	}
	return false
}
