package sqlwith

import (
	"database/sql"
	"fmt"
	"slices"

	"github.com/syssam/sqlwith/dialect"
)

// Rower is implemented by every bound row type. Generated decoders and
// override functions read columns through it.
type Rower interface {
	// Dialect returns the dialect the row was read from.
	Dialect() string
	// Columns returns the column names in result order.
	Columns() []string
	// Value returns the raw driver value of the named column.
	// It returns a *ColumnNotFoundError if the column does not exist.
	Value(column string) (any, error)
}

// DecodeFunc is the capability a field-level decode override must satisfy.
// It receives the column name and the bound row, does its own lookup and
// conversion, and returns the field value or an error.
type DecodeFunc[T any, R Rower] func(column string, row R) (T, error)

// Row is a materialized result row. Values are copied out of the driver
// when the row is scanned, so a Row can be decoded any number of times.
type Row struct {
	dialect string
	columns []string
	values  []any
	exact   map[string]int
	folded  map[string]int
}

// NewRow returns a row for the given dialect holding the column values.
func NewRow(dialectName string, columns []string, values []any) (*Row, error) {
	if len(columns) != len(values) {
		return nil, fmt.Errorf("sqlwith: %d columns but %d values", len(columns), len(values))
	}
	r := &Row{
		dialect: dialectName,
		columns: slices.Clone(columns),
		values:  slices.Clone(values),
		exact:   make(map[string]int, len(columns)),
		folded:  make(map[string]int, len(columns)),
	}
	// The first occurrence of a duplicated column name wins.
	for i, c := range columns {
		if _, ok := r.exact[c]; !ok {
			r.exact[c] = i
		}
		if n := normalizeColumn(c); n != "" {
			if _, ok := r.folded[n]; !ok {
				r.folded[n] = i
			}
		}
	}
	return r, nil
}

// ScanRow materializes the current row of rows. rows.Next must have
// returned true.
func ScanRow(dialectName string, rows *sql.Rows) (*Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	// Scanning into *any copies []byte values, see sql.Rows.Scan.
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}
	return NewRow(dialectName, columns, values)
}

// Dialect returns the dialect the row was read from.
func (r *Row) Dialect() string { return r.dialect }

// Columns returns a copy of the column names in result order.
func (r *Row) Columns() []string { return slices.Clone(r.columns) }

// Len returns the number of columns.
func (r *Row) Len() int { return len(r.columns) }

// Value returns the raw value of the named column. An exact match is
// preferred; otherwise quotes are stripped and the name is compared
// ASCII case-insensitively.
func (r *Row) Value(column string) (any, error) {
	i, ok := r.index(column)
	if !ok {
		return nil, NewColumnNotFoundError(column)
	}
	return r.values[i], nil
}

// ValueAt returns the raw value of the column at position i.
func (r *Row) ValueAt(i int) (any, error) {
	if i < 0 || i >= len(r.values) {
		return nil, fmt.Errorf("%w: %d (row has %d columns)", ErrColumnIndexOutOfRange, i, len(r.values))
	}
	return r.values[i], nil
}

// Has reports whether the row has the named column.
func (r *Row) Has(column string) bool {
	_, ok := r.index(column)
	return ok
}

func (r *Row) index(column string) (int, bool) {
	if i, ok := r.exact[column]; ok {
		return i, true
	}
	i, ok := r.folded[normalizeColumn(column)]
	return i, ok
}

// SQLiteRow is a row read from a SQLite database.
type SQLiteRow struct{ *Row }

// NewSQLiteRow returns a SQLite row holding the column values.
func NewSQLiteRow(columns []string, values []any) (*SQLiteRow, error) {
	r, err := NewRow(dialect.SQLite, columns, values)
	if err != nil {
		return nil, err
	}
	return &SQLiteRow{r}, nil
}

// ScanSQLiteRow materializes the current row of rows as a SQLite row.
func ScanSQLiteRow(rows *sql.Rows) (*SQLiteRow, error) {
	r, err := ScanRow(dialect.SQLite, rows)
	if err != nil {
		return nil, err
	}
	return &SQLiteRow{r}, nil
}

// PostgresRow is a row read from a PostgreSQL database.
type PostgresRow struct{ *Row }

// NewPostgresRow returns a PostgreSQL row holding the column values.
func NewPostgresRow(columns []string, values []any) (*PostgresRow, error) {
	r, err := NewRow(dialect.Postgres, columns, values)
	if err != nil {
		return nil, err
	}
	return &PostgresRow{r}, nil
}

// ScanPostgresRow materializes the current row of rows as a PostgreSQL row.
func ScanPostgresRow(rows *sql.Rows) (*PostgresRow, error) {
	r, err := ScanRow(dialect.Postgres, rows)
	if err != nil {
		return nil, err
	}
	return &PostgresRow{r}, nil
}

// MySQLRow is a row read from a MySQL or MariaDB database.
type MySQLRow struct{ *Row }

// NewMySQLRow returns a MySQL row holding the column values.
func NewMySQLRow(columns []string, values []any) (*MySQLRow, error) {
	r, err := NewRow(dialect.MySQL, columns, values)
	if err != nil {
		return nil, err
	}
	return &MySQLRow{r}, nil
}

// ScanMySQLRow materializes the current row of rows as a MySQL row.
func ScanMySQLRow(rows *sql.Rows) (*MySQLRow, error) {
	r, err := ScanRow(dialect.MySQL, rows)
	if err != nil {
		return nil, err
	}
	return &MySQLRow{r}, nil
}

// normalizeColumn strips one pair of identifier quotes and lower-cases
// ASCII letters.
func normalizeColumn(s string) string {
	if l := len(s); l >= 2 {
		switch s[0] {
		case '"':
			if s[l-1] == '"' {
				s = s[1 : l-1]
			}
		case '`':
			if s[l-1] == '`' {
				s = s[1 : l-1]
			}
		case '[':
			if s[l-1] == ']' {
				s = s[1 : l-1]
			}
		}
	}
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
