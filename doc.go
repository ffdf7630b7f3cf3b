/*
Package sqlwith generates row decoders for database/sql and holds the small
runtime those decoders call.

# Overview

A struct opts in with a directive comment naming the database dialect its
decoder is bound to, and fields may name a custom decode function:

	//go:generate go run github.com/syssam/sqlwith/cmd/sqlwith generate .

	//sqlwith:fromrow db=sqlite
	type Row struct {
		X Pair   `sqlwith:"rename=x,decode=splitX"`
		Y string `sqlwith:"rename=y"`
	}

	func splitX(column string, row *sqlwith.SQLiteRow) (Pair, error) {
		n, err := sqlwith.Get[int64](row, column)
		if err != nil {
			return Pair{}, err
		}
		return Pair{n, n + 2}, nil
	}

Running the generator writes sqlwith_fromrow.go next to the declaration:

	func DecodeRow(row *sqlwith.SQLiteRow) (Row, error)
	func ScanRow(rows *sql.Rows) (Row, error)

The generated functions are plain Go; there is no reflection-based mapper
at run time.

# Container options

The `//sqlwith:fromrow` directive takes space separated key=value pairs:

  - db (required): sqlite, postgres or mysql. Selects the bound row type
    (SQLiteRow, PostgresRow, MySQLRow) and the dialect conversions used by
    the default decode path.
  - rename_all: snake_case, lowercase, UPPERCASE, camelCase, PascalCase,
    SCREAMING_SNAKE_CASE or kebab-case.

# Field options

The `sqlwith` struct tag takes comma separated options:

  - rename=<column>: explicit column name, takes precedence over rename_all.
  - default: a missing column leaves the field at its zero value.
  - decode=<func>: decode the field with func(column string, row R) (T, error)
    where R is the bound row type. The function may be qualified with an
    import name of the declaring file, e.g. decode=conv.SplitX.

# Column lookup

Without rename or rename_all the column name is the Go field name. Row
lookup tries an exact match first and then an ASCII case-insensitive match
with identifier quotes stripped, so field X reads column x.

# Error handling

  - A missing column yields a *ColumnNotFoundError (errors.Is ErrColumnNotFound).
  - A value that cannot be converted yields a *DecodeError (errors.Is ErrDecode).
  - Errors returned by decode overrides are returned unmodified.
  - Decoding stops at the first error; no partially decoded struct is returned.
*/
package sqlwith
