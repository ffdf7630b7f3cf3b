package sqlwith

import (
	"context"
	"database/sql"
)

// Querier is implemented by *sql.DB, *sql.Tx, *sql.Conn, and any wrapper
// that can execute a query returning rows.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// ScanFunc decodes the current row of rows. Generated Scan functions
// satisfy it.
type ScanFunc[T any] func(rows *sql.Rows) (T, error)

// QueryAll executes the query and decodes every result row with scan.
//
// Example, given a generated ScanUser for a `//sqlwith:fromrow db=sqlite`
// struct:
//
//	users, err := sqlwith.QueryAll(ctx, db, ScanUser, `SELECT id, name FROM users`)
func QueryAll[T any](ctx context.Context, q Querier, scan ScanFunc[T], query string, args ...any) (out []T, err error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	// Propagate rows.Close() error if nothing else failed.
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	for rows.Next() {
		v, scanErr := scan(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, v)
	}
	if ne := rows.Err(); ne != nil {
		return nil, ne
	}
	return out, nil
}

// QueryOne executes the query and decodes the first result row with scan.
// It returns sql.ErrNoRows if the query yields no rows; additional rows
// are ignored.
func QueryOne[T any](ctx context.Context, q Querier, scan ScanFunc[T], query string, args ...any) (out T, err error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return out, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if !rows.Next() {
		if ne := rows.Err(); ne != nil {
			return out, ne
		}
		return out, sql.ErrNoRows
	}
	return scan(rows)
}
