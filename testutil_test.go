package sqlwith

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

// sqlmockRows holds *sql.Rows positioned on their first row.
type sqlmockRows struct {
	*sql.Rows
}

// newSQLMockRows returns rows positioned on a single result row holding values.
func newSQLMockRows(t *testing.T, columns []string, values []any) *sqlmockRows {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	dv := make([]driver.Value, len(values))
	for i, v := range values {
		dv[i] = v
	}
	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows(columns).AddRow(dv...))

	rows, err := db.QueryContext(context.Background(), "SELECT")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rows.Close() })
	require.True(t, rows.Next())
	return &sqlmockRows{rows}
}
