package sqlwith

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct {
	ID   int64
	Name string
}

func scanUser(rows *sql.Rows) (user, error) {
	row, err := ScanSQLiteRow(rows)
	if err != nil {
		return user{}, err
	}
	var u user
	if err := TryGet(row, "id", &u.ID); err != nil {
		return user{}, err
	}
	if err := TryGet(row, "name", &u.Name); err != nil {
		return user{}, err
	}
	return u, nil
}

func TestQueryAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, name FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), []byte("alice")).
			AddRow(int64(2), []byte("bob")))

	got, err := QueryAll(context.Background(), db, scanUser, "SELECT id, name FROM users")
	require.NoError(t, err)
	assert.Equal(t, []user{{1, "alice"}, {2, "bob"}}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryAll_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	got, err := QueryAll(context.Background(), db, scanUser, "SELECT")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestQueryAll_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("boom")
	mock.ExpectQuery("SELECT").WillReturnError(boom)

	_, err = QueryAll(context.Background(), db, scanUser, "SELECT")
	assert.ErrorIs(t, err, boom)
}

func TestQueryAll_ScanError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	got, err := QueryAll(context.Background(), db, scanUser, "SELECT")
	require.Error(t, err)
	assert.True(t, IsColumnNotFound(err))
	assert.Nil(t, got)
}

func TestQueryAll_RowError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("iteration failed")
	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), "alice").
			AddRow(int64(2), "bob").
			RowError(1, boom))

	_, err = QueryAll(context.Background(), db, scanUser, "SELECT")
	assert.ErrorIs(t, err, boom)
}

func TestQueryOne(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, name FROM users WHERE id = ?").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(2), "bob"))

	got, err := QueryOne(context.Background(), db, scanUser, "SELECT id, name FROM users WHERE id = ?", 2)
	require.NoError(t, err)
	assert.Equal(t, user{2, "bob"}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryOne_NoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, err = QueryOne(context.Background(), db, scanUser, "SELECT")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestQueryOne_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("boom")
	mock.ExpectQuery("SELECT").WillReturnError(boom)

	_, err = QueryOne(context.Background(), db, scanUser, "SELECT")
	assert.ErrorIs(t, err, boom)
}

func TestQueryOne_CloseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("close failed")
	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), "alice").
			AddRow(int64(2), "bob").
			CloseError(boom))

	_, err = QueryOne(context.Background(), db, scanUser, "SELECT")
	assert.ErrorIs(t, err, boom)
}
