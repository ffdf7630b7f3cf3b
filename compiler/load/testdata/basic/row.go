package basic

import (
	conv "strconv"
	"time"

	"github.com/syssam/sqlwith"
)

//sqlwith:fromrow db=sqlite
type Row struct {
	X    [2]int64 `sqlwith:"decode=splitX"`
	Y, Z string   `sqlwith:"rename=y"`
}

type (
	// Event is declared in a group.
	//sqlwith:fromrow db=postgres rename_all=snake_case
	Event struct {
		ID        int64
		CreatedAt time.Time `sqlwith:"default"`
		Embedded
	}

	// Embedded is not selected.
	Embedded struct{ Note string }
)

// Box is generic.
//
//sqlwith:fromrow db=mysql
type Box[T any, K comparable] struct {
	Value T
	Key   K
}

//sqlwith:fromrow db=sqlite
type Alias int

//sqlwith:fromrows db=sqlite
type NotSelected struct{ A int }

func splitX(column string, row *sqlwith.SQLiteRow) ([2]int64, error) {
	n, err := sqlwith.Get[int64](row, column)
	if err != nil {
		return [2]int64{}, err
	}
	return [2]int64{n, n + 2}, nil
}

func format(n int64) string { return conv.FormatInt(n, 10) }
