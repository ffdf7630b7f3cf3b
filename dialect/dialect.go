package dialect

import (
	"errors"
	"fmt"
	"strings"
)

// Dialect names.
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
	MySQL    = "mysql"
)

// ErrUnknownDialect is returned by Parse for names that are not recognized.
var ErrUnknownDialect = errors.New("sqlwith: unknown dialect")

// aliases maps driver names to their dialect.
var aliases = map[string]string{
	"sqlite":     SQLite,
	"sqlite3":    SQLite,
	"postgres":   Postgres,
	"postgresql": Postgres,
	"pgx":        Postgres,
	"mysql":      MySQL,
}

// Parse returns the dialect for the given name. Matching is case-insensitive.
func Parse(name string) (string, error) {
	if d, ok := aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return d, nil
	}
	return "", fmt.Errorf("%w %q (use %s, %s or %s)", ErrUnknownDialect, name, SQLite, Postgres, MySQL)
}

// All returns the supported dialects.
func All() []string {
	return []string{SQLite, Postgres, MySQL}
}
