// Package dialect names the database dialects a generated row decoder can
// be bound to.
//
// # Supported Dialects
//
//   - SQLite: SQLite database (modernc.org/sqlite, mattn/go-sqlite3)
//   - Postgres: PostgreSQL database (lib/pq, pgx stdlib)
//   - MySQL: MySQL/MariaDB database (go-sql-driver/mysql)
//
// # Dialect Constants
//
// Each dialect is identified by a constant string:
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// The `db` key of a `//sqlwith:fromrow` directive is resolved with Parse,
// which also accepts the driver names commonly passed to sql.Open:
//
//	dialect.Parse("sqlite3")    // dialect.SQLite
//	dialect.Parse("postgresql") // dialect.Postgres
//	dialect.Parse("pgx")        // dialect.Postgres
package dialect
