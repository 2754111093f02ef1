// Package dialect defines the storage driver abstraction of contentkit.
//
// # Supported Dialects
//
//   - Postgres: PostgreSQL database (lib/pq)
//   - MySQL: MySQL/MariaDB database (go-sql-driver/mysql)
//   - SQLite: SQLite database (modernc.org/sqlite)
//
// Each dialect is identified by a constant string:
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// # Interfaces
//
// [Driver] executes statements and opens transactions; [Tx] adds Commit and
// Rollback. Both satisfy [ExecQuerier], which is all a repository needs:
//
//	type ExecQuerier interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	}
//
// # Sub-packages
//
//   - dialect/sql: database/sql implementation, statistics and debug drivers
//   - dialect/sql/schema: DDL of the storage tables
package dialect
