// Package sql implements the dialect.Driver interface over database/sql.
//
// Statements are written once with '?' placeholders; [Conn] rebinds them to
// the placeholder style of the dialect ($1..$n for Postgres) before they
// reach the database.
//
//	drv, err := sql.Open(dialect.SQLite, "file:content.db?_pragma=foreign_keys(1)")
//	if err != nil {
//	    return err
//	}
//	rows := &sql.Rows{}
//	if err := drv.Query(ctx, "SELECT id, name FROM collections WHERE slug = ?", []any{slug}, rows); err != nil {
//	    return err
//	}
//	err = sql.ScanAll(rows, func(s sql.ColumnScanner) error {
//	    return s.Scan(&id, &name)
//	})
//
// # Wrappers
//
// [StatsDriver] collects query counters and reports slow statements, and
// [DebugDriver] logs every statement. Both wrap any dialect.Driver, so they
// can be stacked:
//
//	drv = sql.NewDebugDriver(sql.NewStatsDriver(drv, sql.WithSlowQueryLog(logger)), sql.DebugWithLogger(logger))
//
// # Constraint errors
//
// [IsUniqueConstraintError], [IsForeignKeyConstraintError] and
// [IsCheckConstraintError] classify violations reported by lib/pq,
// go-sql-driver/mysql and modernc.org/sqlite.
package sql
