// Package schema describes the storage tables of contentkit and creates them
// in the database.
//
// The layout is fixed: collections, fields, records and record_values. User
// defined schemas are rows in these tables, so there is nothing to migrate
// when a collection changes. Create only adds missing tables and reports any
// other difference as a warning.
package schema

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"io"
	"log/slog"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	atlas "ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"

	"github.com/syssam/contentkit/dialect"
	"github.com/syssam/contentkit/dialect/sql"
)

// MigrateOption allows configuring Migrate.
type MigrateOption func(*Migrate)

// WithLogger sets the logger used to report applied statements and
// warnings.
func WithLogger(l *slog.Logger) MigrateOption {
	return func(m *Migrate) {
		m.logger = l
	}
}

// WithDryRun writes the planned statements to w instead of executing them.
func WithDryRun(w io.Writer) MigrateOption {
	return func(m *Migrate) {
		m.dryRun = w
	}
}

// Migrate creates the storage tables.
type Migrate struct {
	dialect string
	db      *stdsql.DB
	atlas   migrate.Driver
	logger  *slog.Logger
	dryRun  io.Writer
}

// NewMigrate creates a migration for the database behind drv.
func NewMigrate(drv *sql.Driver, opts ...MigrateOption) (*Migrate, error) {
	m := &Migrate{dialect: drv.Dialect(), db: drv.DB(), logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	var err error
	switch m.dialect {
	case dialect.SQLite:
		m.atlas, err = sqlite.Open(m.db)
	case dialect.Postgres:
		m.atlas, err = postgres.Open(m.db)
	case dialect.MySQL:
		m.atlas, err = mysql.Open(m.db)
	default:
		return nil, fmt.Errorf("sql/schema: unsupported dialect %q", m.dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("sql/schema: open atlas driver: %w", err)
	}
	return m, nil
}

// Create adds the missing storage tables. It returns the differences it
// did not apply.
func (m *Migrate) Create(ctx context.Context) (*ValidationResult, error) {
	if r := ValidateSchema(Tables); r.HasErrors() {
		return r, fmt.Errorf("sql/schema: invalid storage layout:\n%s", r)
	}
	names := make([]string, len(Tables))
	for i, t := range Tables {
		names[i] = t.Name
	}
	current, err := m.atlas.InspectSchema(ctx, "", &atlas.InspectOptions{Tables: names})
	if err != nil {
		return nil, fmt.Errorf("sql/schema: inspect: %w", err)
	}
	desired, err := ToAtlas(m.dialect, current.Name, Tables)
	if err != nil {
		return nil, fmt.Errorf("sql/schema: %w", err)
	}
	changes, err := m.atlas.SchemaDiff(current, desired)
	if err != nil {
		return nil, fmt.Errorf("sql/schema: diff: %w", err)
	}
	var adds []atlas.Change
	for _, c := range changes {
		if _, ok := c.(*atlas.AddTable); ok {
			adds = append(adds, c)
		}
	}
	result := ValidateChanges(changes)
	for _, w := range result.Warnings {
		m.logger.WarnContext(ctx, "storage layout drift", "table", w.Table, "column", w.Column, "message", w.Message, "breaking", w.Breaking)
	}
	if len(adds) == 0 {
		m.logger.DebugContext(ctx, "storage tables up to date")
		return result, nil
	}
	plan, err := m.atlas.PlanChanges(ctx, "contentkit", adds)
	if err != nil {
		return nil, fmt.Errorf("sql/schema: plan: %w", err)
	}
	if m.dryRun != nil {
		for _, c := range plan.Changes {
			if _, err := fmt.Fprintf(m.dryRun, "%s;\n", c.Cmd); err != nil {
				return nil, err
			}
		}
		return result, nil
	}
	if err := m.atlas.ApplyChanges(ctx, adds); err != nil {
		return nil, fmt.Errorf("sql/schema: apply: %w", err)
	}
	m.logger.InfoContext(ctx, "storage tables created", "statements", len(plan.Changes))
	return result, nil
}

// Create is a shorthand for NewMigrate followed by Migrate.Create.
func Create(ctx context.Context, drv *sql.Driver, opts ...MigrateOption) (*ValidationResult, error) {
	m, err := NewMigrate(drv, opts...)
	if err != nil {
		return nil, err
	}
	return m.Create(ctx)
}
