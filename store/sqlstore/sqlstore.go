// Package sqlstore implements store.Store over a dialect.Driver.
//
// Statements are written once with '?' placeholders and run unchanged on
// SQLite, Postgres and MySQL; the driver rebinds placeholders. Inserts read
// the new ID with RETURNING on SQLite and Postgres and with LastInsertId on
// MySQL. Free-form maps and lists are stored as JSON text.
//
//	drv, err := sql.Open(dialect.SQLite, "file:content.db?_pragma=foreign_keys(1)")
//	if err != nil {
//	    return err
//	}
//	if _, err := schema.Create(ctx, drv); err != nil {
//	    return err
//	}
//	s := sqlstore.New(drv)
package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/syssam/contentkit"
	"github.com/syssam/contentkit/dialect"
	"github.com/syssam/contentkit/dialect/sql"
	"github.com/syssam/contentkit/store"
)

// Store is a store.Store backed by a relational database.
type Store struct {
	drv     dialect.Driver
	conn    dialect.ExecQuerier
	dialect string
	tx      bool
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for created/updated timestamps the caller
// left unset.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New returns a Store over drv.
func New(drv dialect.Driver, opts ...Option) *Store {
	s := &Store{
		drv:     drv,
		conn:    drv,
		dialect: drv.Dialect(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Collections returns the collection repository.
func (s *Store) Collections() store.CollectionRepository { return &collections{s} }

// Fields returns the field repository.
func (s *Store) Fields() store.FieldRepository { return &fields{s} }

// Records returns the record repository.
func (s *Store) Records() store.RecordRepository { return &records{s} }

// Values returns the stored value repository.
func (s *Store) Values() store.ValueRepository { return &values{s} }

// WithTx implements store.Store.
func (s *Store) WithTx(ctx context.Context, fn func(store.Store) error) error {
	if s.tx {
		return fn(s)
	}
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: starting transaction: %w", err)
	}
	txs := *s
	txs.conn, txs.tx = tx, true
	if err := fn(&txs); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return &contentkit.RollbackError{Err: fmt.Errorf("%w: %v", err, rerr)}
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: committing transaction: %w", err)
	}
	return nil
}

// insert runs an INSERT statement and returns the ID of the new row.
func (s *Store) insert(ctx context.Context, query string, args []any) (int64, error) {
	if s.dialect == dialect.MySQL {
		var res sql.Result
		if err := s.conn.Exec(ctx, query, args, &res); err != nil {
			return 0, err
		}
		return res.LastInsertId()
	}
	var id int64
	if err := s.queryRow(ctx, query+" RETURNING id", args, &id); err != nil {
		return 0, err
	}
	return id, nil
}

// exec runs a statement and returns the number of affected rows.
func (s *Store) exec(ctx context.Context, query string, args ...any) (int64, error) {
	var res sql.Result
	if err := s.conn.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// queryRow scans the first row of a query into dest. It returns
// sql.ErrNoRows if the query yields nothing.
func (s *Store) queryRow(ctx context.Context, query string, args []any, dest ...any) error {
	rows := &sql.Rows{}
	if err := s.conn.Query(ctx, query, args, rows); err != nil {
		return err
	}
	found := false
	err := sql.ScanAll(rows, func(sc sql.ColumnScanner) error {
		if found {
			return nil
		}
		found = true
		return sc.Scan(dest...)
	})
	if err != nil {
		return err
	}
	if !found {
		return sql.ErrNoRows
	}
	return nil
}

// count runs a COUNT query.
func (s *Store) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.queryRow(ctx, query, args, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// stamp fills unset creation and update times.
func (s *Store) stamp(created, updated *time.Time) {
	now := s.now()
	if created != nil && created.IsZero() {
		*created = now
	}
	if updated.IsZero() {
		*updated = now
	}
}

func mutationError(entity, op string, err error) error {
	if sql.IsConstraintError(err) {
		err = contentkit.NewConstraintError(fmt.Sprintf("%s %s: %v", op, entity, err), err)
	}
	return contentkit.NewMutationError(entity, op, err)
}

func queryError(entity, op string, err error) error {
	return contentkit.NewQueryError(entity, op, err)
}

// placeholders returns "?, ?, ..." for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// encodeJSON encodes v as JSON text. Empty maps and slices are stored as
// NULL.
func encodeJSON[T any](v T) (sql.NullString, error) {
	switch v := any(v).(type) {
	case map[string]any:
		if len(v) == 0 {
			return sql.NullString{}, nil
		}
	case map[string][]string:
		if len(v) == 0 {
			return sql.NullString{}, nil
		}
	case []string:
		if len(v) == 0 {
			return sql.NullString{}, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// decodeJSON decodes JSON text into v. NULL leaves v untouched.
func decodeJSON[T any](s sql.NullString, v *T) error {
	if !s.Valid || s.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(s.String), v)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

var _ store.Store = (*Store)(nil)
