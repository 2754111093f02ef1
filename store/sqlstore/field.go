package sqlstore

import (
	"context"
	"fmt"

	"github.com/syssam/contentkit"
	"github.com/syssam/contentkit/dialect/sql"
	"github.com/syssam/contentkit/schema"
	"github.com/syssam/contentkit/schema/field"
	"github.com/syssam/contentkit/store"
)

const fieldColumns = "id, collection_id, name, label, type, default_value, required, is_unique, searchable, rules, options, ui, active, sort_order, related_collection_id, relation_kind, foreign_key, local_key, cascade_delete, created_at, updated_at"

type fields struct{ *Store }

func (r *fields) Create(ctx context.Context, f *schema.Field) error {
	r.stamp(&f.CreatedAt, &f.UpdatedAt)
	args, err := fieldArgs(f)
	if err != nil {
		return mutationError("field", "create", err)
	}
	args = append([]any{f.CollectionID}, args...)
	args = append(args, f.CreatedAt, f.UpdatedAt)
	id, err := r.insert(ctx, "INSERT INTO fields (collection_id, name, label, type, default_value, required, is_unique, searchable, rules, options, ui, active, sort_order, related_collection_id, relation_kind, foreign_key, local_key, cascade_delete, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", args)
	if err != nil {
		return mutationError("field", "create", err)
	}
	f.ID = id
	return nil
}

func (r *fields) Update(ctx context.Context, f *schema.Field) error {
	f.UpdatedAt = r.now()
	args, err := fieldArgs(f)
	if err != nil {
		return mutationError("field", "update", err)
	}
	args = append(args, f.UpdatedAt, f.ID)
	n, err := r.exec(ctx, "UPDATE fields SET name = ?, label = ?, type = ?, default_value = ?, required = ?, is_unique = ?, searchable = ?, rules = ?, options = ?, ui = ?, active = ?, sort_order = ?, related_collection_id = ?, relation_kind = ?, foreign_key = ?, local_key = ?, cascade_delete = ?, updated_at = ? WHERE id = ?", args...)
	if err != nil {
		return mutationError("field", "update", err)
	}
	if n == 0 {
		return contentkit.NewNotFoundErrorWithID("field", f.ID)
	}
	return nil
}

func (r *fields) Delete(ctx context.Context, id int64) error {
	return r.WithTx(ctx, func(s store.Store) error {
		tx := s.(*Store)
		if _, err := tx.exec(ctx, "DELETE FROM record_values WHERE field_id = ?", id); err != nil {
			return mutationError("field", "delete", err)
		}
		n, err := tx.exec(ctx, "DELETE FROM fields WHERE id = ?", id)
		if err != nil {
			return mutationError("field", "delete", err)
		}
		if n == 0 {
			return contentkit.NewNotFoundErrorWithID("field", id)
		}
		return nil
	})
}

func (r *fields) Get(ctx context.Context, id int64) (*schema.Field, error) {
	fs, err := r.list(ctx, "get", "SELECT "+fieldColumns+" FROM fields WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(fs) == 0 {
		return nil, contentkit.NewNotFoundErrorWithID("field", id)
	}
	return fs[0], nil
}

func (r *fields) ListByCollection(ctx context.Context, collectionID int64) ([]*schema.Field, error) {
	return r.list(ctx, "list", "SELECT "+fieldColumns+" FROM fields WHERE collection_id = ? ORDER BY sort_order, id", collectionID)
}

func (r *fields) NameTaken(ctx context.Context, collectionID int64, name string, excludeID int64) (bool, error) {
	n, err := r.count(ctx, "SELECT COUNT(*) FROM fields WHERE collection_id = ? AND name = ? AND id <> ?", collectionID, name, excludeID)
	if err != nil {
		return false, queryError("field", "exists", err)
	}
	return n > 0, nil
}

func (r *fields) list(ctx context.Context, op, query string, args ...any) ([]*schema.Field, error) {
	rows := &sql.Rows{}
	if err := r.conn.Query(ctx, query, args, rows); err != nil {
		return nil, queryError("field", op, err)
	}
	var fs []*schema.Field
	err := sql.ScanAll(rows, func(sc sql.ColumnScanner) error {
		f, err := scanField(sc)
		if err != nil {
			return err
		}
		fs = append(fs, f)
		return nil
	})
	if err != nil {
		return nil, queryError("field", op, err)
	}
	return fs, nil
}

// fieldArgs returns the mutable columns of f, from name to cascade_delete.
func fieldArgs(f *schema.Field) ([]any, error) {
	rules, err := encodeJSON(f.Rules)
	if err != nil {
		return nil, fmt.Errorf("encoding rules: %w", err)
	}
	opts, err := encodeJSON(f.Options)
	if err != nil {
		return nil, fmt.Errorf("encoding options: %w", err)
	}
	ui, err := encodeJSON(f.UI)
	if err != nil {
		return nil, fmt.Errorf("encoding ui: %w", err)
	}
	var def sql.NullString
	if f.Default != nil {
		def = sql.NullString{String: *f.Default, Valid: true}
	}
	var (
		related      sql.NullInt64
		kind, fk, lk sql.NullString
		cascade      bool
	)
	if rel := f.Relation; rel != nil {
		related = sql.NullInt64{Int64: rel.CollectionID, Valid: rel.CollectionID != 0}
		kind, fk, lk = nullString(string(rel.Kind)), nullString(rel.ForeignKey), nullString(rel.LocalKey)
		cascade = rel.CascadeDelete
	}
	return []any{
		f.Name, f.Label, f.Type.String(), def, f.Required, f.Unique, f.Searchable,
		rules, opts, ui, f.Active, f.SortOrder,
		related, kind, fk, lk, cascade,
	}, nil
}

func scanField(sc sql.ColumnScanner) (*schema.Field, error) {
	var (
		f                    schema.Field
		typ                  string
		def, rules, opts, ui sql.NullString
		related              sql.NullInt64
		kind, fk, lk         sql.NullString
		cascade              bool
	)
	err := sc.Scan(
		&f.ID, &f.CollectionID, &f.Name, &f.Label, &typ, &def, &f.Required, &f.Unique, &f.Searchable,
		&rules, &opts, &ui, &f.Active, &f.SortOrder,
		&related, &kind, &fk, &lk, &cascade,
		&f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if f.Type, err = field.ParseType(typ); err != nil {
		return nil, fmt.Errorf("field %d: %w", f.ID, err)
	}
	if def.Valid {
		f.Default = &def.String
	}
	if err := decodeJSON(rules, &f.Rules); err != nil {
		return nil, fmt.Errorf("field %d: decoding rules: %w", f.ID, err)
	}
	if err := decodeJSON(opts, &f.Options); err != nil {
		return nil, fmt.Errorf("field %d: decoding options: %w", f.ID, err)
	}
	if err := decodeJSON(ui, &f.UI); err != nil {
		return nil, fmt.Errorf("field %d: decoding ui: %w", f.ID, err)
	}
	if related.Valid || kind.Valid {
		f.Relation = &schema.Relation{
			CollectionID:  related.Int64,
			Kind:          schema.RelationKind(kind.String),
			ForeignKey:    fk.String,
			LocalKey:      lk.String,
			CascadeDelete: cascade,
		}
	}
	return &f, nil
}
