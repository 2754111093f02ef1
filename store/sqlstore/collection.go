package sqlstore

import (
	"context"
	"fmt"

	"github.com/syssam/contentkit"
	"github.com/syssam/contentkit/dialect/sql"
	"github.com/syssam/contentkit/schema"
	"github.com/syssam/contentkit/store"
)

const collectionColumns = "id, name, slug, description, icon, active, is_system, settings, permissions, sort_order, created_at, updated_at"

type collections struct{ *Store }

func (r *collections) Create(ctx context.Context, c *schema.Collection) error {
	r.stamp(&c.CreatedAt, &c.UpdatedAt)
	args, err := collectionArgs(c)
	if err != nil {
		return mutationError("collection", "create", err)
	}
	args = append(args, c.CreatedAt, c.UpdatedAt)
	id, err := r.insert(ctx, "INSERT INTO collections (name, slug, description, icon, active, is_system, settings, permissions, sort_order, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", args)
	if err != nil {
		return mutationError("collection", "create", err)
	}
	c.ID = id
	return nil
}

func (r *collections) Update(ctx context.Context, c *schema.Collection) error {
	c.UpdatedAt = r.now()
	args, err := collectionArgs(c)
	if err != nil {
		return mutationError("collection", "update", err)
	}
	args = append(args, c.UpdatedAt, c.ID)
	n, err := r.exec(ctx, "UPDATE collections SET name = ?, slug = ?, description = ?, icon = ?, active = ?, is_system = ?, settings = ?, permissions = ?, sort_order = ?, updated_at = ? WHERE id = ?", args...)
	if err != nil {
		return mutationError("collection", "update", err)
	}
	if n == 0 {
		return contentkit.NewNotFoundErrorWithID("collection", c.ID)
	}
	return nil
}

// Delete removes dependent rows explicitly so the cascade holds even when
// the database does not enforce foreign keys.
func (r *collections) Delete(ctx context.Context, id int64) error {
	return r.WithTx(ctx, func(s store.Store) error {
		tx := s.(*Store)
		for _, q := range []string{
			"DELETE FROM record_values WHERE collection_id = ?",
			"DELETE FROM records WHERE collection_id = ?",
			"DELETE FROM fields WHERE collection_id = ?",
		} {
			if _, err := tx.exec(ctx, q, id); err != nil {
				return mutationError("collection", "delete", err)
			}
		}
		n, err := tx.exec(ctx, "DELETE FROM collections WHERE id = ?", id)
		if err != nil {
			return mutationError("collection", "delete", err)
		}
		if n == 0 {
			return contentkit.NewNotFoundErrorWithID("collection", id)
		}
		return nil
	})
}

func (r *collections) Get(ctx context.Context, id int64) (*schema.Collection, error) {
	return r.one(ctx, "get", "SELECT "+collectionColumns+" FROM collections WHERE id = ?", id)
}

func (r *collections) GetBySlug(ctx context.Context, slug string) (*schema.Collection, error) {
	return r.one(ctx, "get", "SELECT "+collectionColumns+" FROM collections WHERE slug = ?", slug)
}

func (r *collections) List(ctx context.Context) ([]*schema.Collection, error) {
	rows := &sql.Rows{}
	if err := r.conn.Query(ctx, "SELECT "+collectionColumns+" FROM collections ORDER BY sort_order, id", []any{}, rows); err != nil {
		return nil, queryError("collection", "list", err)
	}
	var cs []*schema.Collection
	err := sql.ScanAll(rows, func(sc sql.ColumnScanner) error {
		c, err := scanCollection(sc)
		if err != nil {
			return err
		}
		cs = append(cs, c)
		return nil
	})
	if err != nil {
		return nil, queryError("collection", "list", err)
	}
	return cs, nil
}

func (r *collections) one(ctx context.Context, op, query string, key any) (*schema.Collection, error) {
	rows := &sql.Rows{}
	if err := r.conn.Query(ctx, query, []any{key}, rows); err != nil {
		return nil, queryError("collection", op, err)
	}
	var c *schema.Collection
	err := sql.ScanAll(rows, func(sc sql.ColumnScanner) (err error) {
		c, err = scanCollection(sc)
		return err
	})
	switch {
	case err != nil:
		return nil, queryError("collection", op, err)
	case c == nil:
		return nil, contentkit.NewNotFoundErrorWithID("collection", key)
	}
	return c, nil
}

func collectionArgs(c *schema.Collection) ([]any, error) {
	settings, err := encodeJSON(c.Settings)
	if err != nil {
		return nil, fmt.Errorf("encoding settings: %w", err)
	}
	perms, err := encodeJSON(c.Permissions)
	if err != nil {
		return nil, fmt.Errorf("encoding permissions: %w", err)
	}
	return []any{c.Name, c.Slug, nullString(c.Description), nullString(c.Icon), c.Active, c.System, settings, perms, c.SortOrder}, nil
}

func scanCollection(sc sql.ColumnScanner) (*schema.Collection, error) {
	var (
		c                      schema.Collection
		desc, icon, set, perms sql.NullString
	)
	if err := sc.Scan(&c.ID, &c.Name, &c.Slug, &desc, &icon, &c.Active, &c.System, &set, &perms, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Description, c.Icon = desc.String, icon.String
	if err := decodeJSON(set, &c.Settings); err != nil {
		return nil, fmt.Errorf("collection %d: decoding settings: %w", c.ID, err)
	}
	if err := decodeJSON(perms, &c.Permissions); err != nil {
		return nil, fmt.Errorf("collection %d: decoding permissions: %w", c.ID, err)
	}
	return &c, nil
}
