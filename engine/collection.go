package engine

import (
	"context"

	"github.com/syssam/contentkit"
	"github.com/syssam/contentkit/privacy"
	"github.com/syssam/contentkit/schema"
)

// CreateCollection creates c. The slug is derived from the name unless set.
// The returned collection carries its (empty) field list. New collections
// are always active, whatever c.Active says; use DeactivateCollection to
// hide one.
func (e *Engine) CreateCollection(ctx context.Context, c *schema.Collection) (*schema.Collection, error) {
	return e.CreateCollectionWithFields(ctx, c)
}

// CreateCollectionWithFields creates c together with its initial fields in
// one transaction. Either all of them are created or none, and on failure
// the IDs and flags assigned to c and fields during the attempt are reset.
// The Active flags of c and fields are ignored: everything starts active.
func (e *Engine) CreateCollectionWithFields(ctx context.Context, c *schema.Collection, fields ...*schema.Field) (*schema.Collection, error) {
	c.EnsureSlug()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := e.checkMutation(ctx, privacy.TypeCollection, privacy.OpCreate, c, map[string]any{"name": c.Name, "slug": c.Slug}); err != nil {
		return nil, err
	}
	prev := *c
	restore := make([]func(), len(fields))
	for i, f := range fields {
		restore[i] = snapshot(f)
	}
	c.Active = true
	err := e.WithTx(ctx, func(tx *Engine) error {
		if err := tx.store.Collections().Create(ctx, c); err != nil {
			return err
		}
		c.SetFields(nil)
		for _, f := range fields {
			if err := tx.addField(ctx, c, f); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		*c = prev
		for _, r := range restore {
			r()
		}
		return nil, err
	}
	e.logger.InfoContext(ctx, "collection created", "collection", c.Slug, "fields", len(fields))
	return c, nil
}

// Collection returns the collection with the given slug and its full field
// set loaded.
func (e *Engine) Collection(ctx context.Context, slug string) (*schema.Collection, error) {
	c, err := e.store.Collections().GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return e.loadCollection(ctx, c)
}

// CollectionByID returns the collection with the given ID and its full
// field set loaded.
func (e *Engine) CollectionByID(ctx context.Context, id int64) (*schema.Collection, error) {
	c, err := e.store.Collections().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.loadCollection(ctx, c)
}

func (e *Engine) loadCollection(ctx context.Context, c *schema.Collection) (*schema.Collection, error) {
	if err := e.checkQuery(ctx, privacy.TypeCollection, c); err != nil {
		return nil, err
	}
	fields, err := e.store.Fields().ListByCollection(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.SetFields(fields)
	return c, nil
}

// Collections returns all collections with their fields loaded.
func (e *Engine) Collections(ctx context.Context) ([]*schema.Collection, error) {
	if err := e.checkQuery(ctx, privacy.TypeCollection, nil); err != nil {
		return nil, err
	}
	cs, err := e.store.Collections().List(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range cs {
		fields, err := e.store.Fields().ListByCollection(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		c.SetFields(fields)
	}
	return cs, nil
}

// UpdateCollection persists the attributes of c other than its fields:
// description, icon, settings, permissions, sort order and the active flag.
// Use RenameCollection to change the name.
func (e *Engine) UpdateCollection(ctx context.Context, c *schema.Collection) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := e.checkMutation(ctx, privacy.TypeCollection, privacy.OpUpdate, c, map[string]any{"name": c.Name, "slug": c.Slug}); err != nil {
		return err
	}
	if err := e.store.Collections().Update(ctx, c); err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "collection updated", "collection", c.Slug)
	return nil
}

// RenameCollection changes the name of c. The slug is kept unless it is
// empty.
func (e *Engine) RenameCollection(ctx context.Context, c *schema.Collection, name string) error {
	old := c.Name
	c.Rename(name)
	if err := e.UpdateCollection(ctx, c); err != nil {
		c.Name = old
		return err
	}
	return nil
}

// DeactivateCollection clears the active flag of c.
func (e *Engine) DeactivateCollection(ctx context.Context, c *schema.Collection) error {
	if err := guard(c, "deactivate"); err != nil {
		return err
	}
	c.Active = false
	if err := e.UpdateCollection(ctx, c); err != nil {
		c.Active = true
		return err
	}
	return nil
}

// DeleteCollection deletes c with all its fields, records and stored
// values.
func (e *Engine) DeleteCollection(ctx context.Context, c *schema.Collection) error {
	if err := guard(c, "delete"); err != nil {
		return err
	}
	if err := e.checkMutation(ctx, privacy.TypeCollection, privacy.OpDelete, c, map[string]any{"name": c.Name, "slug": c.Slug}); err != nil {
		return err
	}
	if err := e.store.Collections().Delete(ctx, c.ID); err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "collection deleted", "collection", c.Slug)
	return nil
}

// guard rejects structural edits of a system collection.
func guard(c *schema.Collection, op string) error {
	if c.System {
		return contentkit.NewProtectedError(c.Slug, op)
	}
	return nil
}

// CollectionStats holds the row counts of a collection.
type CollectionStats struct {
	Fields  int
	Records int
	Values  int
}

// Stats returns the number of fields, records and stored values of c.
func (e *Engine) Stats(ctx context.Context, c *schema.Collection) (CollectionStats, error) {
	if err := e.checkQuery(ctx, privacy.TypeCollection, c); err != nil {
		return CollectionStats{}, err
	}
	var s CollectionStats
	err := e.WithTx(ctx, func(tx *Engine) error {
		fs, err := tx.store.Fields().ListByCollection(ctx, c.ID)
		if err != nil {
			return err
		}
		s.Fields = len(fs)
		if s.Records, err = tx.store.Records().Count(ctx, c.ID); err != nil {
			return err
		}
		s.Values, err = tx.store.Values().CountByCollection(ctx, c.ID)
		return err
	})
	return s, err
}
