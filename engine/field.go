package engine

import (
	"context"
	"slices"

	"github.com/syssam/contentkit"
	"github.com/syssam/contentkit/privacy"
	"github.com/syssam/contentkit/schema"
)

// CreateField adds f to c. New fields are active. The name must be unique
// within c and the type one of the field types; a relation field must name
// an existing collection, by ID or by slug. On failure the state assigned
// to f and the field list of c are reset.
func (e *Engine) CreateField(ctx context.Context, c *schema.Collection, f *schema.Field) (*schema.Field, error) {
	if err := guard(c, "create field"); err != nil {
		return nil, err
	}
	if err := e.checkMutation(ctx, privacy.TypeField, privacy.OpCreate, c, fieldAttrs(f)); err != nil {
		return nil, err
	}
	edges, restore := c.Edges, snapshot(f)
	if err := e.WithTx(ctx, func(tx *Engine) error { return tx.addField(ctx, c, f) }); err != nil {
		c.Edges = edges
		restore()
		return nil, err
	}
	e.logger.InfoContext(ctx, "field created", "collection", c.Slug, "field", f.Name, "type", f.Type)
	return f, nil
}

func (e *Engine) addField(ctx context.Context, c *schema.Collection, f *schema.Field) error {
	f.CollectionID = c.ID
	f.Active = true
	if err := e.prepareField(ctx, f); err != nil {
		return err
	}
	if err := e.store.Fields().Create(ctx, f); err != nil {
		return err
	}
	c.SetFields(append(slices.Clone(c.Edges.Fields), f))
	return nil
}

// prepareField resolves the related collection, fills derived attributes
// and validates the definition, including uniqueness of the name.
func (e *Engine) prepareField(ctx context.Context, f *schema.Field) error {
	relatedName, err := e.resolveRelation(ctx, f)
	if err != nil {
		return err
	}
	f.Normalize(relatedName)
	if err := f.Validate(); err != nil {
		return err
	}
	taken, err := e.store.Fields().NameTaken(ctx, f.CollectionID, f.Name, f.ID)
	if err != nil {
		return err
	}
	if taken {
		return contentkit.Validationf("name", "field %q already exists", f.Name)
	}
	return nil
}

// resolveRelation looks up the related collection of a relation field, by
// ID or else by slug, and returns its name.
func (e *Engine) resolveRelation(ctx context.Context, f *schema.Field) (string, error) {
	r := f.Relation
	if r == nil {
		return "", nil
	}
	var (
		related *schema.Collection
		err     error
	)
	switch {
	case r.CollectionID != 0:
		related, err = e.store.Collections().Get(ctx, r.CollectionID)
	case r.Collection != "":
		related, err = e.store.Collections().GetBySlug(ctx, r.Collection)
	default:
		return "", nil
	}
	switch {
	case contentkit.IsNotFound(err):
		return "", contentkit.Validationf(f.Name, "related collection does not exist")
	case err != nil:
		return "", err
	}
	r.CollectionID, r.Collection = related.ID, related.Slug
	return related.Name, nil
}

// UpdateField persists the definition of f, a field of c. Renaming checks
// the new name against the other fields of c. Stored values keep the type
// they were written with.
func (e *Engine) UpdateField(ctx context.Context, c *schema.Collection, f *schema.Field) error {
	if err := guard(c, "update field"); err != nil {
		return err
	}
	if f.CollectionID != c.ID {
		return contentkit.Validationf(f.Name, "field belongs to another collection")
	}
	if err := e.checkMutation(ctx, privacy.TypeField, privacy.OpUpdate, c, fieldAttrs(f)); err != nil {
		return err
	}
	err := e.WithTx(ctx, func(tx *Engine) error {
		if err := tx.prepareField(ctx, f); err != nil {
			return err
		}
		return tx.store.Fields().Update(ctx, f)
	})
	if err != nil {
		return err
	}
	fields := slices.Clone(c.Edges.Fields)
	if i := slices.IndexFunc(fields, func(x *schema.Field) bool { return x.ID == f.ID }); i >= 0 {
		fields[i] = f
	}
	c.SetFields(fields)
	e.logger.InfoContext(ctx, "field updated", "collection", c.Slug, "field", f.Name)
	return nil
}

// ActivateField sets the active flag of f.
func (e *Engine) ActivateField(ctx context.Context, c *schema.Collection, f *schema.Field) error {
	return e.setActive(ctx, c, f, true)
}

// DeactivateField clears the active flag of f. Its stored values are kept
// but no longer read or written through records.
func (e *Engine) DeactivateField(ctx context.Context, c *schema.Collection, f *schema.Field) error {
	return e.setActive(ctx, c, f, false)
}

func (e *Engine) setActive(ctx context.Context, c *schema.Collection, f *schema.Field, active bool) error {
	prev := f.Active
	f.Active = active
	if err := e.UpdateField(ctx, c, f); err != nil {
		f.Active = prev
		return err
	}
	return nil
}

// DeleteField deletes f and its stored values.
func (e *Engine) DeleteField(ctx context.Context, c *schema.Collection, f *schema.Field) error {
	if err := guard(c, "delete field"); err != nil {
		return err
	}
	if f.CollectionID != c.ID {
		return contentkit.Validationf(f.Name, "field belongs to another collection")
	}
	if err := e.checkMutation(ctx, privacy.TypeField, privacy.OpDelete, c, fieldAttrs(f)); err != nil {
		return err
	}
	if err := e.store.Fields().Delete(ctx, f.ID); err != nil {
		return err
	}
	c.SetFields(slices.DeleteFunc(slices.Clone(c.Edges.Fields), func(x *schema.Field) bool { return x.ID == f.ID }))
	e.logger.InfoContext(ctx, "field deleted", "collection", c.Slug, "field", f.Name)
	return nil
}

// snapshot returns a function putting f, including its relation, back in
// its current state.
func snapshot(f *schema.Field) func() {
	saved := *f
	var rel schema.Relation
	if f.Relation != nil {
		rel = *f.Relation
	}
	return func() {
		*f = saved
		if f.Relation != nil {
			*f.Relation = rel
		}
	}
}

func fieldAttrs(f *schema.Field) map[string]any {
	return map[string]any{"name": f.Name, "type": f.Type.String()}
}
