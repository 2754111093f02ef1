package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/syssam/contentkit"
	"github.com/syssam/contentkit/schema"
)

// Definition declares a collection and its fields, as read from a schema
// file:
//
//	name: Posts
//	fields:
//	  - name: title
//	    type: text
//	    required: true
//	  - name: author
//	    type: relation
//	    relation: {collection: authors, kind: one}
type Definition struct {
	schema.Collection `yaml:",inline"`
	Fields            []*schema.Field `yaml:"fields"`
}

// ApplyResult counts the changes made by Apply.
type ApplyResult struct {
	CollectionsCreated int
	CollectionsUpdated int
	FieldsCreated      int
	FieldsUpdated      int
}

// Changed reports if Apply wrote anything.
func (r ApplyResult) Changed() bool {
	return r.CollectionsCreated+r.CollectionsUpdated+r.FieldsCreated+r.FieldsUpdated > 0
}

// Apply brings the stored schema in line with defs in one transaction.
// Collections are matched by slug and fields by name. Missing ones are
// created and changed ones updated; nothing is deleted, and the active flag
// of existing collections and fields is kept. Relations may reference any
// collection in defs regardless of order.
func (e *Engine) Apply(ctx context.Context, defs []*Definition) (ApplyResult, error) {
	var res ApplyResult
	err := e.WithTx(ctx, func(tx *Engine) error {
		res = ApplyResult{}
		cols := make([]*schema.Collection, len(defs))
		for i, d := range defs {
			c, err := tx.applyCollection(ctx, d, &res)
			if err != nil {
				return err
			}
			cols[i] = c
		}
		for i, d := range defs {
			for _, f := range d.Fields {
				if err := tx.applyField(ctx, cols[i], f, &res); err != nil {
					return fmt.Errorf("collection %q: %w", cols[i].Slug, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return ApplyResult{}, err
	}
	e.logger.InfoContext(ctx, "schema applied",
		"collections_created", res.CollectionsCreated,
		"collections_updated", res.CollectionsUpdated,
		"fields_created", res.FieldsCreated,
		"fields_updated", res.FieldsUpdated,
	)
	return res, nil
}

func (e *Engine) applyCollection(ctx context.Context, d *Definition, res *ApplyResult) (*schema.Collection, error) {
	next := d.Collection
	next.EnsureSlug()
	cur, err := e.Collection(ctx, next.Slug)
	switch {
	case contentkit.IsNotFound(err):
		c := next
		if _, err := e.CreateCollection(ctx, &c); err != nil {
			return nil, err
		}
		res.CollectionsCreated++
		return &c, nil
	case err != nil:
		return nil, err
	}
	if same(collectionAttrs(cur), collectionAttrs(&next)) {
		return cur, nil
	}
	cur.Name, cur.Description, cur.Icon = next.Name, next.Description, next.Icon
	cur.Settings, cur.Permissions, cur.SortOrder = next.Settings, next.Permissions, next.SortOrder
	if err := e.UpdateCollection(ctx, cur); err != nil {
		return nil, err
	}
	res.CollectionsUpdated++
	return cur, nil
}

func (e *Engine) applyField(ctx context.Context, c *schema.Collection, decl *schema.Field, res *ApplyResult) error {
	next := *decl
	if decl.Relation != nil {
		r := *decl.Relation
		next.Relation = &r
	}
	var cur *schema.Field
	for _, f := range c.AllFields() {
		if f.Name == next.Name {
			cur = f
			break
		}
	}
	if cur == nil {
		if _, err := e.CreateField(ctx, c, &next); err != nil {
			return err
		}
		res.FieldsCreated++
		return nil
	}
	next.ID, next.CollectionID = cur.ID, cur.CollectionID
	next.Active, next.CreatedAt = cur.Active, cur.CreatedAt
	relatedName, err := e.resolveRelation(ctx, &next)
	if err != nil {
		return err
	}
	next.Normalize(relatedName)
	if same(fieldAttrsFull(cur), fieldAttrsFull(&next)) {
		return nil
	}
	f := next
	if err := e.UpdateField(ctx, c, &f); err != nil {
		return err
	}
	res.FieldsUpdated++
	return nil
}

func collectionAttrs(c *schema.Collection) []any {
	return []any{c.Name, c.Description, c.Icon, c.Settings, c.Permissions, c.SortOrder}
}

func fieldAttrsFull(f *schema.Field) []any {
	return []any{f.Label, f.Type, f.Default, f.Required, f.Unique, f.Searchable,
		f.Rules, f.Options, f.UI, f.SortOrder, f.Relation}
}

// same compares attribute lists by their JSON encoding, so decoded YAML
// and stored JSON documents compare equal.
func same(a, b []any) bool {
	x, err := json.Marshal(a)
	if err != nil {
		return false
	}
	y, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(x, y)
}
