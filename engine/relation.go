package engine

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/syssam/contentkit"
	"github.com/syssam/contentkit/contrib/dataloader"
	"github.com/syssam/contentkit/privacy"
	"github.com/syssam/contentkit/record"
	"github.com/syssam/contentkit/schema"
)

// Loaders holds the request-scoped loaders of an Engine.
type Loaders struct {
	Records *dataloader.Loader[uuid.UUID, *record.Record]
}

// WithLoaders returns a context carrying fresh loaders. Relation lookups
// made with that context share one cache, so each related record is read
// once per request.
func (e *Engine) WithLoaders(ctx context.Context) context.Context {
	return dataloader.WithLoaders(ctx, e.newLoaders())
}

func (e *Engine) newLoaders() *Loaders {
	return &Loaders{
		Records: dataloader.New(func(ctx context.Context, ids []uuid.UUID) ([]*record.Record, []error) {
			recs, err := e.store.Records().GetByUUIDs(ctx, ids)
			if err != nil {
				return nil, []error{err}
			}
			return dataloader.OrderByKeys(ids, recs, func(r *record.Record) uuid.UUID { return r.UUID })
		}, dataloader.WithBatchCapacity(500)),
	}
}

func (e *Engine) loaders(ctx context.Context) *Loaders {
	if l := dataloader.For[*Loaders](ctx); l != nil {
		return l
	}
	return e.newLoaders()
}

// ResolveRelation returns the records referenced by the named relation
// field of rec, in stored order. References to deleted records, or to
// records outside the related collection, are skipped. An unknown field
// resolves to nothing; a field that is not a relation is an error.
func (e *Engine) ResolveRelation(ctx context.Context, c *schema.Collection, rec *record.Record, name string) ([]*record.Record, error) {
	if err := e.owns(c, rec); err != nil {
		return nil, err
	}
	f := c.FieldByName(name)
	if f == nil {
		e.logger.DebugContext(ctx, "relation of unknown field", "collection", c.Slug, "field", name)
		return nil, nil
	}
	if !f.IsRelation() {
		return nil, contentkit.Validationf(name, "not a relation field")
	}
	related, err := e.store.Collections().Get(ctx, f.Relation.CollectionID)
	if err != nil {
		return nil, err
	}
	if err := e.checkQuery(ctx, privacy.TypeRecord, related); err != nil {
		return nil, err
	}
	v, err := e.store.Values().Get(ctx, rec.ID, f.ID)
	switch {
	case contentkit.IsNotFound(err):
		return nil, nil
	case err != nil:
		return nil, err
	case v.Value == nil:
		return nil, nil
	}
	ids, err := parseRefs(*v.Value)
	if err != nil {
		e.logger.DebugContext(ctx, "malformed relation value", "collection", c.Slug, "field", name, "error", err)
		return nil, nil
	}
	recs, errs := e.loaders(ctx).Records.LoadMany(ctx, ids)
	out := make([]*record.Record, 0, len(recs))
	for i, r := range recs {
		switch err := errs[i]; {
		case errors.Is(err, dataloader.ErrNotFound):
			e.logger.DebugContext(ctx, "dangling relation", "field", name, "ref", ids[i])
		case err != nil:
			return nil, err
		case r.CollectionID == related.ID:
			out = append(out, r)
		}
	}
	return out, nil
}

// parseRefs reads a stored relation value: one UUID, or a JSON list of
// UUIDs.
func parseRefs(s string) ([]uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "[") {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		return []uuid.UUID{id}, nil
	}
	var refs []string
	if err := json.Unmarshal([]byte(s), &refs); err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(refs))
	for i, ref := range refs {
		id, err := uuid.Parse(ref)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// checkRefs validates the value of a relation field: record UUIDs, and
// a single one for a to-one relation.
func checkRefs(f *schema.Field, v any) error {
	text := f.CastForStorage(v)
	if text == nil {
		return nil
	}
	ids, err := parseRefs(*text)
	if err != nil {
		return errors.New("must reference records by UUID")
	}
	if f.Relation != nil && !f.Relation.Kind.Multiple() && len(ids) > 1 {
		return errors.New("must reference a single record")
	}
	return nil
}
