package engine

import (
	"context"
	"maps"

	"github.com/google/uuid"

	"github.com/syssam/contentkit"
	"github.com/syssam/contentkit/contrib/dataloader"
	"github.com/syssam/contentkit/privacy"
	"github.com/syssam/contentkit/record"
	"github.com/syssam/contentkit/schema"
	"github.com/syssam/contentkit/store"
)

// CreateRecord creates a record of c authored by actor. Every active field
// takes its value from values, or its default when absent; null values are
// not stored. Keys that are not active fields of c are ignored. The record
// and its values are written in one transaction after all of them passed
// validation. It returns the record with its values as read back.
func (e *Engine) CreateRecord(ctx context.Context, c *schema.Collection, values map[string]any, actor string) (*record.Record, map[string]any, error) {
	fields, err := activeFields(c)
	if err != nil {
		return nil, nil, err
	}
	attrs := maps.Clone(values)
	if attrs == nil {
		attrs = map[string]any{}
	}
	attrs["created_by"] = actor
	if err := e.checkMutation(ctx, privacy.TypeRecord, privacy.OpCreate, c, attrs); err != nil {
		return nil, nil, err
	}
	resolved := make(map[string]any, len(fields))
	for _, f := range fields {
		v, ok := values[f.Name]
		if !ok {
			v = f.DefaultValue()
		}
		resolved[f.Name] = v
	}
	rec := &record.Record{
		CollectionID: c.ID,
		UUID:         uuid.New(),
		CreatedBy:    actor,
		UpdatedBy:    actor,
	}
	if e.publishOnCreate {
		rec.Publish(e.now())
	}
	data := make(map[string]any, len(fields))
	err = e.WithTx(ctx, func(tx *Engine) error {
		if err := tx.validate(ctx, fields, resolved, 0); err != nil {
			return err
		}
		if err := tx.store.Records().Create(ctx, rec); err != nil {
			return err
		}
		for _, f := range fields {
			text := f.CastForStorage(resolved[f.Name])
			if text == nil {
				continue
			}
			if err := tx.upsert(ctx, rec, f, text); err != nil {
				return err
			}
			data[f.Name] = f.CastValue(text)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	for _, f := range fields {
		if _, ok := data[f.Name]; !ok {
			data[f.Name] = nil
		}
	}
	return rec, data, nil
}

// Record returns the record of c with the given UUID.
func (e *Engine) Record(ctx context.Context, c *schema.Collection, id uuid.UUID) (*record.Record, error) {
	if err := e.checkQuery(ctx, privacy.TypeRecord, c); err != nil {
		return nil, err
	}
	rec, err := e.store.Records().GetByUUID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.CollectionID != c.ID {
		return nil, contentkit.NewNotFoundErrorWithID("record", id)
	}
	return rec, nil
}

// Records lists the records of c.
func (e *Engine) Records(ctx context.Context, c *schema.Collection, opts store.ListOptions) ([]*record.Record, error) {
	if err := e.checkQuery(ctx, privacy.TypeRecord, c); err != nil {
		return nil, err
	}
	return e.store.Records().List(ctx, c.ID, opts)
}

// FindRecords returns the records of c whose value of the named field
// equals v once cast for storage. An unknown field name finds nothing.
func (e *Engine) FindRecords(ctx context.Context, c *schema.Collection, name string, v any) ([]*record.Record, error) {
	if err := e.checkQuery(ctx, privacy.TypeRecord, c); err != nil {
		return nil, err
	}
	f := c.FieldByName(name)
	if f == nil {
		e.logger.DebugContext(ctx, "find on unknown field", "collection", c.Slug, "field", name)
		return nil, nil
	}
	text := f.CastForStorage(v)
	if text == nil {
		return nil, nil
	}
	ids, err := e.store.Values().RecordsWithValue(ctx, f.ID, *text)
	if err != nil {
		return nil, err
	}
	recs := make([]*record.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := e.store.Records().Get(ctx, id)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// GetFieldValue returns the typed value of the named field of rec. An
// unknown or inactive field reads as nil. A field without a stored value
// reads as its default.
func (e *Engine) GetFieldValue(ctx context.Context, c *schema.Collection, rec *record.Record, name string) (any, error) {
	if err := e.owns(c, rec); err != nil {
		return nil, err
	}
	if err := e.checkQuery(ctx, privacy.TypeRecord, c); err != nil {
		return nil, err
	}
	f := c.FieldByName(name)
	if f == nil {
		e.logger.DebugContext(ctx, "read of unknown field", "collection", c.Slug, "field", name)
		return nil, nil
	}
	v, err := e.store.Values().Get(ctx, rec.ID, f.ID)
	switch {
	case contentkit.IsNotFound(err):
		return f.DefaultValue(), nil
	case err != nil:
		return nil, err
	}
	return f.CastValue(v.Value), nil
}

// SetFieldValue validates v and writes it as the value of the named field
// of rec, replacing any previous value. It reports false, without error,
// when c has no active field with that name.
func (e *Engine) SetFieldValue(ctx context.Context, c *schema.Collection, rec *record.Record, name string, v any) (bool, error) {
	if err := e.owns(c, rec); err != nil {
		return false, err
	}
	f := c.FieldByName(name)
	if f == nil {
		return false, nil
	}
	if err := e.checkMutation(ctx, privacy.TypeRecord, privacy.OpUpdate, c, map[string]any{"created_by": rec.CreatedBy, name: v}); err != nil {
		return false, err
	}
	err := e.WithTx(ctx, func(tx *Engine) error {
		if err := tx.validate(ctx, []*schema.Field{f}, map[string]any{name: v}, rec.ID); err != nil {
			return err
		}
		return tx.upsert(ctx, rec, f, f.CastForStorage(v))
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// FieldValues returns the typed values of the active fields of rec, keyed
// by field name. Values of inactive or deleted fields are not included.
func (e *Engine) FieldValues(ctx context.Context, c *schema.Collection, rec *record.Record) (map[string]any, error) {
	if err := e.owns(c, rec); err != nil {
		return nil, err
	}
	if err := e.checkQuery(ctx, privacy.TypeRecord, c); err != nil {
		return nil, err
	}
	fields, err := activeFields(c)
	if err != nil {
		return nil, err
	}
	vs, err := e.store.Values().ListByRecord(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	return fieldData(fields, vs), nil
}

// UpdateRecord sets the updater of rec to actor and writes the values
// present in values. Fields missing from values keep their value. Every
// key must name an active field of c; nothing is written otherwise.
func (e *Engine) UpdateRecord(ctx context.Context, c *schema.Collection, rec *record.Record, values map[string]any, actor string) error {
	if err := e.owns(c, rec); err != nil {
		return err
	}
	fields, err := activeFields(c)
	if err != nil {
		return err
	}
	var unknown []error
	for name := range values {
		if c.FieldByName(name) == nil {
			unknown = append(unknown, contentkit.NewValidationError(name, errUnknown))
		}
	}
	if err := contentkit.NewAggregateError(unknown...); err != nil {
		return err
	}
	attrs := maps.Clone(values)
	if attrs == nil {
		attrs = map[string]any{}
	}
	attrs["created_by"] = rec.CreatedBy
	if err := e.checkMutation(ctx, privacy.TypeRecord, privacy.OpUpdate, c, attrs); err != nil {
		return err
	}
	prev := rec.UpdatedBy
	rec.UpdatedBy = actor
	err = e.WithTx(ctx, func(tx *Engine) error {
		if err := tx.validate(ctx, fields, values, rec.ID); err != nil {
			return err
		}
		if err := tx.store.Records().Update(ctx, rec); err != nil {
			return err
		}
		for _, f := range fields {
			v, ok := values[f.Name]
			if !ok {
				continue
			}
			if err := tx.upsert(ctx, rec, f, f.CastForStorage(v)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		rec.UpdatedBy = prev
		return err
	}
	return nil
}

// PublishRecord publishes rec now. Publishing a published record moves its
// publish timestamp.
func (e *Engine) PublishRecord(ctx context.Context, c *schema.Collection, rec *record.Record) error {
	return e.setPublished(ctx, c, rec, true)
}

// UnpublishRecord turns rec back into a draft.
func (e *Engine) UnpublishRecord(ctx context.Context, c *schema.Collection, rec *record.Record) error {
	return e.setPublished(ctx, c, rec, false)
}

func (e *Engine) setPublished(ctx context.Context, c *schema.Collection, rec *record.Record, publish bool) error {
	if err := e.owns(c, rec); err != nil {
		return err
	}
	if err := e.checkMutation(ctx, privacy.TypeRecord, privacy.OpUpdate, c, map[string]any{"created_by": rec.CreatedBy}); err != nil {
		return err
	}
	prev := rec.PublishedAt
	if publish {
		rec.Publish(e.now())
	} else {
		rec.Unpublish()
	}
	if err := e.store.Records().Update(ctx, rec); err != nil {
		rec.PublishedAt = prev
		return err
	}
	return nil
}

// DeleteRecord deletes rec and its stored values.
func (e *Engine) DeleteRecord(ctx context.Context, c *schema.Collection, rec *record.Record) error {
	if err := e.owns(c, rec); err != nil {
		return err
	}
	if err := e.checkMutation(ctx, privacy.TypeRecord, privacy.OpDelete, c, map[string]any{"created_by": rec.CreatedBy}); err != nil {
		return err
	}
	return e.store.Records().Delete(ctx, rec.ID)
}

// View returns the external view of rec.
func (e *Engine) View(ctx context.Context, c *schema.Collection, rec *record.Record) (*record.View, error) {
	data, err := e.FieldValues(ctx, c, rec)
	if err != nil {
		return nil, err
	}
	return rec.View(data), nil
}

// Views returns the external views of recs, all records of c, reading
// their values in one query.
func (e *Engine) Views(ctx context.Context, c *schema.Collection, recs []*record.Record) ([]*record.View, error) {
	if err := e.checkQuery(ctx, privacy.TypeRecord, c); err != nil {
		return nil, err
	}
	fields, err := activeFields(c)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(recs))
	for i, rec := range recs {
		if err := e.owns(c, rec); err != nil {
			return nil, err
		}
		ids[i] = rec.ID
	}
	vs, err := e.store.Values().ListByRecords(ctx, ids)
	if err != nil {
		return nil, err
	}
	groups := dataloader.OrderGroupsByKeys(ids, dataloader.GroupByKey(vs, func(v *record.Value) int64 { return v.RecordID }))
	views := make([]*record.View, len(recs))
	for i, rec := range recs {
		views[i] = rec.View(fieldData(fields, groups[i]))
	}
	return views, nil
}

func (e *Engine) upsert(ctx context.Context, rec *record.Record, f *schema.Field, text *string) error {
	return e.store.Values().Upsert(ctx, &record.Value{
		CollectionID: rec.CollectionID,
		RecordID:     rec.ID,
		FieldID:      f.ID,
		Value:        text,
		Type:         f.Type,
	})
}

// owns rejects a record of another collection, so no value is ever read
// or written through a foreign field.
func (e *Engine) owns(c *schema.Collection, rec *record.Record) error {
	if rec.CollectionID != c.ID {
		return contentkit.Validationf("record", "record %s does not belong to collection %q", rec.UUID, c.Slug)
	}
	return nil
}

func activeFields(c *schema.Collection) ([]*schema.Field, error) {
	if _, err := c.Edges.FieldsOrErr(); err != nil {
		return nil, err
	}
	return c.Fields(), nil
}

// fieldData casts the stored values of the given fields. A field without a
// stored value reads as its default.
func fieldData(fields []*schema.Field, vs []*record.Value) map[string]any {
	byField := make(map[int64]*record.Value, len(vs))
	for _, v := range vs {
		byField[v.FieldID] = v
	}
	data := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := byField[f.ID]; ok {
			data[f.Name] = f.CastValue(v.Value)
		} else {
			data[f.Name] = f.DefaultValue()
		}
	}
	return data
}
