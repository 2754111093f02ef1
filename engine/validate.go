package engine

import (
	"context"
	"errors"
	"time"

	"github.com/syssam/contentkit"
	"github.com/syssam/contentkit/schema"
	"github.com/syssam/contentkit/schema/field"
)

var (
	errRequired = errors.New("is required")
	errTaken    = errors.New("has already been taken")
	errUnknown  = errors.New("is not a field of the collection")
)

// validate checks values against the rules of the fields they belong to,
// in rule order. recordID is the record being updated, or zero on create.
// All failures are returned together; the first one of each field wins.
func (e *Engine) validate(ctx context.Context, fields []*schema.Field, values map[string]any, recordID int64) error {
	var errs []error
	for _, f := range fields {
		v, ok := values[f.Name]
		if !ok {
			continue
		}
		if err := e.validateValue(ctx, f, v, recordID); err != nil {
			errs = append(errs, err)
		}
	}
	return contentkit.NewAggregateError(errs...)
}

func (e *Engine) validateValue(ctx context.Context, f *schema.Field, v any, recordID int64) error {
	// Temporal values are checked in the text form they are stored in.
	if _, ok := v.(time.Time); ok {
		if text := f.CastForStorage(v); text != nil {
			v = *text
		}
	}
	empty := field.IsEmpty(v)
	for _, r := range f.ValidationRules() {
		switch {
		case r.Name == field.RuleRequired:
			if empty {
				return contentkit.NewValidationError(f.Name, errRequired)
			}
		case empty:
			// Optional and absent: the remaining rules do not apply.
			return nil
		case r.Name == field.RuleUnique:
			text := f.CastForStorage(v)
			if text == nil {
				continue
			}
			taken, err := e.store.Values().Exists(ctx, f.ID, *text, recordID)
			if err != nil {
				return err
			}
			if taken {
				return contentkit.NewValidationError(f.Name, errTaken)
			}
		default:
			if err := r.Check(v); err != nil {
				return contentkit.NewValidationError(f.Name, err)
			}
		}
	}
	if f.IsRelation() && !empty {
		if err := checkRefs(f, v); err != nil {
			return contentkit.NewValidationError(f.Name, err)
		}
	}
	return nil
}
