package engine

import (
	"context"

	"github.com/syssam/contentkit"
	"github.com/syssam/contentkit/privacy"
	"github.com/syssam/contentkit/schema"
)

type query struct {
	typ        string
	collection *schema.Collection
}

func (q *query) Type() string                   { return q.typ }
func (q *query) Collection() *schema.Collection { return q.collection }

type mutation struct {
	typ        string
	op         privacy.Op
	collection *schema.Collection
	fields     map[string]any
}

func (m *mutation) Type() string                   { return m.typ }
func (m *mutation) Op() privacy.Op                 { return m.op }
func (m *mutation) Collection() *schema.Collection { return m.collection }

func (m *mutation) Field(name string) (any, bool) {
	v, ok := m.fields[name]
	return v, ok
}

// checkQuery evaluates the read policy.
func (e *Engine) checkQuery(ctx context.Context, typ string, c *schema.Collection) error {
	if e.policy == nil {
		return nil
	}
	err := privacy.Policies{e.policy}.EvalQuery(ctx, &query{typ: typ, collection: c})
	return denial(err, c, schema.ActionRead)
}

// checkMutation evaluates the write policy. fields exposes the attributes
// rules may inspect through Mutation.Field.
func (e *Engine) checkMutation(ctx context.Context, typ string, op privacy.Op, c *schema.Collection, fields map[string]any) error {
	if e.policy == nil {
		return nil
	}
	m := &mutation{typ: typ, op: op, collection: c, fields: fields}
	err := privacy.Policies{e.policy}.EvalMutation(ctx, m)
	return denial(err, c, privacy.Action(op))
}

func denial(err error, c *schema.Collection, action string) error {
	if err == nil {
		return nil
	}
	entity := "collections"
	if c != nil {
		entity = c.Slug
	}
	return contentkit.NewPrivacyError(entity, action, err.Error())
}
