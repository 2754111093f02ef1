package privacy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/contentkit/privacy"
	"github.com/syssam/contentkit/schema"
)

// read and write describe engine operations the way the engine reports
// them to a policy.
type read struct {
	typ        string
	collection *schema.Collection
}

func (r read) Type() string                   { return r.typ }
func (r read) Collection() *schema.Collection { return r.collection }

type write struct {
	typ        string
	op         privacy.Op
	collection *schema.Collection
	attrs      map[string]any
}

func (w write) Type() string                   { return w.typ }
func (w write) Op() privacy.Op                 { return w.op }
func (w write) Collection() *schema.Collection { return w.collection }

func (w write) Field(name string) (any, bool) {
	v, ok := w.attrs[name]
	return v, ok
}

func postsCollection() *schema.Collection {
	return &schema.Collection{
		Name: "Posts",
		Slug: "posts",
		Permissions: map[string][]string{
			schema.ActionRead:   {"reader", "editor"},
			schema.ActionCreate: {"editor"},
			schema.ActionUpdate: {"editor"},
		},
	}
}

func recordWrite(op privacy.Op, createdBy string) write {
	return write{typ: privacy.TypeRecord, op: op, collection: postsCollection(), attrs: map[string]any{"created_by": createdBy}}
}

func TestDecisionHelpers(t *testing.T) {
	t.Parallel()

	err := privacy.Denyf("viewer %q may not update %s", "bob", "posts")
	assert.ErrorIs(t, err, privacy.Deny)
	assert.Contains(t, err.Error(), `viewer "bob" may not update posts`)
	assert.ErrorIs(t, privacy.Allowf("admin"), privacy.Allow)
	assert.ErrorIs(t, privacy.Skipf("no map"), privacy.Skip)
}

func TestOp(t *testing.T) {
	t.Parallel()

	assert.True(t, privacy.OpUpdate.Is(privacy.OpUpdate|privacy.OpDelete))
	assert.False(t, privacy.OpCreate.Is(privacy.OpUpdate|privacy.OpDelete))
	assert.Equal(t, "OpDelete", privacy.OpDelete.String())
	assert.Equal(t, "Op(6)", (privacy.OpUpdate | privacy.OpDelete).String())
}

func TestOnType(t *testing.T) {
	t.Parallel()

	rule := privacy.OnType(privacy.AlwaysDenyRule(), privacy.TypeField)
	tests := []struct {
		typ  string
		want error
	}{
		{privacy.TypeCollection, privacy.Skip},
		{privacy.TypeField, privacy.Deny},
		{privacy.TypeRecord, privacy.Skip},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			assert.ErrorIs(t, rule.EvalQuery(ctx, read{typ: tt.typ}), tt.want)
			assert.ErrorIs(t, rule.EvalMutation(ctx, write{typ: tt.typ, op: privacy.OpCreate}), tt.want)
		})
	}
}

func TestOnMutationOperation(t *testing.T) {
	t.Parallel()

	rule := privacy.DenyMutationOperationRule(privacy.OpDelete)
	ctx := context.Background()
	assert.ErrorIs(t, rule.EvalMutation(ctx, recordWrite(privacy.OpUpdate, "ada")), privacy.Skip)
	err := rule.EvalMutation(ctx, recordWrite(privacy.OpDelete, "ada"))
	assert.ErrorIs(t, err, privacy.Deny)
	assert.Contains(t, err.Error(), "OpDelete")

	allow := privacy.AllowMutationOperationRule(privacy.OpCreate | privacy.OpUpdate)
	assert.ErrorIs(t, allow.EvalMutation(ctx, recordWrite(privacy.OpCreate, "ada")), privacy.Allow)
	assert.ErrorIs(t, allow.EvalMutation(ctx, recordWrite(privacy.OpDelete, "ada")), privacy.Skip)
}

func TestPolicy(t *testing.T) {
	t.Parallel()

	p := privacy.Policy{
		Query: privacy.QueryPolicy{
			privacy.OnType(privacy.AlwaysAllowRule(), privacy.TypeCollection),
			privacy.AlwaysDenyRule(),
		},
		Mutation: privacy.MutationPolicy{
			privacy.DenyMutationOperationRule(privacy.OpDelete),
		},
	}
	ctx := context.Background()
	assert.ErrorIs(t, p.EvalQuery(ctx, read{typ: privacy.TypeCollection}), privacy.Allow,
		"a bare policy returns the decision as is")
	assert.ErrorIs(t, p.EvalQuery(ctx, read{typ: privacy.TypeRecord, collection: postsCollection()}), privacy.Deny)
	assert.NoError(t, p.EvalMutation(ctx, recordWrite(privacy.OpCreate, "ada")), "all rules skipped")
	assert.ErrorIs(t, p.EvalMutation(ctx, recordWrite(privacy.OpDelete, "ada")), privacy.Deny)
}

func TestPolicies(t *testing.T) {
	t.Parallel()

	admins := privacy.Policy{Mutation: privacy.MutationPolicy{privacy.HasRole("admin")}}
	locked := privacy.Policy{Mutation: privacy.MutationPolicy{privacy.OnType(privacy.AlwaysDenyRule(), privacy.TypeField)}}
	policies := privacy.Policies{admins, locked}
	fieldWrite := write{typ: privacy.TypeField, op: privacy.OpCreate, collection: postsCollection()}

	admin := privacy.WithViewer(context.Background(), &privacy.SimpleViewer{UserID: "root", Roles: []string{"admin"}})
	assert.NoError(t, policies.EvalMutation(admin, fieldWrite), "allow ends the evaluation")

	editor := privacy.WithViewer(context.Background(), &privacy.SimpleViewer{UserID: "ada", Roles: []string{"editor"}})
	assert.ErrorIs(t, policies.EvalMutation(editor, fieldWrite), privacy.Deny)
	assert.NoError(t, policies.EvalMutation(editor, recordWrite(privacy.OpCreate, "ada")))
}

func TestDecisionContext(t *testing.T) {
	t.Parallel()

	policies := privacy.Policies{privacy.AlwaysDenyRule()}
	q := read{typ: privacy.TypeRecord, collection: postsCollection()}

	tests := []struct {
		name     string
		decision error
		want     error
	}{
		{"allow", privacy.Allow, nil},
		{"deny", privacy.Denyf("maintenance"), privacy.Deny},
		{"skip", privacy.Skip, privacy.Deny},
		{"nil", nil, privacy.Deny},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := privacy.DecisionContext(context.Background(), tt.decision)
			err := policies.EvalQuery(ctx, q)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, ok := privacy.DecisionFromContext(context.Background())
	assert.False(t, ok)
	decision, ok := privacy.DecisionFromContext(privacy.DecisionContext(context.Background(), privacy.Allow))
	require.True(t, ok)
	assert.NoError(t, decision)
}

func TestContextQueryMutationRule(t *testing.T) {
	t.Parallel()

	errMaintenance := errors.New("read only")
	type modeKey struct{}
	rule := privacy.ContextQueryMutationRule(func(ctx context.Context) error {
		if ctx.Value(modeKey{}) == "read-only" {
			return privacy.Denyf("%v", errMaintenance)
		}
		return nil
	})
	policy := privacy.Policy{
		Query:    privacy.QueryPolicy{rule},
		Mutation: privacy.MutationPolicy{rule},
	}
	ctx := context.WithValue(context.Background(), modeKey{}, "read-only")
	assert.NoError(t, policy.EvalQuery(context.Background(), read{typ: privacy.TypeRecord}))
	assert.NoError(t, policy.EvalMutation(context.Background(), recordWrite(privacy.OpUpdate, "ada")))
	assert.ErrorIs(t, policy.EvalQuery(ctx, read{typ: privacy.TypeRecord}), privacy.Deny)
	assert.ErrorIs(t, policy.EvalMutation(ctx, recordWrite(privacy.OpUpdate, "ada")), privacy.Deny)

	funcRule := privacy.QueryRuleFunc(func(_ context.Context, q privacy.Query) error {
		if q.Collection() != nil && q.Collection().System {
			return privacy.Denyf("system collection")
		}
		return privacy.Skip
	})
	assert.ErrorIs(t, funcRule.EvalQuery(context.Background(), read{typ: privacy.TypeRecord, collection: &schema.Collection{System: true}}), privacy.Deny)
	assert.ErrorIs(t, funcRule.EvalQuery(context.Background(), read{typ: privacy.TypeRecord, collection: postsCollection()}), privacy.Skip)
}
