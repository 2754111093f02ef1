package privacy_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/contentkit/privacy"
	"github.com/syssam/contentkit/schema"
)

func as(id string, roles ...string) context.Context {
	return privacy.WithViewer(context.Background(), &privacy.SimpleViewer{UserID: id, Roles: roles})
}

func TestViewerFromContext(t *testing.T) {
	t.Parallel()

	assert.Nil(t, privacy.ViewerFromContext(context.Background()))
	v := privacy.ViewerFromContext(as("ada", "editor"))
	assert.Equal(t, "ada", v.GetID())
	assert.Equal(t, []string{"editor"}, v.GetRoles())
}

func TestRoleRules(t *testing.T) {
	t.Parallel()

	fieldWrite := write{typ: privacy.TypeField, op: privacy.OpUpdate, collection: postsCollection()}
	tests := []struct {
		name string
		rule privacy.QueryMutationRule
		ctx  context.Context
		want error
	}{
		{"no viewer is denied", privacy.DenyIfNoViewer(), context.Background(), privacy.Deny},
		{"viewer passes", privacy.DenyIfNoViewer(), as("ada"), privacy.Skip},
		{"role held", privacy.HasRole("admin"), as("root", "admin"), privacy.Allow},
		{"role missing", privacy.HasRole("admin"), as("ada", "editor"), privacy.Skip},
		{"role without viewer", privacy.HasRole("admin"), context.Background(), privacy.Skip},
		{"any role held", privacy.HasAnyRole("admin", "architect"), as("ada", "editor", "architect"), privacy.Allow},
		{"no role held", privacy.HasAnyRole("admin", "architect"), as("ada", "editor"), privacy.Skip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, tt.rule.EvalMutation(tt.ctx, fieldWrite), tt.want)
			assert.ErrorIs(t, tt.rule.EvalQuery(tt.ctx, read{typ: privacy.TypeField, collection: postsCollection()}), tt.want)
		})
	}
}

func TestIsOwner(t *testing.T) {
	t.Parallel()

	rule := privacy.OnMutationOperation(privacy.IsOwner("created_by"), privacy.OpUpdate|privacy.OpDelete)
	tests := []struct {
		name string
		ctx  context.Context
		m    privacy.Mutation
		want error
	}{
		{"author updates", as("ada"), recordWrite(privacy.OpUpdate, "ada"), privacy.Allow},
		{"author deletes", as("ada"), recordWrite(privacy.OpDelete, "ada"), privacy.Allow},
		{"other viewer", as("bob"), recordWrite(privacy.OpUpdate, "ada"), privacy.Skip},
		{"create is not checked", as("bob"), recordWrite(privacy.OpCreate, "ada"), privacy.Skip},
		{"anonymous", context.Background(), recordWrite(privacy.OpUpdate, "ada"), privacy.Skip},
		{"no author", as("ada"), write{typ: privacy.TypeRecord, op: privacy.OpUpdate, collection: postsCollection()}, privacy.Skip},
		{"nil author", as("ada"), write{typ: privacy.TypeRecord, op: privacy.OpUpdate, attrs: map[string]any{"created_by": nil}}, privacy.Skip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, rule.EvalMutation(tt.ctx, tt.m), tt.want)
		})
	}
}

func TestCollectionPermissions(t *testing.T) {
	t.Parallel()

	rule := privacy.CollectionPermissions()
	posts := postsCollection()
	open := &schema.Collection{Name: "Pages", Slug: "pages"}

	t.Run("Reads", func(t *testing.T) {
		t.Parallel()
		q := read{typ: privacy.TypeRecord, collection: posts}
		assert.ErrorIs(t, rule.EvalQuery(as("bob", "reader"), q), privacy.Skip)
		assert.ErrorIs(t, rule.EvalQuery(as("eve", "guest"), q), privacy.Deny)
		assert.ErrorIs(t, rule.EvalQuery(context.Background(), q), privacy.Deny)
		assert.ErrorIs(t, rule.EvalQuery(context.Background(), read{typ: privacy.TypeRecord, collection: open}), privacy.Skip,
			"a collection without a map is left to other rules")
		assert.ErrorIs(t, rule.EvalQuery(context.Background(), read{typ: privacy.TypeCollection, collection: posts}), privacy.Skip,
			"only record reads are checked")
	})

	t.Run("Writes", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			name string
			ctx  context.Context
			op   privacy.Op
			want error
		}{
			{"editor creates", as("ada", "editor"), privacy.OpCreate, privacy.Skip},
			{"reader creates", as("bob", "reader"), privacy.OpCreate, privacy.Deny},
			{"editor updates", as("ada", "editor"), privacy.OpUpdate, privacy.Skip},
			{"reader updates", as("bob", "reader"), privacy.OpUpdate, privacy.Deny},
			{"delete is not mapped", as("bob", "reader"), privacy.OpDelete, privacy.Skip},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()
				m := write{typ: privacy.TypeRecord, op: tt.op, collection: posts}
				assert.ErrorIs(t, rule.EvalMutation(tt.ctx, m), tt.want)
			})
		}
		err := rule.EvalMutation(as("bob", "reader"), write{typ: privacy.TypeRecord, op: privacy.OpUpdate, collection: posts})
		assert.EqualError(t, err, `privacy: viewer "bob" may not update posts: contentkit/privacy: deny rule`)
		assert.ErrorIs(t, rule.EvalMutation(context.Background(), write{typ: privacy.TypeField, op: privacy.OpCreate, collection: posts}), privacy.Skip,
			"schema writes are not covered by record permissions")
	})
}

func TestAction(t *testing.T) {
	t.Parallel()

	assert.Equal(t, schema.ActionCreate, privacy.Action(privacy.OpCreate))
	assert.Equal(t, schema.ActionUpdate, privacy.Action(privacy.OpUpdate))
	assert.Equal(t, schema.ActionDelete, privacy.Action(privacy.OpDelete))
}

func TestEditorialPolicy(t *testing.T) {
	t.Parallel()

	policy := privacy.Policies{privacy.Policy{
		Query: privacy.QueryPolicy{privacy.CollectionPermissions()},
		Mutation: privacy.MutationPolicy{
			privacy.OnType(privacy.HasRole("admin"), privacy.TypeCollection),
			privacy.OnType(privacy.AlwaysDenyRule(), privacy.TypeCollection),
			privacy.CollectionPermissions(),
			privacy.OnMutationOperation(privacy.IsOwner("created_by"), privacy.OpDelete),
			privacy.DenyMutationOperationRule(privacy.OpDelete),
		},
	}}

	colWrite := write{typ: privacy.TypeCollection, op: privacy.OpUpdate, collection: postsCollection()}
	assert.NoError(t, policy.EvalMutation(as("root", "admin"), colWrite))
	assert.ErrorIs(t, policy.EvalMutation(as("ada", "editor"), colWrite), privacy.Deny)

	assert.NoError(t, policy.EvalMutation(as("ada", "editor"), recordWrite(privacy.OpUpdate, "carol")))
	assert.NoError(t, policy.EvalMutation(as("ada", "editor"), recordWrite(privacy.OpDelete, "ada")))
	assert.ErrorIs(t, policy.EvalMutation(as("ada", "editor"), recordWrite(privacy.OpDelete, "carol")), privacy.Deny)
	assert.NoError(t, policy.EvalQuery(as("bob", "reader"), read{typ: privacy.TypeRecord, collection: postsCollection()}))
}
