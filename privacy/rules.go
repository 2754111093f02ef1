package privacy

import (
	"context"
	"fmt"
	"slices"

	"github.com/syssam/contentkit/schema"
)

// Viewer is the caller of an engine operation.
type Viewer interface {
	GetID() string
	GetRoles() []string
}

type viewerCtxKey struct{}

// WithViewer returns a copy of ctx carrying viewer.
func WithViewer(ctx context.Context, viewer Viewer) context.Context {
	return context.WithValue(ctx, viewerCtxKey{}, viewer)
}

// ViewerFromContext returns the viewer of ctx, or nil.
func ViewerFromContext(ctx context.Context) Viewer {
	v, _ := ctx.Value(viewerCtxKey{}).(Viewer)
	return v
}

// SimpleViewer is a Viewer with a fixed ID and role list.
type SimpleViewer struct {
	UserID string
	Roles  []string
}

// GetID implements Viewer.
func (v *SimpleViewer) GetID() string { return v.UserID }

// GetRoles implements Viewer.
func (v *SimpleViewer) GetRoles() []string { return v.Roles }

// DenyIfNoViewer denies anonymous callers and skips otherwise.
func DenyIfNoViewer() QueryMutationRule {
	return ContextQueryMutationRule(func(ctx context.Context) error {
		if ViewerFromContext(ctx) == nil {
			return Denyf("privacy: viewer required")
		}
		return Skip
	})
}

// HasRole allows viewers holding role.
func HasRole(role string) QueryMutationRule {
	return HasAnyRole(role)
}

// HasAnyRole allows viewers holding one of roles.
//
//	privacy.MutationPolicy{
//	    privacy.OnType(privacy.HasAnyRole("admin", "architect"), privacy.TypeField),
//	    privacy.OnType(privacy.AlwaysDenyRule(), privacy.TypeField),
//	}
func HasAnyRole(roles ...string) QueryMutationRule {
	return ContextQueryMutationRule(func(ctx context.Context) error {
		viewer := ViewerFromContext(ctx)
		if viewer == nil {
			return Skip
		}
		if slices.ContainsFunc(viewer.GetRoles(), func(r string) bool { return slices.Contains(roles, r) }) {
			return Allow
		}
		return Skip
	})
}

// IsOwner allows a mutation when the named attribute equals the viewer ID.
// Record mutations expose the author as "created_by":
//
//	privacy.OnMutationOperation(privacy.IsOwner("created_by"), privacy.OpUpdate|privacy.OpDelete)
func IsOwner(field string) MutationRule {
	return MutationRuleFunc(func(ctx context.Context, m Mutation) error {
		viewer := ViewerFromContext(ctx)
		if viewer == nil {
			return Skip
		}
		v, ok := m.Field(field)
		if !ok || v == nil {
			return Skip
		}
		if fmt.Sprint(v) == viewer.GetID() {
			return Allow
		}
		return Skip
	})
}

// AllowMutationOperationRule allows the operations in op.
func AllowMutationOperationRule(op Op) MutationRule {
	return OnMutationOperation(MutationRuleFunc(func(context.Context, Mutation) error {
		return Allow
	}), op)
}

// CollectionPermissions returns a rule enforcing the permission map of the
// collection a record belongs to. Reads need a role listed under "read";
// creates, updates and deletes need one under the matching action.
// Publishing is an update. An action missing from the map, or a
// collection without a map, is left to the next rule; a granted action
// is too, so later rules may still deny.
func CollectionPermissions() QueryMutationRule {
	return permissionRule{}
}

type permissionRule struct{}

func (permissionRule) EvalQuery(ctx context.Context, q Query) error {
	if q.Type() != TypeRecord {
		return Skip
	}
	return checkRoles(ctx, q.Collection(), schema.ActionRead)
}

func (permissionRule) EvalMutation(ctx context.Context, m Mutation) error {
	if m.Type() != TypeRecord {
		return Skip
	}
	return checkRoles(ctx, m.Collection(), Action(m.Op()))
}

// Action returns the permission map key of a mutation operation.
func Action(op Op) string {
	switch {
	case op.Is(OpCreate):
		return schema.ActionCreate
	case op.Is(OpDelete):
		return schema.ActionDelete
	default:
		return schema.ActionUpdate
	}
}

func checkRoles(ctx context.Context, c *schema.Collection, action string) error {
	if c == nil {
		return Skip
	}
	roles, ok := c.RolesFor(action)
	if !ok {
		return Skip
	}
	viewer := ViewerFromContext(ctx)
	if viewer == nil {
		return Denyf("privacy: viewer required to %s %s", action, c.Slug)
	}
	for _, role := range viewer.GetRoles() {
		if slices.Contains(roles, role) {
			return Skip
		}
	}
	return Denyf("privacy: viewer %q may not %s %s", viewer.GetID(), action, c.Slug)
}
