// Package privacy decides who may read and write collections, fields and
// records.
//
// # Core Concepts
//
//   - Rule: a function returning Allow, Deny or Skip for a Query or Mutation
//   - Policy: an ordered list of rules
//   - Viewer: the caller, stored in the context
//
// The engine builds a [Query] for every read and a [Mutation] for every
// write and evaluates its configured policy before touching the store. A
// denial surfaces as contentkit.PrivacyError.
//
//	eng := engine.New(st, engine.WithPolicy(privacy.Policy{
//	    Query: privacy.QueryPolicy{
//	        privacy.CollectionPermissions(),
//	    },
//	    Mutation: privacy.MutationPolicy{
//	        privacy.DenyIfNoViewer(),
//	        privacy.HasRole("admin"),
//	        privacy.CollectionPermissions(),
//	        privacy.OnMutationOperation(privacy.IsOwner("created_by"), privacy.OpUpdate|privacy.OpDelete),
//	    },
//	}))
//
// # Rule Evaluation
//
// Rules are evaluated in order until one returns a final decision:
//
//   - Allow: grants access and stops evaluation
//   - Deny: denies access and stops evaluation
//   - Skip: continues to the next rule
//
// If all rules skip, access is granted.
//
// # Collection Permissions
//
// A collection carries a permission map from action to roles:
//
//	permissions:
//	  read: [reader, editor]
//	  update: [editor]
//
// [CollectionPermissions] denies record reads and writes whose action is
// listed when the viewer holds none of the roles.
//
// # Context Integration
//
//	ctx := privacy.WithViewer(ctx, &privacy.SimpleViewer{
//	    UserID: "user-123",
//	    Roles:  []string{"editor"},
//	})
//	rec, err := eng.Record(ctx, posts, id)
//
// A decision stored with [DecisionContext] short-circuits [Policies], which
// is how trusted callers such as the CLI bypass the policy.
package privacy
