// Package privacy provides the rules deciding who may read and write the
// records of a collection, and their evaluation at runtime.
package privacy

import (
	"context"
	"errors"
	"fmt"

	"github.com/syssam/contentkit/schema"
)

// Rule decisions. Rules may wrap them; compare with errors.Is.
var (
	// Allow grants access and ends the evaluation.
	Allow = errors.New("contentkit/privacy: allow rule")
	// Deny refuses access and ends the evaluation.
	Deny = errors.New("contentkit/privacy: deny rule")
	// Skip leaves the decision to the next rule.
	Skip = errors.New("contentkit/privacy: skip rule")
)

// Allowf returns a formatted wrapped Allow decision.
func Allowf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Allow)...)
}

// Denyf returns a formatted wrapped Deny decision.
func Denyf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Deny)...)
}

// Skipf returns a formatted wrapped Skip decision.
func Skipf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Skip)...)
}

// Entity types reported by Query.Type and Mutation.Type.
const (
	TypeCollection = "collection"
	TypeField      = "field"
	TypeRecord     = "record"
)

// Op is the operation of a mutation.
type Op uint

// Mutation operations.
const (
	OpCreate Op = 1 << iota
	OpUpdate
	OpDelete
)

// Is reports if o is one of the operations in op.
func (o Op) Is(op Op) bool { return o&op != 0 }

// String returns the name of the operation.
func (o Op) String() string {
	switch o {
	case OpCreate:
		return "OpCreate"
	case OpUpdate:
		return "OpUpdate"
	case OpDelete:
		return "OpDelete"
	}
	return fmt.Sprintf("Op(%d)", uint(o))
}

type (
	// Query describes a read.
	Query interface {
		// Type returns the entity type being read.
		Type() string
		// Collection returns the collection being read, or nil when
		// listing collections.
		Collection() *schema.Collection
	}

	// Mutation describes a write.
	Mutation interface {
		// Type returns the entity type being written.
		Type() string
		Op() Op
		// Collection returns the collection the entity belongs to.
		Collection() *schema.Collection
		// Field returns a value set by the mutation or an attribute of the
		// mutated entity, such as "created_by" of a record.
		Field(name string) (any, bool)
	}
)

// AlwaysAllowRule allows everything.
func AlwaysAllowRule() QueryMutationRule {
	return fixedDecision{Allow}
}

// AlwaysDenyRule denies everything.
func AlwaysDenyRule() QueryMutationRule {
	return fixedDecision{Deny}
}

// ContextQueryMutationRule decides from the context alone, for reads and
// writes alike. A nil result counts as Skip.
func ContextQueryMutationRule(eval func(context.Context) error) QueryMutationRule {
	return contextDecision{eval}
}

type (
	// QueryRule decides on reads.
	QueryRule interface {
		EvalQuery(context.Context, Query) error
	}

	// QueryPolicy is an ordered list of read rules.
	QueryPolicy []QueryRule

	// MutationRule decides on writes.
	MutationRule interface {
		EvalMutation(context.Context, Mutation) error
	}

	// MutationPolicy is an ordered list of write rules.
	MutationPolicy []MutationRule

	// QueryMutationRule decides on both.
	QueryMutationRule interface {
		QueryRule
		MutationRule
	}
)

// MutationRuleFunc adapts a function to MutationRule.
type MutationRuleFunc func(context.Context, Mutation) error

// EvalMutation implements MutationRule.
func (f MutationRuleFunc) EvalMutation(ctx context.Context, m Mutation) error {
	return f(ctx, m)
}

// QueryRuleFunc adapts a function to QueryRule.
type QueryRuleFunc func(context.Context, Query) error

// EvalQuery implements QueryRule.
func (f QueryRuleFunc) EvalQuery(ctx context.Context, q Query) error {
	return f(ctx, q)
}

// OnMutationOperation applies rule to the operations in op and skips the
// others.
func OnMutationOperation(rule MutationRule, op Op) MutationRule {
	return MutationRuleFunc(func(ctx context.Context, m Mutation) error {
		if m.Op().Is(op) {
			return rule.EvalMutation(ctx, m)
		}
		return Skip
	})
}

// OnType applies rule to one entity type: TypeCollection, TypeField or
// TypeRecord.
func OnType(rule QueryMutationRule, typ string) QueryMutationRule {
	return typeRule{rule: rule, typ: typ}
}

// DenyMutationOperationRule denies the operations in op.
func DenyMutationOperationRule(op Op) MutationRule {
	rule := MutationRuleFunc(func(_ context.Context, m Mutation) error {
		return Denyf("contentkit/privacy: operation %s is not allowed", m.Op())
	})
	return OnMutationOperation(rule, op)
}

// Policy pairs a read policy with a write policy.
type Policy struct {
	Query    QueryPolicy
	Mutation MutationPolicy
}

// EvalQuery implements QueryRule.
func (p Policy) EvalQuery(ctx context.Context, q Query) error {
	return p.Query.EvalQuery(ctx, q)
}

// EvalMutation implements MutationRule.
func (p Policy) EvalMutation(ctx context.Context, m Mutation) error {
	return p.Mutation.EvalMutation(ctx, m)
}

// Policies evaluates policies in order. Unlike a single policy, an Allow
// ends the evaluation with a nil error, and a decision stored in the
// context with DecisionContext overrides all of them.
type Policies []QueryMutationRule

// EvalQuery implements QueryRule.
func (policies Policies) EvalQuery(ctx context.Context, q Query) error {
	return policies.eval(ctx, func(policy QueryMutationRule) error {
		return policy.EvalQuery(ctx, q)
	})
}

// EvalMutation implements MutationRule.
func (policies Policies) EvalMutation(ctx context.Context, m Mutation) error {
	return policies.eval(ctx, func(policy QueryMutationRule) error {
		return policy.EvalMutation(ctx, m)
	})
}

func (policies Policies) eval(ctx context.Context, eval func(QueryMutationRule) error) error {
	if decision, ok := DecisionFromContext(ctx); ok {
		return decision
	}
	for _, policy := range policies {
		switch decision := eval(policy); {
		case decision == nil || errors.Is(decision, Skip):
		case errors.Is(decision, Allow):
			return nil
		default:
			return decision
		}
	}
	return nil
}

// EvalQuery returns the first decision other than Skip.
func (policies QueryPolicy) EvalQuery(ctx context.Context, q Query) error {
	for _, policy := range policies {
		switch decision := policy.EvalQuery(ctx, q); {
		case decision == nil || errors.Is(decision, Skip):
		default:
			return decision
		}
	}
	return nil
}

// EvalMutation returns the first decision other than Skip.
func (policies MutationPolicy) EvalMutation(ctx context.Context, m Mutation) error {
	for _, policy := range policies {
		switch decision := policy.EvalMutation(ctx, m); {
		case decision == nil || errors.Is(decision, Skip):
		default:
			return decision
		}
	}
	return nil
}

type decisionCtxKey struct{}

// DecisionContext returns a copy of parent that carries decision. Skip and
// nil leave parent unchanged.
func DecisionContext(parent context.Context, decision error) context.Context {
	if decision == nil || errors.Is(decision, Skip) {
		return parent
	}
	return context.WithValue(parent, decisionCtxKey{}, decision)
}

// DecisionFromContext returns the decision carried by ctx. Allow is
// reported as nil.
func DecisionFromContext(ctx context.Context) (error, bool) {
	decision, ok := ctx.Value(decisionCtxKey{}).(error)
	if ok && errors.Is(decision, Allow) {
		decision = nil
	}
	return decision, ok
}

type fixedDecision struct {
	decision error
}

func (f fixedDecision) EvalQuery(context.Context, Query) error {
	return f.decision
}

func (f fixedDecision) EvalMutation(context.Context, Mutation) error {
	return f.decision
}

type contextDecision struct {
	eval func(context.Context) error
}

func (c contextDecision) EvalQuery(ctx context.Context, _ Query) error {
	return c.eval(ctx)
}

func (c contextDecision) EvalMutation(ctx context.Context, _ Mutation) error {
	return c.eval(ctx)
}

type typeRule struct {
	rule QueryMutationRule
	typ  string
}

func (r typeRule) EvalQuery(ctx context.Context, q Query) error {
	if q.Type() != r.typ {
		return Skip
	}
	return r.rule.EvalQuery(ctx, q)
}

func (r typeRule) EvalMutation(ctx context.Context, m Mutation) error {
	if m.Type() != r.typ {
		return Skip
	}
	return r.rule.EvalMutation(ctx, m)
}
