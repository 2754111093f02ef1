package field

import (
	"fmt"
	"strconv"
	"strings"
)

// RuleName identifies a validation rule.
type RuleName string

// Known rule names.
const (
	RuleRequired   RuleName = "required"
	RuleUnique     RuleName = "unique"
	RuleEmail      RuleName = "email"
	RuleURL        RuleName = "url"
	RuleInteger    RuleName = "integer"
	RuleNumeric    RuleName = "numeric"
	RuleBoolean    RuleName = "boolean"
	RuleDate       RuleName = "date"
	RuleDateFormat RuleName = "date_format"
	RuleFile       RuleName = "file"
	RuleImage      RuleName = "image"
	RuleJSON       RuleName = "json"
	RuleMin        RuleName = "min"
	RuleMax        RuleName = "max"
	RuleIn         RuleName = "in"
	RuleRegex      RuleName = "regex"
)

var knownRules = map[RuleName]struct{}{
	RuleRequired: {}, RuleUnique: {}, RuleEmail: {}, RuleURL: {}, RuleInteger: {},
	RuleNumeric: {}, RuleBoolean: {}, RuleDate: {}, RuleDateFormat: {}, RuleFile: {},
	RuleImage: {}, RuleJSON: {}, RuleMin: {}, RuleMax: {}, RuleIn: {}, RuleRegex: {},
}

// Known reports whether the rule name is understood by Check.
func (n RuleName) Known() bool {
	_, ok := knownRules[n]
	return ok
}

// timePattern accepts HH:MM with optional seconds.
const timePattern = `/^([01][0-9]|2[0-3]):[0-5][0-9](:[0-5][0-9])?$/`

// Rule is a single validation rule with its arguments.
type Rule struct {
	Name RuleName
	Args []string
}

// String renders the rule in "name:arg1,arg2" form.
func (r Rule) String() string {
	if len(r.Args) == 0 {
		return string(r.Name)
	}
	return string(r.Name) + ":" + strings.Join(r.Args, ",")
}

// ParseRule parses "name" or "name:args". Arguments are split on commas,
// except for regex whose single argument is kept whole.
func ParseRule(s string) (Rule, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Rule{}, fmt.Errorf("field: empty rule")
	}
	name, args, found := strings.Cut(s, ":")
	r := Rule{Name: RuleName(strings.TrimSpace(name))}
	if !found {
		return r, nil
	}
	if r.Name == RuleRegex {
		r.Args = []string{args}
		return r, nil
	}
	for _, a := range strings.Split(args, ",") {
		r.Args = append(r.Args, strings.TrimSpace(a))
	}
	return r, nil
}

// RuleSet is an ordered list of rules.
type RuleSet []Rule

// Strings returns the rules in string form.
func (rs RuleSet) Strings() []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.String()
	}
	return out
}

// Has reports if the set contains a rule with the given name.
func (rs RuleSet) Has(name RuleName) bool {
	for _, r := range rs {
		if r.Name == name {
			return true
		}
	}
	return false
}

// RuleInput carries the parts of a field definition that rules derive from.
type RuleInput struct {
	FieldID  int64
	Type     Type
	Required bool
	Unique   bool
	Custom   []string
}

// BuildRules synthesizes the rule set of a field, in order: required,
// unique, type-derived rules, custom rules.
//
// The unique rule is scoped to the owning field: its arguments are
// "field,<id>", so two unrelated fields never block each other's values.
func BuildRules(in RuleInput) RuleSet {
	var rs RuleSet
	if in.Required {
		rs = append(rs, Rule{Name: RuleRequired})
	}
	if in.Unique {
		rs = append(rs, Rule{Name: RuleUnique, Args: []string{"field", strconv.FormatInt(in.FieldID, 10)}})
	}
	rs = append(rs, in.Type.rules()...)
	for _, c := range in.Custom {
		r, err := ParseRule(c)
		if err != nil {
			continue
		}
		rs = append(rs, r)
	}
	return rs
}

// rules returns the rules implied by the type.
func (t Type) rules() []Rule {
	switch t {
	case TypeEmail:
		return []Rule{{Name: RuleEmail}}
	case TypeURL:
		return []Rule{{Name: RuleURL}}
	case TypeNumber:
		return []Rule{{Name: RuleInteger}}
	case TypeDecimal:
		return []Rule{{Name: RuleNumeric}}
	case TypeBoolean:
		return []Rule{{Name: RuleBoolean}}
	case TypeDate, TypeDateTime:
		return []Rule{{Name: RuleDate}}
	case TypeTime:
		return []Rule{{Name: RuleRegex, Args: []string{timePattern}}}
	case TypeFile:
		return []Rule{{Name: RuleFile}}
	case TypeImage:
		return []Rule{{Name: RuleFile}, {Name: RuleImage}}
	case TypeJSON:
		return []Rule{{Name: RuleJSON}}
	case TypeText, TypeTextarea, TypeSelect, TypeMultiSelect, TypeCheckbox,
		TypeRadio, TypeRelation, TypeColor, TypePassword:
		return nil
	default:
		return nil
	}
}
