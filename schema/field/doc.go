// Package field defines the closed set of field types a collection can declare
// and the per-type rules for moving values in and out of generic text storage.
//
// Every stored value is kept as text. A Type decides how that text is read
// back (FromStorage) and how a typed value is written (ToStorage):
//
//	field.TypeBoolean.ToStorage(true)         // "1"
//	field.TypeBoolean.FromStorage(ptr("1"))   // true
//	field.TypeDecimal.FromStorage(ptr("3.14")) // 3.14
//	field.TypeJSON.ToStorage(map[string]any{"a": 1}) // `{"a":1}`
//
// A nil stored value always reads back as nil, whatever the type.
//
// # Validation Rules
//
// BuildRules synthesizes the ordered RuleSet for a field definition:
// required, unique, the type-derived rules, then the custom rules as given.
//
//	rules := field.BuildRules(field.RuleInput{
//	    FieldID:  7,
//	    Type:     field.TypeEmail,
//	    Required: true,
//	    Unique:   true,
//	    Custom:   []string{"max:255"},
//	})
//	rules.Strings() // [required unique:field,7 email max:255]
//
// Stateless rules are checked with Rule.Check. The required and unique rules
// need presence and store context, so callers evaluate them themselves.
//
// # Options
//
// SelectOptions and FileUploadSettings read type-specific configuration from
// a field's free-form options map. Both return empty values for types they
// do not apply to.
package field
