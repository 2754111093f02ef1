// Package jsonschema describes the data of a collection as a JSON Schema
// document, for API consumers and form builders.
//
//	doc := jsonschema.View(posts)
//	out, err := json.MarshalIndent(doc, "", "  ")
package jsonschema

import (
	"encoding/json"
	"reflect"
	"strconv"

	"github.com/google/uuid"
	"github.com/invopop/jsonschema"

	"github.com/syssam/contentkit/record"
	"github.com/syssam/contentkit/schema"
	"github.com/syssam/contentkit/schema/field"
)

// Patterns of the temporal storage layouts.
const (
	dateTimePattern = `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`
	timePattern     = `^\d{2}:\d{2}(:\d{2})?$`
	colorPattern    = `^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`
)

// Data returns the schema of the data object of a record of c: one
// property per active field, in field order.
func Data(c *schema.Collection) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type:                 "object",
		Title:                c.Name,
		Description:          c.Description,
		Properties:           jsonschema.NewProperties(),
		AdditionalProperties: jsonschema.FalseSchema,
	}
	for _, f := range c.Fields() {
		s.Properties.Set(f.Name, Field(f))
		if f.Required {
			s.Required = append(s.Required, f.Name)
		}
	}
	return s
}

// View returns the schema of the external view of a record of c, with the
// data object described by Data.
func View(c *schema.Collection) *jsonschema.Schema {
	r := jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeFor[uuid.UUID]() {
				return &jsonschema.Schema{Type: "string", Format: "uuid"}
			}
			return nil
		},
	}
	s := r.ReflectFromType(reflect.TypeFor[record.View]())
	s.ID = jsonschema.ID(c.Slug)
	s.Title = c.Name
	s.Properties.Set("data", Data(c))
	return s
}

// Field returns the schema of one field value.
func Field(f *schema.Field) *jsonschema.Schema {
	s := typeSchema(f)
	s.Title = f.Label
	if help, ok := f.UI["help"].(string); ok {
		s.Description = help
	}
	if d := f.DefaultValue(); d != nil {
		s.Default = d
	}
	for _, raw := range f.Rules {
		r, err := field.ParseRule(raw)
		if err != nil {
			continue
		}
		applyRule(s, r)
	}
	return s
}

func typeSchema(f *schema.Field) *jsonschema.Schema {
	switch f.Type {
	case field.TypeEmail:
		return &jsonschema.Schema{Type: "string", Format: "email"}
	case field.TypeURL:
		return &jsonschema.Schema{Type: "string", Format: "uri"}
	case field.TypeNumber:
		return &jsonschema.Schema{Type: "integer"}
	case field.TypeDecimal:
		return &jsonschema.Schema{Type: "number"}
	case field.TypeBoolean:
		return &jsonschema.Schema{Type: "boolean"}
	case field.TypeDate:
		return &jsonschema.Schema{Type: "string", Format: "date"}
	case field.TypeDateTime:
		return &jsonschema.Schema{Type: "string", Pattern: dateTimePattern}
	case field.TypeTime:
		return &jsonschema.Schema{Type: "string", Pattern: timePattern}
	case field.TypeSelect, field.TypeRadio:
		return &jsonschema.Schema{Type: "string", Enum: choices(f)}
	case field.TypeMultiSelect, field.TypeCheckbox:
		return &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "string", Enum: choices(f)}}
	case field.TypeFile:
		return &jsonschema.Schema{Type: "string"}
	case field.TypeImage:
		return &jsonschema.Schema{Type: "string", ContentMediaType: "image/*"}
	case field.TypeJSON:
		return &jsonschema.Schema{}
	case field.TypeRelation:
		ref := &jsonschema.Schema{Type: "string", Format: "uuid"}
		if f.Relation != nil && f.Relation.Kind.Multiple() {
			return &jsonschema.Schema{Type: "array", Items: ref}
		}
		return ref
	case field.TypeColor:
		return &jsonschema.Schema{Type: "string", Pattern: colorPattern}
	case field.TypePassword:
		return &jsonschema.Schema{Type: "string", WriteOnly: true}
	case field.TypeText, field.TypeTextarea:
		return &jsonschema.Schema{Type: "string"}
	default:
		return &jsonschema.Schema{Type: "string"}
	}
}

func choices(f *schema.Field) []any {
	opts := f.SelectOptions()
	if len(opts) == 0 {
		return nil
	}
	out := make([]any, len(opts))
	for i, o := range opts {
		out[i] = o.Value
	}
	return out
}

// applyRule maps the custom rules that have a JSON Schema keyword.
func applyRule(s *jsonschema.Schema, r field.Rule) {
	switch r.Name {
	case field.RuleMin, field.RuleMax:
		if len(r.Args) == 0 {
			return
		}
		switch s.Type {
		case "integer", "number":
			if r.Name == field.RuleMin {
				s.Minimum = json.Number(r.Args[0])
			} else {
				s.Maximum = json.Number(r.Args[0])
			}
		case "string":
			n, err := strconv.ParseUint(r.Args[0], 10, 64)
			if err != nil {
				return
			}
			if r.Name == field.RuleMin {
				s.MinLength = &n
			} else {
				s.MaxLength = &n
			}
		case "array":
			n, err := strconv.ParseUint(r.Args[0], 10, 64)
			if err != nil {
				return
			}
			if r.Name == field.RuleMin {
				s.MinItems = &n
			} else {
				s.MaxItems = &n
			}
		}
	case field.RuleIn:
		s.Enum = make([]any, len(r.Args))
		for i, a := range r.Args {
			s.Enum[i] = a
		}
	case field.RuleRegex:
		if len(r.Args) == 1 {
			p := r.Args[0]
			if len(p) >= 2 && p[0] == '/' && p[len(p)-1] == '/' {
				p = p[1 : len(p)-1]
			}
			s.Pattern = p
		}
	}
}
