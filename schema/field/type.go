package field

import (
	"fmt"
	"strings"
)

// A Type represents a field type.
type Type uint8

// List of field types.
const (
	TypeInvalid Type = iota
	TypeText
	TypeTextarea
	TypeEmail
	TypeURL
	TypeNumber
	TypeDecimal
	TypeBoolean
	TypeDate
	TypeDateTime
	TypeTime
	TypeSelect
	TypeMultiSelect
	TypeCheckbox
	TypeRadio
	TypeFile
	TypeImage
	TypeJSON
	TypeRelation
	TypeColor
	TypePassword
	endTypes
)

// typeNames is sized by endTypes, so adding a type without a name leaves an
// empty slot that TestTypeTables catches.
var typeNames = [endTypes]string{
	TypeInvalid:     "invalid",
	TypeText:        "text",
	TypeTextarea:    "textarea",
	TypeEmail:       "email",
	TypeURL:         "url",
	TypeNumber:      "number",
	TypeDecimal:     "decimal",
	TypeBoolean:     "boolean",
	TypeDate:        "date",
	TypeDateTime:    "datetime",
	TypeTime:        "time",
	TypeSelect:      "select",
	TypeMultiSelect: "multiselect",
	TypeCheckbox:    "checkbox",
	TypeRadio:       "radio",
	TypeFile:        "file",
	TypeImage:       "image",
	TypeJSON:        "json",
	TypeRelation:    "relation",
	TypeColor:       "color",
	TypePassword:    "password",
}

var constNames = [endTypes]string{
	TypeInvalid:     "TypeInvalid",
	TypeText:        "TypeText",
	TypeTextarea:    "TypeTextarea",
	TypeEmail:       "TypeEmail",
	TypeURL:         "TypeURL",
	TypeNumber:      "TypeNumber",
	TypeDecimal:     "TypeDecimal",
	TypeBoolean:     "TypeBoolean",
	TypeDate:        "TypeDate",
	TypeDateTime:    "TypeDateTime",
	TypeTime:        "TypeTime",
	TypeSelect:      "TypeSelect",
	TypeMultiSelect: "TypeMultiSelect",
	TypeCheckbox:    "TypeCheckbox",
	TypeRadio:       "TypeRadio",
	TypeFile:        "TypeFile",
	TypeImage:       "TypeImage",
	TypeJSON:        "TypeJSON",
	TypeRelation:    "TypeRelation",
	TypeColor:       "TypeColor",
	TypePassword:    "TypePassword",
}

// aliases accepted by ParseType in addition to the canonical names.
var aliases = map[string]Type{
	"integer":      TypeNumber,
	"int":          TypeNumber,
	"float":        TypeDecimal,
	"bool":         TypeBoolean,
	"multi_select": TypeMultiSelect,
	"date_time":    TypeDateTime,
}

// String returns the canonical name of the type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// ConstName returns the constant name of the type.
func (t Type) ConstName() string {
	if t.Valid() {
		return constNames[t]
	}
	return "invalid"
}

// Valid reports if the given type is part of the taxonomy.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// Numeric reports if the given type holds a number.
func (t Type) Numeric() bool {
	return t == TypeNumber || t == TypeDecimal
}

// Temporal reports if the given type holds a date, a datetime or a clock time.
func (t Type) Temporal() bool {
	return t == TypeDate || t == TypeDateTime || t == TypeTime
}

// Structured reports if values of the type are stored as JSON documents.
func (t Type) Structured() bool {
	return t == TypeJSON || t == TypeMultiSelect || t == TypeCheckbox
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("field: invalid type %d", t)
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	v, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseType returns the Type named by s. Names are case-insensitive.
func ParseType(s string) (Type, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for t := TypeInvalid + 1; t < endTypes; t++ {
		if typeNames[t] == name {
			return t, nil
		}
	}
	if t, ok := aliases[name]; ok {
		return t, nil
	}
	return TypeInvalid, fmt.Errorf("field: unknown type %q", s)
}

// Types returns every valid type in declaration order.
func Types() []Type {
	types := make([]Type, 0, endTypes-1)
	for t := TypeInvalid + 1; t < endTypes; t++ {
		types = append(types, t)
	}
	return types
}
