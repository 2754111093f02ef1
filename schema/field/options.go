package field

import (
	"sort"
	"strings"
)

// Option keys understood in a field's options map.
const (
	OptionChoices      = "options"
	OptionChoicesAlias = "choices"
	OptionMaxSize      = "max_size"
	OptionAllowedTypes = "allowed_types"
	OptionMultiple     = "multiple"
)

// DefaultMaxUploadSize is the upload limit in kilobytes when none is set.
const DefaultMaxUploadSize = 2048

// Choice is one selectable option of a select-like field.
type Choice struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// FileSettings holds upload constraints of a file or image field.
type FileSettings struct {
	MaxSize      int64    `json:"max_size"` // kilobytes
	AllowedTypes []string `json:"allowed_types,omitempty"`
	Multiple     bool     `json:"multiple,omitempty"`
}

// HasChoices reports if the type offers a fixed set of choices.
func (t Type) HasChoices() bool {
	switch t {
	case TypeSelect, TypeMultiSelect, TypeRadio, TypeCheckbox:
		return true
	}
	return false
}

// SelectOptions returns the choices configured for a select-like type.
// Choices may be given as a list of strings, a list of {value, label}
// objects, or a value-to-label map (returned sorted by value). Other types
// return nil.
func SelectOptions(t Type, opts map[string]any) []Choice {
	if !t.HasChoices() || opts == nil {
		return nil
	}
	raw, ok := opts[OptionChoices]
	if !ok {
		raw = opts[OptionChoicesAlias]
	}
	switch x := raw.(type) {
	case []string:
		out := make([]Choice, 0, len(x))
		for _, s := range x {
			out = append(out, Choice{Value: s, Label: s})
		}
		return out
	case []any:
		out := make([]Choice, 0, len(x))
		for _, item := range x {
			if c, ok := choiceOf(item); ok {
				out = append(out, c)
			}
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]Choice, 0, len(keys))
		for _, k := range keys {
			out = append(out, Choice{Value: k, Label: stringify(x[k])})
		}
		return out
	}
	return nil
}

func choiceOf(item any) (Choice, bool) {
	switch x := item.(type) {
	case string:
		return Choice{Value: x, Label: x}, true
	case map[string]any:
		v, ok := x["value"]
		if !ok {
			return Choice{}, false
		}
		c := Choice{Value: stringify(v)}
		if l, ok := x["label"]; ok {
			c.Label = stringify(l)
		} else {
			c.Label = c.Value
		}
		return c, true
	case nil:
		return Choice{}, false
	default:
		s := stringify(x)
		return Choice{Value: s, Label: s}, true
	}
}

// FileUploadSettings returns the upload constraints of a file or image
// type, filling defaults for missing keys. Other types return the zero
// FileSettings.
func FileUploadSettings(t Type, opts map[string]any) FileSettings {
	if t != TypeFile && t != TypeImage {
		return FileSettings{}
	}
	s := FileSettings{MaxSize: DefaultMaxUploadSize}
	if t == TypeImage {
		s.AllowedTypes = append([]string(nil), imageExtensions...)
	}
	if opts == nil {
		return s
	}
	if f, ok := toFloat(opts[OptionMaxSize]); ok && f > 0 {
		s.MaxSize = int64(f)
	}
	switch x := opts[OptionAllowedTypes].(type) {
	case []string:
		s.AllowedTypes = lower(x)
	case []any:
		types := make([]string, 0, len(x))
		for _, v := range x {
			types = append(types, stringify(v))
		}
		s.AllowedTypes = lower(types)
	case string:
		s.AllowedTypes = lower(strings.Split(x, ","))
	}
	if m, ok := opts[OptionMultiple]; ok && m != nil {
		s.Multiple = truthy(m)
	}
	return s
}

func lower(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, strings.TrimPrefix(s, "."))
		}
	}
	return out
}
