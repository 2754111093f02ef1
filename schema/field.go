package schema

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/syssam/contentkit"
	"github.com/syssam/contentkit/schema/field"
)

var (
	errEmpty  = errors.New("must not be empty")
	validName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// RelationKind is the cardinality of a relation field.
type RelationKind string

// Relation kinds.
const (
	RelationOne        RelationKind = "one"
	RelationMany       RelationKind = "many"
	RelationManyToMany RelationKind = "many_to_many"
)

// Valid reports if k is a known relation kind.
func (k RelationKind) Valid() bool {
	switch k {
	case RelationOne, RelationMany, RelationManyToMany:
		return true
	}
	return false
}

// Multiple reports if the relation holds a list of related records.
func (k RelationKind) Multiple() bool {
	return k == RelationMany || k == RelationManyToMany
}

// Relation is the metadata of a relation field. Its stored value is the
// related record UUID, or a JSON list of UUIDs for to-many kinds.
type Relation struct {
	CollectionID  int64        `json:"collection_id" yaml:"-"`
	Collection    string       `json:"-" yaml:"collection"` // slug, resolved on apply
	Kind          RelationKind `json:"kind" yaml:"kind"`
	ForeignKey    string       `json:"foreign_key,omitempty" yaml:"foreign_key,omitempty"`
	LocalKey      string       `json:"local_key,omitempty" yaml:"local_key,omitempty"`
	CascadeDelete bool         `json:"cascade_delete,omitempty" yaml:"cascade_delete,omitempty"`
}

// Field is a typed attribute definition of a Collection.
type Field struct {
	ID           int64          `json:"id" yaml:"-"`
	CollectionID int64          `json:"collection_id" yaml:"-"`
	Name         string         `json:"name" yaml:"name"`
	Label        string         `json:"label" yaml:"label,omitempty"`
	Type         field.Type     `json:"type" yaml:"type"`
	Default      *string        `json:"default,omitempty" yaml:"default,omitempty"`
	Required     bool           `json:"required" yaml:"required,omitempty"`
	Unique       bool           `json:"unique" yaml:"unique,omitempty"`
	Searchable   bool           `json:"searchable" yaml:"searchable,omitempty"`
	Rules        []string       `json:"rules,omitempty" yaml:"rules,omitempty"`
	Options      map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
	UI           map[string]any `json:"ui,omitempty" yaml:"ui,omitempty"`
	Active       bool           `json:"active" yaml:"active"`
	SortOrder    int            `json:"sort_order" yaml:"sort_order,omitempty"`
	Relation     *Relation      `json:"relation,omitempty" yaml:"relation,omitempty"`
	CreatedAt    time.Time      `json:"created_at" yaml:"-"`
	UpdatedAt    time.Time      `json:"updated_at" yaml:"-"`
}

// DefaultLabel derives a display label from a machine name.
//
//	DefaultLabel("published_at") // "Published At"
func DefaultLabel(name string) string {
	// Casers keep state between calls and cannot be shared.
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}

// Validate checks the field definition: the machine name, the type, the
// custom rules and the relation metadata. It does not check uniqueness of
// the name, which needs the store.
func (f *Field) Validate() error {
	switch {
	case f.Name == "":
		return contentkit.NewValidationError("name", errEmpty)
	case !validName.MatchString(f.Name):
		return contentkit.Validationf("name", "%q is not a valid machine name", f.Name)
	case !f.Type.Valid():
		return contentkit.Validationf(f.Name, "unsupported field type %q", f.Type)
	}
	for _, s := range f.Rules {
		r, err := field.ParseRule(s)
		if err != nil {
			return contentkit.NewValidationError(f.Name, err)
		}
		if !r.Name.Known() {
			return contentkit.Validationf(f.Name, "unknown rule %q", r.Name)
		}
	}
	if f.Type == field.TypeRelation {
		if f.Relation == nil || f.Relation.CollectionID == 0 {
			return contentkit.Validationf(f.Name, "relation field needs a related collection")
		}
		if !f.Relation.Kind.Valid() {
			return contentkit.Validationf(f.Name, "unknown relation kind %q", f.Relation.Kind)
		}
	}
	return nil
}

// Normalize fills derived attributes: the label from the name and the
// relation defaults. relatedName is the name of the related collection and
// is only used to derive the default foreign key.
func (f *Field) Normalize(relatedName string) {
	if f.Label == "" {
		f.Label = DefaultLabel(f.Name)
	}
	if f.Relation == nil {
		return
	}
	if f.Relation.Kind == "" {
		f.Relation.Kind = RelationOne
	}
	if f.Relation.ForeignKey == "" && relatedName != "" {
		f.Relation.ForeignKey = inflect.ForeignKey(strings.ReplaceAll(relatedName, " ", ""))
	}
	if f.Relation.LocalKey == "" {
		f.Relation.LocalKey = "id"
	}
}

// CastValue converts stored text into the typed value of the field.
func (f *Field) CastValue(raw *string) any {
	return f.Type.FromStorage(raw)
}

// CastForStorage converts a typed value into its stored text.
func (f *Field) CastForStorage(v any) *string {
	return f.Type.ToStorage(v)
}

// DefaultValue returns the default value cast to the field type, or nil.
func (f *Field) DefaultValue() any {
	return f.CastValue(f.Default)
}

// ValidationRules returns the rule set of the field.
func (f *Field) ValidationRules() field.RuleSet {
	return field.BuildRules(field.RuleInput{
		FieldID:  f.ID,
		Type:     f.Type,
		Required: f.Required,
		Unique:   f.Unique,
		Custom:   f.Rules,
	})
}

// IsRelation reports if the field is a relation with a related collection.
func (f *Field) IsRelation() bool {
	return f.Type == field.TypeRelation && f.Relation != nil && f.Relation.CollectionID != 0
}

// SelectOptions returns the configured choices of a select-like field.
func (f *Field) SelectOptions() []field.Choice {
	return field.SelectOptions(f.Type, f.Options)
}

// FileUploadSettings returns the upload constraints of a file or image
// field.
func (f *Field) FileUploadSettings() field.FileSettings {
	return field.FileUploadSettings(f.Type, f.Options)
}
