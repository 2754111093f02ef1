package schema

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/go-openapi/inflect"

	"github.com/syssam/contentkit"
)

// Permission actions used as keys of a collection permission map.
const (
	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Collection is a runtime-defined schema.
type Collection struct {
	ID          int64               `json:"id" yaml:"-"`
	Name        string              `json:"name" yaml:"name"`
	Slug        string              `json:"slug" yaml:"slug,omitempty"`
	Description string              `json:"description,omitempty" yaml:"description,omitempty"`
	Icon        string              `json:"icon,omitempty" yaml:"icon,omitempty"`
	Active      bool                `json:"active" yaml:"active"`
	System      bool                `json:"system" yaml:"system,omitempty"`
	Settings    map[string]any      `json:"settings,omitempty" yaml:"settings,omitempty"`
	Permissions map[string][]string `json:"permissions,omitempty" yaml:"permissions,omitempty"`
	SortOrder   int                 `json:"sort_order" yaml:"sort_order,omitempty"`
	CreatedAt   time.Time           `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time           `json:"updated_at" yaml:"-"`

	// Edges holds the loaded fields of the collection.
	Edges CollectionEdges `json:"edges" yaml:"-"`
}

// CollectionEdges holds the relations of a Collection.
type CollectionEdges struct {
	Fields []*Field `json:"fields,omitempty"`
	// loaded reports if the fields edge was loaded.
	loaded bool
}

// FieldsOrErr returns the loaded fields or an error if the edge was not
// loaded.
func (e CollectionEdges) FieldsOrErr() ([]*Field, error) {
	if e.loaded {
		return e.Fields, nil
	}
	return nil, &contentkit.NotLoadedError{Edge: "fields"}
}

// SetFields sets the loaded fields edge.
func (c *Collection) SetFields(fields []*Field) {
	c.Edges.Fields = fields
	c.Edges.loaded = true
}

// Slugify derives a kebab-case, url-safe slug from a name.
func Slugify(name string) string {
	return inflect.Parameterize(strings.ReplaceAll(name, "_", " "))
}

// EnsureSlug sets the slug from the name if it is empty. An existing slug is
// never changed.
func (c *Collection) EnsureSlug() {
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
}

// Rename changes the name. The slug is only derived again when it is empty.
func (c *Collection) Rename(name string) {
	c.Name = name
	c.EnsureSlug()
}

// Validate checks the collection definition.
func (c *Collection) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return contentkit.NewValidationError("name", errEmpty)
	}
	if c.Slug != "" && Slugify(c.Slug) != c.Slug {
		return contentkit.Validationf("slug", "%q is not url-safe", c.Slug)
	}
	return nil
}

// Fields returns the active fields ordered by sort order. Fields with the
// same sort order keep their load order.
func (c *Collection) Fields() []*Field {
	return c.filter(func(*Field) bool { return true })
}

// AllFields returns every field, active or not, in the same order as Fields.
func (c *Collection) AllFields() []*Field {
	fields := slices.Clone(c.Edges.Fields)
	slices.SortStableFunc(fields, func(a, b *Field) int {
		return cmp.Compare(a.SortOrder, b.SortOrder)
	})
	return fields
}

// FieldByName returns the first active field with the given name, or nil.
func (c *Collection) FieldByName(name string) *Field {
	for _, f := range c.Fields() {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// RequiredFields returns the active required fields.
func (c *Collection) RequiredFields() []*Field {
	return c.filter(func(f *Field) bool { return f.Required })
}

// UniqueFields returns the active unique fields.
func (c *Collection) UniqueFields() []*Field {
	return c.filter(func(f *Field) bool { return f.Unique })
}

// SearchableFields returns the active searchable fields.
func (c *Collection) SearchableFields() []*Field {
	return c.filter(func(f *Field) bool { return f.Searchable })
}

// RolesFor returns the roles allowed to perform action, and whether the
// collection declares the action at all.
func (c *Collection) RolesFor(action string) ([]string, bool) {
	roles, ok := c.Permissions[action]
	return roles, ok
}

func (c *Collection) filter(keep func(*Field) bool) []*Field {
	var out []*Field
	for _, f := range c.AllFields() {
		if f.Active && keep(f) {
			out = append(out, f)
		}
	}
	return out
}
