// Package schema defines the runtime schema entities of contentkit.
//
// A [Collection] is a named schema, analogous to a table, holding an ordered
// set of [Field] definitions. Fields carry a closed [field.Type], type
// specific options, custom validation rules and, for relation fields, a
// [Relation] describing the target Collection.
//
// Collections expose two views of their fields:
//
//   - [Collection.Fields] returns the active field set, ordered by sort
//     order. It is used by every data path (record create, read, update).
//   - [Collection.AllFields] returns every field, including deactivated
//     ones. It is used by schema editing surfaces.
//
// Deactivating a field never deletes stored values; it only hides them from
// the active field set.
//
//	posts := &schema.Collection{Name: "Posts"}
//	posts.EnsureSlug() // "posts"
//
//	title := &schema.Field{Name: "title", Type: field.TypeText, Required: true, Active: true}
//	title.ValidationRules().Strings() // ["required"]
//
// For the type taxonomy and casting rules see the [field] package.
package schema
