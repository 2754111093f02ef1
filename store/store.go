// Package store defines the repositories the engine persists through.
//
// Each entity has its own repository; a [Store] groups them and runs a
// function inside a transaction with [Store.WithTx]. The relational
// implementation lives in store/sqlstore. Repositories report missing rows
// with contentkit.NotFoundError and store-level uniqueness or foreign key
// violations with contentkit.ConstraintError.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/syssam/contentkit/record"
	"github.com/syssam/contentkit/schema"
)

// CollectionRepository persists collections. Loaded collections do not carry
// their fields; callers load them with FieldRepository.ListByCollection.
type CollectionRepository interface {
	// Create inserts c and sets its ID.
	Create(ctx context.Context, c *schema.Collection) error
	Update(ctx context.Context, c *schema.Collection) error
	// Delete removes the collection together with its fields, records and
	// stored values.
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*schema.Collection, error)
	GetBySlug(ctx context.Context, slug string) (*schema.Collection, error)
	// List returns all collections ordered by sort order and ID.
	List(ctx context.Context) ([]*schema.Collection, error)
}

// FieldRepository persists fields.
type FieldRepository interface {
	// Create inserts f and sets its ID.
	Create(ctx context.Context, f *schema.Field) error
	Update(ctx context.Context, f *schema.Field) error
	// Delete removes the field and its stored values.
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*schema.Field, error)
	// ListByCollection returns the full field set of a collection, active
	// or not, ordered by sort order and ID.
	ListByCollection(ctx context.Context, collectionID int64) ([]*schema.Field, error)
	// NameTaken reports if another field of the collection, other than
	// excludeID, already uses name.
	NameTaken(ctx context.Context, collectionID int64, name string, excludeID int64) (bool, error)
}

// ListOptions limits a record listing.
type ListOptions struct {
	// PublishedOnly skips drafts.
	PublishedOnly bool
	// Limit caps the result size. Zero means no limit.
	Limit  int
	Offset int
}

// RecordRepository persists records.
type RecordRepository interface {
	// Create inserts r and sets its ID.
	Create(ctx context.Context, r *record.Record) error
	Update(ctx context.Context, r *record.Record) error
	// Delete removes the record and its stored values.
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*record.Record, error)
	GetByUUID(ctx context.Context, id uuid.UUID) (*record.Record, error)
	// GetByUUIDs returns the records with the given UUIDs, in no particular
	// order. Unknown UUIDs are skipped.
	GetByUUIDs(ctx context.Context, ids []uuid.UUID) ([]*record.Record, error)
	// List returns the records of a collection ordered by ID.
	List(ctx context.Context, collectionID int64, opts ListOptions) ([]*record.Record, error)
	// Count returns the number of records in a collection.
	Count(ctx context.Context, collectionID int64) (int, error)
}

// ValueRepository persists stored values.
type ValueRepository interface {
	// Upsert writes the value of (v.RecordID, v.FieldID), replacing any
	// existing one, and sets v.ID.
	Upsert(ctx context.Context, v *record.Value) error
	// Get returns the value of (recordID, fieldID).
	Get(ctx context.Context, recordID, fieldID int64) (*record.Value, error)
	// ListByRecord returns all stored values of a record, including values
	// of inactive fields.
	ListByRecord(ctx context.Context, recordID int64) ([]*record.Value, error)
	// ListByRecords returns the stored values of several records.
	ListByRecords(ctx context.Context, recordIDs []int64) ([]*record.Value, error)
	// Exists reports if a record other than excludeRecordID holds text as
	// its value of the field.
	Exists(ctx context.Context, fieldID int64, text string, excludeRecordID int64) (bool, error)
	// RecordsWithValue returns the IDs of the records whose value of the
	// field equals text.
	RecordsWithValue(ctx context.Context, fieldID int64, text string) ([]int64, error)
	// CountByCollection returns the number of stored values of a collection.
	CountByCollection(ctx context.Context, collectionID int64) (int, error)
}

// Store groups the repositories of one backing store.
type Store interface {
	Collections() CollectionRepository
	Fields() FieldRepository
	Records() RecordRepository
	Values() ValueRepository
	// WithTx runs fn with a Store bound to a transaction. The transaction
	// is committed if fn returns nil and rolled back otherwise. Calling
	// WithTx on a Store that is already bound to a transaction runs fn in
	// that transaction.
	WithTx(ctx context.Context, fn func(Store) error) error
}
