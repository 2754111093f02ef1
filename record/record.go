// Package record holds the data entities of contentkit: records, their
// stored values, and the external view served to API consumers.
package record

import (
	"time"

	"github.com/google/uuid"

	"github.com/syssam/contentkit/schema/field"
)

// Record is an instance of a Collection schema. It is addressed externally by
// its UUID, never by its numeric ID.
type Record struct {
	ID           int64          `json:"-"`
	CollectionID int64          `json:"collection_id"`
	UUID         uuid.UUID      `json:"uuid"`
	Status       map[string]any `json:"status,omitempty"`
	CreatedBy    string         `json:"created_by,omitempty"`
	UpdatedBy    string         `json:"updated_by,omitempty"`
	PublishedAt  *time.Time     `json:"published_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Published reports if the record is published. Unpublished records are
// drafts.
func (r *Record) Published() bool {
	return r.PublishedAt != nil
}

// Publish sets the publish timestamp.
func (r *Record) Publish(at time.Time) {
	r.PublishedAt = &at
}

// Unpublish clears the publish timestamp.
func (r *Record) Unpublish() {
	r.PublishedAt = nil
}

// View returns the external view of the record with the given field data.
func (r *Record) View(data map[string]any) *View {
	if data == nil {
		data = map[string]any{}
	}
	return &View{
		ID:   r.UUID,
		Data: data,
		Meta: Meta{
			CreatedAt:   r.CreatedAt,
			UpdatedAt:   r.UpdatedAt,
			PublishedAt: r.PublishedAt,
			Status:      r.Status,
		},
	}
}

// Value is the stored value of one field of one record. There is exactly
// one Value per (RecordID, FieldID).
type Value struct {
	ID           int64          `json:"id"`
	CollectionID int64          `json:"collection_id"`
	RecordID     int64          `json:"record_id"`
	FieldID      int64          `json:"field_id"`
	Value        *string        `json:"value"`
	Type         field.Type     `json:"type"` // field type at write time
	Meta         map[string]any `json:"meta,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// View is the serialization contract of a record. Its shape is stable.
type View struct {
	ID   uuid.UUID      `json:"id" msgpack:"id"`
	Data map[string]any `json:"data" msgpack:"data"`
	Meta Meta           `json:"meta" msgpack:"meta"`
}

// Meta is the metadata part of a View.
type Meta struct {
	CreatedAt   time.Time      `json:"created_at" msgpack:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" msgpack:"updated_at"`
	PublishedAt *time.Time     `json:"published_at" msgpack:"published_at"`
	Status      map[string]any `json:"status" msgpack:"status"`
}
