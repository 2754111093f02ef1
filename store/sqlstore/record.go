package sqlstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/syssam/contentkit"
	"github.com/syssam/contentkit/dialect/sql"
	"github.com/syssam/contentkit/record"
	"github.com/syssam/contentkit/store"
)

const recordColumns = "id, collection_id, uuid, status, created_by, updated_by, published_at, created_at, updated_at"

type records struct{ *Store }

func (r *records) Create(ctx context.Context, rec *record.Record) error {
	r.stamp(&rec.CreatedAt, &rec.UpdatedAt)
	status, err := encodeJSON(rec.Status)
	if err != nil {
		return mutationError("record", "create", fmt.Errorf("encoding status: %w", err))
	}
	id, err := r.insert(ctx, "INSERT INTO records (collection_id, uuid, status, created_by, updated_by, published_at, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", []any{
		rec.CollectionID, rec.UUID.String(), status, nullString(rec.CreatedBy), nullString(rec.UpdatedBy),
		nullTime(rec.PublishedAt), rec.CreatedAt, rec.UpdatedAt,
	})
	if err != nil {
		return mutationError("record", "create", err)
	}
	rec.ID = id
	return nil
}

// Update persists the mutable columns of a record. The UUID and owning
// collection never change.
func (r *records) Update(ctx context.Context, rec *record.Record) error {
	rec.UpdatedAt = r.now()
	status, err := encodeJSON(rec.Status)
	if err != nil {
		return mutationError("record", "update", fmt.Errorf("encoding status: %w", err))
	}
	n, err := r.exec(ctx, "UPDATE records SET status = ?, updated_by = ?, published_at = ?, updated_at = ? WHERE id = ?",
		status, nullString(rec.UpdatedBy), nullTime(rec.PublishedAt), rec.UpdatedAt, rec.ID)
	if err != nil {
		return mutationError("record", "update", err)
	}
	if n == 0 {
		return contentkit.NewNotFoundErrorWithID("record", rec.UUID)
	}
	return nil
}

func (r *records) Delete(ctx context.Context, id int64) error {
	return r.WithTx(ctx, func(s store.Store) error {
		tx := s.(*Store)
		if _, err := tx.exec(ctx, "DELETE FROM record_values WHERE record_id = ?", id); err != nil {
			return mutationError("record", "delete", err)
		}
		n, err := tx.exec(ctx, "DELETE FROM records WHERE id = ?", id)
		if err != nil {
			return mutationError("record", "delete", err)
		}
		if n == 0 {
			return contentkit.NewNotFoundErrorWithID("record", id)
		}
		return nil
	})
}

func (r *records) Get(ctx context.Context, id int64) (*record.Record, error) {
	rs, err := r.list(ctx, "get", "SELECT "+recordColumns+" FROM records WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return nil, contentkit.NewNotFoundErrorWithID("record", id)
	}
	return rs[0], nil
}

func (r *records) GetByUUID(ctx context.Context, id uuid.UUID) (*record.Record, error) {
	rs, err := r.list(ctx, "get", "SELECT "+recordColumns+" FROM records WHERE uuid = ?", id.String())
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return nil, contentkit.NewNotFoundErrorWithID("record", id)
	}
	return rs[0], nil
}

func (r *records) GetByUUIDs(ctx context.Context, ids []uuid.UUID) ([]*record.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id.String()
	}
	return r.list(ctx, "get", "SELECT "+recordColumns+" FROM records WHERE uuid IN ("+placeholders(len(ids))+")", args...)
}

func (r *records) List(ctx context.Context, collectionID int64, opts store.ListOptions) ([]*record.Record, error) {
	query := "SELECT " + recordColumns + " FROM records WHERE collection_id = ?"
	args := []any{collectionID}
	if opts.PublishedOnly {
		query += " AND published_at IS NOT NULL"
	}
	query += " ORDER BY id"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}
	return r.list(ctx, "list", query, args...)
}

func (r *records) Count(ctx context.Context, collectionID int64) (int, error) {
	n, err := r.count(ctx, "SELECT COUNT(*) FROM records WHERE collection_id = ?", collectionID)
	if err != nil {
		return 0, queryError("record", "count", err)
	}
	return n, nil
}

func (r *records) list(ctx context.Context, op, query string, args ...any) ([]*record.Record, error) {
	rows := &sql.Rows{}
	if err := r.conn.Query(ctx, query, args, rows); err != nil {
		return nil, queryError("record", op, err)
	}
	var rs []*record.Record
	err := sql.ScanAll(rows, func(sc sql.ColumnScanner) error {
		rec, err := scanRecord(sc)
		if err != nil {
			return err
		}
		rs = append(rs, rec)
		return nil
	})
	if err != nil {
		return nil, queryError("record", op, err)
	}
	return rs, nil
}

func scanRecord(sc sql.ColumnScanner) (*record.Record, error) {
	var (
		rec                          record.Record
		id                           string
		status, createdBy, updatedBy sql.NullString
		published                    sql.NullTime
	)
	if err := sc.Scan(&rec.ID, &rec.CollectionID, &id, &status, &createdBy, &updatedBy, &published, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if rec.UUID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("record %d: %w", rec.ID, err)
	}
	if err := decodeJSON(status, &rec.Status); err != nil {
		return nil, fmt.Errorf("record %d: decoding status: %w", rec.ID, err)
	}
	rec.CreatedBy, rec.UpdatedBy = createdBy.String, updatedBy.String
	if published.Valid {
		t := published.Time
		rec.PublishedAt = &t
	}
	return &rec, nil
}
