package sqlstore

import (
	"context"
	"fmt"

	"github.com/syssam/contentkit"
	"github.com/syssam/contentkit/dialect"
	"github.com/syssam/contentkit/dialect/sql"
	"github.com/syssam/contentkit/record"
	"github.com/syssam/contentkit/schema/field"
)

const (
	valueColumns = "id, collection_id, record_id, field_id, value, type, meta, created_at, updated_at"
	insertValue  = "INSERT INTO record_values (collection_id, record_id, field_id, value, type, meta, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
)

type values struct{ *Store }

// Upsert writes a value keyed by (record_id, field_id). The unique index on
// that pair turns a second write into an update of the existing row.
func (r *values) Upsert(ctx context.Context, v *record.Value) error {
	r.stamp(&v.CreatedAt, &v.UpdatedAt)
	meta, err := encodeJSON(v.Meta)
	if err != nil {
		return mutationError("value", "upsert", fmt.Errorf("encoding meta: %w", err))
	}
	var text sql.NullString
	if v.Value != nil {
		text = sql.NullString{String: *v.Value, Valid: true}
	}
	args := []any{v.CollectionID, v.RecordID, v.FieldID, text, v.Type.String(), meta, v.CreatedAt, v.UpdatedAt}
	query := insertValue
	if r.dialect == dialect.MySQL {
		// LAST_INSERT_ID(id) makes LastInsertId report the updated row.
		query += " ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id), value = VALUES(value), type = VALUES(type), meta = VALUES(meta), updated_at = VALUES(updated_at)"
	} else {
		query += " ON CONFLICT (record_id, field_id) DO UPDATE SET value = excluded.value, type = excluded.type, meta = excluded.meta, updated_at = excluded.updated_at"
	}
	id, err := r.insert(ctx, query, args)
	if err != nil {
		return mutationError("value", "upsert", err)
	}
	v.ID = id
	return nil
}

func (r *values) Get(ctx context.Context, recordID, fieldID int64) (*record.Value, error) {
	vs, err := r.list(ctx, "get", "SELECT "+valueColumns+" FROM record_values WHERE record_id = ? AND field_id = ?", recordID, fieldID)
	if err != nil {
		return nil, err
	}
	if len(vs) == 0 {
		return nil, contentkit.NewNotFoundErrorWithID("value", fmt.Sprintf("%d/%d", recordID, fieldID))
	}
	return vs[0], nil
}

func (r *values) ListByRecord(ctx context.Context, recordID int64) ([]*record.Value, error) {
	return r.list(ctx, "list", "SELECT "+valueColumns+" FROM record_values WHERE record_id = ? ORDER BY field_id", recordID)
}

func (r *values) ListByRecords(ctx context.Context, recordIDs []int64) ([]*record.Value, error) {
	if len(recordIDs) == 0 {
		return nil, nil
	}
	args := make([]any, len(recordIDs))
	for i, id := range recordIDs {
		args[i] = id
	}
	return r.list(ctx, "list", "SELECT "+valueColumns+" FROM record_values WHERE record_id IN ("+placeholders(len(args))+") ORDER BY record_id, field_id", args...)
}

func (r *values) Exists(ctx context.Context, fieldID int64, text string, excludeRecordID int64) (bool, error) {
	n, err := r.count(ctx, "SELECT COUNT(*) FROM record_values WHERE field_id = ? AND value = ? AND record_id <> ?", fieldID, text, excludeRecordID)
	if err != nil {
		return false, queryError("value", "exists", err)
	}
	return n > 0, nil
}

func (r *values) RecordsWithValue(ctx context.Context, fieldID int64, text string) ([]int64, error) {
	rows := &sql.Rows{}
	if err := r.conn.Query(ctx, "SELECT record_id FROM record_values WHERE field_id = ? AND value = ? ORDER BY record_id", []any{fieldID, text}, rows); err != nil {
		return nil, queryError("value", "find", err)
	}
	var ids []int64
	err := sql.ScanAll(rows, func(sc sql.ColumnScanner) error {
		var id int64
		if err := sc.Scan(&id); err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, queryError("value", "find", err)
	}
	return ids, nil
}

func (r *values) CountByCollection(ctx context.Context, collectionID int64) (int, error) {
	n, err := r.count(ctx, "SELECT COUNT(*) FROM record_values WHERE collection_id = ?", collectionID)
	if err != nil {
		return 0, queryError("value", "count", err)
	}
	return n, nil
}

func (r *values) list(ctx context.Context, op, query string, args ...any) ([]*record.Value, error) {
	rows := &sql.Rows{}
	if err := r.conn.Query(ctx, query, args, rows); err != nil {
		return nil, queryError("value", op, err)
	}
	var vs []*record.Value
	err := sql.ScanAll(rows, func(sc sql.ColumnScanner) error {
		v, err := scanValue(sc)
		if err != nil {
			return err
		}
		vs = append(vs, v)
		return nil
	})
	if err != nil {
		return nil, queryError("value", op, err)
	}
	return vs, nil
}

func scanValue(sc sql.ColumnScanner) (*record.Value, error) {
	var (
		v          record.Value
		text, meta sql.NullString
		typ        string
	)
	if err := sc.Scan(&v.ID, &v.CollectionID, &v.RecordID, &v.FieldID, &text, &typ, &meta, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if v.Type, err = field.ParseType(typ); err != nil {
		return nil, fmt.Errorf("value %d: %w", v.ID, err)
	}
	if text.Valid {
		v.Value = &text.String
	}
	if err := decodeJSON(meta, &v.Meta); err != nil {
		return nil, fmt.Errorf("value %d: decoding meta: %w", v.ID, err)
	}
	return &v, nil
}
