package sqlstore_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/contentkit"
	"github.com/syssam/contentkit/dialect"
	"github.com/syssam/contentkit/dialect/sql"
	"github.com/syssam/contentkit/dialect/sql/schema"
	"github.com/syssam/contentkit/record"
	cschema "github.com/syssam/contentkit/schema"
	"github.com/syssam/contentkit/schema/field"
	"github.com/syssam/contentkit/store"
	"github.com/syssam/contentkit/store/sqlstore"

	_ "modernc.org/sqlite"
)

func openStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", strings.ReplaceAll(t.Name(), "/", "_"))
	drv, err := sql.Open(dialect.SQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { drv.Close() })
	_, err = schema.Create(context.Background(), drv)
	require.NoError(t, err)
	return sqlstore.New(drv)
}

func ptr(s string) *string { return &s }

func seed(t *testing.T, s store.Store) (*cschema.Collection, *cschema.Field, *record.Record) {
	return seedSlug(t, s, "posts")
}

func seedSlug(t *testing.T, s store.Store, slug string) (*cschema.Collection, *cschema.Field, *record.Record) {
	t.Helper()
	ctx := context.Background()
	c := &cschema.Collection{Name: "Posts", Slug: slug, Active: true, Settings: map[string]any{"listed": true}, Permissions: map[string][]string{"read": {"editor"}}}
	require.NoError(t, s.Collections().Create(ctx, c))
	f := &cschema.Field{CollectionID: c.ID, Name: "title", Label: "Title", Type: field.TypeText, Required: true, Active: true, Rules: []string{"max:120"}}
	require.NoError(t, s.Fields().Create(ctx, f))
	now := time.Now().UTC()
	r := &record.Record{CollectionID: c.ID, UUID: uuid.New(), CreatedBy: "ada", UpdatedBy: "ada", PublishedAt: &now}
	require.NoError(t, s.Records().Create(ctx, r))
	return c, f, r
}

func TestCollections(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	c, _, _ := seed(t, s)
	require.NotZero(t, c.ID)

	got, err := s.Collections().GetBySlug(ctx, "posts")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, "Posts", got.Name)
	assert.True(t, got.Active)
	assert.Equal(t, map[string]any{"listed": true}, got.Settings)
	assert.Equal(t, map[string][]string{"read": {"editor"}}, got.Permissions)
	_, err = got.Edges.FieldsOrErr()
	assert.True(t, contentkit.IsNotLoaded(err))

	got.Description = "Blog posts"
	got.SortOrder = 3
	require.NoError(t, s.Collections().Update(ctx, got))
	got, err = s.Collections().Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Blog posts", got.Description)
	assert.Equal(t, 3, got.SortOrder)

	other := &cschema.Collection{Name: "Pages", Slug: "pages", Active: true}
	require.NoError(t, s.Collections().Create(ctx, other))
	all, err := s.Collections().List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "pages", all[0].Slug, "ordered by sort order")

	_, err = s.Collections().GetBySlug(ctx, "missing")
	assert.True(t, contentkit.IsNotFound(err))

	dup := &cschema.Collection{Name: "Posts again", Slug: "posts", Active: true}
	err = s.Collections().Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, contentkit.IsConstraintError(err))
	assert.True(t, contentkit.IsMutationError(err))
}

func TestFields(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	c, f, _ := seed(t, s)

	rel := &cschema.Field{
		CollectionID: c.ID, Name: "author", Label: "Author", Type: field.TypeRelation, Active: true, SortOrder: -1,
		Default:  ptr(""),
		Options:  map[string]any{"display": "name"},
		Relation: &cschema.Relation{CollectionID: c.ID, Kind: cschema.RelationOne, ForeignKey: "author_id", LocalKey: "id"},
	}
	require.NoError(t, s.Fields().Create(ctx, rel))

	fs, err := s.Fields().ListByCollection(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, fs, 2)
	assert.Equal(t, "author", fs[0].Name)
	require.NotNil(t, fs[0].Relation)
	assert.Equal(t, cschema.RelationOne, fs[0].Relation.Kind)
	assert.Equal(t, "author_id", fs[0].Relation.ForeignKey)
	require.NotNil(t, fs[0].Default)
	assert.Equal(t, "", *fs[0].Default)
	assert.Equal(t, map[string]any{"display": "name"}, fs[0].Options)
	assert.Equal(t, field.TypeText, fs[1].Type)
	assert.Equal(t, []string{"max:120"}, fs[1].Rules)
	assert.Nil(t, fs[1].Relation)
	assert.Nil(t, fs[1].Default)

	taken, err := s.Fields().NameTaken(ctx, c.ID, "title", 0)
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = s.Fields().NameTaken(ctx, c.ID, "title", f.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	f.Active = false
	f.Label = "Headline"
	require.NoError(t, s.Fields().Update(ctx, f))
	got, err := s.Fields().Get(ctx, f.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Equal(t, "Headline", got.Label)

	err = s.Fields().Create(ctx, &cschema.Field{CollectionID: c.ID, Name: "title", Label: "Title", Type: field.TypeText})
	assert.True(t, contentkit.IsConstraintError(err))

	require.NoError(t, s.Fields().Delete(ctx, rel.ID))
	_, err = s.Fields().Get(ctx, rel.ID)
	assert.True(t, contentkit.IsNotFound(err))
}

func TestRecords(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	c, _, r := seed(t, s)

	got, err := s.Records().GetByUUID(ctx, r.UUID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)
	assert.Equal(t, "ada", got.CreatedBy)
	assert.True(t, got.Published())

	got.Unpublish()
	got.UpdatedBy = "grace"
	got.Status = map[string]any{"review": "pending"}
	require.NoError(t, s.Records().Update(ctx, got))
	got, err = s.Records().Get(ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, got.Published())
	assert.Equal(t, "grace", got.UpdatedBy)
	assert.Equal(t, "ada", got.CreatedBy)
	assert.Equal(t, map[string]any{"review": "pending"}, got.Status)

	for range 3 {
		now := time.Now().UTC()
		require.NoError(t, s.Records().Create(ctx, &record.Record{CollectionID: c.ID, UUID: uuid.New(), PublishedAt: &now}))
	}
	n, err := s.Records().Count(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	published, err := s.Records().List(ctx, c.ID, store.ListOptions{PublishedOnly: true})
	require.NoError(t, err)
	assert.Len(t, published, 3)
	page, err := s.Records().List(ctx, c.ID, store.ListOptions{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, published[0].ID, page[0].ID)

	byIDs, err := s.Records().GetByUUIDs(ctx, []uuid.UUID{r.UUID, page[1].UUID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)

	_, err = s.Records().GetByUUID(ctx, uuid.New())
	assert.True(t, contentkit.IsNotFound(err))
}

func TestValues(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	c, f, r := seed(t, s)

	v := &record.Value{CollectionID: c.ID, RecordID: r.ID, FieldID: f.ID, Value: ptr("Hello"), Type: field.TypeText}
	require.NoError(t, s.Values().Upsert(ctx, v))
	first := v.ID
	require.NotZero(t, first)

	v2 := &record.Value{CollectionID: c.ID, RecordID: r.ID, FieldID: f.ID, Value: ptr("World"), Type: field.TypeTextarea, Meta: map[string]any{"by": "grace"}}
	require.NoError(t, s.Values().Upsert(ctx, v2))
	assert.Equal(t, first, v2.ID, "second write updates the same row")

	vs, err := s.Values().ListByRecord(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, vs, 1)
	assert.Equal(t, "World", *vs[0].Value)
	assert.Equal(t, field.TypeTextarea, vs[0].Type)
	assert.Equal(t, map[string]any{"by": "grace"}, vs[0].Meta)

	got, err := s.Values().Get(ctx, r.ID, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "World", *got.Value)
	_, err = s.Values().Get(ctx, r.ID, f.ID+100)
	assert.True(t, contentkit.IsNotFound(err))

	exists, err := s.Values().Exists(ctx, f.ID, "World", 0)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = s.Values().Exists(ctx, f.ID, "World", r.ID)
	require.NoError(t, err)
	assert.False(t, exists, "own value is excluded")

	ids, err := s.Values().RecordsWithValue(ctx, f.ID, "World")
	require.NoError(t, err)
	assert.Equal(t, []int64{r.ID}, ids)

	require.NoError(t, s.Values().Upsert(ctx, &record.Value{CollectionID: c.ID, RecordID: r.ID, FieldID: f.ID, Type: field.TypeText}))
	got, err = s.Values().Get(ctx, r.ID, f.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Value)

	batch, err := s.Values().ListByRecords(ctx, []int64{r.ID})
	require.NoError(t, err)
	assert.Len(t, batch, 1)
	n, err := s.Values().CountByCollection(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCascadeDelete(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	c, f, r := seed(t, s)
	require.NoError(t, s.Values().Upsert(ctx, &record.Value{CollectionID: c.ID, RecordID: r.ID, FieldID: f.ID, Value: ptr("x"), Type: field.TypeText}))

	require.NoError(t, s.Records().Delete(ctx, r.ID))
	n, err := s.Values().CountByCollection(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, _, r2 := seedSlug(t, s, "articles")
	require.NoError(t, s.Collections().Delete(ctx, c.ID))
	_, err = s.Collections().Get(ctx, c.ID)
	assert.True(t, contentkit.IsNotFound(err))
	fs, err := s.Fields().ListByCollection(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, fs)
	_, err = s.Records().Get(ctx, r2.ID)
	require.NoError(t, err, "records of other collections survive")

	err = s.Collections().Delete(ctx, c.ID)
	assert.True(t, contentkit.IsNotFound(err))
}

func TestWithTx(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Store) error {
		require.NoError(t, tx.Collections().Create(ctx, &cschema.Collection{Name: "Tmp", Slug: "tmp", Active: true}))
		return tx.WithTx(ctx, func(inner store.Store) error {
			return boom
		})
	})
	require.ErrorIs(t, err, boom)
	_, err = s.Collections().GetBySlug(ctx, "tmp")
	assert.True(t, contentkit.IsNotFound(err), "rolled back")

	require.NoError(t, s.WithTx(ctx, func(tx store.Store) error {
		return tx.Collections().Create(ctx, &cschema.Collection{Name: "Kept", Slug: "kept", Active: true})
	}))
	_, err = s.Collections().GetBySlug(ctx, "kept")
	require.NoError(t, err)
}

func TestPostgresStatements(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := sqlstore.New(sql.OpenDB(dialect.Postgres, db))
	ctx := context.Background()

	mock.ExpectQuery(`INSERT INTO record_values \(collection_id, record_id, field_id, value, type, meta, created_at, updated_at\) VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8\) ON CONFLICT \(record_id, field_id\) DO UPDATE SET .* RETURNING id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	v := &record.Value{CollectionID: 1, RecordID: 2, FieldID: 3, Value: ptr("1"), Type: field.TypeBoolean}
	require.NoError(t, s.Values().Upsert(ctx, v))
	assert.Equal(t, int64(42), v.ID)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM record_values WHERE field_id = \$1 AND value = \$2 AND record_id <> \$3`).
		WithArgs(3, "a@b.c", 2).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	exists, err := s.Values().Exists(ctx, 3, "a@b.c", 2)
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(`INSERT INTO fields .* RETURNING id`).
		WillReturnError(errors.New(`pq: duplicate key value violates unique constraint "fields_collection_name"`))
	err = s.Fields().Create(ctx, &cschema.Field{CollectionID: 1, Name: "title", Type: field.TypeText})
	assert.True(t, contentkit.IsConstraintError(err))

	mock.ExpectExec(`UPDATE records SET .* WHERE id = \$5`).WillReturnResult(sqlmock.NewResult(0, 0))
	err = s.Records().Update(ctx, &record.Record{ID: 9, UUID: uuid.New()})
	assert.True(t, contentkit.IsNotFound(err))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStatements(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := sqlstore.New(sql.OpenDB(dialect.MySQL, db))
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO record_values .* VALUES \(\?, \?, \?, \?, \?, \?, \?, \?\) ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID\(id\), .*`).
		WillReturnResult(sqlmock.NewResult(7, 2))
	v := &record.Value{CollectionID: 1, RecordID: 2, FieldID: 3, Value: ptr("x"), Type: field.TypeText}
	require.NoError(t, s.Values().Upsert(ctx, v))
	assert.Equal(t, int64(7), v.ID)

	mock.ExpectExec(`INSERT INTO collections`).WillReturnResult(sqlmock.NewResult(5, 1))
	c := &cschema.Collection{Name: "Posts", Slug: "posts"}
	require.NoError(t, s.Collections().Create(ctx, c))
	assert.Equal(t, int64(5), c.ID)

	mock.ExpectQuery(`SELECT .* FROM collections WHERE id = \?`).WillReturnError(errors.New("connection reset"))
	_, err = s.Collections().Get(ctx, 5)
	assert.True(t, contentkit.IsQueryError(err))

	require.NoError(t, mock.ExpectationsWereMet())
}
