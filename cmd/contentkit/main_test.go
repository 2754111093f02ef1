package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/contentkit"
	"github.com/syssam/contentkit/record"
)

const blogSchema = `
- name: Posts
  fields:
    - name: title
      type: text
      required: true
    - name: views
      type: number
      default: "0"
- name: Authors
  fields:
    - name: name
      type: text
`

// newApp opens an app over a private in-memory database with the storage
// tables and the blog schema in place. The returned buffer collects the
// command output.
func newApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	cfg := defaultConfig()
	cfg.DSN = fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", strings.ReplaceAll(t.Name(), "/", "_"))
	out := &bytes.Buffer{}
	a, err := openApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), out)
	require.NoError(t, err)
	t.Cleanup(a.close)

	ctx := context.Background()
	require.NoError(t, runMigrate(ctx, a, nil))
	require.NoError(t, runApply(ctx, a, []string{writeFile(t, "schema.yaml", blogSchema)}))
	out.Reset()
	return a, out
}

func TestLookup(t *testing.T) {
	t.Parallel()
	for _, c := range commands {
		assert.Equal(t, c.name, lookup(c.name).name)
	}
	assert.Nil(t, lookup("serve"))
}

func TestMigrateDryRun(t *testing.T) {
	cfg := defaultConfig()
	cfg.DSN = "file:dryrun?mode=memory&cache=shared"
	out := &bytes.Buffer{}
	a, err := openApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), out)
	require.NoError(t, err)
	t.Cleanup(a.close)

	require.NoError(t, runMigrate(context.Background(), a, []string{"-dry-run"}))
	assert.Contains(t, out.String(), "CREATE TABLE")
	assert.Contains(t, out.String(), "record_values")

	_, err = a.eng.Collections(context.Background())
	assert.Error(t, err, "tables are not created on a dry run")
}

func TestRecordCommands(t *testing.T) {
	a, out := newApp(t)
	ctx := context.Background()

	require.NoError(t, runRecord(ctx, a, []string{"create", "posts", "-actor", "ada", `{"title": "Hello", "views": 3}`}))
	var created record.View
	require.NoError(t, json.Unmarshal(out.Bytes(), &created))
	assert.Equal(t, "Hello", created.Data["title"])
	assert.Equal(t, float64(3), created.Data["views"])
	assert.NotNil(t, created.Meta.PublishedAt)
	id := created.ID.String()

	out.Reset()
	require.NoError(t, runRecord(ctx, a, []string{"update", "posts", id, `{"views": 4}`}))
	var updated record.View
	require.NoError(t, json.Unmarshal(out.Bytes(), &updated))
	assert.Equal(t, "Hello", updated.Data["title"])
	assert.Equal(t, float64(4), updated.Data["views"])

	out.Reset()
	require.NoError(t, runRecord(ctx, a, []string{"unpublish", "posts", id}))
	var draft record.View
	require.NoError(t, json.Unmarshal(out.Bytes(), &draft))
	assert.Nil(t, draft.Meta.PublishedAt)

	out.Reset()
	require.NoError(t, runRecord(ctx, a, []string{"list", "posts", "-published"}))
	assert.JSONEq(t, "[]", out.String())

	err := runRecord(ctx, a, []string{"create", "posts", `{"views": 1}`})
	assert.True(t, contentkit.IsValidationError(err), "%v", err)

	require.NoError(t, runRecord(ctx, a, []string{"delete", "posts", id}))
	err = runRecord(ctx, a, []string{"get", "posts", id})
	assert.True(t, contentkit.IsNotFound(err), "%v", err)

	assert.Error(t, runRecord(ctx, a, []string{"get", "posts", "not-a-uuid"}))
	assert.Error(t, runRecord(ctx, a, []string{"frobnicate", "posts", id}))
}

func TestCollectionsAndStats(t *testing.T) {
	a, out := newApp(t)
	ctx := context.Background()

	require.NoError(t, runCollections(ctx, a, nil))
	assert.Contains(t, out.String(), "posts")
	assert.Contains(t, out.String(), "authors")

	require.NoError(t, runRecord(ctx, a, []string{"create", "posts", `{"title": "Hello"}`}))
	out.Reset()
	require.NoError(t, runStats(ctx, a, nil))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"posts", "2", "1", "2"}, strings.Fields(lines[1]))
}

func TestJSONSchemaCommand(t *testing.T) {
	a, out := newApp(t)

	require.NoError(t, runJSONSchema(context.Background(), a, []string{"posts"}))
	var doc map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, "posts", doc["$id"])
	assert.Error(t, runJSONSchema(context.Background(), a, nil))
}

func TestExport(t *testing.T) {
	a, out := newApp(t)
	ctx := context.Background()
	for i := range 3 {
		require.NoError(t, runRecord(ctx, a, []string{"create", "posts", fmt.Sprintf(`{"title": "Post %d"}`, i)}))
	}
	require.NoError(t, runRecord(ctx, a, []string{"create", "authors", `{"name": "Ada"}`}))

	t.Run("JSON", func(t *testing.T) {
		out.Reset()
		require.NoError(t, runExport(ctx, a, []string{"-jobs", "2"}))
		var docs []struct {
			Collection string           `json:"collection"`
			Records    []map[string]any `json:"records"`
		}
		require.NoError(t, json.Unmarshal(out.Bytes(), &docs))
		require.Len(t, docs, 2)
		counts := map[string]int{}
		for _, d := range docs {
			counts[d.Collection] = len(d.Records)
		}
		assert.Equal(t, map[string]int{"posts": 3, "authors": 1}, counts)
	})

	t.Run("Msgpack", func(t *testing.T) {
		out.Reset()
		require.NoError(t, runExport(ctx, a, []string{"-format", "msgpack", "posts"}))
		var docs []struct {
			Collection string           `msgpack:"collection"`
			Records    []map[string]any `msgpack:"records"`
		}
		require.NoError(t, msgpack.Unmarshal(out.Bytes(), &docs))
		require.Len(t, docs, 1)
		assert.Equal(t, "posts", docs[0].Collection)
		assert.Len(t, docs[0].Records, 3)
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		assert.EqualError(t, runExport(ctx, a, []string{"-format", "xml"}), `unknown format "xml"`)
	})
}

func TestWatchFile(t *testing.T) {
	path := writeFile(t, "schema.yaml", blogSchema)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, func() { calls.Add(1) })
	}()

	// The watcher starts asynchronously; keep writing until a change is seen.
	deadline := time.Now().Add(5 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		require.NoError(t, os.WriteFile(path, []byte(blogSchema), 0o600))
		time.Sleep(50 * time.Millisecond)
	}
	assert.Positive(t, calls.Load())

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
