package main

import (
	"context"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/contentkit/engine"
	"github.com/syssam/contentkit/record"
	"github.com/syssam/contentkit/schema"
	"github.com/syssam/contentkit/store"
)

const exportPageSize = 500

// exported is the export document of one collection.
type exported struct {
	Collection string         `json:"collection" msgpack:"collection"`
	Records    []*record.View `json:"records" msgpack:"records"`
}

func runExport(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("export")
	format := fs.String("format", "json", "Output format (json, msgpack)")
	published := fs.Bool("published", false, "Export published records only")
	jobs := fs.Int("jobs", 4, "Collections exported concurrently")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *format != "json" && *format != "msgpack" {
		return fmt.Errorf("unknown format %q", *format)
	}
	var cols []*schema.Collection
	if fs.NArg() == 0 {
		all, err := a.eng.Collections(ctx)
		if err != nil {
			return err
		}
		cols = all
	}
	for _, slug := range fs.Args() {
		c, err := a.eng.Collection(ctx, slug)
		if err != nil {
			return err
		}
		cols = append(cols, c)
	}
	docs, err := export(ctx, a.eng, cols, *published, *jobs)
	if err != nil {
		return err
	}
	return encode(a.out, *format, docs)
}

// export reads the views of every record of cols, jobs collections at a
// time. The result keeps the order of cols.
func export(ctx context.Context, eng *engine.Engine, cols []*schema.Collection, published bool, jobs int) ([]exported, error) {
	docs := make([]exported, len(cols))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(jobs, 1))
	for i, c := range cols {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			views, err := exportCollection(ctx, eng, c, published)
			if err != nil {
				return fmt.Errorf("export %s: %w", c.Slug, err)
			}
			docs[i] = exported{Collection: c.Slug, Records: views}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func exportCollection(ctx context.Context, eng *engine.Engine, c *schema.Collection, published bool) ([]*record.View, error) {
	views := []*record.View{}
	for offset := 0; ; offset += exportPageSize {
		recs, err := eng.Records(ctx, c, store.ListOptions{PublishedOnly: published, Limit: exportPageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		page, err := eng.Views(ctx, c, recs)
		if err != nil {
			return nil, err
		}
		views = append(views, page...)
		if len(recs) < exportPageSize {
			return views, nil
		}
	}
}

func encode(w io.Writer, format string, docs []exported) error {
	if format == "msgpack" {
		enc := msgpack.NewEncoder(w)
		enc.SetSortMapKeys(true)
		return enc.Encode(docs)
	}
	return writeJSON(w, docs)
}
