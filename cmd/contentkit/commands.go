package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/syssam/contentkit/contrib/jsonschema"
	sqlschema "github.com/syssam/contentkit/dialect/sql/schema"
	"github.com/syssam/contentkit/record"
	"github.com/syssam/contentkit/schema"
	"github.com/syssam/contentkit/store"
)

type command struct {
	name string
	args string
	help string
	run  func(ctx context.Context, a *app, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{"migrate", "[-dry-run]", "Create the storage tables", runMigrate},
		{"apply", "[-watch] FILE", "Apply collection definitions from a YAML file", runApply},
		{"collections", "", "List collections", runCollections},
		{"record", "create|get|list|update|publish|unpublish|delete SLUG ...", "Manage records", runRecord},
		{"export", "[-format json|msgpack] [SLUG...]", "Export record views", runExport},
		{"jsonschema", "SLUG", "Print the JSON Schema of a collection", runJSONSchema},
		{"stats", "", "Print field, record and value counts per collection", runStats},
	}
}

func lookup(name string) *command {
	for i := range commands {
		if commands[i].name == name {
			return &commands[i]
		}
	}
	return nil
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

func runMigrate(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("migrate")
	dryRun := fs.Bool("dry-run", false, "Print the statements instead of executing them")
	if err := fs.Parse(args); err != nil {
		return err
	}
	opts := []sqlschema.MigrateOption{sqlschema.WithLogger(a.logger)}
	if *dryRun {
		opts = append(opts, sqlschema.WithDryRun(a.out))
	}
	res, err := sqlschema.Create(ctx, a.drv, opts...)
	if err != nil {
		return err
	}
	if res.HasBreakingChanges() {
		return errors.New("storage tables differ from the expected layout")
	}
	return nil
}

func runCollections(ctx context.Context, a *app, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	cols, err := a.eng.Collections(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SLUG\tNAME\tFIELDS\tACTIVE\tSYSTEM")
	for _, c := range cols {
		fmt.Fprintf(w, "%s\t%s\t%d\t%t\t%t\n", c.Slug, c.Name, len(c.Fields()), c.Active, c.System)
	}
	return w.Flush()
}

func runStats(ctx context.Context, a *app, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	cols, err := a.eng.Collections(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SLUG\tFIELDS\tRECORDS\tVALUES")
	for _, c := range cols {
		s, err := a.eng.Stats(ctx, c)
		if err != nil {
			return fmt.Errorf("%s: %w", c.Slug, err)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", c.Slug, s.Fields, s.Records, s.Values)
	}
	return w.Flush()
}

func runJSONSchema(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: jsonschema SLUG")
	}
	c, err := a.eng.Collection(ctx, args[0])
	if err != nil {
		return err
	}
	return writeJSON(a.out, jsonschema.View(c))
}

func runRecord(ctx context.Context, a *app, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: record create|get|list|update|publish|unpublish|delete SLUG ...")
	}
	op, args := args[0], args[1:]
	fs := newFlagSet("record " + op)
	actor := fs.String("actor", "", "Name recorded as creator or last editor")
	published := fs.Bool("published", false, "List published records only")
	limit := fs.Int("limit", 0, "Maximum number of records to list")
	offset := fs.Int("offset", 0, "Number of records to skip")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	c, err := a.eng.Collection(ctx, args[0])
	if err != nil {
		return err
	}
	rest := fs.Args()
	switch op {
	case "create":
		if len(rest) != 1 {
			return errors.New("usage: record create SLUG [-actor NAME] JSON")
		}
		values, err := decodeValues(rest[0])
		if err != nil {
			return err
		}
		rec, data, err := a.eng.CreateRecord(ctx, c, values, *actor)
		if err != nil {
			return err
		}
		return writeJSON(a.out, rec.View(data))
	case "list":
		if len(rest) != 0 {
			return fmt.Errorf("unexpected arguments: %v", rest)
		}
		recs, err := a.eng.Records(ctx, c, store.ListOptions{PublishedOnly: *published, Limit: *limit, Offset: *offset})
		if err != nil {
			return err
		}
		views, err := a.eng.Views(ctx, c, recs)
		if err != nil {
			return err
		}
		return writeJSON(a.out, views)
	}

	if len(rest) == 0 {
		return fmt.Errorf("usage: record %s SLUG UUID", op)
	}
	rec, err := findRecord(ctx, a, c, rest[0])
	if err != nil {
		return err
	}
	switch op {
	case "get":
	case "update":
		if len(rest) != 2 {
			return errors.New("usage: record update SLUG [-actor NAME] UUID JSON")
		}
		values, err := decodeValues(rest[1])
		if err != nil {
			return err
		}
		if err := a.eng.UpdateRecord(ctx, c, rec, values, *actor); err != nil {
			return err
		}
	case "publish":
		if err := a.eng.PublishRecord(ctx, c, rec); err != nil {
			return err
		}
	case "unpublish":
		if err := a.eng.UnpublishRecord(ctx, c, rec); err != nil {
			return err
		}
	case "delete":
		return a.eng.DeleteRecord(ctx, c, rec)
	default:
		return fmt.Errorf("unknown record command %q", op)
	}
	v, err := a.eng.View(ctx, c, rec)
	if err != nil {
		return err
	}
	return writeJSON(a.out, v)
}

func findRecord(ctx context.Context, a *app, c *schema.Collection, s string) (*record.Record, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid record id %q: %w", s, err)
	}
	return a.eng.Record(ctx, c, id)
}

func decodeValues(s string) (map[string]any, error) {
	var values map[string]any
	if err := json.Unmarshal([]byte(s), &values); err != nil {
		return nil, fmt.Errorf("invalid values: %w", err)
	}
	return values, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
