package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/syssam/contentkit/engine"
)

func runApply(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("apply")
	watch := fs.Bool("watch", false, "Apply again every time the file changes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: apply [-watch] FILE")
	}
	path := fs.Arg(0)
	if err := applyFile(ctx, a.eng, path); err != nil {
		return err
	}
	if !*watch {
		return nil
	}
	return watchFile(ctx, path, func() {
		if err := applyFile(ctx, a.eng, path); err != nil {
			slog.WarnContext(ctx, "apply failed", "path", path, "error", err)
		}
	})
}

func readDefinitions(path string) ([]*engine.Definition, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var defs []*engine.Definition
	if err := yaml.Unmarshal(b, &defs); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

func applyFile(ctx context.Context, eng *engine.Engine, path string) error {
	defs, err := readDefinitions(path)
	if err != nil {
		return err
	}
	_, err = eng.Apply(ctx, defs)
	return err
}

// watchFile calls fn each time path is written, until ctx is done. The
// parent directory is watched so that editors replacing the file are seen.
func watchFile(ctx context.Context, path string, fn func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	slog.InfoContext(ctx, "watching", "path", path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				fn()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "watch error", "error", err)
		}
	}
}
