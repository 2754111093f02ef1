// Package engine orchestrates collections, fields and records over a
// store.Store.
//
// Every write that spans several rows runs in one transaction: a collection
// with its initial fields, a record with its initial values, and a record
// update with its changed values. Incoming values are checked against the
// rule set of each field before anything is written.
//
//	eng := engine.New(sqlstore.New(drv), engine.WithLogger(logger))
//	posts, err := eng.CreateCollectionWithFields(ctx, &schema.Collection{Name: "Posts"},
//	    &schema.Field{Name: "title", Type: field.TypeText, Required: true},
//	    &schema.Field{Name: "published", Type: field.TypeBoolean, Default: ptr("0")},
//	)
//	rec, data, err := eng.CreateRecord(ctx, posts, map[string]any{"title": "Hello"}, "ada")
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/syssam/contentkit/privacy"
	"github.com/syssam/contentkit/store"
)

// Engine is the entry point for schema and record operations. It is safe
// for concurrent use.
type Engine struct {
	store           store.Store
	logger          *slog.Logger
	policy          privacy.QueryMutationRule
	publishOnCreate bool
	now             func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithPolicy sets the policy evaluated before every read and write.
func WithPolicy(p privacy.QueryMutationRule) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// PublishOnCreate controls whether new records start published. The
// default is true; with false they start as drafts.
func PublishOnCreate(b bool) Option {
	return func(e *Engine) {
		e.publishOnCreate = b
	}
}

// WithClock sets the clock used for publish timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New returns an Engine over st.
func New(st store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:           st,
		logger:          slog.Default(),
		publishOnCreate: true,
		now:             func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the underlying store.
func (e *Engine) Store() store.Store {
	return e.store
}

// WithTx runs fn with an engine bound to a transaction of the store. The
// transaction commits when fn returns nil and rolls back otherwise.
func (e *Engine) WithTx(ctx context.Context, fn func(*Engine) error) error {
	return e.store.WithTx(ctx, func(tx store.Store) error {
		etx := *e
		etx.store = tx
		return fn(&etx)
	})
}
