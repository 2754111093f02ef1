// Package dataloader batches and caches lookups of entities by key.
//
// The engine resolves relation fields through a [Loader], so a list of
// records referencing the same related records costs one store query per
// batch instead of one per reference.
//
//	loader := dataloader.New(func(ctx context.Context, ids []uuid.UUID) ([]*record.Record, []error) {
//	    recs, err := st.Records().GetByUUIDs(ctx, ids)
//	    if err != nil {
//	        return nil, []error{err}
//	    }
//	    return dataloader.OrderByKeys(ids, recs, func(r *record.Record) uuid.UUID { return r.UUID })
//	})
//	recs, errs := loader.LoadMany(ctx, ids)
package dataloader

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned when an entity is not found in a batch result.
var ErrNotFound = errors.New("dataloader: entity not found")

// KeyFunc extracts a key from an entity.
type KeyFunc[K comparable, V any] func(V) K

// BatchFunc is a function that loads a batch of entities by their keys.
// It returns either one value and one error per key, in key order, or a
// single error for the whole batch.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) ([]V, []error)

// OrderByKeys reorders entities to match the order of requested keys.
// Missing entities are represented as zero values with corresponding errors.
func OrderByKeys[K comparable, V any](keys []K, values []V, keyFn KeyFunc[K, V]) ([]V, []error) {
	lookup := make(map[K]V, len(values))
	for _, v := range values {
		lookup[keyFn(v)] = v
	}
	result := make([]V, len(keys))
	errs := make([]error, len(keys))
	for i, key := range keys {
		if v, ok := lookup[key]; ok {
			result[i] = v
		} else {
			errs[i] = ErrNotFound
		}
	}
	return result, errs
}

// GroupByKey groups entities by a key function.
// Useful for one-to-many lookups where several entities share a key, such
// as the stored values of a record.
func GroupByKey[K comparable, V any](values []V, keyFn KeyFunc[K, V]) map[K][]V {
	result := make(map[K][]V)
	for _, v := range values {
		key := keyFn(v)
		result[key] = append(result[key], v)
	}
	return result
}

// OrderGroupsByKeys reorders grouped entities to match the order of requested keys.
func OrderGroupsByKeys[K comparable, V any](keys []K, groups map[K][]V) [][]V {
	result := make([][]V, len(keys))
	for i, key := range keys {
		result[i] = groups[key]
	}
	return result
}

type entry[V any] struct {
	value V
	err   error
}

// Loader loads entities through a BatchFunc and caches every result,
// including misses, for its lifetime. A Loader is meant to live for one
// request. It is safe for concurrent use.
type Loader[K comparable, V any] struct {
	batch BatchFunc[K, V]
	max   int

	mu    sync.Mutex
	cache map[K]entry[V]
}

// Option configures a Loader.
type Option func(*options)

type options struct{ max int }

// WithBatchCapacity caps the number of keys passed to one BatchFunc call.
func WithBatchCapacity(n int) Option {
	return func(o *options) { o.max = n }
}

// New returns a Loader over batch.
func New[K comparable, V any](batch BatchFunc[K, V], opts ...Option) *Loader[K, V] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Loader[K, V]{batch: batch, max: o.max, cache: make(map[K]entry[V])}
}

// Load loads a single entity.
func (l *Loader[K, V]) Load(ctx context.Context, key K) (V, error) {
	vs, errs := l.LoadMany(ctx, []K{key})
	return vs[0], errs[0]
}

// LoadMany loads entities in key order. Keys already cached are not
// fetched again; the rest are fetched in batches.
func (l *Loader[K, V]) LoadMany(ctx context.Context, keys []K) ([]V, []error) {
	l.mu.Lock()
	var missing []K
	seen := make(map[K]bool)
	for _, k := range keys {
		if _, ok := l.cache[k]; !ok && !seen[k] {
			seen[k] = true
			missing = append(missing, k)
		}
	}
	l.mu.Unlock()

	for len(missing) > 0 {
		n := len(missing)
		if l.max > 0 && n > l.max {
			n = l.max
		}
		chunk := missing[:n]
		missing = missing[n:]
		values, errs := l.batch(ctx, chunk)
		l.mu.Lock()
		for i, k := range chunk {
			var e entry[V]
			switch {
			case len(errs) == 1 && len(values) != len(chunk):
				e.err = errs[0]
			case i < len(values):
				e.value = values[i]
				if i < len(errs) {
					e.err = errs[i]
				}
			default:
				e.err = ErrNotFound
			}
			l.cache[k] = e
		}
		l.mu.Unlock()
	}

	result := make([]V, len(keys))
	errs := make([]error, len(keys))
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, k := range keys {
		e := l.cache[k]
		result[i], errs[i] = e.value, e.err
	}
	return result, errs
}

// Prime adds a known value to the cache. An existing entry is replaced.
func (l *Loader[K, V]) Prime(key K, value V) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache[key] = entry[V]{value: value}
}

// Clear removes a key from the cache.
func (l *Loader[K, V]) Clear(key K) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cache, key)
}

// CachePrimer primes a loader cache with known values.
type CachePrimer[K comparable, V any] interface {
	Prime(key K, value V)
}

// PrimeMany primes multiple values into a cache.
func PrimeMany[K comparable, V any](cache CachePrimer[K, V], values []V, keyFn KeyFunc[K, V]) {
	for _, v := range values {
		cache.Prime(keyFn(v), v)
	}
}

// CacheClearer clears values from a loader cache.
type CacheClearer[K comparable] interface {
	Clear(key K)
}

// ClearMany clears multiple keys from a cache.
func ClearMany[K comparable](cache CacheClearer[K], keys []K) {
	for _, key := range keys {
		cache.Clear(key)
	}
}

// ctxKey is the context key for storing loaders.
type ctxKey struct{}

// WithLoaders injects loaders into the context.
func WithLoaders[T any](ctx context.Context, loaders T) context.Context {
	return context.WithValue(ctx, ctxKey{}, loaders)
}

// For extracts loaders from context.
func For[T any](ctx context.Context) T {
	v, _ := ctx.Value(ctxKey{}).(T)
	return v
}
