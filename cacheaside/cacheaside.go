// Package cacheaside coordinates a record store and a cache.Store for one
// entity collection.
//
// Reads check the cache first and populate it from the record store on a
// miss. Mutations write the record store first and only then remove the
// affected keys. Two keys exist per collection:
//
//	"<collection>"       the list of every entity
//	"<collection>:<id>"  a single entity
//
// A population racing an invalidation of the same key can leave stale data in
// the cache until its TTL expires. That window is part of the pattern; the
// TTLs bound it.
package cacheaside

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang/glog"
	"golang.org/x/sync/singleflight"

	"github.com/microcosm-cc/gamecatalog/cache"
	e "github.com/microcosm-cc/gamecatalog/errors"
)

// RecordStore is the authoritative store for one collection. Implementations
// must be safe for concurrent use and wrap I/O failures with
// e.ErrStoreUnavailable.
type RecordStore[T any] interface {
	FindByID(ctx context.Context, id int64) (T, bool, error)
	ListAll(ctx context.Context) ([]T, error)
	Insert(ctx context.Context, record T) (T, error)
	Update(ctx context.Context, record T) error
	Delete(ctx context.Context, record T) error
}

// Policy holds the entity-specific parts of the coordination
type Policy[T any] struct {
	// ID returns the identifier the record store assigned
	ID func(T) int64

	// Validate rejects payloads that cannot be created and merged records
	// that cannot be persisted. Optional.
	Validate func(T) error

	// Merge applies patch over stored and returns the record to persist
	Merge func(stored, patch T) T
}

// Config names the collection and sets the lifetime of its entries
type Config struct {
	Collection string
	ListTTL    time.Duration
	ItemTTL    time.Duration
}

// Validate checks the TTLs are positive and that items outlive the list
func (c Config) Validate() error {
	if err := cache.ValidateKey(c.Collection); err != nil {
		return fmt.Errorf("cacheaside: collection: %v", err)
	}
	if c.ListTTL <= 0 {
		return fmt.Errorf("cacheaside: list ttl must be positive, got %s", c.ListTTL)
	}
	if c.ItemTTL <= 0 {
		return fmt.Errorf("cacheaside: item ttl must be positive, got %s", c.ItemTTL)
	}
	if c.ItemTTL < c.ListTTL {
		return fmt.Errorf("cacheaside: item ttl %s is shorter than list ttl %s", c.ItemTTL, c.ListTTL)
	}
	return nil
}

// Coordinator implements read-through caching and write invalidation for one
// collection. It holds only its collaborators, so one instance is shared by
// every request.
type Coordinator[T any] struct {
	cfg     Config
	records RecordStore[T]
	store   *cache.Store
	policy  Policy[T]
	misses  singleflight.Group
}

// New returns a Coordinator after validating cfg and policy
func New[T any](cfg Config, records RecordStore[T], store *cache.Store, policy Policy[T]) (*Coordinator[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if records == nil || store == nil {
		return nil, fmt.Errorf("cacheaside: record store and cache store are required")
	}
	if policy.ID == nil || policy.Merge == nil {
		return nil, fmt.Errorf("cacheaside: policy needs ID and Merge")
	}

	return &Coordinator[T]{
		cfg:     cfg,
		records: records,
		store:   store,
		policy:  policy,
	}, nil
}

// Collection returns the collection name used as the key namespace
func (c *Coordinator[T]) Collection() string {
	return c.cfg.Collection
}

// ListKey is the key the full list is cached under
func (c *Coordinator[T]) ListKey() string {
	return c.cfg.Collection
}

// ItemKey is the key a single entity is cached under
func (c *Coordinator[T]) ItemKey(id int64) string {
	return c.cfg.Collection + ":" + strconv.FormatInt(id, 10)
}

// List returns every entity. A cached list is returned as-is.
func (c *Coordinator[T]) List(ctx context.Context) ([]T, error) {
	key := c.ListKey()

	cached, ok, err := lookup[[]T](ctx, c.store, c.cfg.Collection, key)
	if err != nil {
		return nil, err
	}
	if ok {
		return nonNil(cached), nil
	}

	v, err := c.shared(ctx, key, func(ctx context.Context) (interface{}, error) {
		records, err := c.records.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		records = nonNil(records)

		if err := c.store.Set(ctx, key, records, cache.Expire(c.cfg.ListTTL)); err != nil {
			return nil, err
		}

		if glog.V(2) {
			glog.Infof("cached %d %s under %s for %s", len(records), c.cfg.Collection, key, c.cfg.ListTTL)
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}

	return append([]T(nil), v.([]T)...), nil
}

// Get returns the entity with id, or an error wrapping e.ErrNotFound. Absence
// is never cached.
func (c *Coordinator[T]) Get(ctx context.Context, id int64) (T, error) {
	var zero T
	key := c.ItemKey(id)

	cached, ok, err := lookup[T](ctx, c.store, c.cfg.Collection, key)
	if err != nil {
		return zero, err
	}
	if ok {
		return cached, nil
	}

	v, err := c.shared(ctx, key, func(ctx context.Context) (interface{}, error) {
		record, found, err := c.records.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, c.notFound(id)
		}

		if err := c.store.Set(ctx, key, record, cache.Expire(c.cfg.ItemTTL)); err != nil {
			return nil, err
		}
		return record, nil
	})
	if err != nil {
		return zero, err
	}

	return v.(T), nil
}

// Create inserts record and drops the cached list. The returned entity carries
// the identifier assigned by the record store.
func (c *Coordinator[T]) Create(ctx context.Context, record *T) (T, error) {
	var zero T
	if record == nil {
		return zero, fmt.Errorf("%w: %s payload is missing", e.ErrInvalidInput, c.cfg.Collection)
	}
	if c.policy.Validate != nil {
		if err := c.policy.Validate(*record); err != nil {
			return zero, fmt.Errorf("%w: %v", e.ErrInvalidInput, err)
		}
	}

	stored, err := c.records.Insert(ctx, *record)
	if err != nil {
		return zero, err
	}

	c.invalidate(ctx, c.ListKey())

	if glog.V(2) {
		glog.Infof("created %s %d", c.cfg.Collection, c.policy.ID(stored))
	}
	return stored, nil
}

// Update merges patch into the stored entity with id, validates and persists
// the result, and drops both the item and the list keys.
func (c *Coordinator[T]) Update(ctx context.Context, id int64, patch *T) error {
	if patch == nil {
		return fmt.Errorf("%w: %s patch is missing", e.ErrInvalidInput, c.cfg.Collection)
	}

	stored, found, err := c.records.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return c.notFound(id)
	}

	merged := c.policy.Merge(stored, *patch)
	if c.policy.Validate != nil {
		if err := c.policy.Validate(merged); err != nil {
			return fmt.Errorf("%w: %v", e.ErrInvalidInput, err)
		}
	}

	if err := c.records.Update(ctx, merged); err != nil {
		return err
	}

	c.invalidate(ctx, c.ItemKey(id), c.ListKey())

	return nil
}

// Delete removes the entity with id and drops both the item and the list keys
func (c *Coordinator[T]) Delete(ctx context.Context, id int64) error {
	stored, found, err := c.records.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return c.notFound(id)
	}

	if err := c.records.Delete(ctx, stored); err != nil {
		return err
	}

	c.invalidate(ctx, c.ItemKey(id), c.ListKey())

	return nil
}

// shared runs populate once for every caller missing key at the same time.
// populate gets a context that keeps ctx's values but not its cancellation,
// so a caller that gives up does not fail the others waiting on the read.
// Each caller still returns as soon as its own ctx is done.
func (c *Coordinator[T]) shared(
	ctx context.Context,
	key string,
	populate func(context.Context) (interface{}, error),
) (interface{}, error) {
	detached := context.WithoutCancel(ctx)
	ch := c.misses.DoChan(key, func() (interface{}, error) {
		return populate(detached)
	})

	select {
	case r := <-ch:
		return r.Val, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// lookup reads key from the cache. Undecodable entries are logged and
// reported as a miss so the record store is consulted and the entry is
// overwritten by the population that follows.
func lookup[V any](ctx context.Context, store *cache.Store, collection, key string) (V, bool, error) {
	v, ok, err := cache.Get[V](ctx, store, key)
	switch {
	case errors.Is(err, e.ErrDeserialization):
		glog.Warningf("treating corrupt cache entry as a miss: %v", err)
		cacheRequests.WithLabelValues(collection, "corrupt").Inc()
		return v, false, nil
	case err != nil:
		return v, false, err
	case ok:
		cacheRequests.WithLabelValues(collection, "hit").Inc()
		return v, true, nil
	default:
		cacheRequests.WithLabelValues(collection, "miss").Inc()
		return v, false, nil
	}
}

// invalidate removes keys after a successful authoritative write. The write
// has already happened, so a failure here is logged and the mutation still
// succeeds; readers may see stale data until the TTL expires.
func (c *Coordinator[T]) invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := c.store.Remove(ctx, key); err != nil {
			glog.Errorf("c.store.Remove(%s) %+v", key, err)
			cacheInvalidations.WithLabelValues(c.cfg.Collection, "failed").Inc()
			continue
		}
		cacheInvalidations.WithLabelValues(c.cfg.Collection, "ok").Inc()
	}
}

func (c *Coordinator[T]) notFound(id int64) error {
	return fmt.Errorf("%w: %s %d", e.ErrNotFound, c.cfg.Collection, id)
}

func nonNil[T any](records []T) []T {
	if records == nil {
		return []T{}
	}
	return records
}
