// Package cache puts a read-through list cache in front of a store backend.
package cache

import (
	"context"
	"sync/atomic"

	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/store"
)

// ListKey names the cached transaction list.
const ListKey = "transactions"

type ListCache interface {
	GetList(ctx context.Context) ([]store.Record, bool, error)
	SetList(ctx context.Context, recs []store.Record) error
	Invalidate(ctx context.Context) error
}

// Cached serves List from the cache and drops it on every Create.
// Cache errors are logged and the backend answers instead.
type Cached struct {
	store.Backend
	cache  ListCache
	logger *log.Logger

	// Bumped on each create, before the cache is invalidated, so a list
	// read before the write is never left cached after it.
	generation atomic.Uint64
}

func New(backend store.Backend, c ListCache, logger *log.Logger) *Cached {
	if logger == nil {
		logger = log.Discard()
	}
	return &Cached{
		Backend: backend,
		cache:   c,
		logger:  logger.WithComponent(log.ComponentCache),
	}
}

func (c *Cached) List(ctx context.Context) ([]store.Record, error) {
	recs, ok, err := c.cache.GetList(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "Cache read failed",
			log.FieldOperation, log.OpList,
			log.FieldError, err)
	} else if ok {
		c.logger.DebugContext(ctx, "Cache hit", log.FieldCount, len(recs))
		return recs, nil
	}

	gen := c.generation.Load()
	recs, err = c.Backend.List(ctx)
	if err != nil {
		return nil, err
	}
	if gen != c.generation.Load() {
		return recs, nil
	}
	if err := c.cache.SetList(ctx, recs); err != nil {
		c.logger.WarnContext(ctx, "Cache write failed", log.FieldError, err)
		return recs, nil
	}
	// A create that landed during SetList may have invalidated before the
	// write; drop what was just written.
	if gen != c.generation.Load() {
		if err := c.cache.Invalidate(ctx); err != nil {
			c.logger.WarnContext(ctx, "Cache invalidation failed",
				log.FieldOperation, log.OpList,
				log.FieldError, err)
		}
	}
	return recs, nil
}

func (c *Cached) Create(ctx context.Context, t core.Transaction) (store.Record, error) {
	rec, err := c.Backend.Create(ctx, t)
	if err != nil {
		return rec, err
	}
	c.generation.Add(1)
	if err := c.cache.Invalidate(ctx); err != nil {
		c.logger.WarnContext(ctx, "Cache invalidation failed",
			log.FieldOperation, log.OpCreate,
			log.FieldError, err)
	}
	return rec, nil
}

// Close closes the backend and, when it has one, the cache connection.
func (c *Cached) Close() error {
	err := c.Backend.Close()
	if closer, ok := c.cache.(interface{ Close() error }); ok {
		if cerr := closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
