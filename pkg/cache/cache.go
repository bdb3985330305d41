// Package cache keeps fetched form definitions fresh for a bounded window and
// collapses concurrent fetches of the same form into one request.
package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-formwise/pkg/model"
)

// DefaultTTL is how long a definition is served without refetching.
const DefaultTTL = 5 * time.Minute

// DefaultFetchTimeout bounds a shared fetch once it no longer follows the
// context of the caller that started it.
const DefaultFetchTimeout = 30 * time.Second

// Source fetches form definitions by id.
type Source interface {
	GetForm(ctx context.Context, formID string) (model.FormDefinition, error)
}

// Option customises the cache.
type Option func(*Cache)

// WithTTL sets the freshness window. Non-positive values disable caching but
// keep fetch collapsing.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithFetchTimeout bounds each source fetch. Non-positive values restore
// DefaultFetchTimeout.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(c *Cache) {
		if timeout > 0 {
			c.fetchTimeout = timeout
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the cache logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

type entry struct {
	form    model.FormDefinition
	fetched time.Time
}

// Cache wraps a Source. Failed fetches are not cached.
type Cache struct {
	source       Source
	ttl          time.Duration
	fetchTimeout time.Duration
	now          func() time.Time
	logger       *zap.Logger
	group        singleflight.Group

	mu       sync.RWMutex
	entries  map[string]entry
	inflight map[string]int
	version  uint64
}

// New wraps source.
func New(source Source, options ...Option) *Cache {
	c := &Cache{
		source:       source,
		ttl:          DefaultTTL,
		fetchTimeout: DefaultFetchTimeout,
		now:          time.Now,
		logger:       zap.NewNop(),
		entries:      make(map[string]entry),
		inflight:     make(map[string]int),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// GetForm returns a fresh cached copy or fetches through the source.
// Concurrent callers for the same id share one fetch. The fetch keeps the
// values of the first caller's context but not its cancellation; each
// caller stops waiting when its own ctx is done.
func (c *Cache) GetForm(ctx context.Context, formID string) (model.FormDefinition, error) {
	if form, ok := c.lookup(formID); ok {
		return form, nil
	}
	if err := ctx.Err(); err != nil {
		return model.FormDefinition{}, err
	}

	fetchCtx := context.WithoutCancel(ctx)
	results := c.group.DoChan(formID, func() (any, error) {
		return c.fetch(fetchCtx, formID)
	})

	select {
	case <-ctx.Done():
		return model.FormDefinition{}, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return model.FormDefinition{}, res.Err
		}
		if res.Shared {
			c.logger.Debug("form fetch shared", zap.String("form_id", formID))
		}
		return res.Val.(model.FormDefinition).Clone(), nil
	}
}

func (c *Cache) fetch(ctx context.Context, formID string) (model.FormDefinition, error) {
	c.mu.Lock()
	version := c.version
	c.inflight[formID]++
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		if c.inflight[formID]--; c.inflight[formID] <= 0 {
			delete(c.inflight, formID)
		}
		c.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	form, err := c.source.GetForm(ctx, formID)
	if err != nil {
		return model.FormDefinition{}, err
	}
	c.store(formID, version, form)
	return form, nil
}

func (c *Cache) lookup(formID string) (model.FormDefinition, bool) {
	if c.ttl <= 0 {
		return model.FormDefinition{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[formID]
	if !ok || c.now().Sub(e.fetched) >= c.ttl {
		return model.FormDefinition{}, false
	}
	return e.form.Clone(), true
}

// store keeps form unless the cache was invalidated while it was being
// fetched.
func (c *Cache) store(formID string, version uint64, form model.FormDefinition) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.version != version {
		return
	}
	c.entries[formID] = entry{form: form.Clone(), fetched: c.now()}
}

// Invalidate drops the entry for formID.
func (c *Cache) Invalidate(formID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, formID)
	c.version++
	c.group.Forget(formID)
}

// Purge drops every entry. Callers arriving after Purge start new fetches
// instead of joining ones already in flight.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id := range c.entries {
		c.group.Forget(id)
	}
	for id := range c.inflight {
		c.group.Forget(id)
	}
	c.entries = make(map[string]entry)
	c.version++
	c.logger.Debug("form cache purged")
}

// Len reports the number of cached entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
