// Package querycache provides the short-lived in-memory cache that sits in front of every storage tier.
package querycache

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	"github.com/huangsam/tiercache/internal/contract"
)

// DefaultTTL is used when Set is called with a non-positive ttl.
const DefaultTTL = 5 * time.Minute

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a mutex-guarded TTL cache keyed by operation name and parameters.
// Expired entries are dropped lazily on read. When maxEntries is positive the
// least recently used entry is evicted once the cache is full.
type Cache struct {
	mu         sync.Mutex
	entries    *lru.Cache
	defaultTTL time.Duration
	now        func() time.Time
}

var _ contract.QueryCache = &Cache{}

// Option customizes a Cache.
type Option func(*Cache)

// WithClock injects the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithDefaultTTL overrides DefaultTTL.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.defaultTTL = ttl
		}
	}
}

// New creates a Cache. maxEntries <= 0 means unbounded.
func New(maxEntries int, opts ...Option) *Cache {
	if maxEntries < 0 {
		maxEntries = 0
	}
	c := &Cache{
		entries:    lru.New(maxEntries),
		defaultTTL: DefaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key builds the cache key for an operation. Params are serialized as JSON,
// which sorts map keys, so equal params always yield the same key.
func Key(op string, params any) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s|%v", op, params)
	}
	return op + "|" + string(data)
}

// Get returns the live value stored for op and params.
func (c *Cache) Get(op string, params any) (any, bool) {
	key := Key(op, params)

	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	e := raw.(entry)
	if !c.now().Before(e.expiresAt) {
		c.entries.Remove(key)
		return nil, false
	}
	return e.value, true
}

// Set stores value for op and params until ttl elapses.
func (c *Cache) Set(op string, params any, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	key := Key(op, params)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Add(key, entry{value: value, expiresAt: c.now().Add(ttl)})
}

// Invalidate removes the exact entry for op and params.
func (c *Cache) Invalidate(op string, params any) {
	key := Key(op, params)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Remove(key)
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Clear()
}

// Len returns the number of stored entries, including ones that expired but were not read yet.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}
