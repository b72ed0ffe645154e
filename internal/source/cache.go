package source

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Minseo10803/jibang-vanish/internal/observability"
)

// Cache is a process-wide TTL cache for resolution results, keyed by
// (source identity, parameter set). Entries are immutable once stored and
// are never invalidated by writers; they only age out. The clock is injected
// so expiry is testable without sleeping.
type Cache struct {
	ttl     time.Duration
	clk     clockwork.Clock
	metrics *observability.Metrics

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	result  Result
	expires time.Time
}

// NewCache creates a Cache with the given TTL. Pass a nil clock to use real
// time.
func NewCache(ttl time.Duration, clk clockwork.Clock, metrics *observability.Metrics) *Cache {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &Cache{
		ttl:     ttl,
		clk:     clk,
		metrics: metrics,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached result for key if present and not expired. Expired
// entries are removed on access.
func (c *Cache) Get(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return Result{}, false
	}
	if !c.clk.Now().Before(e.expires) {
		delete(c.entries, key)
		c.metrics.CacheLookups.WithLabelValues("expired").Inc()
		return Result{}, false
	}
	c.metrics.CacheLookups.WithLabelValues("hit").Inc()
	return e.result, true
}

// Put stores a result under key with the cache's TTL.
func (c *Cache) Put(key string, r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{result: r, expires: c.clk.Now().Add(c.ttl)}
}

// Len returns the number of live and expired entries currently held.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
