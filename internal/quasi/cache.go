package quasi

import (
	"container/list"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"bennypowers.dev/cajoler/internal/log"
)

// DefaultCacheSize is the number of compiled patterns a Cache keeps unless
// told otherwise.
const DefaultCacheSize = 256

type cacheEntry struct {
	text    string
	pattern *Pattern
}

// Cache holds compiled patterns keyed by their exact text. It is bounded;
// when full, the entry inserted longest ago is evicted. A Pattern handed out
// before its eviction stays valid. Concurrent requests for the same
// uncached text compile it once.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front is the newest entry

	group     singleflight.Group
	onCompile func(text string)

	hits     atomic.Int64
	misses   atomic.Int64
	compiles atomic.Int64
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithCompileHook registers a function called each time a pattern is
// compiled on behalf of the cache.
func WithCompileHook(fn func(text string)) CacheOption {
	return func(c *Cache) {
		c.onCompile = fn
	}
}

// NewCache returns an empty cache holding at most capacity patterns. A
// capacity below one selects DefaultCacheSize.
func NewCache(capacity int, opts ...CacheOption) *Cache {
	if capacity < 1 {
		capacity = DefaultCacheSize
	}
	c := &Cache{
		capacity: capacity,
		entries:  make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) lookup(text string) (*Pattern, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[text]; ok {
		return el.Value.(*cacheEntry).pattern, true
	}
	return nil, false
}

// Get returns the compiled pattern for text, compiling and inserting it on
// a miss. Compilation failures are not cached.
func (c *Cache) Get(text string) (*Pattern, error) {
	if p, ok := c.lookup(text); ok {
		c.hits.Add(1)
		return p, nil
	}
	c.misses.Add(1)
	v, err, _ := c.group.Do(text, func() (any, error) {
		// Another caller may have finished compiling while we waited.
		if p, ok := c.lookup(text); ok {
			return p, nil
		}
		p, err := Compile(text)
		if err != nil {
			return nil, err
		}
		c.compiles.Add(1)
		if c.onCompile != nil {
			c.onCompile(text)
		}
		c.insert(text, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Pattern), nil
}

func (c *Cache) insert(text string, p *Pattern) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[text]; ok {
		return
	}
	c.entries[text] = c.order.PushFront(&cacheEntry{text: text, pattern: p})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		e := c.order.Remove(oldest).(*cacheEntry)
		delete(c.entries, e.text)
		log.Debug("quasi: evicted pattern %q", e.text)
	}
}

// Contains reports whether text is resident, without touching the counters.
func (c *Cache) Contains(text string) bool {
	_, ok := c.lookup(text)
	return ok
}

// Len returns the number of resident patterns.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity returns the most patterns the cache will hold.
func (c *Cache) Capacity() int { return c.capacity }

// Purge drops every resident pattern. Counters are kept.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	c.order.Init()
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Hits     int64
	Misses   int64
	Compiles int64
	Entries  int
	Capacity int
}

// HitRate returns hits as a fraction of all lookups.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Stats returns current cache statistics.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Compiles: c.compiles.Load(),
		Entries:  c.Len(),
		Capacity: c.capacity,
	}
}
