package dataset

import (
	"container/list"
	"sync"
)

// Cache is a bounded LRU keyed by string. Entries never expire on their own;
// Purge drops everything when the dataset they were computed from goes away.
type Cache[T any] struct {
	mu      sync.Mutex
	maxSize int
	items   map[string]*list.Element
	lru     *list.List

	hits, misses uint64
}

type cacheItem[T any] struct {
	key  string
	data T
}

func NewCache[T any](maxSize int) *Cache[T] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Cache[T]{
		maxSize: maxSize,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

// Get retrieves a value and marks it most recently used.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.misses++
		var zero T
		return zero, false
	}
	c.hits++
	c.lru.MoveToFront(elem)
	return elem.Value.(*cacheItem[T]).data, true
}

// Set stores a value, evicting the least recently used entry when full.
func (c *Cache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		elem.Value.(*cacheItem[T]).data = data
		c.lru.MoveToFront(elem)
		return
	}

	c.items[key] = c.lru.PushFront(&cacheItem[T]{key: key, data: data})
	if c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			delete(c.items, oldest.Value.(*cacheItem[T]).key)
			c.lru.Remove(oldest)
		}
	}
}

// Purge removes every entry. Hit and miss counters are kept.
func (c *Cache[T]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.lru.Init()
}

func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// CacheStats is a point-in-time view of cache usage.
type CacheStats struct {
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

func (c *Cache[T]) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Entries: len(c.items), Hits: c.hits, Misses: c.misses}
}
