package client

import (
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultTTL       = 30 * time.Second
	DefaultCacheSize = 1024
)

type entry struct {
	value    []byte
	storedAt time.Time
	ttl      time.Duration
}

// Cache holds raw response bodies keyed by resource. An entry is valid while
// now - storedAt <= ttl and is evicted by the first lookup after that.
type Cache struct {
	mu  sync.Mutex
	lru *lru.Cache[string, entry]
	now func() time.Time
	gen uint64
}

func NewCache(size int, now func() time.Time) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if now == nil {
		now = time.Now
	}
	c, err := lru.New[string, entry](size)
	if err != nil {
		panic(err)
	}
	return &Cache{lru: c, now: now}
}

func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) > e.ttl {
		c.lru.Remove(key)
		return nil, false
	}
	return e.value, true
}

func (c *Cache) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, entry{value: value, storedAt: c.now(), ttl: ttl})
}

// Generation counts invalidations. Pair it with SetSince to store a value
// fetched before an invalidation only if no invalidation happened meanwhile.
func (c *Cache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// SetSince stores value unless Invalidate ran after gen was read.
func (c *Cache) SetSince(gen uint64, key string, value []byte, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.lru.Add(key, entry{value: value, storedAt: c.now(), ttl: ttl})
	return true
}

// Invalidate drops every key containing pattern, or everything when pattern is empty.
// It returns the number of entries removed.
func (c *Cache) Invalidate(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++

	if pattern == "" {
		n := c.lru.Len()
		c.lru.Purge()
		return n
	}

	n := 0
	for _, k := range c.lru.Keys() {
		if strings.Contains(k, pattern) {
			c.lru.Remove(k)
			n++
		}
	}
	return n
}

// Len counts stored entries, including expired ones not yet looked up.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
