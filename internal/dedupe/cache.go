// ABOUTME: Thread-safe TTL cache for suppressing redelivered webhook activities
// ABOUTME: Channels retry webhook posts; turn processing must stay idempotent

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

type entry struct {
	expiresAt time.Time
	element   *list.Element
}

// Cache tracks recently seen activity keys with a TTL and a size bound.
// Insertion order is kept in a linked list for O(1) eviction of the oldest
// key when the cache is full.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*entry
	order      *list.List
	ttl        time.Duration
	maxEntries int
	done       chan struct{}
	closed     bool
}

// New creates a cache that remembers keys for ttl and holds at most
// maxEntries. A background goroutine sweeps expired entries.
func New(ttl time.Duration, maxEntries int) *Cache {
	c := &Cache{
		entries:    make(map[string]*entry),
		order:      list.New(),
		ttl:        ttl,
		maxEntries: maxEntries,
		done:       make(chan struct{}),
	}
	go c.sweep()
	return c
}

// Seen atomically checks whether key was delivered before and records it if
// not. Returns true for a duplicate delivery. The single lock avoids the
// check-then-mark race between concurrent deliveries of the same activity.
func (c *Cache) Seen(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if e, ok := c.entries[key]; ok && now.Before(e.expiresAt) {
		return true
	}

	if e, ok := c.entries[key]; ok {
		// Expired entry for this key: refresh in place.
		e.expiresAt = now.Add(c.ttl)
		c.order.MoveToBack(e.element)
		return false
	}

	if len(c.entries) >= c.maxEntries {
		if oldest := c.order.Front(); oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(string))
		}
	}

	c.entries[key] = &entry{
		expiresAt: now.Add(c.ttl),
		element:   c.order.PushBack(key),
	}
	return false
}

// Len returns the number of tracked keys, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.done:
			return
		}
	}
}

func (c *Cache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			c.order.Remove(e.element)
			delete(c.entries, key)
		}
	}
}

// Close stops the sweep goroutine. Safe to call more than once.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
