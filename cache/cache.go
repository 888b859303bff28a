package cache

import (
	"sync"
	"time"
)

type item struct {
	data      []byte
	expiredAt time.Time
}

// Cache is an in-process store with a single time-to-live applied
// to every entry. Expired entries are dropped lazily on read.
type Cache struct {
	ttl   time.Duration
	store map[string]item
	lock  sync.RWMutex
}

func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:   ttl,
		store: map[string]item{},
	}
}

func (c *Cache) Get(key string) ([]byte, bool) {
	c.lock.RLock()
	entry, ok := c.store[key]
	c.lock.RUnlock()
	if !ok {
		return nil, false
	}

	if time.Now().After(entry.expiredAt) {
		c.lock.Lock()
		delete(c.store, key)
		c.lock.Unlock()
		return nil, false
	}

	return entry.data, true
}

func (c *Cache) Set(key string, data []byte) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.store[key] = item{
		data:      data,
		expiredAt: time.Now().Add(c.ttl),
	}
}
