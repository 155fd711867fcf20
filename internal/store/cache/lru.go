package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"tracker/internal/store"
)

// LRUCache is an in-process cache with TTL and size-based eviction.
type LRUCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
	now     func() time.Time
}

type cacheItem[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

func NewLRUCache[T any](maxSize int, ttl time.Duration) *LRUCache[T] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &LRUCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		now:     time.Now,
	}
}

func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, exists := c.items[key]
	if !exists {
		return zero, false
	}

	item := elem.Value.(*cacheItem[T])
	if c.now().After(item.expiresAt) {
		c.removeElement(elem)
		return zero, false
	}

	c.lru.MoveToFront(elem)
	return item.data, true
}

func (c *LRUCache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := &cacheItem[T]{key: key, data: data, expiresAt: c.now().Add(c.ttl)}

	if elem, exists := c.items[key]; exists {
		elem.Value = item
		c.lru.MoveToFront(elem)
		return
	}

	c.items[key] = c.lru.PushFront(item)
	if c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.items[key]; exists {
		c.removeElement(elem)
	}
}

func (c *LRUCache[T]) removeElement(elem *list.Element) {
	item := elem.Value.(*cacheItem[T])
	delete(c.items, item.key)
	c.lru.Remove(elem)
}

// Memory adapts an LRUCache to ListCache for a single store process.
type Memory struct {
	lru *LRUCache[[]store.Record]
}

var _ ListCache = (*Memory)(nil)

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{lru: NewLRUCache[[]store.Record](1, ttl)}
}

func (m *Memory) GetList(context.Context) ([]store.Record, bool, error) {
	recs, ok := m.lru.Get(ListKey)
	if !ok {
		return nil, false, nil
	}
	return append([]store.Record(nil), recs...), true, nil
}

func (m *Memory) SetList(_ context.Context, recs []store.Record) error {
	m.lru.Set(ListKey, append([]store.Record(nil), recs...))
	return nil
}

func (m *Memory) Invalidate(context.Context) error {
	m.lru.Delete(ListKey)
	return nil
}
