package console

import "sync"

// Collection is the local, non-authoritative copy of one entity list, keyed by id
// and kept in server order. Creates and updates store the response body as is.
type Collection[K comparable, T any] struct {
	mu    sync.RWMutex
	key   func(T) K
	order []K
	items map[K]T
}

// NewCollection creates an empty collection keyed by key
func NewCollection[K comparable, T any](key func(T) K) *Collection[K, T] {
	return &Collection[K, T]{key: key, items: map[K]T{}}
}

// Reset replaces the whole collection with a fresh fetch
func (c *Collection[K, T]) Reset(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = make([]K, 0, len(items))
	c.items = make(map[K]T, len(items))
	for _, item := range items {
		k := c.key(item)
		if _, dup := c.items[k]; !dup {
			c.order = append(c.order, k)
		}
		c.items[k] = item
	}
}

// Append adds item at the end, or replaces it in place when its id is already known
func (c *Collection[K, T]) Append(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := c.key(item)
	if _, ok := c.items[k]; !ok {
		c.order = append(c.order, k)
	}
	c.items[k] = item
}

// Insert puts item at index, clamped to the bounds. Used to roll back a removal.
func (c *Collection[K, T]) Insert(index int, item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := c.key(item)
	if _, ok := c.items[k]; ok {
		c.items[k] = item
		return
	}
	if index < 0 {
		index = 0
	}
	if index > len(c.order) {
		index = len(c.order)
	}
	c.order = append(c.order, k)
	copy(c.order[index+1:], c.order[index:])
	c.order[index] = k
	c.items[k] = item
}

// Replace swaps the stored item with the same id. It reports false when the id is unknown.
func (c *Collection[K, T]) Replace(item T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := c.key(item)
	if _, ok := c.items[k]; !ok {
		return false
	}
	c.items[k] = item
	return true
}

// Remove drops the item with id and returns its former position, or -1
func (c *Collection[K, T]) Remove(id K) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; !ok {
		return -1
	}
	delete(c.items, id)
	for i, k := range c.order {
		if k == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return i
		}
	}
	return -1
}

// Get returns the item with id
func (c *Collection[K, T]) Get(id K) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[id]
	return item, ok
}

// Items returns a copy of the items in order
func (c *Collection[K, T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.items[k])
	}
	return out
}

// Len returns the number of items
func (c *Collection[K, T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}
