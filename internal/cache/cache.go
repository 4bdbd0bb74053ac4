// Package cache provides thread-safe generic caching and the preview and syntax CSS caches.
package cache

import "sync"

type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		items: make(map[K]V),
	}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.items[key]
	return val, ok
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}

func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]V)
}

func (c *Cache[K, V]) SetTo(items map[K]V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Values returns a snapshot of the cached values in no particular order.
func (c *Cache[K, V]) Values() []V {
	c.mu.RLock()
	defer c.mu.RUnlock()
	values := make([]V, 0, len(c.items))
	for _, v := range c.items {
		values = append(values, v)
	}
	return values
}

// RenderedPreview is the latest preview HTML for one session or article.
type RenderedPreview struct {
	Hash string
	HTML []byte
}

var renderedPreviewCache = NewCache[string, RenderedPreview]()

func GetRenderedPreview(key string) (RenderedPreview, bool) {
	return renderedPreviewCache.Get(key)
}

func SetRenderedPreview(key string, preview RenderedPreview) {
	renderedPreviewCache.Set(key, preview)
}

func DeleteRenderedPreview(key string) {
	renderedPreviewCache.Delete(key)
}

func RenderedPreviewCount() int {
	return renderedPreviewCache.Len()
}

func ClearRenderedPreviewCache() {
	renderedPreviewCache.Clear()
}
