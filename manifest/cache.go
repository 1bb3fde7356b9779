/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/
package manifest

import (
	"sync"

	"bennypowers.dev/nativefed/model"
)

// Cache holds decoded remote entries keyed by their URL.
// Callers reuse it across passes so that one entry URL is fetched and decoded
// at most once until invalidated.
type Cache interface {
	// Get retrieves a cached entry by URL.
	Get(url string) (model.RemoteEntry, bool)

	// Set stores a decoded entry.
	Set(url string, entry model.RemoteEntry)

	// Invalidate removes a cached entry, typically before re-resolving a remote.
	Invalidate(url string)

	// GetOrLoad retrieves from cache or loads using the provided function.
	// Only one goroutine executes the loader for a given URL; others wait.
	GetOrLoad(url string, loader func() (model.RemoteEntry, error)) (model.RemoteEntry, error)
}

type cacheEntry struct {
	entry model.RemoteEntry
	err   error
	once  sync.Once
}

// MemoryCache is a thread-safe in-memory implementation of Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	cache   map[string]model.RemoteEntry
	loading sync.Map // map[string]*cacheEntry for in-flight loads
}

// NewMemoryCache creates an empty entry cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		cache: make(map[string]model.RemoteEntry),
	}
}

// Get retrieves a cached entry by URL.
func (c *MemoryCache) Get(url string) (model.RemoteEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[url]
	return entry, ok
}

// Set stores a decoded entry.
func (c *MemoryCache) Set(url string, entry model.RemoteEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[url] = entry
}

// Invalidate removes a cached entry and any in-flight loading state.
func (c *MemoryCache) Invalidate(url string) {
	c.mu.Lock()
	delete(c.cache, url)
	c.mu.Unlock()
	c.loading.Delete(url)
}

// GetOrLoad retrieves from cache or loads using the provided function.
// A failed load is not cached: the next call after the failing one retries.
func (c *MemoryCache) GetOrLoad(url string, loader func() (model.RemoteEntry, error)) (model.RemoteEntry, error) {
	c.mu.RLock()
	if entry, ok := c.cache[url]; ok {
		c.mu.RUnlock()
		return entry, nil
	}
	c.mu.RUnlock()

	actual, _ := c.loading.LoadOrStore(url, &cacheEntry{})
	ce := actual.(*cacheEntry)

	ce.once.Do(func() {
		ce.entry, ce.err = loader()
		if ce.err == nil {
			c.mu.Lock()
			c.cache[url] = ce.entry
			c.mu.Unlock()
		}
	})

	if ce.err != nil {
		c.loading.CompareAndDelete(url, ce)
	}
	return ce.entry, ce.err
}
