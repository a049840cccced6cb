package loader

import (
	"path/filepath"
	"sync"

	"github.com/conneroisu/pages/internal/types"
)

// Cache holds loaded template modules keyed by resolved path so that each
// path is parsed at most once per process. Modules written in Go can be
// registered up front with Set.
type Cache struct {
	modules map[string]*types.TemplateModuleInternal
	mutex   sync.RWMutex
}

// NewCache creates an empty module cache
func NewCache() *Cache {
	return &Cache{
		modules: make(map[string]*types.TemplateModuleInternal),
	}
}

func cacheKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Get returns the cached module for path.
func (c *Cache) Get(path string) (*types.TemplateModuleInternal, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	module, ok := c.modules[cacheKey(path)]
	return module, ok
}

// Set stores module under path, replacing any previous entry.
func (c *Cache) Set(path string, module *types.TemplateModuleInternal) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.modules[cacheKey(path)] = module
}

// Invalidate drops the entry for path. It reports whether one existed.
func (c *Cache) Invalidate(path string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	key := cacheKey(path)
	_, ok := c.modules[key]
	delete(c.modules, key)
	return ok
}

// Len returns the number of cached modules
func (c *Cache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.modules)
}
