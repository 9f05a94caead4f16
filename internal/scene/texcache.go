package scene

import (
	"image"
	"path/filepath"
	"sync"
)

// TextureCache decodes each texture file once. It is safe for concurrent
// use; failed loads are cached too.
type TextureCache struct {
	mu    sync.RWMutex
	items map[string]*cacheEntry
}

type cacheEntry struct {
	img *image.NRGBA
	err error
}

func NewTextureCache() *TextureCache {
	return &TextureCache{items: make(map[string]*cacheEntry)}
}

// Load returns the decoded texture at path.
func (c *TextureCache) Load(path string) (*image.NRGBA, error) {
	key := filepath.Clean(path)

	// Fast path: read lock
	c.mu.RLock()
	if entry, exists := c.items[key]; exists {
		c.mu.RUnlock()
		return entry.img, entry.err
	}
	c.mu.RUnlock()

	img, err := LoadTexture(key)

	// Write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, exists := c.items[key]; exists {
		return entry.img, entry.err
	}
	c.items[key] = &cacheEntry{img: img, err: err}
	return img, err
}

// Len returns the number of cached paths.
func (c *TextureCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
