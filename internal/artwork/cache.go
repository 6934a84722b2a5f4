// Package artwork derives display assets from cover art: thumbnails (with
// a disk cache) and the dominant colour used for adaptive backgrounds.
package artwork

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	cacheMaxAge   = 30 * 24 * time.Hour // 30 days
	pruneInterval = 24 * time.Hour
)

// Cache provides disk-based caching for resized cover images.
type Cache struct {
	dir string

	mu         sync.Mutex
	lastPruned time.Time
}

// NewCache creates the cache directory and prunes old entries in the background.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	c := &Cache{dir: dir}
	go c.pruneOldEntries()
	return c, nil
}

// cacheKey identifies an image by content and target size.
func cacheKey(data []byte, size int) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s-%d", hex.EncodeToString(sum[:]), size)
}

// Get retrieves cached PNG data. Returns nil if not cached.
func (c *Cache) Get(data []byte, size int) []byte {
	if c == nil {
		return nil
	}

	path := filepath.Join(c.dir, cacheKey(data, size)+".png")
	out, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	// Touch the file to update mtime (keeps frequently used entries fresh)
	now := time.Now()
	_ = os.Chtimes(path, now, now) //nolint:errcheck // best-effort

	return out
}

// Put stores PNG data for an image at a size.
func (c *Cache) Put(data []byte, size int, png []byte) error {
	if c == nil {
		return nil
	}
	path := filepath.Join(c.dir, cacheKey(data, size)+".png")
	return os.WriteFile(path, png, 0o600)
}

// pruneOldEntries removes cache entries older than cacheMaxAge.
func (c *Cache) pruneOldEntries() {
	c.mu.Lock()
	if time.Since(c.lastPruned) < pruneInterval {
		c.mu.Unlock()
		return
	}
	c.lastPruned = time.Now()
	c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return
	}

	cutoff := time.Now().Add(-cacheMaxAge)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(c.dir, entry.Name())) //nolint:errcheck // best-effort cleanup
		}
	}
}
