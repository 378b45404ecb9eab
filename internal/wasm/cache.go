package wasm

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// SourceCache remembers the content hash of the last successful build so
// unchanged sources skip the rebuild entirely.
type SourceCache struct {
	mutex    sync.Mutex
	lastHash string
	hits     int64
}

// NewSourceCache creates an empty cache
func NewSourceCache() *SourceCache {
	return &SourceCache{}
}

// Matches reports whether the hash equals the last stored hash
func (c *SourceCache) Matches(hash string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if hash != "" && hash == c.lastHash {
		c.hits++
		return true
	}
	return false
}

// Store records the hash of a successful build
func (c *SourceCache) Store(hash string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.lastHash = hash
}

// Invalidate clears the stored hash, forcing the next build to run
func (c *SourceCache) Invalidate() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.lastHash = ""
}

// Hits returns how many rebuilds the cache skipped
func (c *SourceCache) Hits() int64 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.hits
}

// HashSources computes a stable hash over the watched source paths. The hash
// covers path, size, and modification time rather than file contents, which
// is cheap enough to run before every rebuild.
func HashSources(root string, paths []string) (string, error) {
	h := sha256.New()

	for _, path := range paths {
		full := filepath.Join(root, path)
		err := filepath.WalkDir(full, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				// Missing watch paths hash as absent rather than failing
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}
			if d.IsDir() {
				base := filepath.Base(p)
				if base == "target" || base == ".git" {
					return filepath.SkipDir
				}
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return nil
			}

			fmt.Fprintf(h, "%s\x00%d\x00%d\x00", p, info.Size(), info.ModTime().UnixNano())
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("hashing %s: %w", full, err)
		}
	}

	// Manifest changes always invalidate
	for _, name := range []string{"Cargo.toml", "Cargo.lock"} {
		if info, err := os.Stat(filepath.Join(root, name)); err == nil {
			fmt.Fprintf(h, "%s\x00%d\x00%d\x00", name, info.Size(), info.ModTime().UnixNano())
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
