// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// FileCache implements spec.md §4.6's "Static file cache": a read-mostly
// path→(bytes, expiry) mapping consulted by Session on every GET. Grounded
// on the teacher's pool manager shape (a map guarded by a RWMutex, per
// spec.md §5 "TLS context and file cache are shared read-mostly") plus
// mime.TypeByExtension for content-type inference — no third-party MIME
// library appears anywhere in the retrieval pack, so the standard library
// is the only grounded choice (recorded in DESIGN.md).

package http

import (
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/solidcore/netcore/httpmsg"
)

type cacheEntry struct {
	resp   *httpmsg.Response
	expiry time.Time // zero means "never expires"
}

// FileCache is a read-mostly path→response mapping, safe for concurrent
// use by the many Sessions that may consult it.
type FileCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewFileCache returns an empty FileCache.
func NewFileCache() *FileCache {
	return &FileCache{entries: make(map[string]cacheEntry)}
}

// Insert stores an already-framed response under key, expiring after ttl
// (0 means "never expires").
func (c *FileCache) Insert(key string, resp *httpmsg.Response, ttl time.Duration) {
	entry := cacheEntry{resp: resp}
	if ttl > 0 {
		entry.expiry = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

// Find returns the cached response for key, skipping (and lazily evicting)
// an entry whose ttl has elapsed.
func (c *FileCache) Find(key string) (resp *httpmsg.Response, hit bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !entry.expiry.IsZero() && time.Now().After(entry.expiry) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return entry.resp, true
}

// Remove evicts key unconditionally.
func (c *FileCache) Remove(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the current number of cached entries, including any that
// have expired but not yet been looked up (and so not yet evicted).
func (c *FileCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// InsertPath recursively walks dir and inserts every regular file as a
// pre-framed 200 response under the URL-style key "<prefix>/<relative
// path>", content-type inferred from the file extension. loader reads a
// file's bytes; pass os.ReadFile for the common case, or a stub in tests.
func (c *FileCache) InsertPath(dir, prefix string, ttl time.Duration, loader func(string) ([]byte, error)) error {
	if loader == nil {
		loader = os.ReadFile
	}
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		body, err := loader(p)
		if err != nil {
			return err
		}
		key := path.Join(prefix, filepath.ToSlash(rel))
		contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(p)))
		resp := httpmsg.NewResponse().MakeCachedFileResponse(body, contentType, ttl)
		c.Insert(key, resp, ttl)
		return nil
	})
}
