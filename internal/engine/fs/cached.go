package fs

import (
	"path"
	"strings"

	"modlink/internal/shared/util"
)

type dirResult struct {
	entries map[string]EntryKind
	err     error
}

type fileResult struct {
	data []byte
	err  error
}

// CachedFS memoises another FS. Failed lookups are cached too: a file that
// was missing stays missing until Invalidate or Purge is called.
type CachedFS struct {
	inner FS
	stats *util.LRU[string, EntryKind]
	dirs  *util.LRU[string, dirResult]
	files *util.LRU[string, fileResult]
}

var _ FS = (*CachedFS)(nil)

func NewCachedFS(inner FS, capacity int) *CachedFS {
	return &CachedFS{
		inner: inner,
		stats: util.NewLRU[string, EntryKind](capacity),
		dirs:  util.NewLRU[string, dirResult](capacity),
		files: util.NewLRU[string, fileResult](capacity),
	}
}

func (c *CachedFS) Stat(p string) EntryKind {
	if kind, ok := c.stats.Get(p); ok {
		return kind
	}
	kind := c.inner.Stat(p)
	c.stats.Put(p, kind)
	return kind
}

func (c *CachedFS) ReadDirectory(p string) (map[string]EntryKind, error) {
	if res, ok := c.dirs.Get(p); ok {
		return res.entries, res.err
	}
	entries, err := c.inner.ReadDirectory(p)
	c.dirs.Put(p, dirResult{entries: entries, err: err})
	return entries, err
}

func (c *CachedFS) ReadFile(p string) ([]byte, error) {
	if res, ok := c.files.Get(p); ok {
		return res.data, res.err
	}
	data, err := c.inner.ReadFile(p)
	c.files.Put(p, fileResult{data: data, err: err})
	return data, err
}

// Invalidate forgets everything cached for p and its descendants, plus the
// stat and listing of every ancestor directory, so a new directory on the
// way to p is seen too. Call it when the watcher reports a change at p.
func (c *CachedFS) Invalidate(p string) int {
	p = path.Clean(p)
	prefix := p + "/"
	ancestors := make(map[string]bool)
	for dir := path.Dir(p); ; dir = path.Dir(dir) {
		ancestors[dir] = true
		if dir == path.Dir(dir) {
			break
		}
	}
	match := func(k string) bool {
		return k == p || strings.HasPrefix(k, prefix)
	}
	n := c.stats.RemoveWhere(func(k string) bool { return match(k) || ancestors[k] })
	n += c.files.RemoveWhere(match)
	n += c.dirs.RemoveWhere(func(k string) bool { return match(k) || ancestors[k] })
	return n
}

// Purge drops every cached entry.
func (c *CachedFS) Purge() {
	c.stats.Clear()
	c.dirs.Clear()
	c.files.Clear()
}

// Len is the number of cached entries across all three caches.
func (c *CachedFS) Len() int {
	return c.stats.Len() + c.dirs.Len() + c.files.Len()
}
