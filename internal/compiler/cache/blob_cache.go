package cache

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/conduit-lang/metagen/compiler/errors"
)

// schemaVersion is bumped whenever Entry changes shape
const schemaVersion uint16 = 2

// Entry is one cached generation result
type Entry struct {
	Schema      uint16
	Key         string
	RunID       string
	Blob        []byte
	Definitions map[string]string
	Skipped     int
	Diagnostics []errors.CompilerError
	CreatedAt   time.Time
}

// BlobCache keeps generation results in memory and, when a directory is
// configured, as msgpack files on disk. It is safe for concurrent use.
type BlobCache struct {
	dir     string
	entries map[string]*Entry
	mu      sync.RWMutex
}

// NewBlobCache creates a cache persisting under dir. An empty dir keeps
// entries in memory only.
func NewBlobCache(dir string) (*BlobCache, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "creating cache directory %s", dir)
		}
	}
	return &BlobCache{dir: dir, entries: make(map[string]*Entry)}, nil
}

func (bc *BlobCache) pathFor(key string) string {
	return filepath.Join(bc.dir, "blobs", key+".mp")
}

// Get returns the entry stored under key. Entries written with another
// schema version are treated as missing.
func (bc *BlobCache) Get(key string) (*Entry, bool, error) {
	bc.mu.RLock()
	entry, ok := bc.entries[key]
	bc.mu.RUnlock()
	if ok {
		return entry, true, nil
	}
	if bc.dir == "" {
		return nil, false, nil
	}

	data, err := os.ReadFile(bc.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var loaded Entry
	if err := msgpack.Unmarshal(data, &loaded); err != nil {
		return nil, false, errors.Wrapf(err, "decoding cache entry %s", key)
	}
	if loaded.Schema != schemaVersion {
		return nil, false, nil
	}

	bc.mu.Lock()
	bc.entries[key] = &loaded
	bc.mu.Unlock()
	return &loaded, true, nil
}

// Put stores entry under key, replacing the file atomically
func (bc *BlobCache) Put(key string, entry *Entry) error {
	entry.Schema = schemaVersion
	entry.Key = key
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.entries[key] = entry
	if bc.dir == "" {
		return nil
	}

	p := bc.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := msgpack.NewEncoder(f).Encode(entry); err != nil {
		f.Close()
		return errors.Wrapf(err, "encoding cache entry %s", key)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Invalidate removes the entry stored under key
func (bc *BlobCache) Invalidate(key string) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	delete(bc.entries, key)
	if bc.dir == "" {
		return nil
	}
	if err := os.Remove(bc.pathFor(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Size returns the number of entries held in memory
func (bc *BlobCache) Size() int {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	return len(bc.entries)
}

// Prune drops in-memory entries older than maxAge. Files on disk are kept.
func (bc *BlobCache) Prune(maxAge time.Duration) int {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	now := time.Now()
	pruned := 0
	for key, entry := range bc.entries {
		if now.Sub(entry.CreatedAt) > maxAge {
			delete(bc.entries, key)
			pruned++
		}
	}
	return pruned
}
