// Package cache is a disk cache of query results keyed by query shape.
//
// Each entry is one flat file under the cache directory, holding a schema
// header and the rows of a frame. The cache is bounded only by total
// directory size: once the cap is exceeded, writes are refused. There is no
// eviction, no per-entry expiry, and no consistency guarantee against the
// live table; the caller opts in per read.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dataplumb/pgframe/frame"
)

// DefaultMaxBytes caps the cache directory at 0.5 GB.
const DefaultMaxBytes int64 = 500_000_000

// Cache is a handle on one cache directory.
type Cache struct {
	dir      string
	maxBytes int64
	log      zerolog.Logger
}

// DefaultDir reports the default cache directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pgframe-cache"
	}
	return filepath.Join(home, ".pgframe", "cache")
}

// Open prepares a cache rooted at dir, creating it when missing.
// maxBytes <= 0 selects DefaultMaxBytes.
func Open(dir string, maxBytes int64, log zerolog.Logger) (*Cache, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Cache{dir: dir, maxBytes: maxBytes, log: log}, nil
}

// Dir reports the cache directory.
func (c *Cache) Dir() string { return c.dir }

// Key derives the entry name from the shape of a read: table, requested
// columns, filter clause, and limit. Two reads with the same shape share an
// entry regardless of what the live table has done in between.
//
// The sanitized name alone is not injective (a where clause of "a > 1" and
// "a < 1" sanitize identically), so a hash of the raw shape is appended to
// keep distinct shapes in distinct entries.
func Key(table string, columns []string, where string, limit int) string {
	raw := table + "_" + strings.Join(columns, ",") + "_" + where + "_" + strconv.Itoa(limit)
	sum := sha256.Sum256([]byte(raw))
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	b.WriteByte('-')
	b.WriteString(hex.EncodeToString(sum[:8]))
	return b.String()
}

// Size reports the total size of all entries in bytes.
func (c *Cache) Size() (int64, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, fmt.Errorf("reading cache directory: %w", err)
	}
	var total int64
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return total, nil
}

// Write stores a frame under key. When the directory is already over the
// size cap the write is silently skipped; a full cache is not an error.
func (c *Cache) Write(key string, f *frame.Frame) error {
	size, err := c.Size()
	if err != nil {
		return err
	}
	if size >= c.maxBytes {
		c.log.Debug().Str("key", key).Int64("size", size).Msg("cache full, skipping write")
		return nil
	}
	path := filepath.Join(c.dir, key)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating cache entry: %w", err)
	}
	defer file.Close()
	if err := encode(file, f); err != nil {
		os.Remove(path)
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	return nil
}

// Read loads the frame stored under key. A miss reports ok=false, not an
// error.
func (c *Cache) Read(key string) (*frame.Frame, bool, error) {
	file, err := os.Open(filepath.Join(c.dir, key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("opening cache entry: %w", err)
	}
	defer file.Close()
	f, err := decode(file)
	if err != nil {
		return nil, false, fmt.Errorf("decoding cache entry %s: %w", key, err)
	}
	return f, true, nil
}

// Clean removes every entry.
func (c *Cache) Clean() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			return fmt.Errorf("removing cache entry %s: %w", e.Name(), err)
		}
	}
	return nil
}
