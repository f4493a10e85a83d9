package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when cachePayload format changes.
const cacheSchemaVersion uint16 = 1

// RenderCache stores rendered report text on disk, keyed by a digest of
// the manifest content and the render options fingerprint. Best-effort:
// cache faults never fail a run. Thread-safe for concurrent access.
type RenderCache struct {
	mu  sync.RWMutex
	dir string
}

// cachePayload is the msgpack-serialized cache entry.
type cachePayload struct {
	Schema   uint16
	Output   string
	Errors   int
	Warnings int
}

// OpenRenderCache creates (or reuses) the cache directory under the user
// cache root, namespaced by tool name.
func OpenRenderCache(tool string) (*RenderCache, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("resolve cache dir: %w", err)
	}
	dir := filepath.Join(base, tool, "render")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &RenderCache{dir: dir}, nil
}

// CacheKey digests manifest bytes together with the options fingerprint.
func CacheKey(content []byte, fingerprint string) [32]byte {
	h := sha256.New()
	h.Write(content)
	h.Write([]byte{0})
	h.Write([]byte(fingerprint))
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func (c *RenderCache) path(key [32]byte) string {
	name := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, name[:2], name[2:]+".msgpack")
}

// Get loads a cached entry. The boolean reports a hit; schema mismatches
// count as misses.
func (c *RenderCache) Get(key [32]byte) (*cachePayload, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	// #nosec G304 -- path is derived from a content digest
	raw, err := os.ReadFile(c.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var payload cachePayload
	if err := msgpack.Unmarshal(raw, &payload); err != nil {
		return nil, false, fmt.Errorf("decode cache entry: %w", err)
	}
	if payload.Schema != cacheSchemaVersion {
		return nil, false, nil
	}
	return &payload, true, nil
}

// Put stores an entry, writing through a temp file so readers never see a
// torn entry.
func (c *RenderCache) Put(key [32]byte, payload *cachePayload) error {
	if c == nil || payload == nil {
		return nil
	}
	payload.Schema = cacheSchemaVersion

	raw, err := msgpack.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	target := c.path(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("create cache shard: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create cache temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close cache temp: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("publish cache entry: %w", err)
	}
	return nil
}
