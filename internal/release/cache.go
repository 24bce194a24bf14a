package release

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lowrydr/tapline/internal/logger"
	"github.com/lowrydr/tapline/internal/utils"
)

// Cache is a durable TTL-bounded cache of release metadata. One JSON file
// per query key under the store's cache/ directory. Entries older than the
// TTL are not used for decisions but remain available as a fallback when
// the network is down.
type Cache struct {
	dir string
	ttl time.Duration
}

type cacheEntry struct {
	Key       string          `json:"key"`
	FetchedAt time.Time       `json:"fetched_at"`
	Payload   json.RawMessage `json:"payload"`
}

func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return nil, err
	}
	return &Cache{dir: dir, ttl: ttl}, nil
}

// Get returns the cached payload for key. fresh is false when the entry
// exists but has outlived the TTL.
func (c *Cache) Get(key string) (payload []byte, fresh bool, ok bool) {
	var entry cacheEntry
	if err := utils.ReadJSONFile(c.path(key), &entry); err != nil {
		if !os.IsNotExist(err) {
			logger.Debug("cache read for %q failed: %v", key, err)
		}
		return nil, false, false
	}
	age := time.Since(entry.FetchedAt)
	return entry.Payload, age < c.ttl, true
}

// Put overwrites the entry for key with a fresh timestamp.
func (c *Cache) Put(key string, payload []byte) error {
	entry := cacheEntry{
		Key:       key,
		FetchedAt: time.Now().UTC(),
		Payload:   payload,
	}
	return utils.WriteJSONAtomic(c.path(key), entry)
}

func (c *Cache) path(key string) string {
	safe := strings.NewReplacer(":", "_", "/", "_").Replace(key)
	return filepath.Join(c.dir, safe+".json")
}
