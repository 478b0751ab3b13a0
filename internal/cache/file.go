package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

type Entry struct {
	Key       string    `json:"key"`
	Data      []byte    `json:"data"`
	CreatedAt time.Time `json:"createdAt"`
}

// FileCache stores one JSON file per key under dir.
type FileCache struct {
	dir string
	mu  sync.RWMutex
}

func New() (*FileCache, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewAt(filepath.Join(home, ".cache", "beetlebot", "booking", "calendars"))
}

func NewAt(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileCache{dir: dir}, nil
}

func (c *FileCache) Get(key string, ttl time.Duration) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	if entry.Key != key || time.Since(entry.CreatedAt) > ttl {
		return nil, false
	}
	return entry.Data, true
}

func (c *FileCache) Set(key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := json.Marshal(Entry{
		Key:       key,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return os.WriteFile(c.path(key), raw, 0o644)
}

func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		_ = os.Remove(filepath.Join(c.dir, e.Name()))
	}
	return nil
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, strconv.FormatUint(xxhash.Sum64String(key), 16)+".json")
}

func CacheKey(parts ...string) string {
	d := xxhash.New()
	for _, p := range parts {
		_, _ = d.WriteString(p)
		_, _ = d.WriteString("|")
	}
	return strconv.FormatUint(d.Sum64(), 16)
}
