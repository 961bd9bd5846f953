package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"lumino/pkg/logger"
)

// DiskCache 每条响应一个 JSON 文件，内存中保留最近的条目
type DiskCache struct {
	dataDir  string
	capacity int
	ttl      time.Duration
	now      func() time.Time

	mu    sync.RWMutex
	cache map[string]*Entry
}

func NewDiskCache(dataDir string, capacity int, ttl time.Duration) *DiskCache {
	return &DiskCache{
		dataDir:  dataDir,
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		cache:    make(map[string]*Entry),
	}
}

func (d *DiskCache) entriesDir() string {
	return filepath.Join(d.dataDir, "responses")
}

func (d *DiskCache) entryPath(key string) string {
	return filepath.Join(d.entriesDir(), key+".json")
}

func (d *DiskCache) Init() error {
	if err := os.MkdirAll(d.entriesDir(), 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	if err := d.loadEntries(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	logger.Infof("Disk cache initialized at %s with %d entries", d.dataDir, len(d.cache))
	return nil
}

func (d *DiskCache) loadEntries() error {
	files, err := os.ReadDir(d.entriesDir())
	if err != nil {
		return err
	}

	now := d.now()
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		key := strings.TrimSuffix(f.Name(), ".json")

		entry, err := d.loadEntryFromFile(key)
		if err != nil {
			logger.Errorf("Failed to load cache entry %s: %v", key, err)
			continue
		}
		if expired(entry, d.ttl, now) {
			_ = os.Remove(d.entryPath(key))
			continue
		}
		d.cache[key] = entry
	}

	for _, key := range evictOldest(d.cache, d.capacity) {
		_ = os.Remove(d.entryPath(key))
	}
	return nil
}

func (d *DiskCache) loadEntryFromFile(key string) (*Entry, error) {
	data, err := os.ReadFile(d.entryPath(key))
	if err != nil {
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return &entry, nil
}

func (d *DiskCache) saveEntryToFile(entry *Entry) error {
	path := d.entryPath(entry.Key)
	tempPath := path + ".tmp"

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return err
	}

	return os.Rename(tempPath, path)
}

func (d *DiskCache) Get(key string) (*Entry, error) {
	d.mu.RLock()
	entry, ok := d.cache[key]
	d.mu.RUnlock()

	if !ok {
		loaded, err := d.loadEntryFromFile(key)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, ErrEntryNotFound
			}
			return nil, fmt.Errorf("%w: %v", ErrFileOperation, err)
		}
		entry = loaded
	}

	if expired(entry, d.ttl, d.now()) {
		_ = d.Delete(key)
		return nil, ErrEntryExpired
	}

	return entry, nil
}

func (d *DiskCache) Put(entry *Entry) error {
	if entry == nil || entry.Key == "" {
		return ErrInvalidData
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = d.now()
	}
	if err := d.saveEntryToFile(entry); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	d.cache[entry.Key] = entry
	for _, key := range evictOldest(d.cache, d.capacity) {
		_ = os.Remove(d.entryPath(key))
	}
	return nil
}

func (d *DiskCache) Delete(key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, cached := d.cache[key]
	delete(d.cache, key)

	err := os.Remove(d.entryPath(key))
	if errors.Is(err, os.ErrNotExist) {
		if cached {
			return nil
		}
		return ErrEntryNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	return nil
}

func (d *DiskCache) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.cache)
}

func (d *DiskCache) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cache = make(map[string]*Entry)
	return nil
}
