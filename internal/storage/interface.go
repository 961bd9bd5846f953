package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"lumino/internal/config"
)

// Entry 一条缓存的上游响应
type Entry struct {
	Key       string    `json:"key"`
	Provider  string    `json:"provider"`
	Body      []byte    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Cache 中继响应缓存，按提示词去重
type Cache interface {
	Get(key string) (*Entry, error)
	Put(entry *Entry) error
	Delete(key string) error
	Len() int

	Init() error
	Close() error
}

// Key 由服务商和提示词计算缓存键
func Key(provider, prompt string) string {
	sum := sha256.Sum256([]byte(provider + "\x00" + prompt))
	return hex.EncodeToString(sum[:])
}

// New 按配置创建缓存；type 为 none 时返回 nil
func New(cfg config.StorageConfig) (Cache, error) {
	var c Cache
	switch cfg.Type {
	case "memory", "":
		c = NewMemoryCache(cfg.CacheSize, cfg.TTL)
	case "disk":
		c = NewDiskCache(cfg.DataDir, cfg.CacheSize, cfg.TTL)
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown storage type %q", ErrStorageInit, cfg.Type)
	}

	if err := c.Init(); err != nil {
		return nil, err
	}
	return c, nil
}

func expired(e *Entry, ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.Sub(e.CreatedAt) > ttl
}
