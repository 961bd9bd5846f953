package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"lumino/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyDependsOnProviderAndPrompt(t *testing.T) {
	assert.Equal(t, Key("gemini", "p"), Key("gemini", "p"))
	assert.NotEqual(t, Key("gemini", "p"), Key("openai", "p"))
	assert.NotEqual(t, Key("gemini", "p"), Key("gemini", "q"))
	assert.Len(t, Key("gemini", "p"), 64)
}

func TestMemoryCache(t *testing.T) {
	m := NewMemoryCache(2, time.Hour)
	require.NoError(t, m.Init())

	_, err := m.Get("missing")
	assert.ErrorIs(t, err, ErrEntryNotFound)
	assert.ErrorIs(t, m.Put(&Entry{}), ErrInvalidData)

	base := time.Now()
	require.NoError(t, m.Put(&Entry{Key: "a", Body: []byte("A"), CreatedAt: base}))
	require.NoError(t, m.Put(&Entry{Key: "b", Body: []byte("B"), CreatedAt: base.Add(time.Second)}))
	require.NoError(t, m.Put(&Entry{Key: "c", Body: []byte("C"), CreatedAt: base.Add(2 * time.Second)}))

	assert.Equal(t, 2, m.Len())
	_, err = m.Get("a")
	assert.ErrorIs(t, err, ErrEntryNotFound, "oldest entry evicted")

	got, err := m.Get("c")
	require.NoError(t, err)
	assert.Equal(t, []byte("C"), got.Body)

	require.NoError(t, m.Delete("c"))
	assert.ErrorIs(t, m.Delete("c"), ErrEntryNotFound)
}

func TestMemoryCacheTTL(t *testing.T) {
	m := NewMemoryCache(0, time.Minute)
	now := time.Now()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Put(&Entry{Key: "k", Body: []byte("x")}))
	_, err := m.Get("k")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = m.Get("k")
	assert.ErrorIs(t, err, ErrEntryExpired)
	assert.Equal(t, 0, m.Len())
}

func TestDiskCacheRoundTripAcrossRestart(t *testing.T) {
	dir := t.TempDir()

	d := NewDiskCache(dir, 10, time.Hour)
	require.NoError(t, d.Init())
	require.NoError(t, d.Put(&Entry{Key: "k1", Provider: "gemini", Body: []byte(`{"candidates":[]}`)}))
	require.NoError(t, d.Close())

	_, err := os.Stat(filepath.Join(dir, "responses", "k1.json"))
	require.NoError(t, err)

	reopened := NewDiskCache(dir, 10, time.Hour)
	require.NoError(t, reopened.Init())
	assert.Equal(t, 1, reopened.Len())

	got, err := reopened.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, "gemini", got.Provider)
	assert.JSONEq(t, `{"candidates":[]}`, string(got.Body))

	require.NoError(t, reopened.Delete("k1"))
	_, err = reopened.Get("k1")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestDiskCacheSkipsCorruptAndExpiredFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "responses"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "responses", "bad.json"), []byte("{"), 0644))

	old := NewDiskCache(dir, 10, time.Hour)
	require.NoError(t, old.Init())
	require.NoError(t, old.Put(&Entry{Key: "stale", Body: []byte("x"), CreatedAt: time.Now().Add(-2 * time.Hour)}))

	d := NewDiskCache(dir, 10, time.Hour)
	require.NoError(t, d.Init())
	assert.Equal(t, 0, d.Len())

	_, err := os.Stat(filepath.Join(dir, "responses", "stale.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestNewFromConfig(t *testing.T) {
	c, err := New(config.StorageConfig{Type: "memory", CacheSize: 4})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)

	c, err = New(config.StorageConfig{Type: "disk", DataDir: t.TempDir(), CacheSize: 4})
	require.NoError(t, err)
	assert.IsType(t, &DiskCache{}, c)

	c, err = New(config.StorageConfig{Type: "none"})
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = New(config.StorageConfig{Type: "redis"})
	assert.ErrorIs(t, err, ErrStorageInit)
}
