package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, validateConfig(cfg))
	assert.Equal(t, "https://api.themoviedb.org/3", cfg.Catalog.BaseURL)
	assert.Equal(t, 60*time.Minute, cfg.Catalog.CacheTTL)
	assert.Equal(t, 8*24*time.Hour, cfg.Security.AccessTokenExpire)
}

func TestLoadConfigFromYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cinecache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
  api_prefix: v1/
catalog:
  cache_ttl: 5m
  cache_max_entries: 10
database:
  type: sqlite
  data_dir: /tmp/cc
`), 0o644))

	t.Setenv("TMDB_API_KEY", "secret")
	t.Setenv("BACKEND_CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("CACHE_ENABLED", "false")

	cm := NewConfigManager()
	require.NoError(t, cm.LoadConfig(path))
	cfg := cm.GetConfig()

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "/v1", cfg.Server.APIPrefix)
	assert.Equal(t, 5*time.Minute, cfg.Catalog.CacheTTL)
	assert.Equal(t, 10, cfg.Catalog.CacheMaxEntries)
	assert.Equal(t, "secret", cfg.Catalog.APIKey)
	assert.False(t, cfg.Catalog.CacheEnabled)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	assert.Equal(t, filepath.Join("/tmp/cc", "cinecache.db"), cfg.Database.DatabasePath)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "mysql")
	cm := NewConfigManager()
	err := cm.LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

func TestLoadConfigBadEnvValue(t *testing.T) {
	t.Setenv("CACHE_TTL", "forever")
	err := NewConfigManager().LoadConfig("")
	require.Error(t, err)
}

func TestWatchersReceiveOldAndNew(t *testing.T) {
	cm := NewConfigManager()
	var calls int32
	cm.AddWatcher(func(oldCfg, newCfg *Config) {
		atomic.AddInt32(&calls, 1)
		assert.NotNil(t, oldCfg)
		assert.NotNil(t, newCfg)
	})
	require.NoError(t, cm.LoadConfig(""))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPostgresDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, Username: "u", Password: "p", Database: "tmdb"}
	assert.Equal(t, "host=db user=u password=p dbname=tmdb port=5433 sslmode=disable TimeZone=UTC", d.PostgresDSN())

	d.URL = "postgres://x"
	assert.Equal(t, "postgres://x", d.PostgresDSN())
}

func TestFileWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cinecache.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o644))

	cm := NewConfigManager()
	require.NoError(t, cm.LoadConfig(path))

	reloaded := make(chan string, 4)
	cm.AddWatcher(func(_, newCfg *Config) {
		reloaded <- newCfg.Logging.Level
	})

	fw, err := cm.Watch(20 * time.Millisecond)
	require.NoError(t, err)
	defer fw.Close()

	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o644))

	select {
	case level := <-reloaded:
		assert.Equal(t, "debug", level)
	case <-time.After(5 * time.Second):
		t.Fatal("configuration was not reloaded")
	}
}
