package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bookit.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BOOKIT_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.GetAddr())
	assert.Equal(t, "bookit", cfg.Server.GetServiceName())
	assert.True(t, cfg.Server.GzipEnabled())
	assert.Equal(t, CodecJSON, cfg.Session.GetIdentityCodec())
	assert.Equal(t, 24*time.Hour, cfg.Session.GetTTL())
	assert.Equal(t, StorageMemory, cfg.Storage.GetBackend())
	assert.Equal(t, DirectoryMemory, cfg.Directory.GetBackend())
	assert.Equal(t, CacheNone, cfg.Directory.Cache.GetBackend())
	assert.Equal(t, BusMemory, cfg.EventBus.GetBackend())
	assert.False(t, cfg.Telemetry.IsEnabled())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  gzip: false
session:
  identity_codec: signed
  ttl_hours: 2
storage:
  backend: redis
  redis:
    addr: redis:6379
directory:
  backend: mariadb
  mariadb:
    host: db
  cache:
    backend: redis
    ttl_seconds: 30
    nats_url: nats://nats:4222
eventbus:
  backend: jetstream
  url: nats://nats:4222
telemetry:
  enabled: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.GetPort())
	assert.False(t, cfg.Server.GzipEnabled())
	assert.Equal(t, CodecSigned, cfg.Session.GetIdentityCodec())
	assert.Equal(t, 2*time.Hour, cfg.Session.GetTTL())
	assert.Equal(t, "redis:6379", cfg.Storage.Redis.GetAddr())
	assert.Equal(t, "db", cfg.Directory.Maria.GetHost())
	assert.Equal(t, 3306, cfg.Directory.Maria.GetPort())
	assert.Equal(t, CacheRedis, cfg.Directory.Cache.GetBackend())
	assert.Equal(t, 30*time.Second, cfg.Directory.Cache.GetTTL())
	assert.Equal(t, "nats://nats:4222", cfg.Directory.Cache.GetNATSURL())
	assert.Equal(t, "nats://nats:4222", cfg.EventBus.GetURL())
	assert.True(t, cfg.Telemetry.IsEnabled())
}

func TestLoad_EnvPath(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 7000\n")
	t.Setenv("BOOKIT_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.GetPort())
}

func TestEnvFallback(t *testing.T) {
	t.Setenv("BOOKIT_PORT", "8181")
	t.Setenv("BOOKIT_STORAGE", "badger")
	t.Setenv("BOOKIT_DB_PORT", "not-a-number")

	cfg := &Config{}
	assert.Equal(t, 8181, cfg.Server.GetPort())
	assert.Equal(t, StorageBadger, cfg.Storage.GetBackend())
	assert.Equal(t, 3306, cfg.Directory.Maria.GetPort())

	// значение из конфига важнее env
	cfg.Server.Port = 9000
	assert.Equal(t, 9000, cfg.Server.GetPort())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server: [broken"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "storage:\n  backend: sqlite\n"))
	assert.ErrorContains(t, err, "storage.backend")

	_, err = Load(writeConfig(t, "directory:\n  cache:\n    backend: memcached\n"))
	assert.ErrorContains(t, err, "directory.cache.backend")
}
