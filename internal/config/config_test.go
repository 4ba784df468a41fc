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

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Run("Missing file falls back to defaults", func(t *testing.T) {
		// When: loading a path that does not exist
		conf, err := Load(filepath.Join(t.TempDir(), "absent.yml"))

		// Then: every default is applied
		require.NoError(t, err)
		assert.Equal(t, "info", conf.LogLevel)
		assert.Equal(t, "9090", conf.HTTPPort)
		assert.Equal(t, "9091", conf.SocketPort)
		assert.Equal(t, StorageMemory, conf.Storage)
		assert.Equal(t, 24*time.Hour, conf.SessionTTL)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
	})

	t.Run("Reads the yaml file", func(t *testing.T) {
		// Given: a config selecting redis
		path := writeConfig(t, `
log-level: debug
storage: redis
session-ttl: 1h
redis:
  host: cache
  port: "6380"
`)

		// When: loading it
		conf, err := Load(path)

		// Then: file values win over defaults
		require.NoError(t, err)
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, StorageRedis, conf.Storage)
		assert.Equal(t, time.Hour, conf.SessionTTL)
		assert.Equal(t, "cache:6380", conf.Redis.GetRedisAddr())
		assert.Equal(t, "9090", conf.HTTPPort)
	})

	t.Run("Environment overrides the file", func(t *testing.T) {
		path := writeConfig(t, "http-port: \"8000\"\n")
		t.Setenv("HTTP_PORT", "7000")

		conf, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "7000", conf.HTTPPort)
	})

	t.Run("Rejects an unknown storage", func(t *testing.T) {
		path := writeConfig(t, "storage: sqlite\n")

		_, err := Load(path)

		require.ErrorIs(t, err, ErrUnknownStorage)
		assert.Panics(t, func() { MustLoad(path) })
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Run("Zero ttl disables expiry", func(t *testing.T) {
		conf := Config{Storage: StorageRedis}

		require.NoError(t, conf.Validate())
	})

	t.Run("Negative ttl is rejected", func(t *testing.T) {
		conf := Config{Storage: StorageMemory, SessionTTL: -time.Minute}

		require.ErrorIs(t, conf.Validate(), ErrInvalidTTL)
	})

	t.Run("Zero ttl from the environment", func(t *testing.T) {
		path := writeConfig(t, "storage: redis\n")
		t.Setenv("SESSION_TTL", "0s")

		conf, err := Load(path)

		require.NoError(t, err)
		assert.Zero(t, conf.SessionTTL)
	})
}
