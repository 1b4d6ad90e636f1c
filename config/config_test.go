package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":9090"
cache:
  provider: bigcache
  codec: cbor
saga:
  retries: 5
  backoff: 20ms
`), 0o644))

	t.Setenv("SHOPMIRROR_LOG_LEVEL", "debug")
	t.Setenv("SHOPMIRROR_CORS_ALLOW_ORIGINS", "https://a.io, https://b.io")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "bigcache", cfg.Cache.Provider)
	assert.Equal(t, "cbor", cfg.Cache.Codec)
	assert.Equal(t, 5, cfg.Saga.Retries)
	assert.Equal(t, 20*time.Millisecond, cfg.Saga.Backoff)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"https://a.io", "https://b.io"}, cfg.CORS.AllowOrigins)
	// untouched defaults survive
	assert.Equal(t, "shop", cfg.Mongo.Database)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  providr: redis\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvParseErrors(t *testing.T) {
	cfg := Default()
	env := map[string]string{"SHOPMIRROR_REDIS_DB": "x", "SHOPMIRROR_SAGA_BACKOFF": "soon"}
	err := cfg.applyEnv(func(k string) (string, bool) { v, ok := env[k]; return v, ok })
	assert.Len(t, multierr.Errors(err), 2)
}

func TestValidateCollectsEverything(t *testing.T) {
	cfg := Default()
	cfg.Cache.Provider = "memcached"
	cfg.Log.Backend = "printf"
	cfg.Saga.Retries = -1
	err := cfg.Validate()
	assert.Len(t, multierr.Errors(err), 3)
	assert.NoError(t, Default().Validate())
}
