// Package config loads the shopmirrord configuration from YAML with
// SHOPMIRROR_* environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP      HTTP      `yaml:"http"`
	Mongo     Mongo     `yaml:"mongo"`
	Cache     Cache     `yaml:"cache"`
	Redis     Redis     `yaml:"redis"`
	BigCache  BigCache  `yaml:"bigcache"`
	Ristretto Ristretto `yaml:"ristretto"`
	Log       Log       `yaml:"log"`
	Saga      Saga      `yaml:"saga"`
	Blob      Blob      `yaml:"blob"`
	CORS      CORS      `yaml:"cors"`
}

type HTTP struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type Mongo struct {
	URI      string        `yaml:"uri"`
	Database string        `yaml:"database"`
	Timeout  time.Duration `yaml:"timeout"`
}

type Cache struct {
	Provider       string `yaml:"provider"` // redis | bigcache | ristretto
	Codec          string `yaml:"codec"`    // json | cbor | msgpack
	Namespace      string `yaml:"namespace"`
	MaxDecodeBytes int    `yaml:"maxDecodeBytes"`
	WarmOnStart    bool   `yaml:"warmOnStart"`
}

type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	GenTTL   time.Duration `yaml:"genTTL"`
}

type BigCache struct {
	LifeWindow       time.Duration `yaml:"lifeWindow"`
	HardMaxCacheSize int           `yaml:"hardMaxCacheSizeMB"`
}

type Ristretto struct {
	NumCounters int64 `yaml:"numCounters"`
	MaxCost     int64 `yaml:"maxCostBytes"`
}

type Log struct {
	Backend string `yaml:"backend"` // zap | logrus | slog
	Level   string `yaml:"level"`
}

type Saga struct {
	Retries int           `yaml:"retries"`
	Backoff time.Duration `yaml:"backoff"`
}

type Blob struct {
	Dir string `yaml:"dir"` // empty disables image cleanup
}

type CORS struct {
	AllowOrigins []string `yaml:"allowOrigins"`
}

// Default returns the configuration used for anything the file and the
// environment leave unset.
func Default() Config {
	return Config{
		HTTP:      HTTP{Addr: ":8080", ShutdownTimeout: 10 * time.Second},
		Mongo:     Mongo{URI: "mongodb://localhost:27017", Database: "shop", Timeout: 10 * time.Second},
		Cache:     Cache{Provider: "redis", Codec: "json", Namespace: "shop", WarmOnStart: true},
		Redis:     Redis{Addr: "localhost:6379"},
		BigCache:  BigCache{LifeWindow: 24 * time.Hour, HardMaxCacheSize: 256},
		Ristretto: Ristretto{NumCounters: 1e5, MaxCost: 64 << 20},
		Log:       Log{Backend: "zap", Level: "info"},
		Saga:      Saga{Retries: 3, Backoff: 50 * time.Millisecond},
		CORS:      CORS{AllowOrigins: []string{"*"}},
	}
}

// Load reads path (optional; "" skips the file), applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs error
	str := func(key string, dst *string) {
		if v, ok := lookup("SHOPMIRROR_" + key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup("SHOPMIRROR_" + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("config: SHOPMIRROR_%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup("SHOPMIRROR_" + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("config: SHOPMIRROR_%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("HTTP_ADDR", &c.HTTP.Addr)
	str("MONGO_URI", &c.Mongo.URI)
	str("MONGO_DATABASE", &c.Mongo.Database)
	str("CACHE_PROVIDER", &c.Cache.Provider)
	str("CACHE_CODEC", &c.Cache.Codec)
	str("CACHE_NAMESPACE", &c.Cache.Namespace)
	num("CACHE_MAX_DECODE_BYTES", &c.Cache.MaxDecodeBytes)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	num("REDIS_DB", &c.Redis.DB)
	str("LOG_BACKEND", &c.Log.Backend)
	str("LOG_LEVEL", &c.Log.Level)
	num("SAGA_RETRIES", &c.Saga.Retries)
	dur("SAGA_BACKOFF", &c.Saga.Backoff)
	str("BLOB_DIR", &c.Blob.Dir)
	if v, ok := lookup("SHOPMIRROR_CORS_ALLOW_ORIGINS"); ok {
		c.CORS.AllowOrigins = splitList(v)
	}
	return errs
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs error
	bad := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf("config: "+format, args...))
	}
	if c.HTTP.Addr == "" {
		bad("http.addr is required")
	}
	if c.Mongo.URI == "" || c.Mongo.Database == "" {
		bad("mongo.uri and mongo.database are required")
	}
	switch c.Cache.Provider {
	case "redis", "bigcache", "ristretto":
	default:
		bad("cache.provider %q is not one of redis, bigcache, ristretto", c.Cache.Provider)
	}
	switch c.Cache.Codec {
	case "", "json", "cbor", "msgpack":
	default:
		bad("cache.codec %q is not one of json, cbor, msgpack", c.Cache.Codec)
	}
	if c.Cache.MaxDecodeBytes < 0 {
		bad("cache.maxDecodeBytes must not be negative")
	}
	if c.Cache.Provider == "redis" && c.Redis.Addr == "" {
		bad("redis.addr is required for the redis provider")
	}
	switch c.Log.Backend {
	case "zap", "logrus", "slog":
	default:
		bad("log.backend %q is not one of zap, logrus, slog", c.Log.Backend)
	}
	if c.Saga.Retries < 0 || c.Saga.Backoff < 0 {
		bad("saga.retries and saga.backoff must not be negative")
	}
	return errs
}
