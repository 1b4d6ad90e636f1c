// Command shopmirrord serves the shop API over MongoDB with a mirrored
// read cache.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stdlog "log"
	stdslog "log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/multierr"

	"github.com/unkn0wn-root/shopmirror"
	"github.com/unkn0wn-root/shopmirror/blob"
	"github.com/unkn0wn-root/shopmirror/config"
	gen "github.com/unkn0wn-root/shopmirror/genstore"
	asynchook "github.com/unkn0wn-root/shopmirror/hooks/async"
	"github.com/unkn0wn-root/shopmirror/internal/httpapi"
	lrlog "github.com/unkn0wn-root/shopmirror/log/logrus"
	slogadapter "github.com/unkn0wn-root/shopmirror/log/slog"
	zaplog "github.com/unkn0wn-root/shopmirror/log/zap"
	pr "github.com/unkn0wn-root/shopmirror/provider"
	bcp "github.com/unkn0wn-root/shopmirror/provider/bigcache"
	rcp "github.com/unkn0wn-root/shopmirror/provider/redis"
	rsp "github.com/unkn0wn-root/shopmirror/provider/ristretto"
	"github.com/unkn0wn-root/shopmirror/sloghooks"
	"github.com/unkn0wn-root/shopmirror/store/mongostore"
)

func main() {
	path := flag.String("config", os.Getenv("SHOPMIRROR_CONFIG"), "path to YAML config")
	flag.Parse()

	if err := run(*path); err != nil {
		stdlog.Fatalf("shopmirrord: %v", err)
	}
}

func run(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	logger, hookLog, flush, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer flush()

	ctx := context.Background()
	st, err := mongostore.Open(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() { _ = st.Close(context.Background()) }()

	prov, gs, err := newCache(cfg)
	if err != nil {
		return err
	}

	hooks := asynchook.New(sloghooks.New(hookLog, sloghooks.Options{SelfHealEvery: 10, SupersededEvery: 10}), 2, 1024)
	defer hooks.Close()

	var blobs blob.Remover = blob.Nop{}
	if cfg.Blob.Dir != "" {
		blobs = blob.Dir{Root: cfg.Blob.Dir}
	}

	core, err := shopmirror.New(shopmirror.Options{
		Store:        st,
		Provider:     prov,
		GenStore:     gs,
		Blobs:        blobs,
		Namespace:    cfg.Cache.Namespace,
		CodecName:    cfg.Cache.Codec,
		MaxDecode:    cfg.Cache.MaxDecodeBytes,
		Logger:       logger,
		Hooks:        hooks,
		Retries:      cfg.Saga.Retries,
		RetryBackoff: cfg.Saga.Backoff,
	})
	if err != nil {
		return multierr.Append(err, multierr.Combine(prov.Close(ctx), gs.Close(ctx)))
	}
	defer func() {
		if err := core.Close(context.Background()); err != nil {
			logger.Warn("cache close failed", shopmirror.Fields{"err": err})
		}
	}()

	if cfg.Cache.WarmOnStart {
		if err := core.Warm(ctx); err != nil {
			logger.Warn("cache warm failed", shopmirror.Fields{"err": err})
		}
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpapi.NewRouter(core, httpapi.Config{AllowOrigins: cfg.CORS.AllowOrigins, Logger: logger}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", shopmirror.Fields{"addr": cfg.HTTP.Addr, "cache": cfg.Cache.Provider})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case err := <-errc:
		return err
	}

	sctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Warn("http shutdown", shopmirror.Fields{"err": err})
	}
	logger.Info("stopped", nil)
	return nil
}

// newLogger returns the Core logger, the slog logger used for hook events
// and a flush func.
func newLogger(cfg config.Log) (shopmirror.Logger, *stdslog.Logger, func(), error) {
	switch cfg.Backend {
	case "zap":
		l, err := zaplog.New(cfg.Level)
		if err != nil {
			return nil, nil, nil, err
		}
		return l, slogadapter.New(os.Stderr, cfg.Level).L, func() { _ = l.Sync() }, nil
	case "logrus":
		l, err := lrlog.New(os.Stderr, cfg.Level)
		if err != nil {
			return nil, nil, nil, err
		}
		return l, slogadapter.New(os.Stderr, cfg.Level).L, func() {}, nil
	default:
		l := slogadapter.New(os.Stderr, cfg.Level)
		return l, l.L, func() {}, nil
	}
}

// newCache picks the snapshot provider and the matching generation store.
// Only the redis provider shares generations across processes.
func newCache(cfg config.Config) (pr.Provider, gen.GenStore, error) {
	switch cfg.Cache.Provider {
	case "redis":
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		p, err := rcp.New(rcp.Config{Client: rdb, CloseClient: true})
		if err != nil {
			return nil, nil, err
		}
		gs, err := gen.NewRedis(gen.RedisConfig{Client: rdb, Namespace: cfg.Cache.Namespace, TTL: cfg.Redis.GenTTL})
		if err != nil {
			return nil, nil, err
		}
		return p, gs, nil
	case "bigcache":
		p, err := bcp.New(bcp.Config{LifeWindow: cfg.BigCache.LifeWindow, HardMaxCacheSizeMB: cfg.BigCache.HardMaxCacheSize})
		if err != nil {
			return nil, nil, err
		}
		return p, gen.NewLocal(), nil
	case "ristretto":
		p, err := rsp.New(rsp.Config{NumCounters: cfg.Ristretto.NumCounters, MaxCost: cfg.Ristretto.MaxCost, BufferItems: 64})
		if err != nil {
			return nil, nil, err
		}
		return p, gen.NewLocal(), nil
	}
	return nil, nil, fmt.Errorf("unknown cache provider %q", cfg.Cache.Provider)
}
