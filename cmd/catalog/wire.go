package main

import (
	"context"
	"fmt"
	stdslog "log/slog"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/catalogcache"
	"github.com/unkn0wn-root/catalogcache/codec"
	promhooks "github.com/unkn0wn-root/catalogcache/hooks/prometheus"
	logruslog "github.com/unkn0wn-root/catalogcache/log/logrus"
	slogadapter "github.com/unkn0wn-root/catalogcache/log/slog"
	zaplog "github.com/unkn0wn-root/catalogcache/log/zap"
	pr "github.com/unkn0wn-root/catalogcache/provider"
	bcprov "github.com/unkn0wn-root/catalogcache/provider/bigcache"
	"github.com/unkn0wn-root/catalogcache/provider/memory"
	redisprov "github.com/unkn0wn-root/catalogcache/provider/redis"
	rprov "github.com/unkn0wn-root/catalogcache/provider/ristretto"
	"github.com/unkn0wn-root/catalogcache/record"
	"github.com/unkn0wn-root/catalogcache/sloghooks"
	"github.com/unkn0wn-root/catalogcache/store/memstore"
	"github.com/unkn0wn-root/catalogcache/store/redisstore"
)

// newLogger returns the service logger plus a flush func for process exit.
func newLogger(kind string) (catalogcache.Logger, func(), error) {
	switch strings.ToLower(kind) {
	case "zap":
		zl, err := zap.NewDevelopment()
		if err != nil {
			return nil, nil, err
		}
		return zaplog.New(zl), func() { _ = zl.Sync() }, nil
	case "logrus":
		l := logrus.New()
		l.SetLevel(logrus.DebugLevel)
		return logruslog.New(l), func() {}, nil
	case "slog", "":
		h := stdslog.NewTextHandler(os.Stderr, &stdslog.HandlerOptions{Level: stdslog.LevelDebug})
		return slogadapter.Logger{L: stdslog.New(h)}, func() {}, nil
	case "none":
		return catalogcache.NopLogger{}, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown logger %q", kind)
	}
}

// newHooks picks the hook sink. Both run behind the async dispatcher, so a
// slow sink never delays an operation.
func newHooks(kind string, reg prometheus.Registerer) (catalogcache.Hooks, error) {
	switch strings.ToLower(kind) {
	case "prometheus", "":
		return promhooks.New(reg, "catalog"), nil
	case "slog":
		h := stdslog.NewTextHandler(os.Stderr, &stdslog.HandlerOptions{Level: stdslog.LevelDebug})
		return sloghooks.New(stdslog.New(h).With("component", "hooks"), sloghooks.Options{HitEvery: 10}), nil
	default:
		return nil, fmt.Errorf("unknown hooks %q", kind)
	}
}

func newRedisClient(addr string) goredis.UniversalClient {
	return goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 2 * time.Second,
	})
}

func newStore(cfg config, rdb func() goredis.UniversalClient) (catalogcache.Store, error) {
	switch cfg.store {
	case "memory", "":
		return memstore.New(), nil
	case "redis":
		return redisstore.New(redisstore.Config{Client: rdb(), Namespace: cfg.namespace})
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.store)
	}
}

func newProvider(ctx context.Context, cfg config, rdb func() goredis.UniversalClient) (pr.Provider, error) {
	switch cfg.cacheProvider {
	case "memory", "":
		return memory.New(), nil
	case "ristretto":
		return rprov.New(rprov.DefaultConfig(cfg.maxSize))
	case "bigcache":
		return bcprov.New(ctx, bcprov.Config{LifeWindow: 4 * cfg.ttl, Shards: 16})
	case "redis":
		return redisprov.New(redisprov.Config{Client: rdb(), Prefix: cfg.namespace + ":cache:"})
	default:
		return nil, fmt.Errorf("unknown cache provider %q", cfg.cacheProvider)
	}
}

func newCodec(cfg config) (codec.Codec[record.Record], error) {
	c, err := codec.ForRecords(cfg.cacheCodec)
	if err != nil {
		return nil, err
	}
	return codec.Limit[record.Record]{Inner: c, MaxDecode: 1 << 20}, nil
}
