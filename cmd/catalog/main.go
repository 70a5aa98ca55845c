// Command catalog wires the catalog service end to end and runs a short
// scripted session against it. It seeds the store, reads through the cache,
// updates and deletes, logs the catalog reports, then backs up and restores.
//
//	catalog -csv data/funkos.csv -backup-dir out -cache-provider ristretto -log zap -hooks slog
//	catalog -store redis -redis-addr localhost:6379 -metrics-addr :9090 -serve
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unkn0wn-root/catalogcache"
	"github.com/unkn0wn-root/catalogcache/backup"
	"github.com/unkn0wn-root/catalogcache/cachestore"
	"github.com/unkn0wn-root/catalogcache/catalog"
	"github.com/unkn0wn-root/catalogcache/csvload"
	asynchook "github.com/unkn0wn-root/catalogcache/hooks/async"
	"github.com/unkn0wn-root/catalogcache/record"
	"github.com/unkn0wn-root/catalogcache/validator"
)

type config struct {
	maxSize       int
	ttl           time.Duration
	sweep         time.Duration
	workers       int
	store         string
	redisAddr     string
	namespace     string
	cacheProvider string
	cacheCodec    string
	csvPath       string
	backupDir     string
	logKind       string
	hooks         string
	metricsAddr   string
	serve         bool
}

func parseFlags() config {
	var c config
	flag.IntVar(&c.maxSize, "max-size", 10, "max cached records")
	flag.DurationVar(&c.ttl, "ttl", 2*time.Minute, "max age of a cached record, measured from its last store update")
	flag.DurationVar(&c.sweep, "sweep", time.Minute, "TTL sweep interval")
	flag.IntVar(&c.workers, "workers", 0, "max in-flight operations (0 = 4*GOMAXPROCS)")
	flag.StringVar(&c.store, "store", "memory", "record store: memory|redis")
	flag.StringVar(&c.redisAddr, "redis-addr", "localhost:6379", "redis address for -store=redis or -cache-provider=redis")
	flag.StringVar(&c.namespace, "namespace", "catalog", "redis key namespace")
	flag.StringVar(&c.cacheProvider, "cache-provider", "memory", "cache byte store: memory|ristretto|bigcache|redis")
	flag.StringVar(&c.cacheCodec, "cache-codec", "msgpack", "cached record encoding: msgpack|cbor|json|protobuf")
	flag.StringVar(&c.csvPath, "csv", "", "seed CSV (COD,NOMBRE,MODELO,PRECIO,FECHA_LANZAMIENTO)")
	flag.StringVar(&c.backupDir, "backup-dir", os.TempDir(), "directory for backup files")
	flag.StringVar(&c.logKind, "log", "slog", "logger: slog|zap|logrus|none")
	flag.StringVar(&c.hooks, "hooks", "prometheus", "operation hooks: prometheus|slog")
	flag.StringVar(&c.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	flag.BoolVar(&c.serve, "serve", false, "keep running after the session until SIGINT/SIGTERM")
	flag.Parse()
	return c
}

func main() {
	cfg := parseFlags()
	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "catalog:", err)
		os.Exit(1)
	}
}

func run(cfg config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, flush, err := newLogger(cfg.logKind)
	if err != nil {
		return err
	}
	defer flush()

	// one client shared by the store and the cache provider
	var (
		rdbOnce sync.Once
		rdb     goredis.UniversalClient
	)
	redisClient := func() goredis.UniversalClient {
		rdbOnce.Do(func() { rdb = newRedisClient(cfg.redisAddr) })
		return rdb
	}
	defer func() {
		if rdb != nil {
			_ = rdb.Close()
		}
	}()

	st, err := newStore(cfg, redisClient)
	if err != nil {
		return err
	}
	prov, err := newProvider(ctx, cfg, redisClient)
	if err != nil {
		return err
	}
	cdc, err := newCodec(cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	sink, err := newHooks(cfg.hooks, reg)
	if err != nil {
		return err
	}
	hooks := asynchook.New(sink, 1, 4096)
	defer hooks.Close()

	if cfg.metricsAddr != "" {
		srv := &http.Server{Addr: cfg.metricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", catalogcache.Fields{"err": err})
			}
		}()
		defer srv.Close()
	}

	svc, err := catalogcache.New(catalogcache.Options{
		Store:     st,
		Validator: validator.Validator{MaxNameLen: 100},
		Backup:    backup.New(backup.Options{}),
		Logger:    logger,
		Hooks:     hooks,
		Workers:   cfg.workers,
		CacheOptions: cachestore.Options{
			MaxSize:       cfg.maxSize,
			TTL:           cfg.ttl,
			SweepInterval: cfg.sweep,
			Provider:      prov,
			Codec:         cdc,
		},
	})
	if err != nil {
		return err
	}
	defer svc.Close(context.Background())

	if err := session(ctx, svc, cfg, logger); err != nil {
		return err
	}

	if cfg.serve {
		logger.Info("serving until interrupted", catalogcache.Fields{"metrics": cfg.metricsAddr})
		<-ctx.Done()
	}
	svc.Shutdown()
	return nil
}

// session runs the scripted walk through every service operation.
func session(ctx context.Context, svc *catalogcache.Service, cfg config, log catalogcache.Logger) error {
	seed, err := seedRecords(ctx, cfg.csvPath)
	if err != nil {
		return err
	}
	for _, r := range seed {
		if _, err := svc.Save(ctx, r).Await(ctx); err != nil {
			log.Warn("seed record rejected", catalogcache.Fields{"name": r.Name, "err": err})
		}
	}

	all, err := svc.FindAll(ctx).Await(ctx)
	if err != nil {
		return err
	}
	log.Info("catalog loaded", catalogcache.Fields{"records": len(all), "cached": svc.Cache().Len()})
	if len(all) == 0 {
		return nil
	}

	first := all[0]
	for i := 0; i < 2; i++ {
		if _, err := svc.FindByID(ctx, first.Key()).Await(ctx); err != nil {
			return err
		}
	}

	byName, err := svc.FindByName(ctx, first.Name).Await(ctx)
	if err != nil {
		return err
	}
	log.Info("found by name", catalogcache.Fields{"name": first.Name, "matches": len(byName)})

	var nf *catalogcache.NotFoundError
	if _, err := svc.FindByName(ctx, "no such figure").Await(ctx); !errors.As(err, &nf) {
		return fmt.Errorf("expected not-found for unknown name, got %v", err)
	}

	change := first
	change.Price = first.Price * 1.1
	updated, err := svc.Update(ctx, first.Key(), change).Await(ctx)
	if err != nil {
		return err
	}
	log.Info("updated", catalogcache.Fields{"id": updated.Key(), "price": updated.Price})

	invalid := record.New("", record.Marvel, -1, time.Now())
	var ve *catalogcache.ValidationError
	if _, err := svc.Save(ctx, invalid).Await(ctx); !errors.As(err, &ve) {
		return fmt.Errorf("expected validation error, got %v", err)
	}

	if len(all) > 1 {
		removed, err := svc.Delete(ctx, all[len(all)-1].Key()).Await(ctx)
		if err != nil {
			return err
		}
		log.Info("deleted", catalogcache.Fields{"removed": removed})
	}

	if err := reports(ctx, catalog.New(svc), log); err != nil {
		return err
	}

	const backupFile = "catalog-backup.json"
	if _, err := svc.ExportData(ctx, cfg.backupDir, backupFile).Await(ctx); err != nil {
		return err
	}
	restored, err := svc.ImportData(ctx, cfg.backupDir, backupFile).Await(ctx)
	if err != nil {
		return err
	}
	log.Info("backup verified", catalogcache.Fields{"records": len(restored), "dir": cfg.backupDir})

	removed := svc.Cache().Clear(ctx)
	log.Info("manual sweep", catalogcache.Fields{"removed": removed, "cached": svc.Cache().Len()})
	return nil
}

// reports logs the aggregate catalog queries. All of them are issued before
// the first is awaited.
func reports(ctx context.Context, q *catalog.Queries, log catalogcache.Logger) error {
	top := q.MostExpensive(ctx)
	avg := q.AveragePrice(ctx)
	groups := q.GroupByModel(ctx)
	counts := q.CountByModel(ctx)
	recent := q.ReleasedIn(ctx, 2023)
	stitches := q.CountNamePrefix(ctx, "Stitch")
	stitchList := q.WithNamePrefix(ctx, "Stitch")

	r, err := top.Await(ctx)
	if err != nil {
		return err
	}
	log.Info("most expensive", catalogcache.Fields{"record": r.String()})

	a, err := avg.Await(ctx)
	if err != nil {
		return err
	}
	log.Info("average price", catalogcache.Fields{"price": fmt.Sprintf("%.2f", a)})

	g, err := groups.Await(ctx)
	if err != nil {
		return err
	}
	for _, m := range record.Models {
		for _, rec := range g[m] {
			log.Info("grouped by model", catalogcache.Fields{"model": m, "record": rec.String()})
		}
	}

	c, err := counts.Await(ctx)
	if err != nil {
		return err
	}
	for _, m := range record.Models {
		log.Info("count by model", catalogcache.Fields{"model": m, "count": c[m]})
	}

	rel, err := recent.Await(ctx)
	if err != nil {
		return err
	}
	for _, rec := range rel {
		log.Info("released in 2023", catalogcache.Fields{"record": rec.String()})
	}

	n, err := stitches.Await(ctx)
	if err != nil {
		return err
	}
	log.Info("names starting with Stitch", catalogcache.Fields{"count": n})

	list, err := stitchList.Await(ctx)
	if err != nil {
		return err
	}
	for _, rec := range list {
		log.Info("named Stitch", catalogcache.Fields{"record": rec.String()})
	}
	return nil
}

func seedRecords(ctx context.Context, path string) ([]record.Record, error) {
	if path != "" {
		return csvload.Load(ctx, path)
	}
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }
	return []record.Record{
		record.New("Iron Man", record.Marvel, 15.99, day(2019, time.April, 26)),
		record.New("Stitch", record.Disney, 12.5, day(2020, time.June, 1)),
		record.New("Goku", record.Anime, 18, day(2021, time.March, 3)),
		record.New("Chucky", record.Other, 11.25, day(2018, time.October, 31)),
	}, nil
}
