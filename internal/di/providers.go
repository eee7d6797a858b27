package di

import (
	"context"
	"fmt"
	"os"
	"time"

	"SymDir/internal/domain/repository"
	"SymDir/internal/handler/api"
	internalrepo "SymDir/internal/repository"
	"SymDir/internal/service/ratelimit"
	"SymDir/internal/service/symbolcache"
	"SymDir/internal/usecase"
	pkgcache "SymDir/pkg/cache"
	pkgch "SymDir/pkg/clickhouse"
	"SymDir/pkg/config"
	xhttp "SymDir/pkg/http"
	pkgkafka "SymDir/pkg/kafka"
	applogger "SymDir/pkg/logger"
	"SymDir/pkg/metrics"
	"SymDir/pkg/scheduler"
	"SymDir/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
)

// InstanceID names this process in invalidation events so it can skip its own.
type InstanceID string

// limiterIdle is how long a client bucket may sit unused before it is swept.
const limiterIdle = 10 * time.Minute

// ProvideLogger creates the root application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Log.Pretty {
		format = "console"
	}
	l, err := applogger.New(&applogger.Config{Level: cfg.Log.Level, Format: format, Output: "stdout"})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder, or a no-op one when
// metrics are disabled.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return repository.NopMetrics{}
	}
	return metrics.New()
}

// ProvideInstanceID returns the configured instance id or hostname-pid.
func ProvideInstanceID(cfg *config.Config) InstanceID {
	if cfg.InstanceID != "" {
		return InstanceID(cfg.InstanceID)
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "symdir"
	}
	return InstanceID(fmt.Sprintf("%s-%d", host, os.Getpid()))
}

// ProvideInstrumentStore opens the configured instrument store.
func ProvideInstrumentStore(cfg *config.Config, l *applogger.Logger) (repository.InstrumentStore, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreClickHouse:
		return provideClickHouseStore(cfg, l)
	default:
		if cfg.Store.SeedFile == "" {
			l.Warn("memory store has no seed file; directory is empty")
			return internalrepo.NewMemoryStore(), func() {}, nil
		}
		store, err := internalrepo.NewMemoryStoreFromFile(cfg.Store.SeedFile)
		if err != nil {
			return nil, nil, fmt.Errorf("memory store: %w", err)
		}
		l.Info("memory store loaded",
			applogger.String("seed_file", cfg.Store.SeedFile),
			applogger.Int("instruments", store.Len()),
		)
		return store, func() {}, nil
	}
}

func provideClickHouseStore(cfg *config.Config, l *applogger.Logger) (repository.InstrumentStore, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx, cfg.ClickHouse.Options()...)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	table := cfg.ClickHouse.Database + "." + cfg.ClickHouse.Table
	if cfg.ClickHouse.InitSchema {
		if err := client.InitSchema(ctx,
			"CREATE DATABASE IF NOT EXISTS "+cfg.ClickHouse.Database,
			internalrepo.InstrumentsDDL(table),
		); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
		}
	}

	store := internalrepo.NewClickHouseStore(client, table)
	store.SetLogger(l)

	if cfg.Store.SeedFile != "" {
		if err := seedClickHouse(ctx, store, cfg.Store.SeedFile, l); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
	}
	l.Info("clickhouse store ready",
		applogger.String("host", cfg.ClickHouse.Host),
		applogger.String("table", table),
	)

	cleanup := func() {
		if err := client.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	return store, cleanup, nil
}

// seedClickHouse loads the seed file into an empty table, for development
// databases. A table that already has rows is left alone.
func seedClickHouse(ctx context.Context, store *internalrepo.ClickHouseStore, path string, l *applogger.Logger) error {
	n, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("clickhouse seed: %w", err)
	}
	if n > 0 {
		return nil
	}
	items, err := internalrepo.LoadSeedFile(path)
	if err != nil {
		return fmt.Errorf("clickhouse seed: %w", err)
	}
	if err := store.InsertBatch(ctx, items); err != nil {
		return fmt.Errorf("clickhouse seed: %w", err)
	}
	l.Info("clickhouse seeded", applogger.String("seed_file", path), applogger.Int("instruments", len(items)))
	return nil
}

// ProvideCacheLayer creates the in-process symbol cache.
func ProvideCacheLayer(cfg *config.Config, l *applogger.Logger, m repository.Metrics) *symbolcache.Layer {
	return symbolcache.New(symbolcache.Config{
		FrequentCapacity: cfg.Cache.FrequentCapacity,
		FrequentPolicy:   cfg.Cache.FrequentPolicy,
		SymbolCapacity:   cfg.Cache.SymbolCapacity,
		SymbolTTL:        cfg.Cache.SymbolTTL,
		SearchCapacity:   cfg.Cache.SearchCapacity,
		SearchTTL:        cfg.Cache.SearchTTL,
	}, symbolcache.WithLogger(l), symbolcache.WithMetrics(m))
}

// ProvideSymbolService creates the search orchestrator.
func ProvideSymbolService(
	cfg *config.Config,
	store repository.InstrumentStore,
	cache *symbolcache.Layer,
	l *applogger.Logger,
	m repository.Metrics,
) *usecase.SymbolService {
	warm := usecase.DefaultWarmConfig()
	if len(cfg.Warm.Underlyings) > 0 {
		warm.Underlyings = cfg.Warm.Underlyings
	}
	warm.TopEquities = cfg.Warm.TopEquities
	warm.Concurrency = cfg.Warm.Concurrency

	return usecase.NewSymbolService(store, cache,
		usecase.WithLogger(l),
		usecase.WithMetrics(m),
		usecase.WithWarmConfig(warm),
	)
}

// ProvideBroadcaster creates the invalidation fan-out for the configured transport.
func ProvideBroadcaster(cfg *config.Config, id InstanceID, m repository.Metrics, l *applogger.Logger) (repository.Broadcaster, func(), error) {
	switch cfg.Invalidation.Transport {
	case config.TransportKafka:
		return provideKafkaBroadcaster(cfg, id, m, l)
	case config.TransportRedis:
		rc, err := pkgcache.NewRedisClient(cfg.Redis.Options()...)
		if err != nil {
			return nil, nil, fmt.Errorf("redis client: %w", err)
		}
		b := internalrepo.NewRedisBroadcaster(rc, cfg.Invalidation.Channel, string(id), l)
		cleanup := func() {
			if err := rc.Close(); err != nil {
				l.Warn("redis close error", applogger.Error(err))
			}
		}
		l.Info("redis invalidation ready", applogger.String("channel", cfg.Invalidation.Channel))
		return b, cleanup, nil
	default:
		return internalrepo.NopBroadcaster{}, func() {}, nil
	}
}

func provideKafkaBroadcaster(cfg *config.Config, id InstanceID, m repository.Metrics, l *applogger.Logger) (repository.Broadcaster, func(), error) {
	if !cfg.Metrics.Enabled {
		// Keep client metrics off the default registry when nothing scrapes it.
		reg := prometheus.NewRegistry()
		pkgkafka.SetProducerMetricsRegisterer(reg)
		pkgkafka.SetConsumerMetricsRegisterer(reg)
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithLinger(cfg.Kafka.Linger),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}

	// Every instance must see every event, so each one gets its own group.
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID+"-"+string(id)),
		pkgkafka.WithConsumerStartOffset(cfg.Kafka.Consumer.StartOffset),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		_ = producer.Close()
		return nil, nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(internalrepo.InvalidationHook(m, l))

	b := internalrepo.NewKafkaBroadcaster(producer, consumer, cfg.Kafka.Topic, string(id), l)
	cleanup := func() {
		if err := b.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	l.Info("kafka invalidation ready",
		applogger.Strings("brokers", cfg.Kafka.Brokers),
		applogger.String("topic", cfg.Kafka.Topic),
	)
	return b, cleanup, nil
}

// ProvideInvalidationHandler creates the invalidation use case.
func ProvideInvalidationHandler(
	svc *usecase.SymbolService,
	bus repository.Broadcaster,
	id InstanceID,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.InvalidationHandler {
	return usecase.NewInvalidationHandler(svc, bus, string(id), m, l)
}

// ProvideRateLimiter returns nil when rate limiting is disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

// ProvideSymbolsHandler creates the HTTP handler.
func ProvideSymbolsHandler(
	l *applogger.Logger,
	svc *usecase.SymbolService,
	inv *usecase.InvalidationHandler,
	store repository.InstrumentStore,
	limiter *ratelimit.Limiter,
) *api.SymbolsHandler {
	h := api.NewSymbolsHandler(l, svc, inv, store)
	if limiter != nil {
		h.UseSearchMiddleware(ratelimit.Middleware(limiter))
	}
	return h
}

// ProvideHTTPServer creates the echo server.
func ProvideHTTPServer(cfg *config.Config, h *api.SymbolsHandler, l *applogger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(h,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l),
		xhttp.WithMetrics(metricsPath, nil, nil),
	)
}

// ProvideScheduler registers the periodic warm, stats and limiter sweep jobs.
func ProvideScheduler(
	cfg *config.Config,
	svc *usecase.SymbolService,
	limiter *ratelimit.Limiter,
	l *applogger.Logger,
) (*scheduler.Scheduler, error) {
	s := scheduler.New(l)

	if cfg.Warm.Enabled && cfg.Warm.Schedule != "" {
		if err := s.AddJob(cfg.Warm.Schedule, server.WarmJob(svc, l)); err != nil {
			return nil, err
		}
	}
	if cfg.Cache.StatsInterval > 0 {
		if err := s.AddJob("@every "+cfg.Cache.StatsInterval.String(), server.StatsJob(svc, l)); err != nil {
			return nil, err
		}
	}
	if limiter != nil {
		sweep := scheduler.JobFunc{JobName: "ratelimit_sweep", Fn: func(context.Context) error {
			if n := limiter.Sweep(limiterIdle); n > 0 {
				l.Debug("rate limiter swept", applogger.Int("buckets", n))
			}
			return nil
		}}
		if err := s.AddJob("@every 1m", sweep); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	sched *scheduler.Scheduler,
	svc *usecase.SymbolService,
	inv *usecase.InvalidationHandler,
) *server.App {
	return server.New(cfg, l, srv, sched, svc, inv)
}
