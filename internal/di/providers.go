package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"SegPull/internal/domain/repository"
	"SegPull/internal/handler/api"
	internalrepo "SegPull/internal/repository"
	"SegPull/internal/service/ibisworld"
	"SegPull/internal/services/segments"
	"SegPull/internal/usecase"
	"SegPull/pkg/cache"
	pkgch "SegPull/pkg/clickhouse"
	"SegPull/pkg/config"
	xhttp "SegPull/pkg/http"
	pkgkafka "SegPull/pkg/kafka"
	applogger "SegPull/pkg/logger"
	"SegPull/pkg/metrics"
	"SegPull/pkg/server"
)

// ProvideLogger builds the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the Prometheus registry shared by all collectors.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.NewWithRegistry(reg)
}

// ProvideCacheStore opens the configured cache backend. The cleanup closes it.
func ProvideCacheStore(cfg *config.Config, l *applogger.Logger) (cache.Store, func(), error) {
	if !cfg.Cache.Enabled {
		return cache.Nop{}, func() {}, nil
	}

	var (
		store cache.Store
		err   error
	)
	switch cfg.Cache.Backend {
	case cache.BackendRedis:
		store, err = cache.NewRedisStore(
			cache.WithRedisAddr(cfg.Cache.Redis.Addr),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
	case cache.BackendSQLite:
		store, err = cache.NewSQLiteStore(
			cache.WithSQLitePath(cfg.Cache.SQLite.Path),
			cache.WithSQLiteTable(cfg.Cache.SQLite.Table),
		)
	case cache.BackendMemory:
		store = cache.NewMemoryStore()
	default:
		store, err = cache.NewFileStore(cache.WithDir(cfg.Cache.Dir))
	}
	if err != nil {
		return nil, nil, fmt.Errorf("cache %s: %w", cfg.Cache.Backend, err)
	}
	l.Debug("cache ready", applogger.String("backend", cfg.Cache.Backend))

	cleanup := func() {
		if err := store.Close(); err != nil {
			l.Warn("cache close error", applogger.Error(err))
		}
	}
	return store, cleanup, nil
}

// ProvideReportClient creates the upstream API client.
func ProvideReportClient(cfg *config.Config, store cache.Store, m repository.Metrics, l *applogger.Logger) *ibisworld.Client {
	ic := cfg.IBISWorld
	return ibisworld.New(ibisworld.Config{
		BaseURL:            ic.BaseURL,
		Token:              ic.Token,
		ClientID:           ic.ClientID,
		ClientSecret:       ic.ClientSecret,
		TokenURL:           ic.TokenURL,
		Country:            ic.Country,
		Language:           ic.Language,
		RateLimitPerSecond: ic.RateLimitPerSecond,
		Timeout:            ic.Timeout,
		TokenTimeout:       ic.TokenTimeout,
		MaxAttempts:        ic.MaxAttempts,
		BackoffMin:         ic.BackoffMin,
		BackoffMax:         ic.BackoffMax,
	},
		ibisworld.WithCache(store),
		ibisworld.WithMetrics(m),
		ibisworld.WithLogger(l.With(applogger.String("component", "ibisworld"))),
	)
}

// ProvideReportFetcher exposes the client through its domain interface.
func ProvideReportFetcher(c *ibisworld.Client) repository.ReportFetcher {
	return c
}

// ProvideNormalizer creates the datapoint normalizer with default rules.
func ProvideNormalizer() *segments.Normalizer {
	return segments.NewNormalizer()
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithTopic(cfg.Kafka.Topic),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideClickHouseClient creates a ClickHouse client and its database.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(4, 2),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideRecordSinks opens the sinks listed in export.sinks. Sinks already
// opened are closed if a later one fails.
func ProvideRecordSinks(cfg *config.Config, reg *prometheus.Registry, l *applogger.Logger) ([]repository.RecordSink, error) {
	var sinks []repository.RecordSink
	closeAll := func() {
		for _, s := range sinks {
			_ = s.Close()
		}
	}

	for _, name := range cfg.Export.Sinks {
		switch name {
		case "kafka":
			p, err := ProvideKafkaProducer(cfg, reg)
			if err != nil {
				closeAll()
				return nil, err
			}
			sinks = append(sinks, internalrepo.NewKafkaRecordPublisher(p))
		case "clickhouse":
			ch, err := ProvideClickHouseClient(cfg)
			if err != nil {
				closeAll()
				return nil, err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			s, err := internalrepo.NewClickHouseRecordStore(ctx, ch, cfg.ClickHouse.Table)
			cancel()
			if err != nil {
				_ = ch.Close()
				closeAll()
				return nil, fmt.Errorf("clickhouse schema: %w", err)
			}
			sinks = append(sinks, s)
		default:
			closeAll()
			return nil, fmt.Errorf("unknown sink %q", name)
		}
		l.Info("record sink enabled", applogger.String("sink", name))
	}
	return sinks, nil
}

// ProvideSegmentExporter creates the bulk export use case.
func ProvideSegmentExporter(
	fetcher repository.ReportFetcher,
	normalizer *segments.Normalizer,
	sinks []repository.RecordSink,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.SegmentExporter {
	return usecase.NewSegmentExporter(fetcher, normalizer, sinks, m, l.With(applogger.String("component", "exporter")))
}

// ProvideHTTPHandler creates the API handler.
func ProvideHTTPHandler(
	l *applogger.Logger,
	fetcher repository.ReportFetcher,
	normalizer *segments.Normalizer,
	exporter *usecase.SegmentExporter,
) xhttp.Handler {
	return api.NewSegmentsEchoHandler(l, fetcher, normalizer, exporter)
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	reg *prometheus.Registry,
	client *ibisworld.Client,
	exporter *usecase.SegmentExporter,
	handler xhttp.Handler,
	sinks []repository.RecordSink,
) *server.App {
	return server.New(cfg, l, reg, client, exporter, handler, sinks)
}
