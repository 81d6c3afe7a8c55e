package di

import (
	"context"
	"fmt"
	"time"

	"CandlePull/internal/domain/repository"
	"CandlePull/internal/handler/api"
	internalrepo "CandlePull/internal/repository"
	"CandlePull/internal/service/tradovate"
	"CandlePull/internal/usecase"
	pkgcache "CandlePull/pkg/cache"
	pkgch "CandlePull/pkg/clickhouse"
	"CandlePull/pkg/config"
	xhttp "CandlePull/pkg/http"
	pkgkafka "CandlePull/pkg/kafka"
	applogger "CandlePull/pkg/logger"
	"CandlePull/pkg/metrics"
	"CandlePull/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: "candlepull",
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder on the default registry.
func ProvideMetrics() repository.Metrics {
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideRedisCache connects to the shared token cache.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	c, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisTLS(cfg.Redis.TLS),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
		pkgcache.WithRedisPool(10, 2, 5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

// ProvideTokenStore reads and writes broker tokens in the cache.
func ProvideTokenStore(c pkgcache.Service) repository.TokenStore {
	return internalrepo.NewTokenStore(c)
}

// ProvideFetchLog remembers scheduler fetch times in the cache.
func ProvideFetchLog(c pkgcache.Service) repository.FetchLog {
	return internalrepo.NewCacheFetchLog(c)
}

// ProvideLocker uses the cache as the scheduler lock.
func ProvideLocker(c pkgcache.Service) repository.Locker {
	return c
}

// ProvideHTTPClient creates the outbound client for renewal and RPC calls.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(xhttp.WithTimeout(cfg.Tradovate.HTTPTimeout))
}

// ProvideTokenRenewer creates the broker renewal client.
func ProvideTokenRenewer(cfg *config.Config, client *xhttp.Client) repository.TokenRenewer {
	return tradovate.NewAuthClient(cfg.Tradovate.RenewURL, client)
}

// ProvideMarketData creates the market-data WebSocket client.
func ProvideMarketData(cfg *config.Config, l *applogger.Logger) repository.MarketData {
	return tradovate.NewClient(cfg.Tradovate.MarketDataURL, l,
		tradovate.WithHeartbeat(cfg.Tradovate.HeartbeatInterval),
		tradovate.WithDefaultTimeout(cfg.Tradovate.Timeout),
	)
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if cfg.ClickHouse.Database != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.InitSchema(ctx, []string{
			"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
		}); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}
	}
	return client, nil
}

// ProvideCandleWriter picks the storage backend named by storage.type.
func ProvideCandleWriter(cfg *config.Config, client *xhttp.Client, l *applogger.Logger) (repository.CandleWriter, error) {
	switch cfg.Storage.Type {
	case "supabase":
		c := client
		if cfg.Storage.Supabase.Timeout > 0 {
			c = xhttp.NewClient(xhttp.WithTimeout(cfg.Storage.Supabase.Timeout))
		}
		return internalrepo.NewRPCCandleWriter(cfg.Storage.Supabase.URL, cfg.Storage.Supabase.ServiceRoleKey, c), nil
	case "clickhouse":
		ch, err := ProvideClickHouseClient(cfg)
		if err != nil {
			return nil, err
		}
		return internalrepo.NewCHCandleWriter(ch, l), nil
	case "sqlite":
		w, err := internalrepo.NewSQLiteCandleWriter(cfg.Storage.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite candle store: %w", err)
		}
		return w, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithDelivery(cfg.Kafka.RequiredAcks, cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithKeyOrdering(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideCandlePublisher publishes stored candles, or does nothing without Kafka.
func ProvideCandlePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.CandlePublisher {
	if producer == nil || cfg.Kafka.CandlesTopic == "" {
		return internalrepo.NopCandlePublisher{}
	}
	return internalrepo.NewKafkaCandlePublisher(producer, cfg.Kafka.CandlesTopic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML, or nil
// when there is no jobs topic to read.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.JobsTopic == "" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideTokenRefresher creates the token refresh use case.
func ProvideTokenRefresher(store repository.TokenStore, renewer repository.TokenRenewer, m repository.Metrics, cfg *config.Config, l *applogger.Logger) *usecase.TokenRefresher {
	return usecase.NewTokenRefresher(store, renewer, m, cfg.Tokens.Accounts, cfg.Tokens.TTL, l)
}

// ProvideCandlePersister creates the persistence use case.
func ProvideCandlePersister(w repository.CandleWriter, pub repository.CandlePublisher, m repository.Metrics, l *applogger.Logger) *usecase.CandlePersister {
	return usecase.NewCandlePersister(w, pub, m, l)
}

// ProvideCandleFetcher creates the request orchestrator.
func ProvideCandleFetcher(
	refresher *usecase.TokenRefresher,
	market repository.MarketData,
	persister *usecase.CandlePersister,
	m repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.CandleFetcher {
	return usecase.NewCandleFetcher(refresher, market, persister, m, usecase.FetcherConfig{
		DefaultSymbol:     cfg.Tradovate.DefaultSymbol,
		DefaultBars:       cfg.Tradovate.DefaultBars,
		Timeout:           cfg.Tradovate.Timeout,
		HistoricalTimeout: cfg.Tradovate.HistoricalTimeout,
	}, l)
}

// ProvideScheduler creates the scheduler use case.
func ProvideScheduler(
	fetcher *usecase.CandleFetcher,
	fetchLog repository.FetchLog,
	locker repository.Locker,
	m repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.Scheduler {
	schedules := make([]usecase.Schedule, 0, len(cfg.Scheduler.Schedules))
	for _, s := range cfg.Scheduler.Schedules {
		schedules = append(schedules, usecase.Schedule{
			Timeframe: repository.Timeframe(s.Timeframe),
			Interval:  s.Interval,
			Name:      s.Name,
		})
	}
	symbol := cfg.Scheduler.Symbol
	if symbol == "" {
		symbol = cfg.Tradovate.DefaultSymbol
	}
	return usecase.NewScheduler(fetcher, fetchLog, m, l,
		usecase.WithSchedules(schedules),
		usecase.WithSchedulerSymbol(symbol),
		usecase.WithTick(cfg.Scheduler.Interval),
		usecase.WithLocker(locker),
	)
}

// ProvideFetchJobsHandler handles fetch requests from the jobs topic.
func ProvideFetchJobsHandler(fetcher *usecase.CandleFetcher, cfg *config.Config, l *applogger.Logger) *usecase.FetchJobsHandler {
	return usecase.NewFetchJobsHandler(cfg.Kafka.JobsTopic, fetcher, l)
}

// ProvideHTTPHandler registers the candle functions.
func ProvideHTTPHandler(
	l *applogger.Logger,
	fetcher *usecase.CandleFetcher,
	refresher *usecase.TokenRefresher,
	scheduler *usecase.Scheduler,
	cfg *config.Config,
) xhttp.Handler {
	return api.NewCandlesEchoHandler(l, fetcher, refresher, scheduler, api.RateLimit{
		Capacity:     cfg.Server.RateLimit.Capacity,
		RefillPerSec: cfg.Server.RateLimit.RefillPerSec,
	})
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	scheduler *usecase.Scheduler,
	consumer *pkgkafka.Consumer,
	jobs *usecase.FetchJobsHandler,
	producer *pkgkafka.Producer,
	writer repository.CandleWriter,
	publisher repository.CandlePublisher,
	cache *pkgcache.RedisCache,
) *server.App {
	if cfg.Log.Collector.Enabled && producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Log.Collector.Interval,
			CountThreshold: cfg.Log.Collector.Threshold,
			Topic:          cfg.Log.Collector.Topic,
			Publisher:      producer,
		})
	}
	var jh pkgkafka.MessageHandler
	if consumer != nil {
		jh = jobs
	}
	return server.New(cfg, l, handler, scheduler, consumer, jh, writer, publisher, cache)
}
