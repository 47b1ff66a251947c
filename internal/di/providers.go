package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"CascadeWatch/internal/domain/repository"
	"CascadeWatch/internal/handler/api"
	"CascadeWatch/internal/handler/ws"
	mid "CascadeWatch/internal/middleware"
	internalrepo "CascadeWatch/internal/repository"
	svccache "CascadeWatch/internal/service/cache"
	apimetrics "CascadeWatch/internal/service/metrics"
	"CascadeWatch/internal/service/ratelimit"
	"CascadeWatch/internal/service/tickfeed"
	"CascadeWatch/internal/usecase"
	"CascadeWatch/pkg/cache"
	pkgch "CascadeWatch/pkg/clickhouse"
	"CascadeWatch/pkg/config"
	xhttp "CascadeWatch/pkg/http"
	pkgkafka "CascadeWatch/pkg/kafka"
	applogger "CascadeWatch/pkg/logger"
	"CascadeWatch/pkg/metrics"
	"CascadeWatch/pkg/queue"
	"CascadeWatch/pkg/server"
)

// Optional infrastructure providers return a nil value (and for interface
// results an untyped nil) when the component is disabled in config.

// ProvidePromRegistry creates the registry shared by every collector and /metrics.
func ProvidePromRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	pkgkafka.SetMetricsRegisterer(reg)
	apimetrics.Register(reg)
	return reg
}

// ProvideRedisCache connects to Redis when enabled.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rc, nil
}

// ProvideLogger builds the app logger and, when enabled, attaches the error
// log collector publishing through a producer-only Redis queue.
func ProvideLogger(cfg *config.Config, rc *cache.RedisCache) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	if cfg.Log.Collect.Enabled && rc != nil {
		pub := queue.NewRedisPublisher(l, rc.Client(), queue.WithKeyPrefix(cfg.Redis.Prefix+":logs"))
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Log.Collect.Interval,
			CountThreshold: cfg.Log.Collect.Threshold,
			Topic:          cfg.Log.Collect.Topic,
			IncludeWarn:    cfg.Log.Collect.IncludeWarn,
			Publisher:      pub,
		})
	}
	return l, nil
}

func ProvideRecorder(reg *prometheus.Registry) *metrics.Recorder {
	return metrics.New(reg)
}

func ProvideMetrics(r *metrics.Recorder) repository.Metrics {
	return r
}

// ProvideStatusCache picks the backend for status snapshots and auto flags:
// Redis (optionally behind an in-process layer) or a process-local cache.
func ProvideStatusCache(cfg *config.Config, rc *cache.RedisCache) cache.Service {
	if rc == nil {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MaxMemItems))
	}
	if cfg.Cache.Layered {
		return cache.NewLayeredCache(rc,
			cache.WithLayeredMemorySize(cfg.Cache.MaxMemItems),
			cache.WithLayeredMemoryTTL(cfg.Cache.MemoryTTL),
		)
	}
	return rc
}

func ProvideStatusStore(cfg *config.Config, c cache.Service) repository.StatusStore {
	return internalrepo.NewCacheStatusStore(c, cfg.Cascade.SnapshotTTL)
}

// ProvideClickHouseClient connects to ClickHouse when enabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
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
	return client, nil
}

// ProvideTransitionStore creates the history table and returns the store.
func ProvideTransitionStore(ch *pkgch.Client, l *applogger.Logger) (repository.TransitionStore, error) {
	if ch == nil {
		return nil, nil
	}
	store := internalrepo.NewClickHouseTransitionStore(ch, internalrepo.DefaultTransitionsTable, l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvidePersistQueue creates the Redis queue that moves transitions into
// the history store. It needs both Redis and a store.
func ProvidePersistQueue(cfg *config.Config, rc *cache.RedisCache, store repository.TransitionStore, l *applogger.Logger) *queue.RedisQueue {
	if rc == nil || store == nil {
		return nil
	}
	q := queue.NewRedisQueue(l, &queue.QueueConfig{
		Workers:    cfg.Persist.Workers,
		RetryLimit: cfg.Persist.MaxRetries,
		RetryDelay: cfg.Persist.RetryDelay,
		JobTimeout: cfg.Persist.JobTimeout,
	}, rc.Client(), queue.ModeProducerConsumer, queue.WithKeyPrefix(cfg.Persist.QueueName))

	q.RegisterJob(internalrepo.NewTransitionPersistJob(store, internalrepo.BreakerSettings{
		OpenFor:   cfg.Persist.BreakerOpen,
		TripAfter: cfg.Persist.BreakerTrip,
	}, l))
	return q
}

func ProvideTransitionQueue(q *queue.RedisQueue) repository.TransitionQueue {
	if q == nil {
		return nil
	}
	return internalrepo.NewRedisTransitionQueue(q)
}

// ProvideKafkaProducer creates the producer for status events when brokers are configured.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.StatusTopic == "" {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

func ProvideStatusPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.StatusPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaStatusPublisher(producer, cfg.Kafka.StatusTopic)
}

// ProvideRegistry creates the detector registry and watches the configured symbols.
func ProvideRegistry(cfg *config.Config) *usecase.Registry {
	r := usecase.NewRegistry(
		usecase.WithAutoWatch(cfg.Cascade.AutoWatch),
		usecase.WithDefaultAutoEnabled(cfg.Cascade.AutoEnabledDefault),
	)
	for _, s := range cfg.Cascade.Symbols {
		r.Watch(s)
	}
	return r
}

func ProvideHub(l *applogger.Logger, r *usecase.Registry) *ws.Hub {
	return ws.NewHub(l, r)
}

func ProvideStatusBroadcaster(cfg *config.Config, hub *ws.Hub, store repository.StatusStore, m repository.Metrics, l *applogger.Logger) *usecase.StatusBroadcaster {
	return usecase.NewStatusBroadcaster(hub, store, m, l, cfg.Cascade.BroadcastInterval)
}

func ProvideTickProcessor(
	r *usecase.Registry,
	pub repository.StatusPublisher,
	q repository.TransitionQueue,
	b *usecase.StatusBroadcaster,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.TickProcessor {
	return usecase.NewTickProcessor(r, pub, q, b, m, l)
}

func ProvideTickPipeline(cfg *config.Config, proc *usecase.TickProcessor, m repository.Metrics) *mid.TickPipeline {
	return mid.NewTickPipeline(proc, m, mid.WithMaxTicksPerSecond(cfg.Cascade.MaxTicksPerSecond))
}

// ProvideKafkaConsumer creates the tick consumer when the source is kafka.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if cfg.Source != config.SourceKafka {
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

func ProvideKafkaTicksHandler(cfg *config.Config, pipe *mid.TickPipeline, m repository.Metrics, l *applogger.Logger) *usecase.KafkaTicksHandler {
	return usecase.NewKafkaTicksHandler(cfg.Kafka.TicksTopic, pipe, m, l)
}

// ProvideTickCollector creates the websocket feed collector when the source is websocket.
func ProvideTickCollector(cfg *config.Config, pipe *mid.TickPipeline, r *usecase.Registry, m repository.Metrics, l *applogger.Logger) *usecase.TickCollector {
	if cfg.Source != config.SourceWebSocket {
		return nil
	}
	stream := tickfeed.New(cfg.Feed.URL, cfg.Feed.Token, cfg.Feed.ReconnectDelay, cfg.Feed.PingInterval)
	return usecase.NewTickCollector(stream, pipe, r, m, l)
}

func ProvideControl(r *usecase.Registry, store repository.StatusStore, l *applogger.Logger) *usecase.ControlUseCase {
	return usecase.NewControlUseCase(r, store, l)
}

func ProvideTradeGate(r *usecase.Registry) *usecase.TradeGate {
	return usecase.NewTradeGate(r)
}

func ProvideTransitionsUseCase(store repository.TransitionStore) *usecase.TransitionsUseCase {
	return usecase.NewTransitionsUseCase(store)
}

// ProvideHistoryCache caches rendered history responses in Redis when
// available, in process otherwise.
func ProvideHistoryCache(cfg *config.Config, rc *cache.RedisCache) svccache.BytesCache {
	if rc != nil {
		return svccache.NewRedisCache(rc.Client(), cfg.Redis.Prefix)
	}
	return svccache.NewTTLCache(cfg.Cache.MaxMemItems)
}

// ProvideHTTPHandler composes the API handlers and the websocket hub.
func ProvideHTTPHandler(
	cfg *config.Config,
	l *applogger.Logger,
	r *usecase.Registry,
	gate *usecase.TradeGate,
	control *usecase.ControlUseCase,
	transitions *usecase.TransitionsUseCase,
	history svccache.BytesCache,
	hub *ws.Hub,
) xhttp.Handler {
	controlLimiter := ratelimit.New(cfg.RateLimit.ControlRPS, cfg.RateLimit.ControlBurst)
	historyLimiter := ratelimit.New(cfg.RateLimit.HistoryRPS, cfg.RateLimit.HistoryBurst)
	return xhttp.Handlers{
		api.NewCascadeEchoHandler(l, r, gate, control, controlLimiter),
		api.NewTransitionsEchoHandler(l, transitions, history, cfg.Cache.HistoryTTL, historyLimiter),
		hub,
	}
}

func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, l *applogger.Logger, reg *prometheus.Registry) *xhttp.Server {
	return xhttp.NewServer(h, l,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowRequest(cfg.Server.SlowRequest),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithRegistry(reg),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	r *usecase.Registry,
	control *usecase.ControlUseCase,
	proc *usecase.TickProcessor,
	pipe *mid.TickPipeline,
	b *usecase.StatusBroadcaster,
	hub *ws.Hub,
	recorder *metrics.Recorder,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaTicksHandler,
	collector *usecase.TickCollector,
	pq *queue.RedisQueue,
	rc *cache.RedisCache,
	ch *pkgch.Client,
) *server.App {
	return server.New(cfg, l, server.Components{
		Registry:     r,
		Control:      control,
		Processor:    proc,
		Pipeline:     pipe,
		Broadcaster:  b,
		Hub:          hub,
		Recorder:     recorder,
		HTTPServer:   srv,
		Consumer:     consumer,
		TicksHandler: kh,
		Collector:    collector,
		PersistQueue: pq,
		Redis:        rc,
		ClickHouse:   ch,
	})
}
