package di

import (
	"context"
	"fmt"
	"time"

	"FinValue/internal/domain/repository"
	"FinValue/internal/handler/api"
	"FinValue/internal/middleware"
	internalrepo "FinValue/internal/repository"
	"FinValue/internal/service/finnhub"
	"FinValue/internal/service/morningstar"
	"FinValue/internal/service/profile"
	"FinValue/internal/service/ratelimit"
	"FinValue/internal/usecase"
	"FinValue/pkg/cache"
	"FinValue/pkg/config"
	xhttp "FinValue/pkg/http"
	pkgkafka "FinValue/pkg/kafka"
	applogger "FinValue/pkg/logger"
	"FinValue/pkg/metrics"
	"FinValue/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
)

// memoryCleanupInterval is how often expired tables are swept from the memory cache.
const memoryCleanupInterval = time.Minute

// layeredL1TTL bounds how long a table lives in process memory in front of Redis.
const layeredL1TTL = 15 * time.Minute

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideCache creates the key-ratio cache selected by cache.type. It
// returns nil for "none".
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, func(), error) {
	var (
		svc cache.Service
		err error
	)
	switch cfg.Cache.Type {
	case "none":
		return nil, func() {}, nil
	case "memory":
		svc = cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize),
			cache.WithMemoryDefaultTTL(cfg.Cache.TTL),
			cache.WithMemoryCleanup(memoryCleanupInterval),
		)
	case "redis", "layered":
		var rc *cache.RedisCache
		rc, err = cache.NewRedisCache(
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
			cache.WithRedisPool(cfg.Cache.Redis.PoolSize, cfg.Cache.Redis.MinIdle, 30*time.Second),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		svc = rc
		if cfg.Cache.Type == "layered" {
			svc = cache.NewLayeredCache(rc,
				cache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize),
				cache.WithLayeredMemoryTTL(layeredL1TTL),
			)
		}
	default:
		return nil, nil, fmt.Errorf("unknown cache type %q", cfg.Cache.Type)
	}

	cleanup := func() {
		if err := svc.Close(); err != nil {
			l.Warn("cache close error", applogger.Error(err))
		}
	}
	return svc, cleanup, nil
}

// ProvideFundamentalsSource creates the key-ratio client, fronted by the
// cache when one is configured.
func ProvideFundamentalsSource(cfg *config.Config, c cache.Service, l *applogger.Logger, m repository.Metrics) repository.FundamentalsSource {
	hc := xhttp.NewClient(
		xhttp.WithTimeout(cfg.Source.Timeout),
		xhttp.WithRetries(cfg.Source.MaxRetries, cfg.Source.Backoff),
		xhttp.WithUserAgent(cfg.Source.UserAgent),
	)
	src := morningstar.New(hc, cfg.Source.BaseURL,
		morningstar.WithExchanges(cfg.Source.Exchanges),
		morningstar.WithLocale(cfg.Source.Region, cfg.Source.Culture),
		morningstar.WithLogger(l),
		morningstar.WithMetrics(m),
	)
	if c == nil {
		return src
	}
	return internalrepo.NewCachedFundamentals(src, c, cfg.Cache.TTL, l, m)
}

// ProvideProfileSource creates the company snapshot scraper, or nil when disabled.
func ProvideProfileSource(cfg *config.Config, l *applogger.Logger, m repository.Metrics) repository.ProfileSource {
	if !cfg.Profile.Enabled {
		return nil
	}
	hc := xhttp.NewClient(
		xhttp.WithTimeout(cfg.Profile.Timeout),
		xhttp.WithUserAgent(cfg.Source.UserAgent),
	)
	return profile.New(hc, cfg.Profile.BaseURL, l, m)
}

// ProvideQuoteSource creates the Finnhub quote client, or nil without an API key.
func ProvideQuoteSource(cfg *config.Config, l *applogger.Logger, m repository.Metrics) repository.QuoteSource {
	if !cfg.Finnhub.Enabled || cfg.Finnhub.APIKey == "" {
		return nil
	}
	return finnhub.New(cfg.Finnhub.APIKey, cfg.Finnhub.WebSocketURL, cfg.Finnhub.QuoteTimeout, l, m)
}

// ProvideReportPublisher creates the buffered Kafka report publisher, or a
// no-op publisher when Kafka is disabled.
func ProvideReportPublisher(cfg *config.Config, l *applogger.Logger, m repository.Metrics) (repository.ReportPublisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NoopReportPublisher{}, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithAutoCreateTopic(cfg.Kafka.Producer.AutoCreateTopic),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	pub := middleware.NewPublishPipeline(
		internalrepo.NewKafkaReportPublisher(producer, cfg.Kafka.Topic),
		m,
		middleware.WithBufferSize(cfg.Kafka.PublishBuffer),
		middleware.WithMinInterval(cfg.Kafka.PublishMinInterval),
		middleware.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
	)
	pub.Start(context.Background())
	cleanup := func() {
		if err := pub.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	return pub, cleanup, nil
}

// ProvideValuationDefaults maps the valuation config section.
func ProvideValuationDefaults(cfg *config.Config) usecase.ValuationDefaults {
	v := cfg.Valuation
	return usecase.ValuationDefaults{
		Rate1:          v.Rate1,
		Rate2:          v.Rate2,
		Discount:       v.Discount,
		RiskFreeRate:   v.RiskFreeRate,
		Growth1:        v.Growth1,
		Period1:        v.Period1,
		Growth2:        v.Growth2,
		Period2:        v.Period2,
		TerminalGrowth: v.TerminalGrowth,
	}
}

// ProvideValuationUseCase creates the valuation use case.
func ProvideValuationUseCase(
	fundamentals repository.FundamentalsSource,
	profiles repository.ProfileSource,
	quotes repository.QuoteSource,
	pub repository.ReportPublisher,
	m repository.Metrics,
	l *applogger.Logger,
	defaults usecase.ValuationDefaults,
) *usecase.ValuationUseCase {
	return usecase.NewValuationUseCase(fundamentals, profiles, quotes, pub, m, l, defaults)
}

// ProvideFundamentalsUseCase creates the series use case.
func ProvideFundamentalsUseCase(fundamentals repository.FundamentalsSource) *usecase.FundamentalsUseCase {
	return usecase.NewFundamentalsUseCase(fundamentals)
}

// ProvideRateLimiter creates the per-client request limiter.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
}

// ProvideHandlers collects every HTTP handler.
func ProvideHandlers(
	l *applogger.Logger,
	vuc *usecase.ValuationUseCase,
	fuc *usecase.FundamentalsUseCase,
	rl *ratelimit.Limiter,
) []xhttp.Handler {
	return []xhttp.Handler{
		api.NewValuationEchoHandler(l, vuc, rl),
		api.NewFundamentalsEchoHandler(l, fuc, rl),
	}
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, handlers []xhttp.Handler, l *applogger.Logger) *xhttp.Server {
	return xhttp.NewServer(handlers,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORSOrigins),
		xhttp.WithMetrics(cfg.Metrics.Enabled, cfg.Metrics.Path),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, l *applogger.Logger, srv *xhttp.Server, rl *ratelimit.Limiter) *server.App {
	return server.New(cfg, l, srv, rl)
}
