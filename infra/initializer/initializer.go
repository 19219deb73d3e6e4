package initializer

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/amirasaad/fxconvert/infra"
	"github.com/amirasaad/fxconvert/infra/cache"
	infra_eventbus "github.com/amirasaad/fxconvert/infra/eventbus"
	"github.com/amirasaad/fxconvert/infra/network"
	infra_provider "github.com/amirasaad/fxconvert/infra/provider"
	infra_repository "github.com/amirasaad/fxconvert/infra/repository"
	"github.com/amirasaad/fxconvert/pkg/app"
	"github.com/amirasaad/fxconvert/pkg/config"
	"github.com/amirasaad/fxconvert/pkg/eventbus"
	"github.com/amirasaad/fxconvert/pkg/provider"
	"github.com/amirasaad/fxconvert/pkg/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// InitializeDependencies initializes all the application dependencies.
// On failure every resource opened so far is released.
func InitializeDependencies(cfg *config.App) (
	deps *app.Deps,
	err error,
) {
	return initialize(cfg, SetupLogger(cfg.Log))
}

func initialize(cfg *config.App, logger *slog.Logger) (deps *app.Deps, err error) {
	deps = &app.Deps{
		Origin: uuid.New(),
		Logger: logger,
	}
	defer func() {
		if err != nil {
			closeAll(deps.Closers)
			deps = nil
		}
	}()

	deps.RateSource, err = NewRateSource(cfg.ExchangeRate, logger)
	if err != nil {
		return deps, err
	}
	deps.Connectivity = newConnectivity(cfg.Connectivity, logger)

	// Initialize database
	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return deps, fmt.Errorf("failed to initialize database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return deps, err
	}
	deps.Closers = append(deps.Closers, sqlDB)
	deps.RateStore = infra_repository.NewRateRepository(db, logger)

	var redisClient *redis.Client
	getRedis := func() (*redis.Client, error) {
		if redisClient != nil {
			return redisClient, nil
		}
		c, err := NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, err
		}
		redisClient = c
		deps.Closers = append(deps.Closers, c)
		return c, nil
	}

	// Initialize timestamp store
	switch cfg.TimestampStore.Driver {
	case "redis":
		client, err := getRedis()
		if err != nil {
			return deps, fmt.Errorf("failed to create Redis timestamp store: %w", err)
		}
		deps.Timestamps = cache.NewRedisTimestampStore(client, cfg.Redis.KeyPrefix, logger)
	case "memory":
		deps.Timestamps = cache.NewMemoryTimestampStore()
	default:
		deps.Timestamps = infra_repository.NewTimestampRepository(db)
	}

	// Initialize event bus
	var bus eventbus.Bus
	group := "fxconvert-" + deps.Origin.String()
	switch cfg.EventBus.Driver {
	case "redis":
		client, err := getRedis()
		if err != nil {
			return deps, fmt.Errorf("failed to create Redis event bus: %w", err)
		}
		rb, err := infra_eventbus.NewWithRedis(client, cfg.Redis.KeyPrefix+"events", group, logger)
		if err != nil {
			return deps, fmt.Errorf("failed to create Redis event bus: %w", err)
		}
		// Registered after the client so it is closed first.
		deps.Closers = append(deps.Closers, rb)
		bus = rb
	case "kafka":
		kb, err := infra_eventbus.NewWithKafka(cfg.EventBus.KafkaBrokers, logger, &infra_eventbus.KafkaEventBusConfig{
			GroupID:     group,
			TopicPrefix: cfg.EventBus.TopicPrefix,
		})
		if err != nil {
			return deps, fmt.Errorf("failed to create Kafka event bus: %w", err)
		}
		deps.Closers = append(deps.Closers, kb)
		bus = kb
	default:
		bus = infra_eventbus.NewWithMemory(logger)
	}
	deps.EventBus = bus

	logger.Info("Dependencies initialized",
		"provider", deps.RateSource.Name(),
		"timestamp_store", cfg.TimestampStore.Driver,
		"event_bus", cfg.EventBus.Driver,
		"origin", deps.Origin,
	)
	return deps, nil
}

// NewRateSource returns the remote rate source named by cfg.Provider.
func NewRateSource(cfg *config.ExchangeRate, logger *slog.Logger) (provider.RateSource, error) {
	sources := map[string]func() provider.RateSource{
		"openexchangerates": func() provider.RateSource {
			return infra_provider.NewOpenExchangeRatesProvider(cfg, logger)
		},
		"exchangerateapi": func() provider.RateSource {
			return infra_provider.NewExchangeRateAPIProvider(cfg, logger)
		},
		"fake": func() provider.RateSource {
			return infra_provider.NewFakeExchangeRate(nil)
		},
	}
	factory, ok := sources[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown exchange rate provider %q", cfg.Provider)
	}
	if cfg.AppID == "" && cfg.Provider != "fake" {
		logger.Warn("EXCHANGE_RATE_APP_ID is empty; remote fetches will fail", "provider", cfg.Provider)
	}
	return factory(), nil
}

// NewRedisClient parses cfg.URL and applies the pool settings.
func NewRedisClient(cfg *config.Redis) (*redis.Client, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, errors.New("REDIS_URL is not set")
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return redis.NewClient(opts), nil
}

func newConnectivity(cfg *config.Connectivity, logger *slog.Logger) provider.Connectivity {
	if cfg == nil || cfg.Disabled {
		return network.Static(true)
	}
	return network.NewDialProbe(cfg.ProbeAddr, cfg.Timeout, logger)
}

func closeAll(closers []io.Closer) {
	for i := len(closers) - 1; i >= 0; i-- {
		_ = closers[i].Close()
	}
}

var _ repository.Notifier = (*infra_repository.RateRepository)(nil)
