package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func Load(envFilePath ...string) (*App, error) {
	logger := slog.Default()
	logger.Info("Loading environment variables")

	// If no specific paths provided, try default .env
	if len(envFilePath) == 0 {
		logger.Debug("No environment file specified, trying default .env")
		if err := godotenv.Load(); err != nil {
			logger.Warn("No .env file found in current directory")
		}
		return loadFromEnv()
	}

	for _, path := range envFilePath {
		logger.Debug("Looking for environment file", "path", path)
		foundPath, err := FindEnvTest(path)
		if err != nil {
			logger.Debug("Environment file not found", "path", path, "error", err)
			continue
		}

		logger.Info("Loading environment from file", "path", foundPath)
		if err := godotenv.Load(foundPath); err != nil {
			logger.Error("Failed to load environment file", "path", foundPath, "error", err)
			continue
		}
		return loadFromEnv()
	}

	logger.Info("No valid environment files found, using default .env")
	if err := godotenv.Load(); err != nil {
		logger.Warn("No .env file found in current directory")
	}
	return loadFromEnv()
}

func loadFromEnv() (*App, error) {
	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Default().Info("App config loaded",
		"env", cfg.Env,
		"rate_limit_max_requests", cfg.RateLimit.MaxRequests,
		"rate_limit_window", cfg.RateLimit.Window,
		"db", maskValue(cfg.DB.Url),
		"exchange_provider", cfg.ExchangeRate.Provider,
		"exchange_api_url", cfg.ExchangeRate.ApiUrl,
		"exchange_app_id", maskValue(cfg.ExchangeRate.AppID),
		"exchange_refresh_interval", cfg.ExchangeRate.RefreshInterval,
		"event_bus", cfg.EventBus.Driver,
		"timestamp_store", cfg.TimestampStore.Driver,
	)
	return &cfg, nil
}

// Validate rejects option values the composition root cannot wire.
func (c *App) Validate() error {
	switch c.ExchangeRate.Provider {
	case "openexchangerates", "exchangerateapi", "fake":
	default:
		return fmt.Errorf("unsupported exchange rate provider %q", c.ExchangeRate.Provider)
	}
	if c.ExchangeRate.RefreshInterval <= 0 {
		return fmt.Errorf("exchange rate refresh interval must be positive, got %s", c.ExchangeRate.RefreshInterval)
	}
	if len(strings.TrimSpace(c.ExchangeRate.BaseCurrency)) != 3 {
		return fmt.Errorf("invalid base currency %q", c.ExchangeRate.BaseCurrency)
	}
	switch c.EventBus.Driver {
	case "memory", "redis", "kafka":
	default:
		return fmt.Errorf("unsupported event bus driver %q", c.EventBus.Driver)
	}
	switch c.TimestampStore.Driver {
	case "db", "redis", "memory":
	default:
		return fmt.Errorf("unsupported timestamp store %q", c.TimestampStore.Driver)
	}
	return nil
}

func maskValue(key string) string {
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}
