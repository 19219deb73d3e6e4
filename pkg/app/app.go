package app

import (
	"errors"
	"io"
	"log/slog"

	"github.com/amirasaad/fxconvert/pkg/config"
	"github.com/amirasaad/fxconvert/pkg/eventbus"
	"github.com/amirasaad/fxconvert/pkg/provider"
	"github.com/amirasaad/fxconvert/pkg/repository"
	"github.com/amirasaad/fxconvert/pkg/service/converter"
	"github.com/amirasaad/fxconvert/pkg/service/exchange"
	"github.com/google/uuid"
)

// Deps contains all the infrastructure the application services are built on.
type Deps struct {
	RateSource   provider.RateSource
	Connectivity provider.Connectivity
	RateStore    repository.RateStore
	Timestamps   repository.TimestampStore
	EventBus     eventbus.Bus
	// Origin identifies this process on the event bus.
	Origin uuid.UUID
	Logger *slog.Logger
	// Closers are released in reverse order by App.Close.
	Closers []io.Closer
}

type App struct {
	Deps            *Deps
	Config          *config.App
	ExchangeService *exchange.Service
	Sessions        *converter.Manager
}

func New(deps *Deps, cfg *config.App) *App {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	app := &App{
		Deps:   deps,
		Config: cfg,
	}

	var opts []exchange.Option
	if deps.EventBus != nil {
		opts = append(opts, exchange.WithEventBus(deps.EventBus, deps.Origin))
	}
	app.ExchangeService = exchange.New(
		deps.RateSource,
		deps.Connectivity,
		deps.RateStore,
		deps.Timestamps,
		exchange.Config{
			AppID:           cfg.ExchangeRate.AppID,
			BaseCurrency:    cfg.ExchangeRate.BaseCurrency,
			RefreshInterval: cfg.ExchangeRate.RefreshInterval,
		},
		deps.Logger,
		opts...,
	)
	app.Sessions = converter.NewManager(app.ExchangeService, deps.RateStore, deps.Logger)
	app.setupEventBus()
	return app
}

// Close stops every session and releases the infrastructure.
func (a *App) Close() error {
	a.Sessions.Close()
	var errs []error
	for i := len(a.Deps.Closers) - 1; i >= 0; i-- {
		if err := a.Deps.Closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
