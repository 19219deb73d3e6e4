package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/amirasaad/fxconvert/pkg/domain"
	"github.com/amirasaad/fxconvert/pkg/domain/events"
	"github.com/amirasaad/fxconvert/pkg/eventbus"
	"github.com/amirasaad/fxconvert/pkg/provider"
	"github.com/amirasaad/fxconvert/pkg/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ---- Constants ----

const (
	// DefaultRefreshInterval is how long a successful fetch stays fresh.
	DefaultRefreshInterval = 30 * time.Minute

	acquireKeyPrefix = "acquire"
)

// ---- Config ----

// Config holds the acquisition policy settings.
type Config struct {
	AppID           string
	BaseCurrency    string
	RefreshInterval time.Duration
}

// Status describes the freshness of the local rate table.
type Status struct {
	LastFetchedAt time.Time `json:"last_fetched_at"`
	Fresh         bool      `json:"fresh"`
	NextRefreshAt time.Time `json:"next_refresh_at"`
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithEventBus makes the service announce refreshes on bus, tagged with origin.
func WithEventBus(bus eventbus.Bus, origin uuid.UUID) Option {
	return func(s *Service) {
		s.bus = bus
		s.origin = origin
	}
}

// ---- Service ----

// Service decides between the local rate table and a remote fetch.
type Service struct {
	source     provider.RateSource
	conn       provider.Connectivity
	rates      repository.RateStore
	timestamps repository.TimestampStore
	bus        eventbus.Bus
	origin     uuid.UUID
	logger     *slog.Logger
	cfg        Config
	now        func() time.Time
	group      singleflight.Group

	mu     sync.Mutex
	gen    uint64
	flight *flight
}

// flight is one shared acquisition and the callers still waiting on it.
type flight struct {
	key     string
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// New creates an acquisition service. A nil logger falls back to slog.Default.
func New(
	source provider.RateSource,
	conn provider.Connectivity,
	rates repository.RateStore,
	timestamps repository.TimestampStore,
	cfg Config,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseCurrency == "" {
		cfg.BaseCurrency = domain.DefaultBaseCurrency
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	s := &Service{
		source:     source,
		conn:       conn,
		rates:      rates,
		timestamps: timestamps,
		logger:     logger.With("component", "exchange"),
		cfg:        cfg,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BaseCurrency is the currency stored rates are quoted against.
func (s *Service) BaseCurrency() string { return s.cfg.BaseCurrency }

// RefreshInterval is how long fetched rates are considered fresh.
func (s *Service) RefreshInterval() time.Duration { return s.cfg.RefreshInterval }

// AcquireRates returns the current rate table, refreshing it from the remote
// source first when it is stale and the network is reachable.
//
// Concurrent callers share one acquisition. Each caller stops waiting when its
// own ctx is done, and the shared acquisition is cancelled once no caller is
// left waiting on it.
func (s *Service) AcquireRates(ctx context.Context) ([]domain.Rate, error) {
	f := s.join(ctx)
	defer s.leave(f)

	ch := s.group.DoChan(f.key, func() (any, error) {
		return s.acquire(f.ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug("Joined in-flight acquisition")
		}
		return slices.Clone(res.Val.([]domain.Rate)), nil
	}
}

func (s *Service) join(ctx context.Context) *flight {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flight == nil {
		s.gen++
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		s.flight = &flight{
			key:    fmt.Sprintf("%s-%d", acquireKeyPrefix, s.gen),
			ctx:    fctx,
			cancel: cancel,
		}
	}
	s.flight.waiters++
	return s.flight
}

// leave drops one waiter. An abandoned flight is cancelled and later callers
// start a new one under a fresh key.
func (s *Service) leave(f *flight) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	if s.flight == f {
		s.flight = nil
	}
	f.cancel()
}

func (s *Service) acquire(ctx context.Context) ([]domain.Rate, error) {
	now := s.now().UnixMilli()
	last, err := s.timestamps.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("read fetch timestamp: %w", err)
	}

	if s.isFresh(last, now) {
		s.logger.Debug("Using stored rates",
			"last_fetched_at", domain.MillisToTime(last), "refresh_interval", s.cfg.RefreshInterval)
		return s.readAll(ctx)
	}

	if !s.conn.IsAvailable() {
		s.logger.Info("Network unavailable, serving stored rates",
			"last_fetched_at", domain.MillisToTime(last))
		return s.readAll(ctx)
	}

	s.logger.Info("Fetching latest rates",
		"provider", s.source.Name(), "base", s.cfg.BaseCurrency)
	latest, err := s.source.FetchLatest(ctx, s.cfg.AppID, s.cfg.BaseCurrency)
	if err != nil {
		s.logger.Error("Failed to fetch latest rates", "provider", s.source.Name(), "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrFetchFailed, err)
	}

	if err := s.rates.ReplaceAll(ctx, domain.RatesFromMap(latest.Rates)); err != nil {
		return nil, fmt.Errorf("replace stored rates: %w", err)
	}
	stored, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	s.emitRefreshed(ctx, len(stored), now)

	if err := s.timestamps.Set(ctx, now); err != nil {
		// Rates are already stored; the next call refetches.
		s.logger.Warn("Failed to record fetch timestamp", "error", err)
	}

	s.logger.Info("Rates refreshed", "count", len(stored))
	return stored, nil
}

func (s *Service) readAll(ctx context.Context) ([]domain.Rate, error) {
	rates, err := s.rates.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("read stored rates: %w", err)
	}
	if rates == nil {
		rates = []domain.Rate{}
	}
	return rates, nil
}

func (s *Service) isFresh(last, now int64) bool {
	return last != 0 && now-last < s.cfg.RefreshInterval.Milliseconds()
}

func (s *Service) emitRefreshed(ctx context.Context, count int, now int64) {
	if s.bus == nil {
		return
	}
	evt := events.NewRatesRefreshed(s.origin, s.cfg.BaseCurrency, count, domain.MillisToTime(now))
	if err := s.bus.Emit(ctx, evt); err != nil {
		s.logger.Warn("Failed to emit rates refreshed event", "event_id", evt.ID, "error", err)
	}
}

// Status reports when rates were last fetched and whether they are fresh.
func (s *Service) Status(ctx context.Context) (Status, error) {
	last, err := s.timestamps.Get(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("read fetch timestamp: %w", err)
	}
	st := Status{
		LastFetchedAt: domain.MillisToTime(last),
		Fresh:         s.isFresh(last, s.now().UnixMilli()),
	}
	if last != 0 {
		st.NextRefreshAt = st.LastFetchedAt.Add(s.cfg.RefreshInterval)
	}
	return st, nil
}
