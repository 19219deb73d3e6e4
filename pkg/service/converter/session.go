package converter

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/amirasaad/fxconvert/pkg/currency"
	"github.com/amirasaad/fxconvert/pkg/domain"
	"github.com/amirasaad/fxconvert/pkg/repository"
	"github.com/google/uuid"
)

// State is the lifecycle state of a conversion session.
type State string

const (
	StateIdle     State = "idle"
	StateFetching State = "fetching"
	StateReady    State = "ready"
	StateError    State = "error"
)

// Acquirer supplies the current rate table.
type Acquirer interface {
	AcquireRates(ctx context.Context) ([]domain.Rate, error)
}

// Snapshot is an immutable view of a session.
type Snapshot struct {
	ID               uuid.UUID           `json:"id"`
	State            State               `json:"state"`
	SelectedCurrency string              `json:"selected_currency"`
	Amount           float64             `json:"amount"`
	Rates            []domain.Rate       `json:"rates"`
	Converted        []domain.Conversion `json:"converted"`
	LastFetchedAt    time.Time           `json:"last_fetched_at"`
	Err              string              `json:"error,omitempty"`
}

// Session holds one client's selected currency and amount and keeps the
// converted amounts in step with the rate table.
type Session struct {
	id       uuid.UUID
	acquirer Acquirer
	store    repository.RateStore
	logger   *slog.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	snap     Snapshot
	subs     map[chan Snapshot]struct{}
	started  bool
	closed   bool
	fallback bool
}

// NewSession creates an idle session with USD selected and a zero amount.
func NewSession(id uuid.UUID, acquirer Acquirer, store repository.RateStore, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:       id,
		acquirer: acquirer,
		store:    store,
		logger:   logger.With("component", "session", "session_id", id),
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		subs:     make(map[chan Snapshot]struct{}),
		snap: Snapshot{
			ID:               id,
			State:            StateIdle,
			SelectedCurrency: domain.DefaultBaseCurrency,
			Rates:            []domain.Rate{},
			Converted:        []domain.Conversion{},
		},
	}
}

// ID returns the session id.
func (s *Session) ID() uuid.UUID { return s.id }

// Start begins observing the rate store. The session closes when ctx is done.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	updates, err := s.store.ObserveAll(s.ctx)
	if err != nil {
		return fmt.Errorf("observe rates: %w", err)
	}

	// The first value is the current table; apply it before returning so
	// that selections made right after Start see it.
	initial, ok := <-updates

	s.mu.Lock()
	if s.closed || !ok {
		s.mu.Unlock()
		return context.Canceled
	}
	s.snap.Rates = initial
	s.recompute()
	s.wg.Add(1)
	s.mu.Unlock()
	context.AfterFunc(ctx, s.Close)

	go func() {
		defer s.wg.Done()
		for rates := range updates {
			s.mu.Lock()
			s.snap.Rates = rates
			s.recompute()
			s.mu.Unlock()
		}
	}()
	return nil
}

// Load starts an acquisition unless one is already running.
func (s *Session) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.snap.State == StateFetching {
		return
	}
	s.snap.State = StateFetching
	s.snap.Err = ""
	s.publish()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		rates, err := s.acquirer.AcquireRates(s.ctx)
		if s.ctx.Err() != nil {
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.logger.Error("Failed to load rates", "error", err)
			s.snap.State = StateError
			s.snap.Err = err.Error()
			s.publish()
			return
		}
		s.snap.State = StateReady
		s.snap.Rates = rates
		s.snap.LastFetchedAt = s.now().UTC()
		s.recompute()
	}()
}

// SetAmount changes the amount and recomputes conversions.
func (s *Session) SetAmount(amount float64) error {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidAmount, amount)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Amount = amount
	s.recompute()
	return nil
}

// SelectCurrency changes the base currency and recomputes conversions. Codes
// present in the rate table are accepted even when they are not ISO 4217.
func (s *Session) SelectCurrency(code string) error {
	code = currency.Normalize(code)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !currency.HasRate(s.snap.Rates, code) && !currency.IsKnown(code) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidCurrencyCode, code)
	}
	if currency.IsZeroRate(s.snap.Rates, code) {
		return fmt.Errorf("%w: %q has a zero rate", domain.ErrInvalidCurrencyCode, code)
	}
	s.snap.SelectedCurrency = code
	s.fallback = false
	s.recompute()
	return nil
}

// Snapshot returns the current view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cloneSnapshot()
}

// Subscribe returns a channel that first carries the current snapshot and
// then every later change. Unread snapshots are replaced by newer ones. The
// channel is closed when ctx is done or the session closes.
func (s *Session) Subscribe(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch
	}
	ch <- s.cloneSnapshot()
	s.subs[ch] = struct{}{}

	stopOnClose := context.AfterFunc(s.ctx, func() { s.unsubscribe(ch) })
	context.AfterFunc(ctx, func() {
		stopOnClose()
		s.unsubscribe(ch)
	})
	return ch
}

// Done is closed once the session is closed.
func (s *Session) Done() <-chan struct{} { return s.ctx.Done() }

// Close stops observation and any running acquisition, and closes every
// subscriber channel. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.logger.Debug("Session closed")
}

func (s *Session) unsubscribe(ch chan Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[ch]; !ok {
		return
	}
	delete(s.subs, ch)
	close(ch)
}

// recompute must be called with mu held.
func (s *Session) recompute() {
	rates := s.snap.Rates
	base := s.snap.SelectedCurrency
	if len(rates) > 0 && !currency.HasRate(rates, base) {
		if !s.fallback {
			s.logger.Warn("Selected currency has no rate, converting with base rate 1.0", "currency", base)
			s.fallback = true
		}
	} else {
		s.fallback = false
	}
	s.snap.Converted = currency.Convert(rates, base, s.snap.Amount)
	s.publish()
}

// publish must be called with mu held.
func (s *Session) publish() {
	for ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s.cloneSnapshot()
	}
}

func (s *Session) cloneSnapshot() Snapshot {
	snap := s.snap
	snap.Rates = slices.Clone(s.snap.Rates)
	snap.Converted = slices.Clone(s.snap.Converted)
	if snap.Rates == nil {
		snap.Rates = []domain.Rate{}
	}
	if snap.Converted == nil {
		snap.Converted = []domain.Conversion{}
	}
	return snap
}
