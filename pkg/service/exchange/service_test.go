package exchange

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amirasaad/fxconvert/internal/fixtures/mocks"
	"github.com/amirasaad/fxconvert/pkg/domain"
	"github.com/amirasaad/fxconvert/pkg/domain/events"
	"github.com/amirasaad/fxconvert/pkg/provider"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	source *mocks.MockRateSource
	conn   *mocks.MockConnectivity
	rates  *mocks.MockRateStore
	stamps *mocks.MockTimestampStore
	svc    *Service
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		source: mocks.NewMockRateSource(t),
		conn:   mocks.NewMockConnectivity(t),
		rates:  mocks.NewMockRateStore(t),
		stamps: mocks.NewMockTimestampStore(t),
	}
	f.source.On("Name").Return("test").Maybe()
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	f.svc = New(f.source, f.conn, f.rates, f.stamps, Config{
		AppID:           "app-id",
		RefreshInterval: 30 * time.Minute,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)), opts...)
	return f
}

func stored() []domain.Rate {
	return []domain.Rate{{Code: "EUR", Rate: 0.85}, {Code: "USD", Rate: 1}}
}

func TestAcquireRates_FreshUsesStore(t *testing.T) {
	f := newFixture(t)
	last := testNow.Add(-10 * time.Minute).UnixMilli()
	f.stamps.On("Get", mock.Anything).Return(last, nil).Once()
	f.rates.On("All", mock.Anything).Return(stored(), nil).Once()

	got, err := f.svc.AcquireRates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stored(), got)
	f.conn.AssertNotCalled(t, "IsAvailable")
	f.source.AssertNotCalled(t, "FetchLatest", mock.Anything, mock.Anything, mock.Anything)
}

func TestAcquireRates_StaleOnlineRefreshes(t *testing.T) {
	tests := []struct {
		name string
		last int64
	}{
		{name: "never fetched", last: 0},
		{name: "older than interval", last: testNow.Add(-31 * time.Minute).UnixMilli()},
		{name: "exactly at interval", last: testNow.Add(-30 * time.Minute).UnixMilli()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.stamps.On("Get", mock.Anything).Return(tt.last, nil).Once()
			f.conn.On("IsAvailable").Return(true).Once()
			f.source.On("FetchLatest", mock.Anything, "app-id", "USD").Return(&provider.LatestRates{
				Base:  "USD",
				Rates: map[string]float64{"USD": 1, "EUR": 0.85},
			}, nil).Once()
			f.rates.On("ReplaceAll", mock.Anything, mock.MatchedBy(func(rs []domain.Rate) bool {
				return assert.ElementsMatch(t, stored(), rs)
			})).Return(nil).Once()
			f.rates.On("All", mock.Anything).Return(stored(), nil).Once()
			f.stamps.On("Set", mock.Anything, testNow.UnixMilli()).Return(nil).Once()

			got, err := f.svc.AcquireRates(context.Background())
			require.NoError(t, err)
			assert.Equal(t, stored(), got)
		})
	}
}

func TestAcquireRates_EmptyFetchReplacesStore(t *testing.T) {
	f := newFixture(t)
	f.stamps.On("Get", mock.Anything).Return(int64(0), nil).Once()
	f.conn.On("IsAvailable").Return(true).Once()
	f.source.On("FetchLatest", mock.Anything, "app-id", "USD").Return(&provider.LatestRates{
		Base:  "USD",
		Rates: map[string]float64{},
	}, nil).Once()
	f.rates.On("ReplaceAll", mock.Anything, []domain.Rate{}).Return(nil).Once()
	f.rates.On("All", mock.Anything).Return([]domain.Rate{}, nil).Once()
	f.stamps.On("Set", mock.Anything, testNow.UnixMilli()).Return(nil).Once()

	got, err := f.svc.AcquireRates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAcquireRates_OfflineServesStore(t *testing.T) {
	f := newFixture(t)
	f.stamps.On("Get", mock.Anything).Return(testNow.Add(-2*time.Hour).UnixMilli(), nil).Once()
	f.conn.On("IsAvailable").Return(false).Once()
	f.rates.On("All", mock.Anything).Return(stored(), nil).Once()

	got, err := f.svc.AcquireRates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stored(), got)
	f.stamps.AssertNotCalled(t, "Set", mock.Anything, mock.Anything)
	f.rates.AssertNotCalled(t, "ReplaceAll", mock.Anything, mock.Anything)
}

func TestAcquireRates_NeverFetchedOfflineEmpty(t *testing.T) {
	f := newFixture(t)
	f.stamps.On("Get", mock.Anything).Return(int64(0), nil).Once()
	f.conn.On("IsAvailable").Return(false).Once()
	f.rates.On("All", mock.Anything).Return(nil, nil).Once()

	got, err := f.svc.AcquireRates(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	f.source.AssertNotCalled(t, "FetchLatest", mock.Anything, mock.Anything, mock.Anything)
}

func TestAcquireRates_FetchFailurePropagates(t *testing.T) {
	f := newFixture(t)
	f.stamps.On("Get", mock.Anything).Return(int64(0), nil).Once()
	f.conn.On("IsAvailable").Return(true).Once()
	f.source.On("FetchLatest", mock.Anything, "app-id", "USD").
		Return(nil, provider.ErrFetchFailed).Once()

	got, err := f.svc.AcquireRates(context.Background())
	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
	assert.ErrorIs(t, err, provider.ErrFetchFailed)
	f.rates.AssertNotCalled(t, "ReplaceAll", mock.Anything, mock.Anything)
	f.stamps.AssertNotCalled(t, "Set", mock.Anything, mock.Anything)
}

func TestAcquireRates_TimestampReadFailure(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("disk on fire")
	f.stamps.On("Get", mock.Anything).Return(int64(0), boom).Once()

	_, err := f.svc.AcquireRates(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestAcquireRates_TimestampWriteFailureStillReturnsRates(t *testing.T) {
	f := newFixture(t)
	f.stamps.On("Get", mock.Anything).Return(int64(0), nil).Once()
	f.conn.On("IsAvailable").Return(true).Once()
	f.source.On("FetchLatest", mock.Anything, "app-id", "USD").Return(&provider.LatestRates{
		Rates: map[string]float64{"USD": 1},
	}, nil).Once()
	f.rates.On("ReplaceAll", mock.Anything, mock.Anything).Return(nil).Once()
	f.rates.On("All", mock.Anything).Return([]domain.Rate{{Code: "USD", Rate: 1}}, nil).Once()
	f.stamps.On("Set", mock.Anything, mock.Anything).Return(errors.New("read only")).Once()

	got, err := f.svc.AcquireRates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Rate{{Code: "USD", Rate: 1}}, got)
}

func TestAcquireRates_ReplaceFailure(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("constraint")
	f.stamps.On("Get", mock.Anything).Return(int64(0), nil).Once()
	f.conn.On("IsAvailable").Return(true).Once()
	f.source.On("FetchLatest", mock.Anything, "app-id", "USD").Return(&provider.LatestRates{
		Rates: map[string]float64{"USD": 1},
	}, nil).Once()
	f.rates.On("ReplaceAll", mock.Anything, mock.Anything).Return(boom).Once()

	_, err := f.svc.AcquireRates(context.Background())
	assert.ErrorIs(t, err, boom)
	f.stamps.AssertNotCalled(t, "Set", mock.Anything, mock.Anything)
}

func TestAcquireRates_EmitsRefreshedEvent(t *testing.T) {
	bus := mocks.NewMockBus(t)
	origin := uuid.New()
	f := newFixture(t, WithEventBus(bus, origin))

	f.stamps.On("Get", mock.Anything).Return(int64(0), nil).Once()
	f.conn.On("IsAvailable").Return(true).Once()
	f.source.On("FetchLatest", mock.Anything, "app-id", "USD").Return(&provider.LatestRates{
		Rates: map[string]float64{"USD": 1, "EUR": 0.85},
	}, nil).Once()
	f.rates.On("ReplaceAll", mock.Anything, mock.Anything).Return(nil).Once()
	f.rates.On("All", mock.Anything).Return(stored(), nil).Once()
	f.stamps.On("Set", mock.Anything, testNow.UnixMilli()).Return(nil).Once()
	bus.On("Emit", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
		evt, ok := e.(*events.RatesRefreshed)
		return ok && evt.Origin == origin && evt.Count == 2 && evt.Base == "USD" && evt.FetchedAt.Equal(testNow)
	})).Return(errors.New("bus down")).Once()

	_, err := f.svc.AcquireRates(context.Background())
	require.NoError(t, err, "emit failures must not fail acquisition")
}

// memTimestamps is a goroutine-safe timestamp store for the concurrency test.
type memTimestamps struct{ v atomic.Int64 }

func (m *memTimestamps) Get(context.Context) (int64, error)     { return m.v.Load(), nil }
func (m *memTimestamps) Set(_ context.Context, ms int64) error { m.v.Store(ms); return nil }

func TestAcquireRates_ConcurrentCallsShareOneFetch(t *testing.T) {
	source := mocks.NewMockRateSource(t)
	conn := mocks.NewMockConnectivity(t)
	rates := mocks.NewMockRateStore(t)
	stamps := &memTimestamps{}

	started := make(chan struct{})
	release := make(chan struct{})
	source.On("Name").Return("test").Maybe()
	conn.On("IsAvailable").Return(true).Once()
	source.On("FetchLatest", mock.Anything, "app-id", "USD").Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(&provider.LatestRates{Rates: map[string]float64{"USD": 1}}, nil).Once()
	rates.On("ReplaceAll", mock.Anything, mock.Anything).Return(nil).Once()
	rates.On("All", mock.Anything).Return([]domain.Rate{{Code: "USD", Rate: 1}}, nil)

	svc := New(source, conn, rates, stamps, Config{AppID: "app-id"},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithClock(func() time.Time { return testNow }))

	const callers = 8
	var wg sync.WaitGroup
	results := make(chan []domain.Rate, callers)
	wg.Add(1)
	go func() {
		defer wg.Done()
		got, err := svc.AcquireRates(context.Background())
		assert.NoError(t, err)
		results <- got
	}()
	<-started
	for range callers - 1 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := svc.AcquireRates(context.Background())
			assert.NoError(t, err)
			results <- got
		}()
	}
	close(release)
	wg.Wait()
	close(results)

	for got := range results {
		assert.Equal(t, []domain.Rate{{Code: "USD", Rate: 1}}, got)
	}
}

func TestAcquireRates_LastCallerCancellationStopsFetch(t *testing.T) {
	source := mocks.NewMockRateSource(t)
	conn := mocks.NewMockConnectivity(t)
	rates := mocks.NewMockRateStore(t)
	stamps := &memTimestamps{}

	started := make(chan struct{})
	fetchErr := make(chan error, 1)
	source.On("Name").Return("test").Maybe()
	conn.On("IsAvailable").Return(true).Once()
	source.On("FetchLatest", mock.Anything, "app-id", "USD").Run(func(args mock.Arguments) {
		fetchCtx := args.Get(0).(context.Context)
		close(started)
		<-fetchCtx.Done()
		fetchErr <- fetchCtx.Err()
	}).Return(nil, context.Canceled).Once()

	svc := New(source, conn, rates, stamps, Config{AppID: "app-id"},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithClock(func() time.Time { return testNow }))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := svc.AcquireRates(ctx)
		errCh <- err
	}()
	<-started
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	select {
	case err := <-fetchErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("fetch was not cancelled")
	}
	assert.Zero(t, stamps.v.Load())
	rates.AssertNotCalled(t, "ReplaceAll", mock.Anything, mock.Anything)
}

func TestAcquireRates_RemainingCallerKeepsFetchAlive(t *testing.T) {
	source := mocks.NewMockRateSource(t)
	conn := mocks.NewMockConnectivity(t)
	rates := mocks.NewMockRateStore(t)
	stamps := &memTimestamps{}

	started := make(chan struct{})
	release := make(chan struct{})
	source.On("Name").Return("test").Maybe()
	conn.On("IsAvailable").Return(true).Once()
	source.On("FetchLatest", mock.Anything, "app-id", "USD").Run(func(args mock.Arguments) {
		close(started)
		<-release
		assert.NoError(t, args.Get(0).(context.Context).Err())
	}).Return(&provider.LatestRates{Rates: map[string]float64{"USD": 1}}, nil).Once()
	rates.On("ReplaceAll", mock.Anything, mock.Anything).Return(nil).Once()
	rates.On("All", mock.Anything).Return([]domain.Rate{{Code: "USD", Rate: 1}}, nil).Once()

	svc := New(source, conn, rates, stamps, Config{AppID: "app-id"},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithClock(func() time.Time { return testNow }))

	stayed := make(chan []domain.Rate, 1)
	go func() {
		got, err := svc.AcquireRates(context.Background())
		assert.NoError(t, err)
		stayed <- got
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := svc.AcquireRates(ctx)
		errCh <- err
	}()
	require.Eventually(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return svc.flight != nil && svc.flight.waiters == 2
	}, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	close(release)
	assert.Equal(t, []domain.Rate{{Code: "USD", Rate: 1}}, <-stayed)
	assert.Equal(t, testNow.UnixMilli(), stamps.v.Load())
}

func TestStatus(t *testing.T) {
	t.Run("never fetched", func(t *testing.T) {
		f := newFixture(t)
		f.stamps.On("Get", mock.Anything).Return(int64(0), nil).Once()

		st, err := f.svc.Status(context.Background())
		require.NoError(t, err)
		assert.True(t, st.LastFetchedAt.IsZero())
		assert.False(t, st.Fresh)
		assert.True(t, st.NextRefreshAt.IsZero())
	})

	t.Run("fresh", func(t *testing.T) {
		f := newFixture(t)
		last := testNow.Add(-5 * time.Minute)
		f.stamps.On("Get", mock.Anything).Return(last.UnixMilli(), nil).Once()

		st, err := f.svc.Status(context.Background())
		require.NoError(t, err)
		assert.True(t, st.LastFetchedAt.Equal(last))
		assert.True(t, st.Fresh)
		assert.True(t, st.NextRefreshAt.Equal(last.Add(30*time.Minute)))
	})

	t.Run("stale", func(t *testing.T) {
		f := newFixture(t)
		f.stamps.On("Get", mock.Anything).Return(testNow.Add(-time.Hour).UnixMilli(), nil).Once()

		st, err := f.svc.Status(context.Background())
		require.NoError(t, err)
		assert.False(t, st.Fresh)
	})
}

func TestNew_Defaults(t *testing.T) {
	svc := New(nil, nil, nil, nil, Config{}, nil)
	assert.Equal(t, "USD", svc.BaseCurrency())
	assert.Equal(t, DefaultRefreshInterval, svc.RefreshInterval())
}
