package cache

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/amirasaad/fxconvert/pkg/domain"
	"github.com/amirasaad/fxconvert/pkg/repository"
)

// MemoryTimestampStore keeps the last fetch time in process memory.
type MemoryTimestampStore struct {
	ms atomic.Int64
}

// NewMemoryTimestampStore creates a never-fetched store.
func NewMemoryTimestampStore() *MemoryTimestampStore {
	return &MemoryTimestampStore{}
}

// Get implements repository.TimestampStore.
func (m *MemoryTimestampStore) Get(context.Context) (int64, error) {
	return m.ms.Load(), nil
}

// Set implements repository.TimestampStore.
func (m *MemoryTimestampStore) Set(_ context.Context, ms int64) error {
	m.ms.Store(ms)
	return nil
}

// MemoryRateStore is a RateStore held in process memory.
type MemoryRateStore struct {
	mu        sync.RWMutex
	rates     []domain.Rate
	observers *repository.Observers
}

// NewMemoryRateStore creates an empty store.
func NewMemoryRateStore() *MemoryRateStore {
	return &MemoryRateStore{observers: repository.NewObservers()}
}

// ReplaceAll implements repository.RateStore. The last record wins when a
// code repeats.
func (m *MemoryRateStore) ReplaceAll(_ context.Context, rates []domain.Rate) error {
	byCode := make(map[string]float64, len(rates))
	for _, r := range rates {
		byCode[r.Code] = r.Rate
	}
	next := domain.RatesFromMap(byCode)
	slices.SortFunc(next, func(a, b domain.Rate) int { return cmp.Compare(a.Code, b.Code) })

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates = next
	m.observers.Publish(next)
	return nil
}

// All implements repository.RateStore.
func (m *MemoryRateStore) All(context.Context) ([]domain.Rate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := slices.Clone(m.rates)
	if out == nil {
		out = []domain.Rate{}
	}
	return out, nil
}

// ObserveAll implements repository.RateStore.
func (m *MemoryRateStore) ObserveAll(ctx context.Context) (<-chan []domain.Rate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.observers.Subscribe(ctx, m.rates), nil
}

// Notify implements repository.Notifier.
func (m *MemoryRateStore) Notify(context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.observers.Publish(m.rates)
	return nil
}

var (
	_ repository.TimestampStore = (*MemoryTimestampStore)(nil)
	_ repository.RateStore      = (*MemoryRateStore)(nil)
	_ repository.Notifier       = (*MemoryRateStore)(nil)
)
