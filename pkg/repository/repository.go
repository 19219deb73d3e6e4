package repository

import (
	"context"

	"github.com/amirasaad/fxconvert/pkg/domain"
)

// RateStore is the durable local table of currency rates.
type RateStore interface {
	// ReplaceAll discards every stored record and inserts rates.
	ReplaceAll(ctx context.Context, rates []domain.Rate) error

	// All returns the current records ordered by code.
	All(ctx context.Context) ([]domain.Rate, error)

	// ObserveAll streams the current records followed by every later
	// replacement. The channel is closed when ctx is done.
	ObserveAll(ctx context.Context) (<-chan []domain.Rate, error)
}

// Notifier is implemented by stores that can re-broadcast their contents,
// e.g. after another process replaced the shared table.
type Notifier interface {
	Notify(ctx context.Context) error
}

// TimestampStore persists the time of the last successful remote fetch.
type TimestampStore interface {
	// Get returns milliseconds since epoch, or 0 when never set.
	Get(ctx context.Context) (int64, error)
	// Set stores ms as the last fetch time.
	Set(ctx context.Context, ms int64) error
}
