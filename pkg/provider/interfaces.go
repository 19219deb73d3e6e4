package provider

import (
	"context"
	"errors"
	"time"
)

// Common errors for provider operations
var (
	// ErrFetchFailed covers network errors, non-2xx responses and malformed bodies.
	ErrFetchFailed = errors.New("fetch latest rates failed")
)

// LatestRates is the remote response for one base currency.
type LatestRates struct {
	Base      string             `json:"base"`
	Timestamp time.Time          `json:"timestamp"`
	Rates     map[string]float64 `json:"rates"`
	Provider  string             `json:"provider"`
}

// RateSource fetches the latest rates from a remote service.
type RateSource interface {
	// FetchLatest returns every rate quoted against base.
	FetchLatest(ctx context.Context, appID, base string) (*LatestRates, error)

	// Name returns the provider's name for logging and identification.
	Name() string
}

// Connectivity reports whether the network is reachable.
// Implementations must be synchronous and side-effect free for callers.
type Connectivity interface {
	IsAvailable() bool
}
