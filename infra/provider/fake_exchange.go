package provider

import (
	"context"
	"maps"
	"time"

	"github.com/amirasaad/fxconvert/pkg/provider"
)

// FakeExchangeRate serves a fixed rate table. It is wired when
// EXCHANGE_RATE_PROVIDER=fake so the service runs without an app id.
type FakeExchangeRate struct {
	rates map[string]float64
}

// NewFakeExchangeRate returns a source with a small USD-based table, or
// rates when given.
func NewFakeExchangeRate(rates map[string]float64) *FakeExchangeRate {
	if rates == nil {
		rates = map[string]float64{
			"USD": 1,
			"EUR": 0.92,
			"GBP": 0.79,
			"JPY": 151.3,
			"EGP": 47.8,
			"CHF": 0.88,
		}
	}
	return &FakeExchangeRate{rates: rates}
}

// Name implements provider.RateSource.
func (f *FakeExchangeRate) Name() string { return "fake" }

// FetchLatest implements provider.RateSource. Rates are re-based when base
// differs from USD.
func (f *FakeExchangeRate) FetchLatest(ctx context.Context, _ string, base string) (*provider.LatestRates, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rates := maps.Clone(f.rates)
	if b, ok := rates[base]; ok && b != 0 {
		for code, r := range rates {
			rates[code] = r / b
		}
	}
	return &provider.LatestRates{
		Base:      base,
		Timestamp: time.Now().UTC(),
		Rates:     rates,
		Provider:  f.Name(),
	}, nil
}

var _ provider.RateSource = (*FakeExchangeRate)(nil)
