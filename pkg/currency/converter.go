package currency

import (
	"github.com/amirasaad/fxconvert/pkg/domain"
)

// fallbackBaseRate is used when the base currency is missing from the table,
// so a conversion always produces output.
const fallbackBaseRate = 1.0

// Convert expresses amount, given in base, in every currency of rates.
//
// The output preserves the order and length of rates. A record whose rate is
// zero converts to zero. When base has no rate the table is treated as if it
// were quoted in base (base rate 1.0).
func Convert(rates []domain.Rate, base string, amount float64) []domain.Conversion {
	baseRate, ok := lookup(rates, base)
	if !ok {
		baseRate = fallbackBaseRate
	}
	return convertWith(rates, baseRate, amount)
}

// ConvertStrict is Convert without the fallback: it fails with
// domain.ErrBaseCurrencyNotFound when base has no rate.
func ConvertStrict(rates []domain.Rate, base string, amount float64) ([]domain.Conversion, error) {
	baseRate, ok := lookup(rates, base)
	if !ok {
		return nil, domain.ErrBaseCurrencyNotFound
	}
	return convertWith(rates, baseRate, amount), nil
}

// HasRate reports whether code is present in rates.
func HasRate(rates []domain.Rate, code string) bool {
	_, ok := lookup(rates, code)
	return ok
}

// IsZeroRate reports whether code is in rates with a rate of zero. Such a
// code cannot serve as a conversion base.
func IsZeroRate(rates []domain.Rate, code string) bool {
	r, ok := lookup(rates, code)
	return ok && r == 0
}

func lookup(rates []domain.Rate, code string) (float64, bool) {
	for _, r := range rates {
		if r.Code == code {
			return r.Rate, true
		}
	}
	return 0, false
}

func convertWith(rates []domain.Rate, baseRate, amount float64) []domain.Conversion {
	out := make([]domain.Conversion, len(rates))
	for i, r := range rates {
		out[i].Code = r.Code
		if r.Rate == 0 {
			continue
		}
		out[i].Amount = amount * r.Rate / baseRate
	}
	return out
}
