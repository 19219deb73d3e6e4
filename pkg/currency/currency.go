package currency

import (
	"fmt"
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/amirasaad/fxconvert/pkg/domain"
	"github.com/shopspring/decimal"
)

// maxMinorUnits bounds amounts handed to go-money, which stores int64 minor units.
const maxMinorUnits = 1e15

// Normalize upper-cases and trims a currency code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsKnown reports whether code is a known ISO 4217 currency.
func IsKnown(code string) bool {
	return money.GetCurrency(Normalize(code)) != nil
}

// Validate returns domain.ErrInvalidCurrencyCode unless code is a known ISO 4217 code.
func Validate(code string) error {
	if !IsKnown(code) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidCurrencyCode, code)
	}
	return nil
}

// Format renders amount in code for display. Known currencies use their
// symbol and minor units; anything else falls back to four decimals and
// the raw code.
func Format(amount float64, code string) string {
	code = Normalize(code)
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Sprintf("%v %s", amount, code)
	}
	if c := money.GetCurrency(code); c != nil && math.Abs(amount) < maxMinorUnits {
		minor := decimal.NewFromFloat(amount).Shift(int32(c.Fraction)).Round(0).IntPart()
		return money.New(minor, code).Display()
	}
	return decimal.NewFromFloat(amount).StringFixed(4) + " " + code
}

// Round rounds amount to places decimals, half away from zero.
func Round(amount float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(amount).Round(places).Float64()
	return f
}
