package domain

import (
	"encoding/json"
	"math"
	"time"
)

// DefaultBaseCurrency is the currency every stored rate is expressed against.
const DefaultBaseCurrency = "USD"

// Rate is a single currency rate record relative to DefaultBaseCurrency.
type Rate struct {
	Code string  `json:"code"`
	Rate float64 `json:"rate"`
}

// Conversion is the amount expressed in Code.
type Conversion struct {
	Code   string  `json:"code"`
	Amount float64 `json:"amount"`
}

// MarshalJSON encodes a non-finite amount as null.
func (c Conversion) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Code   string   `json:"code"`
		Amount *float64 `json:"amount"`
	}{Code: c.Code, Amount: FiniteOrNil(c.Amount)})
}

// FiniteOrNil returns nil for NaN and the infinities.
func FiniteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// RatesFromMap builds rate records from a code->rate mapping.
// The result is not ordered; stores define the read order.
func RatesFromMap(m map[string]float64) []Rate {
	rates := make([]Rate, 0, len(m))
	for code, rate := range m {
		rates = append(rates, Rate{Code: code, Rate: rate})
	}
	return rates
}

// MillisToTime converts a fetch timestamp to time.Time. Zero stays zero.
func MillisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
