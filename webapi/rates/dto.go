package rates

import (
	"time"

	"github.com/amirasaad/fxconvert/pkg/currency"
	"github.com/amirasaad/fxconvert/pkg/domain"
)

// ConvertQuery is the query string of GET /api/convert.
type ConvertQuery struct {
	Base   string  `query:"base" validate:"omitempty,len=3,alpha"`
	Amount float64 `query:"amount" validate:"gte=0"`
	Strict bool    `query:"strict"`
}

// RatesResponse is the payload of GET /api/rates.
type RatesResponse struct {
	Base  string        `json:"base"`
	Count int           `json:"count"`
	Rates []domain.Rate `json:"rates"`
}

// ConversionResponse is one converted amount.
type ConversionResponse struct {
	Code      string   `json:"code"`
	Amount    *float64 `json:"amount"`
	Formatted string   `json:"formatted,omitempty"`
}

// ConvertResponse is the payload of GET /api/convert.
type ConvertResponse struct {
	Base        string               `json:"base"`
	Amount      float64              `json:"amount"`
	Conversions []ConversionResponse `json:"conversions"`
}

// StatusResponse is the payload of GET /api/rates/status.
type StatusResponse struct {
	LastFetchedAt   *time.Time `json:"last_fetched_at,omitempty"`
	NextRefreshAt   *time.Time `json:"next_refresh_at,omitempty"`
	Fresh           bool       `json:"fresh"`
	RefreshInterval string     `json:"refresh_interval"`
	BaseCurrency    string     `json:"base_currency"`
}

// ToConversionResponses formats conversions for display.
func ToConversionResponses(in []domain.Conversion) []ConversionResponse {
	out := make([]ConversionResponse, len(in))
	for i, c := range in {
		out[i] = ConversionResponse{Code: c.Code, Amount: domain.FiniteOrNil(c.Amount)}
		if out[i].Amount != nil {
			out[i].Formatted = currency.Format(c.Amount, c.Code)
		}
	}
	return out
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
