package provider

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirasaad/fxconvert/pkg/config"
	"github.com/amirasaad/fxconvert/pkg/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newOXR(t *testing.T, h http.HandlerFunc) *OpenExchangeRatesProvider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewOpenExchangeRatesProvider(&config.ExchangeRate{
		ApiUrl:      srv.URL + "/api/",
		HTTPTimeout: time.Second,
	}, quietLogger())
}

func TestOpenExchangeRates_FetchLatest(t *testing.T) {
	p := newOXR(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/latest.json", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("app_id"))
		assert.Equal(t, "USD", r.URL.Query().Get("base"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"disclaimer":"x","license":"y","timestamp":1700000000,"base":"USD","rates":{"USD":1,"EUR":0.85}}`)
	})

	latest, err := p.FetchLatest(context.Background(), "secret", "USD")
	require.NoError(t, err)
	assert.Equal(t, "USD", latest.Base)
	assert.Equal(t, map[string]float64{"USD": 1, "EUR": 0.85}, latest.Rates)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), latest.Timestamp)
	assert.Equal(t, "openexchangerates", latest.Provider)
}

func TestOpenExchangeRates_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":true,"status":401,"message":"invalid_app_id"}`},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`},
		{name: "malformed json", status: http.StatusOK, body: `{"rates":`},
		{name: "error flag", status: http.StatusOK, body: `{"error":true,"message":"not_allowed","description":"no"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newOXR(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			latest, err := p.FetchLatest(context.Background(), "id", "USD")
			assert.Nil(t, latest)
			assert.ErrorIs(t, err, provider.ErrFetchFailed)
		})
	}
}

func TestOpenExchangeRates_EmptyRates(t *testing.T) {
	p := newOXR(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"base":"USD","rates":{}}`)
	})
	latest, err := p.FetchLatest(context.Background(), "id", "USD")
	require.NoError(t, err)
	assert.Empty(t, latest.Rates)
	assert.Equal(t, "USD", latest.Base)
}

func TestOpenExchangeRates_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := NewOpenExchangeRatesProvider(&config.ExchangeRate{ApiUrl: url, HTTPTimeout: time.Second}, quietLogger())
	_, err := p.FetchLatest(context.Background(), "id", "USD")
	assert.ErrorIs(t, err, provider.ErrFetchFailed)
}

func TestOpenExchangeRates_ContextCancelled(t *testing.T) {
	p := newOXR(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.FetchLatest(ctx, "id", "USD")
	assert.ErrorIs(t, err, provider.ErrFetchFailed)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExchangeRateAPI_FetchLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v6/key/latest/USD", r.URL.Path)
		_, _ = io.WriteString(w, `{"result":"success","time_last_update_unix":1700000000,"base_code":"USD","conversion_rates":{"USD":1,"GBP":0.75}}`)
	}))
	defer srv.Close()

	p := NewExchangeRateAPIProvider(&config.ExchangeRate{ApiUrl: srv.URL + "/v6", HTTPTimeout: time.Second}, quietLogger())
	latest, err := p.FetchLatest(context.Background(), "key", "USD")
	require.NoError(t, err)
	assert.Equal(t, 0.75, latest.Rates["GBP"])
	assert.Equal(t, "exchangerateapi", p.Name())
}

func TestExchangeRateAPI_EmptyRates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"result":"success","base_code":"USD","conversion_rates":{}}`)
	}))
	defer srv.Close()

	p := NewExchangeRateAPIProvider(&config.ExchangeRate{ApiUrl: srv.URL, HTTPTimeout: time.Second}, quietLogger())
	latest, err := p.FetchLatest(context.Background(), "key", "USD")
	require.NoError(t, err)
	assert.Empty(t, latest.Rates)
}

func TestExchangeRateAPI_ErrorResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"result":"error","error-type":"invalid-key"}`)
	}))
	defer srv.Close()

	p := NewExchangeRateAPIProvider(&config.ExchangeRate{ApiUrl: srv.URL, HTTPTimeout: time.Second}, quietLogger())
	_, err := p.FetchLatest(context.Background(), "bad", "USD")
	require.ErrorIs(t, err, provider.ErrFetchFailed)
	assert.Contains(t, err.Error(), "invalid-key")
}

func TestFakeExchangeRate(t *testing.T) {
	f := NewFakeExchangeRate(map[string]float64{"USD": 1, "EUR": 0.5})

	usd, err := f.FetchLatest(context.Background(), "", "USD")
	require.NoError(t, err)
	assert.Equal(t, 0.5, usd.Rates["EUR"])

	eur, err := f.FetchLatest(context.Background(), "", "EUR")
	require.NoError(t, err)
	assert.Equal(t, 1.0, eur.Rates["EUR"])
	assert.Equal(t, 2.0, eur.Rates["USD"])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.FetchLatest(ctx, "", "USD")
	assert.ErrorIs(t, err, context.Canceled)
}
