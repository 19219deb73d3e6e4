package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/amirasaad/fxconvert/pkg/config"
	"github.com/amirasaad/fxconvert/pkg/provider"
)

const openExchangeRatesName = "openexchangerates"

// OpenExchangeRatesResponse is the body of GET latest.json.
// See: https://docs.openexchangerates.org/reference/latest-json
type OpenExchangeRatesResponse struct {
	Disclaimer string             `json:"disclaimer"`
	License    string             `json:"license"`
	Timestamp  int64              `json:"timestamp"`
	Base       string             `json:"base"`
	Rates      map[string]float64 `json:"rates"`
	// Error fields (if any)
	Error       bool   `json:"error,omitempty"`
	Status      int    `json:"status,omitempty"`
	Message     string `json:"message,omitempty"`
	Description string `json:"description,omitempty"`
}

// OpenExchangeRatesProvider fetches rates from openexchangerates.org.
type OpenExchangeRatesProvider struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOpenExchangeRatesProvider creates a provider from config. The HTTP
// client carries the request timeout.
func NewOpenExchangeRatesProvider(cfg *config.ExchangeRate, logger *slog.Logger) *OpenExchangeRatesProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenExchangeRatesProvider{
		baseURL: cfg.ApiUrl, // Should be like https://openexchangerates.org/api/
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		logger: logger.With("provider", openExchangeRatesName),
	}
}

// Name implements provider.RateSource.
func (p *OpenExchangeRatesProvider) Name() string { return openExchangeRatesName }

// FetchLatest implements provider.RateSource.
func (p *OpenExchangeRatesProvider) FetchLatest(
	ctx context.Context,
	appID, base string,
) (*provider.LatestRates, error) {
	endpoint, err := url.JoinPath(p.baseURL, "latest.json")
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base url: %w", provider.ErrFetchFailed, err)
	}
	query := url.Values{}
	query.Set("app_id", appID)
	query.Set("base", base)
	endpoint += "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", provider.ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	p.logger.Debug("Fetching latest rates", "base", base)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to make request: %w", provider.ErrFetchFailed, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return nil, fmt.Errorf("%w: API returned status %d: %s",
			provider.ErrFetchFailed, resp.StatusCode, string(body))
	}

	var apiResp OpenExchangeRatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %w", provider.ErrFetchFailed, err)
	}
	if apiResp.Error {
		return nil, fmt.Errorf("%w: API returned error %s: %s",
			provider.ErrFetchFailed, apiResp.Message, apiResp.Description)
	}

	latest := &provider.LatestRates{
		Base:     apiResp.Base,
		Rates:    apiResp.Rates,
		Provider: openExchangeRatesName,
	}
	if latest.Base == "" {
		latest.Base = base
	}
	if apiResp.Timestamp > 0 {
		latest.Timestamp = time.Unix(apiResp.Timestamp, 0).UTC()
	}
	p.logger.Info("Latest rates fetched", "base", latest.Base, "count", len(latest.Rates))
	return latest, nil
}

var _ provider.RateSource = (*OpenExchangeRatesProvider)(nil)
