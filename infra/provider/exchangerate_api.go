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

const exchangeRateAPIName = "exchangerateapi"

// ExchangeRateAPIResponseV6 represents the v6 response from the ExchangeRate API
// See: https://www.exchangerate-api.com/docs/standard-requests
type ExchangeRateAPIResponseV6 struct {
	Result             string             `json:"result"`
	TimeLastUpdateUnix int64              `json:"time_last_update_unix"`
	BaseCode           string             `json:"base_code"`
	ConversionRates    map[string]float64 `json:"conversion_rates"`
	// Error fields (if any)
	ErrorType string `json:"error-type,omitempty"`
}

// ExchangeRateAPIProvider fetches rates from exchangerate-api.com. The app id
// is the API key and travels in the path.
type ExchangeRateAPIProvider struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewExchangeRateAPIProvider creates a new ExchangeRate API provider using config
func NewExchangeRateAPIProvider(cfg *config.ExchangeRate, logger *slog.Logger) *ExchangeRateAPIProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExchangeRateAPIProvider{
		baseURL: cfg.ApiUrl, // Should be like https://v6.exchangerate-api.com/v6
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		logger: logger.With("provider", exchangeRateAPIName),
	}
}

// Name implements provider.RateSource.
func (p *ExchangeRateAPIProvider) Name() string { return exchangeRateAPIName }

// FetchLatest implements provider.RateSource.
func (p *ExchangeRateAPIProvider) FetchLatest(
	ctx context.Context,
	appID, base string,
) (*provider.LatestRates, error) {
	endpoint, err := url.JoinPath(p.baseURL, appID, "latest", base)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base url: %w", provider.ErrFetchFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", provider.ErrFetchFailed, err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to make request: %w", provider.ErrFetchFailed, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return nil, fmt.Errorf("%w: API returned status %d: %s",
			provider.ErrFetchFailed, resp.StatusCode, string(body))
	}

	var apiResp ExchangeRateAPIResponseV6
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %w", provider.ErrFetchFailed, err)
	}
	if apiResp.Result != "success" {
		return nil, fmt.Errorf("%w: API returned result=%s error-type=%s",
			provider.ErrFetchFailed, apiResp.Result, apiResp.ErrorType)
	}

	p.logger.Info("Latest rates fetched", "base", apiResp.BaseCode, "count", len(apiResp.ConversionRates))
	return &provider.LatestRates{
		Base:      apiResp.BaseCode,
		Timestamp: time.Unix(apiResp.TimeLastUpdateUnix, 0).UTC(),
		Rates:     apiResp.ConversionRates,
		Provider:  exchangeRateAPIName,
	}, nil
}

var _ provider.RateSource = (*ExchangeRateAPIProvider)(nil)
