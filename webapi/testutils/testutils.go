// Package testutils builds in-memory applications for HTTP tests.
package testutils

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirasaad/fxconvert/infra/cache"
	infra_eventbus "github.com/amirasaad/fxconvert/infra/eventbus"
	"github.com/amirasaad/fxconvert/infra/network"
	infra_provider "github.com/amirasaad/fxconvert/infra/provider"
	"github.com/amirasaad/fxconvert/pkg/app"
	"github.com/amirasaad/fxconvert/pkg/config"
	"github.com/amirasaad/fxconvert/pkg/provider"
	"github.com/amirasaad/fxconvert/webapi"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// TestConfig returns a configuration suitable for in-memory tests.
func TestConfig() *config.App {
	return &config.App{
		Env:       "test",
		Server:    &config.Server{Scheme: "http", Host: "localhost", Port: 3000},
		Log:       &config.Log{Format: "text"},
		RateLimit: &config.RateLimit{MaxRequests: 1000, Window: time.Minute},
		ExchangeRate: &config.ExchangeRate{
			Provider:        "fake",
			BaseCurrency:    "USD",
			RefreshInterval: time.Hour,
		},
		Connectivity: &config.Connectivity{Disabled: true},
		EventBus:     &config.EventBus{Driver: "memory"},
	}
}

// TestApp bundles the application with its HTTP front end.
type TestApp struct {
	App   *app.App
	Fiber *fiber.App
	Store *cache.MemoryRateStore
}

// NewTestApp wires source into an application backed by in-memory stores.
// A nil source serves the fake rate table; a nil cfg uses TestConfig.
func NewTestApp(t *testing.T, source provider.RateSource, cfg *config.App) *TestApp {
	t.Helper()
	if source == nil {
		source = infra_provider.NewFakeExchangeRate(nil)
	}
	if cfg == nil {
		cfg = TestConfig()
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := cache.NewMemoryRateStore()
	deps := &app.Deps{
		RateSource:   source,
		Connectivity: network.Static(true),
		RateStore:    store,
		Timestamps:   cache.NewMemoryTimestampStore(),
		EventBus:     infra_eventbus.NewWithMemory(logger),
		Origin:       uuid.New(),
		Logger:       logger,
	}
	a := app.New(deps, cfg)
	t.Cleanup(func() { _ = a.Close() })
	return &TestApp{App: a, Fiber: webapi.SetupApp(a), Store: store}
}

// MakeRequest sends a request through the fiber app. body is sent as JSON
// when non-empty.
func (ta *TestApp) MakeRequest(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	resp, err := ta.Fiber.Test(req, 5000)
	require.NoError(t, err)
	return resp
}

// DecodeJSON reads resp's body into T and closes it.
func DecodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close() //nolint:errcheck
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
