package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amirasaad/fxconvert/pkg/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorToStatusCode(t *testing.T) {
	cases := map[error]int{
		domain.ErrSessionNotFound:                               fiber.StatusNotFound,
		fmt.Errorf("wrap: %w", domain.ErrNotFound):              fiber.StatusNotFound,
		domain.ErrInvalidCurrencyCode:                           fiber.StatusUnprocessableEntity,
		domain.ErrBaseCurrencyNotFound:                          fiber.StatusUnprocessableEntity,
		domain.ErrInvalidAmount:                                 fiber.StatusBadRequest,
		fmt.Errorf("%w: %w", domain.ErrFetchFailed, io.EOF):     fiber.StatusBadGateway,
		fiber.NewError(fiber.StatusTeapot, "tea"):               fiber.StatusTeapot,
		errors.New("anything else"):                             fiber.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, ErrorToStatusCode(err), err.Error())
	}
}

type amountBody struct {
	Amount float64 `json:"amount" validate:"gte=0"`
}

func TestBindAndValidate(t *testing.T) {
	app := fiber.New()
	app.Put("/", func(c *fiber.Ctx) error {
		in, err := BindAndValidate[amountBody](c)
		if err != nil {
			return nil
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "ok", in)
	})

	do := func(body string) (*Response, *ProblemDetails, int) {
		req := httptest.NewRequest(fiber.MethodPut, "/", strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close() //nolint:errcheck
		raw, _ := io.ReadAll(resp.Body)
		if resp.StatusCode == fiber.StatusOK {
			var r Response
			require.NoError(t, json.Unmarshal(raw, &r))
			return &r, nil, resp.StatusCode
		}
		assert.Equal(t, "application/problem+json", resp.Header.Get(fiber.HeaderContentType))
		var pd ProblemDetails
		require.NoError(t, json.Unmarshal(raw, &pd))
		return nil, &pd, resp.StatusCode
	}

	r, _, status := do(`{"amount":12.5}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", r.Message)

	_, pd, status := do(`{"amount":-1}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Validation failed", pd.Title)
	assert.Equal(t, "/", pd.Instance)

	_, pd, status = do(`{nope`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid request body", pd.Title)
}

func TestProblemDetailsJSON_StatusOverride(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return ProblemDetailsJSON(c, "Too Many Requests", errors.New("rate limit exceeded"), fiber.StatusTooManyRequests)
	})
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	var pd ProblemDetails
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pd))
	assert.Equal(t, "rate limit exceeded", pd.Detail)
	assert.Equal(t, "about:blank", pd.Type)
}
