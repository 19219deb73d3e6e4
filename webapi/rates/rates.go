package rates

import (
	"fmt"

	"github.com/amirasaad/fxconvert/pkg/currency"
	"github.com/amirasaad/fxconvert/pkg/domain"
	"github.com/amirasaad/fxconvert/pkg/service/exchange"
	"github.com/amirasaad/fxconvert/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the rate table and one-shot conversion endpoints.
func Routes(app *fiber.App, exchangeSvc *exchange.Service) {
	api := app.Group("/api")
	api.Get("/rates", ListRates(exchangeSvc))
	api.Get("/rates/status", GetStatus(exchangeSvc))
	api.Get("/convert", Convert(exchangeSvc))
}

// ListRates returns the current rate table, refreshing it first when stale.
// @Summary List exchange rates
// @Tags rates
// @Produce json
// @Success 200 {object} common.Response
// @Failure 502 {object} common.ProblemDetails
// @Router /api/rates [get]
func ListRates(exchangeSvc *exchange.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rates, err := exchangeSvc.AcquireRates(c.UserContext())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to acquire exchange rates", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Rates fetched successfully", RatesResponse{
			Base:  exchangeSvc.BaseCurrency(),
			Count: len(rates),
			Rates: rates,
		})
	}
}

// GetStatus reports the freshness of the local rate table.
// @Summary Rate table status
// @Tags rates
// @Produce json
// @Success 200 {object} common.Response
// @Router /api/rates/status [get]
func GetStatus(exchangeSvc *exchange.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := exchangeSvc.Status(c.UserContext())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to read rate status", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Status fetched successfully", StatusResponse{
			LastFetchedAt:   timePtr(st.LastFetchedAt),
			NextRefreshAt:   timePtr(st.NextRefreshAt),
			Fresh:           st.Fresh,
			RefreshInterval: exchangeSvc.RefreshInterval().String(),
			BaseCurrency:    exchangeSvc.BaseCurrency(),
		})
	}
}

// Convert expresses amount, given in base, in every known currency.
// With strict=true a base missing from the table is rejected instead of
// being treated as the table's own base.
// @Summary Convert an amount
// @Tags rates
// @Produce json
// @Param base query string false "ISO 4217 code, defaults to the service base"
// @Param amount query number true "Amount in base"
// @Param strict query bool false "Reject unknown base"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 422 {object} common.ProblemDetails
// @Failure 502 {object} common.ProblemDetails
// @Router /api/convert [get]
func Convert(exchangeSvc *exchange.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := common.BindQueryAndValidate[ConvertQuery](c)
		if err != nil {
			return nil // error response already written
		}
		base := currency.Normalize(q.Base)
		if base == "" {
			base = exchangeSvc.BaseCurrency()
		}

		rates, err := exchangeSvc.AcquireRates(c.UserContext())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to acquire exchange rates", err)
		}

		if currency.IsZeroRate(rates, base) {
			return common.ProblemDetailsJSON(c, "Conversion failed",
				fmt.Errorf("%w: %q has a zero rate", domain.ErrInvalidCurrencyCode, base))
		}

		var conversions []domain.Conversion
		if q.Strict {
			conversions, err = currency.ConvertStrict(rates, base, q.Amount)
			if err != nil {
				return common.ProblemDetailsJSON(c, "Conversion failed", err)
			}
		} else {
			conversions = currency.Convert(rates, base, q.Amount)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Conversion completed", ConvertResponse{
			Base:        base,
			Amount:      q.Amount,
			Conversions: ToConversionResponses(conversions),
		})
	}
}
