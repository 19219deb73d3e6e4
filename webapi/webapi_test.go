package webapi_test

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/amirasaad/fxconvert/webapi/common"
	"github.com/amirasaad/fxconvert/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
)

type WebAPITestSuite struct {
	suite.Suite
}

func (s *WebAPITestSuite) TestRootRoute() {
	ta := testutils.NewTestApp(s.T(), nil, nil)
	resp := ta.MakeRequest(s.T(), http.MethodGet, "/", "")
	defer resp.Body.Close() //nolint:errcheck
	s.Equal(http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	s.Contains(string(body), "fxconvert API is running")
}

func (s *WebAPITestSuite) TestNotFoundRoute() {
	ta := testutils.NewTestApp(s.T(), nil, nil)
	resp := ta.MakeRequest(s.T(), http.MethodGet, "/nope", "")
	pd := testutils.DecodeJSON[common.ProblemDetails](s.T(), resp)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Equal(http.StatusNotFound, pd.Status)
}

func (s *WebAPITestSuite) TestRateLimit() {
	cfg := testutils.TestConfig()
	cfg.RateLimit.MaxRequests = 3
	cfg.RateLimit.Window = time.Minute
	ta := testutils.NewTestApp(s.T(), nil, cfg)

	for i := range 4 {
		resp := ta.MakeRequest(s.T(), fiber.MethodGet, "/", "")
		resp.Body.Close() //nolint:errcheck
		if i < 3 {
			s.Equal(fiber.StatusOK, resp.StatusCode, "Expected OK for request %d", i+1)
		} else {
			s.Equal(fiber.StatusTooManyRequests, resp.StatusCode, "Expected Too Many Requests for request %d", i+1)
		}
	}
}

func TestWebAPITestSuite(t *testing.T) {
	suite.Run(t, new(WebAPITestSuite))
}
