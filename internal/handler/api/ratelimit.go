package api

import (
	"github.com/labstack/echo/v4"

	"CascadeWatch/internal/service/metrics"
	"CascadeWatch/internal/service/ratelimit"
	xhttp "CascadeWatch/pkg/http"
)

// limitByIP rejects requests over the per-client budget with 429.
func limitByIP(l *ratelimit.Limiter, endpoint string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				metrics.APIErrors.WithLabelValues(endpoint, "rate_limited").Inc()
				return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError())
			}
			return next(c)
		}
	}
}
