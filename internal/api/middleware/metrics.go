package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bledden/tinker-voice/internal/metrics"
)

// unmatchedRoute labels requests that hit no registered route so that
// arbitrary URLs cannot grow the label set.
const unmatchedRoute = "unmatched"

// healthGauges maps probe paths to the gauge they update instead of the
// request histogram.
var healthGauges = map[string]prometheus.Gauge{
	"/healthz": metrics.HealthzUp,
	"/readyz":  metrics.ReadyzUp,
}

// skipPrefixes are documentation and scrape paths left out of request
// metrics.
var skipPrefixes = []string{"/metrics", "/openapi", "/docs", "/schemas"}

// Metrics returns Echo middleware that records request duration and count
// by method, route template, and status.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if gauge, ok := healthGauges[path]; ok {
				err := next(c)
				if err != nil {
					c.Error(err)
				}
				setUp(gauge, c.Response().Status)
				return nil
			}
			for _, p := range skipPrefixes {
				if strings.HasPrefix(path, p) {
					return next(c)
				}
			}

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" || route == "/*" && c.Response().Status == http.StatusNotFound {
				route = unmatchedRoute
			}
			status := strconv.Itoa(c.Response().Status)
			method := c.Request().Method

			metrics.HTTPRequestDuration.
				WithLabelValues(method, route, status).
				Observe(time.Since(start).Seconds())
			metrics.HTTPRequestsTotal.
				WithLabelValues(method, route, status).
				Inc()

			return nil
		}
	}
}

func setUp(g prometheus.Gauge, status int) {
	if status >= 200 && status < 300 {
		g.Set(1)
		return
	}
	g.Set(0)
}
