package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Middleware returns an Echo middleware that records HTTP request metrics.
// the scrape endpoint itself is excluded so the histogram stays about API
// traffic, not prometheus polling.
func Middleware(m *Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().URL.Path == "/metrics" {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			method := c.Request().Method

			m.RecordHTTPRequest(method, normalizePath(c), status, duration)

			return err
		}
	}
}

// normalizePath extracts the route pattern rather than the actual path
// to prevent high cardinality labels from things like IDs.
// e.g. /api/v1/organizations/7f00.../alerts becomes
// /api/v1/organizations/:id/alerts
func normalizePath(c echo.Context) string {
	// use the matched route pattern if available
	if path := c.Path(); path != "" {
		return path
	}
	// unmatched routes (404s etc) have no pattern; collapse any uuid
	// segments a client sent so the label set stays bounded
	return collapseIDSegments(c.Request().URL.Path)
}

// collapseIDSegments replaces uuid-shaped path segments with :id.
func collapseIDSegments(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if _, err := uuid.Parse(segment); err == nil {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}
