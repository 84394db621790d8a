package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthChecker verifies one dependency is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// RegisterHealthRoutes registers health check endpoints.
// these are public and don't require authentication. db may be nil in
// tests; readiness then degrades to a liveness check.
func RegisterHealthRoutes(e *echo.Echo, db HealthChecker) {
	e.GET("/health", healthHandler)
	e.GET("/ready", readyHandler(db))
}

// healthHandler returns the basic health status.
// used for liveness probes.
func healthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: "steward",
	})
}

// readyHandler returns the readiness status.
// used for readiness probes; checks database connectivity.
func readyHandler(db HealthChecker) echo.HandlerFunc {
	return func(c echo.Context) error {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
			defer cancel()

			if err := db.HealthCheck(ctx); err != nil {
				return c.JSON(http.StatusServiceUnavailable, HealthResponse{
					Status:  "not ready",
					Service: "steward",
				})
			}
		}

		return c.JSON(http.StatusOK, HealthResponse{
			Status:  "ready",
			Service: "steward",
		})
	}
}
