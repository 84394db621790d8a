package api

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/advancehq/steward/internal/application"
	"github.com/advancehq/steward/internal/domain"
	"github.com/advancehq/steward/internal/infrastructure/auth"
	"github.com/advancehq/steward/internal/infrastructure/logging"
	"github.com/advancehq/steward/internal/infrastructure/metrics"
)

// RouterConfig holds dependencies for route registration.
type RouterConfig struct {
	ScoreConstituentUseCase *application.ScoreConstituentUseCase
	SweepAlertsUseCase      *application.SweepAlertsUseCase
	ReviewPortfoliosUseCase *application.ReviewPortfoliosUseCase
	ConstituentRepo         domain.ConstituentRepository
	AlertRepo               domain.AlertRepository
	JWTValidator            *auth.JWTValidator
	Database                HealthChecker
	Logger                  *logging.Logger
	Metrics                 *metrics.Metrics
}

// RegisterRoutes sets up all API routes on the server.
// follows RESTful conventions and groups routes logically.
func RegisterRoutes(e *echo.Echo, config RouterConfig) {
	// prometheus metrics endpoint (no auth, standard scraping path)
	if config.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(
			config.Metrics.Registry,
			promhttp.HandlerOpts{
				Registry:          config.Metrics.Registry,
				EnableOpenMetrics: true,
			},
		)))

		// apply metrics middleware to all routes
		e.Use(metrics.Middleware(config.Metrics))
	}

	// health endpoints (no auth required)
	RegisterHealthRoutes(e, config.Database)

	// api v1 group with required auth
	v1 := e.Group("/api/v1")
	v1.Use(AuthMiddleware(AuthConfig{
		Validator: config.JWTValidator,
	}))

	// register domain handlers
	if config.ScoreConstituentUseCase != nil {
		scoreHandler := NewScoreHandler(config.ScoreConstituentUseCase)
		scoreHandler.RegisterRoutes(v1)
	}

	if config.SweepAlertsUseCase != nil && config.AlertRepo != nil {
		alertHandler := NewAlertHandler(config.SweepAlertsUseCase, config.AlertRepo)
		alertHandler.RegisterRoutes(v1)
	}

	if config.ReviewPortfoliosUseCase != nil {
		portfolioHandler := NewPortfolioHandler(config.ReviewPortfoliosUseCase)
		portfolioHandler.RegisterRoutes(v1)
	}

	if config.ConstituentRepo != nil {
		constituentHandler := NewConstituentHandler(config.ConstituentRepo)
		constituentHandler.RegisterRoutes(v1)
	}

	metricsEnabled := config.Metrics != nil
	config.Logger.Info("api routes registered",
		"version", "v1",
		"health_endpoints", []string{"/health", "/ready"},
		"metrics_enabled", metricsEnabled,
		"api_prefix", "/api/v1",
	)
}
