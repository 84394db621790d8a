package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/advancehq/steward/internal/infrastructure/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsContextKey is the context key for the validated token claims.
	ClaimsContextKey contextKey = "api_claims"
)

// AuthConfig holds authentication middleware configuration.
type AuthConfig struct {
	// Validator verifies and decodes bearer tokens.
	Validator *auth.JWTValidator

	// Skipper defines a function to skip auth for certain routes.
	Skipper func(c echo.Context) bool
}

// AuthMiddleware validates the bearer token on every request and stores
// the decoded claims in the request context. requests without a valid
// token are rejected with 401.
func AuthMiddleware(config AuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper != nil && config.Skipper(c) {
				return next(c)
			}

			token := auth.ExtractBearerToken(c.Request().Header.Get(echo.HeaderAuthorization))

			claims, err := config.Validator.ValidateToken(token)
			if err != nil {
				return authError(err)
			}

			c.Set(string(ClaimsContextKey), claims)

			return next(c)
		}
	}
}

// authError maps token validation failures to HTTP errors without
// leaking signature details.
func authError(err error) error {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return echo.NewHTTPError(http.StatusUnauthorized, "authorization token required")
	case errors.Is(err, auth.ErrTokenExpired):
		return echo.NewHTTPError(http.StatusUnauthorized, "token has expired")
	default:
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
}

// GetClaims retrieves the validated claims from context.
// returns nil if the request was not authenticated.
func GetClaims(c echo.Context) *auth.APIClaims {
	if val := c.Get(string(ClaimsContextKey)); val != nil {
		if claims, ok := val.(*auth.APIClaims); ok {
			return claims
		}
	}
	return nil
}

// requireOrganization checks that the caller's token is scoped to the
// organization being addressed. tokens never cross organizations.
func requireOrganization(c echo.Context, organizationID string) error {
	claims := GetClaims(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authorization token required")
	}
	if claims.OrganizationID != organizationID {
		return echo.NewHTTPError(http.StatusForbidden, "token not valid for this organization")
	}
	return nil
}

// requireSweepRole checks that the caller may trigger scoring and alert
// sweeps.
func requireSweepRole(c echo.Context) error {
	claims := GetClaims(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authorization token required")
	}
	if !claims.CanSweep() {
		return echo.NewHTTPError(http.StatusForbidden, "insufficient role for sweep operations")
	}
	return nil
}
