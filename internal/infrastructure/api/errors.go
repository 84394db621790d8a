package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/advancehq/steward/internal/domain"
)

// mapDomainError maps domain/application errors to HTTP errors.
func mapDomainError(err error) error {
	switch {
	case isNotFoundError(err):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case isValidationError(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

// isNotFoundError checks if the error indicates a not found condition.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrNotFound) {
		return true
	}
	return strings.Contains(err.Error(), "not found")
}

// isValidationError checks if the error indicates a validation failure.
func isValidationError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "invalid") || strings.Contains(msg, "required")
}
