package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/advancehq/steward/internal/application"
	"github.com/advancehq/steward/internal/domain"
)

// AlertHandler handles alert-related HTTP endpoints.
type AlertHandler struct {
	sweepUseCase *application.SweepAlertsUseCase
	repo         domain.AlertRepository
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(sweepUseCase *application.SweepAlertsUseCase, repo domain.AlertRepository) *AlertHandler {
	return &AlertHandler{
		sweepUseCase: sweepUseCase,
		repo:         repo,
	}
}

// RegisterRoutes registers alert routes on the given group.
func (h *AlertHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/organizations/:id/alert-sweep", h.SweepAlerts)
	g.GET("/organizations/:id/alerts", h.ListAlerts)
	g.PATCH("/alerts/:id/status", h.UpdateStatus)
}

// SweepAlertsRequest is the request body for an alert sweep.
type SweepAlertsRequest struct {
	Limit int `json:"limit,omitempty"`
}

// SweepAlertsResponse is the response for an alert sweep.
type SweepAlertsResponse struct {
	Scanned   int `json:"scanned"`
	Generated int `json:"generated"`
}

// SweepAlerts handles POST /api/v1/organizations/:id/alert-sweep
// runs anomaly detection and rewrites the organization's open alerts.
func (h *AlertHandler) SweepAlerts(c echo.Context) error {
	organizationID := c.Param("id")
	if organizationID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "organization id is required")
	}

	if err := requireOrganization(c, organizationID); err != nil {
		return err
	}
	if err := requireSweepRole(c); err != nil {
		return err
	}

	var req SweepAlertsRequest
	if err := c.Bind(&req); err != nil {
		// bind errors are fine here, we have defaults
		req = SweepAlertsRequest{}
	}

	output, err := h.sweepUseCase.Execute(c.Request().Context(), application.SweepAlertsInput{
		OrganizationID: organizationID,
		Limit:          req.Limit,
	})
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusOK, SweepAlertsResponse{
		Scanned:   output.Scanned,
		Generated: output.Generated,
	})
}

// alertResponse is the API representation of an alert.
type alertResponse struct {
	ID            string           `json:"id"`
	ConstituentID string           `json:"constituent_id"`
	Type          string           `json:"type"`
	Severity      string           `json:"severity"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Factors       []factorResponse `json:"factors"`
	Status        string           `json:"status"`
	DetectedAt    time.Time        `json:"detected_at"`
}

// listAlertsResponse is the API response for listing alerts.
type listAlertsResponse struct {
	Alerts []alertResponse `json:"alerts"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// ListAlerts returns an organization's alerts, newest first.
// GET /api/v1/organizations/:id/alerts?status=open&limit=20&offset=0
func (h *AlertHandler) ListAlerts(c echo.Context) error {
	orgParam := c.Param("id")
	if err := requireOrganization(c, orgParam); err != nil {
		return err
	}

	organizationID, err := domain.ParseOrganizationID(orgParam)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid organization id")
	}

	var statusFilter *domain.AlertStatus
	if raw := c.QueryParam("status"); raw != "" {
		status, err := domain.ParseAlertStatus(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid alert status")
		}
		statusFilter = &status
	}

	limit, offset := parsePagination(c)

	alerts, err := h.repo.ListByOrganization(c.Request().Context(), organizationID, statusFilter, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch alerts")
	}

	response := listAlertsResponse{
		Alerts: make([]alertResponse, 0, len(alerts)),
		Limit:  limit,
		Offset: offset,
	}

	for _, alert := range alerts {
		response.Alerts = append(response.Alerts, toAlertResponse(alert))
	}

	return c.JSON(http.StatusOK, response)
}

// UpdateStatusRequest is the request body for an alert status change.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/v1/alerts/:id/status
// transitions an alert between open, acknowledged, and dismissed. the
// update runs scoped to the token's organization, so an alert belonging
// to another organization comes back as 404.
func (h *AlertHandler) UpdateStatus(c echo.Context) error {
	claims := GetClaims(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authorization token required")
	}

	organizationID, err := domain.ParseOrganizationID(claims.OrganizationID)
	if err != nil {
		return echo.NewHTTPError(http.StatusForbidden, "token organization is not valid")
	}

	id, err := domain.ParseAlertID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid alert id")
	}

	var req UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	status, err := domain.ParseAlertStatus(req.Status)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid alert status")
	}

	if err := h.repo.UpdateStatus(c.Request().Context(), organizationID, id, status); err != nil {
		return mapDomainError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// toAlertResponse converts a domain alert to API response.
func toAlertResponse(alert domain.Alert) alertResponse {
	factors := make([]factorResponse, 0, len(alert.Factors))
	for _, f := range alert.Factors {
		factors = append(factors, factorResponse{
			Name:       f.Name,
			Score:      f.Score.Value(),
			Value:      f.Value,
			Impact:     string(f.Impact),
			Confidence: f.Confidence,
		})
	}

	return alertResponse{
		ID:            alert.ID.String(),
		ConstituentID: alert.ConstituentID.String(),
		Type:          string(alert.Type),
		Severity:      string(alert.Severity),
		Title:         alert.Title,
		Description:   alert.Description,
		Factors:       factors,
		Status:        string(alert.Status),
		DetectedAt:    alert.DetectedAt,
	}
}
