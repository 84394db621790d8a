package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/advancehq/steward/internal/application"
	"github.com/advancehq/steward/internal/domain"
)

// PortfolioHandler handles portfolio balance HTTP endpoints.
type PortfolioHandler struct {
	reviewUseCase *application.ReviewPortfoliosUseCase
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(reviewUseCase *application.ReviewPortfoliosUseCase) *PortfolioHandler {
	return &PortfolioHandler{
		reviewUseCase: reviewUseCase,
	}
}

// RegisterRoutes registers portfolio routes on the given group.
func (h *PortfolioHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/organizations/:id/portfolio-balance", h.ReviewBalance)
}

// imbalanceResponse describes one organization-wide dispersion finding.
type imbalanceResponse struct {
	Score       float64 `json:"score"`
	Severity    string  `json:"severity"`
	Description string  `json:"description"`
}

// officerAlertResponse flags one officer deviating from the average.
type officerAlertResponse struct {
	OfficerID   string    `json:"officer_id"`
	OfficerName string    `json:"officer_name"`
	Type        string    `json:"type"`
	Severity    string    `json:"severity"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DetectedAt  time.Time `json:"detected_at"`
}

// PortfolioBalanceResponse is the full balance review.
type PortfolioBalanceResponse struct {
	Officers          int                    `json:"officers"`
	HasImbalances     bool                   `json:"has_imbalances"`
	SizeImbalance     *imbalanceResponse     `json:"size_imbalance,omitempty"`
	CapacityImbalance *imbalanceResponse     `json:"capacity_imbalance,omitempty"`
	OfficerAlerts     []officerAlertResponse `json:"officer_alerts"`
}

// ReviewBalance handles GET /api/v1/organizations/:id/portfolio-balance
// measures portfolio dispersion across the organization's officers.
func (h *PortfolioHandler) ReviewBalance(c echo.Context) error {
	organizationID := c.Param("id")
	if err := requireOrganization(c, organizationID); err != nil {
		return err
	}

	output, err := h.reviewUseCase.Execute(c.Request().Context(), application.ReviewPortfoliosInput{
		OrganizationID: organizationID,
	})
	if err != nil {
		return mapDomainError(err)
	}

	response := PortfolioBalanceResponse{
		Officers:          output.Officers,
		HasImbalances:     output.Result.HasImbalances,
		SizeImbalance:     toImbalanceResponse(output.Result.SizeImbalance),
		CapacityImbalance: toImbalanceResponse(output.Result.CapacityImbalance),
		OfficerAlerts:     make([]officerAlertResponse, 0, len(output.OfficerAlerts)),
	}

	for _, alert := range output.OfficerAlerts {
		response.OfficerAlerts = append(response.OfficerAlerts, officerAlertResponse{
			OfficerID:   alert.OfficerID.String(),
			OfficerName: alert.OfficerName,
			Type:        string(alert.Type),
			Severity:    string(alert.Severity),
			Title:       alert.Title,
			Description: alert.Description,
			DetectedAt:  alert.DetectedAt,
		})
	}

	return c.JSON(http.StatusOK, response)
}

// toImbalanceResponse converts a detected imbalance, nil stays nil.
func toImbalanceResponse(im *domain.Imbalance) *imbalanceResponse {
	if im == nil {
		return nil
	}
	return &imbalanceResponse{
		Score:       im.Score,
		Severity:    string(im.Severity),
		Description: im.Description,
	}
}
