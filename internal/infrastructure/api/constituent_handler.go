package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/advancehq/steward/internal/domain"
)

// ConstituentHandler handles constituent-related HTTP endpoints.
type ConstituentHandler struct {
	repo domain.ConstituentRepository
}

// NewConstituentHandler creates a new ConstituentHandler.
func NewConstituentHandler(repo domain.ConstituentRepository) *ConstituentHandler {
	return &ConstituentHandler{
		repo: repo,
	}
}

// RegisterRoutes registers constituent routes on the given group.
func (h *ConstituentHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/organizations/:id/constituents", h.ListByOrganization)
	g.GET("/constituents/:id", h.GetByID)
}

// constituentResponse is the API representation of a constituent.
type constituentResponse struct {
	ID                string    `json:"id"`
	OrganizationID    string    `json:"organization_id"`
	Name              string    `json:"name"`
	EstimatedCapacity *float64  `json:"estimated_capacity,omitempty"`
	CapacitySource    string    `json:"capacity_source,omitempty"`
	AssignedOfficerID *string   `json:"assigned_officer_id,omitempty"`
	PriorityScore     *float64  `json:"priority_score,omitempty"`
	LapseRiskScore    *float64  `json:"lapse_risk_score,omitempty"`
	ScoresUpdatedAt   *string   `json:"scores_updated_at,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// listConstituentsResponse is the API response for listing constituents.
type listConstituentsResponse struct {
	Constituents []constituentResponse `json:"constituents"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

// ListByOrganization returns an organization's constituents.
// GET /api/v1/organizations/:id/constituents?order_by=priority&limit=20&offset=0
// order_by=priority returns the priority-ranked listing, anything else
// sorts by name.
func (h *ConstituentHandler) ListByOrganization(c echo.Context) error {
	orgParam := c.Param("id")
	if err := requireOrganization(c, orgParam); err != nil {
		return err
	}

	organizationID, err := domain.ParseOrganizationID(orgParam)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid organization id")
	}

	limit, offset := parsePagination(c)

	var constituents []*domain.Constituent
	if c.QueryParam("order_by") == "priority" {
		constituents, err = h.repo.ListByPriority(c.Request().Context(), organizationID, limit, offset)
	} else {
		constituents, err = h.repo.ListByOrganization(c.Request().Context(), organizationID, limit, offset)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch constituents")
	}

	response := listConstituentsResponse{
		Constituents: make([]constituentResponse, 0, len(constituents)),
		Limit:        limit,
		Offset:       offset,
	}

	for _, constituent := range constituents {
		response.Constituents = append(response.Constituents, toConstituentResponse(constituent))
	}

	return c.JSON(http.StatusOK, response)
}

// GetByID returns one constituent.
// GET /api/v1/constituents/:id
func (h *ConstituentHandler) GetByID(c echo.Context) error {
	id, err := domain.ParseConstituentID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid constituent id")
	}

	constituent, err := h.repo.FindByID(c.Request().Context(), id)
	if err != nil {
		return mapDomainError(err)
	}

	// tokens never cross organizations; hide rather than reveal
	if claims := GetClaims(c); claims != nil && claims.OrganizationID != constituent.OrganizationID().String() {
		return echo.NewHTTPError(http.StatusNotFound, "constituent not found")
	}

	return c.JSON(http.StatusOK, toConstituentResponse(constituent))
}

// parsePagination reads limit/offset query params with defaults.
func parsePagination(c echo.Context) (limit, offset int) {
	limit = 20
	offset = 0

	if l := c.QueryParam("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	if o := c.QueryParam("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	return limit, offset
}

// toConstituentResponse converts a domain constituent to API response.
func toConstituentResponse(constituent *domain.Constituent) constituentResponse {
	resp := constituentResponse{
		ID:                constituent.ID().String(),
		OrganizationID:    constituent.OrganizationID().String(),
		Name:              constituent.Name(),
		EstimatedCapacity: constituent.EstimatedCapacity(),
		CapacitySource:    constituent.CapacitySource(),
		CreatedAt:         constituent.CreatedAt(),
	}

	if officerID := constituent.AssignedOfficerID(); officerID != nil {
		s := officerID.String()
		resp.AssignedOfficerID = &s
	}
	if score := constituent.PriorityScore(); score != nil {
		v := score.Value()
		resp.PriorityScore = &v
	}
	if score := constituent.LapseRiskScore(); score != nil {
		v := score.Value()
		resp.LapseRiskScore = &v
	}
	if t := constituent.ScoresUpdatedAt(); t != nil {
		formatted := t.Format(time.RFC3339)
		resp.ScoresUpdatedAt = &formatted
	}

	return resp
}
