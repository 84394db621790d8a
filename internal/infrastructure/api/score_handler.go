package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/advancehq/steward/internal/application"
	"github.com/advancehq/steward/internal/domain"
)

// ScoreHandler handles scoring related HTTP requests.
type ScoreHandler struct {
	scoreUseCase *application.ScoreConstituentUseCase
}

// NewScoreHandler creates a new ScoreHandler.
func NewScoreHandler(scoreUseCase *application.ScoreConstituentUseCase) *ScoreHandler {
	return &ScoreHandler{
		scoreUseCase: scoreUseCase,
	}
}

// RegisterRoutes registers the scoring routes on the given group.
func (h *ScoreHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/constituents/:id/scores", h.ScoreConstituent)
	g.POST("/organizations/:id/scoring-sweep", h.ScoreOrganization)
}

// factorResponse is the API representation of one scoring factor.
type factorResponse struct {
	Name       string   `json:"name"`
	Score      float64  `json:"score"`
	Value      string   `json:"value"`
	Impact     string   `json:"impact"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// compositeResponse is the API representation of a composite score.
type compositeResponse struct {
	Score             float64          `json:"score"`
	Confidence        float64          `json:"confidence"`
	Factors           []factorResponse `json:"factors"`
	RecommendedAction *actionResponse  `json:"recommended_action,omitempty"`
}

// actionResponse is the suggested next move for an officer.
type actionResponse struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// lapseRiskResponse extends the composite with tier and window.
type lapseRiskResponse struct {
	compositeResponse
	Tier            string `json:"tier"`
	PredictedWindow string `json:"predicted_window,omitempty"`
}

// ScoreConstituentResponse is the response for a single scoring run.
type ScoreConstituentResponse struct {
	ConstituentID string            `json:"constituent_id"`
	Priority      compositeResponse `json:"priority"`
	LapseRisk     lapseRiskResponse `json:"lapse_risk"`
	ScoredAt      time.Time         `json:"scored_at"`
}

// ScoreConstituent handles POST /api/v1/constituents/:id/scores
// computes and stores both composite scores for one constituent.
func (h *ScoreHandler) ScoreConstituent(c echo.Context) error {
	constituentID := c.Param("id")
	if constituentID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "constituent id is required")
	}

	claims := GetClaims(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authorization token required")
	}

	// the organization scope travels into the use case so a cross-org
	// token never reaches the score writes; the mismatch surfaces as 404
	output, err := h.scoreUseCase.Execute(c.Request().Context(), application.ScoreConstituentInput{
		ConstituentID:  constituentID,
		OrganizationID: claims.OrganizationID,
	})
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusOK, ScoreConstituentResponse{
		ConstituentID: output.ConstituentID,
		Priority:      toCompositeResponse(output.Priority),
		LapseRisk:     toLapseRiskResponse(output.LapseRisk),
		ScoredAt:      output.ScoredAt,
	})
}

// ScoreOrganizationRequest is the request body for a scoring sweep.
type ScoreOrganizationRequest struct {
	Limit int `json:"limit,omitempty"`
}

// ScoreOrganizationResponse is the response for a scoring sweep.
type ScoreOrganizationResponse struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// ScoreOrganization handles POST /api/v1/organizations/:id/scoring-sweep
// re-scores every constituent in the organization.
func (h *ScoreHandler) ScoreOrganization(c echo.Context) error {
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

	var req ScoreOrganizationRequest
	if err := c.Bind(&req); err != nil {
		// bind errors are fine here, we have defaults
		req = ScoreOrganizationRequest{}
	}

	output, err := h.scoreUseCase.ExecuteAll(c.Request().Context(), application.ScoreOrganizationInput{
		OrganizationID: organizationID,
		Limit:          req.Limit,
	})
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusOK, ScoreOrganizationResponse{
		Processed: output.Processed,
		Succeeded: output.Succeeded,
		Failed:    output.Failed,
	})
}

// toCompositeResponse converts a domain composite score to API response.
func toCompositeResponse(s domain.CompositeScore) compositeResponse {
	resp := compositeResponse{
		Score:      s.Score.Value(),
		Confidence: s.Confidence,
		Factors:    make([]factorResponse, 0, len(s.Factors)),
	}

	for _, f := range s.Factors {
		resp.Factors = append(resp.Factors, factorResponse{
			Name:       f.Name,
			Score:      f.Score.Value(),
			Value:      f.Value,
			Impact:     string(f.Impact),
			Confidence: f.Confidence,
		})
	}

	if s.RecommendedAction != nil {
		resp.RecommendedAction = &actionResponse{
			Action: s.RecommendedAction.Action,
			Reason: s.RecommendedAction.Reason,
		}
	}

	return resp
}

// toLapseRiskResponse converts a domain lapse risk result to API response.
func toLapseRiskResponse(r domain.LapseRiskResult) lapseRiskResponse {
	return lapseRiskResponse{
		compositeResponse: toCompositeResponse(r.CompositeScore),
		Tier:              string(r.Tier),
		PredictedWindow:   r.PredictedWindow,
	}
}
