package application

import (
	"context"
	"fmt"

	"github.com/advancehq/steward/internal/domain"
	"github.com/advancehq/steward/internal/infrastructure/logging"
)

// PortfolioMetricsRecorder abstracts prometheus gauges for portfolio
// dispersion.
type PortfolioMetricsRecorder interface {
	SetPortfolioImbalance(organizationID, dimension string, score float64)
}

// ReviewPortfoliosInput selects the organization to review.
type ReviewPortfoliosInput struct {
	OrganizationID string
}

// ReviewPortfoliosOutput contains the organization-wide dispersion result
// and the per-officer deviations.
type ReviewPortfoliosOutput struct {
	Officers      int
	Result        domain.ImbalanceResult
	OfficerAlerts []domain.OfficerAlert
}

// ReviewPortfoliosUseCase measures portfolio balance across an
// organization's gift officers.
type ReviewPortfoliosUseCase struct {
	officerRepo  domain.OfficerRepository
	thresholds   *domain.ImbalanceThresholds
	timeProvider TimeProvider
	metrics      PortfolioMetricsRecorder
	logger       *logging.Logger
}

// NewReviewPortfoliosUseCase creates a new ReviewPortfoliosUseCase.
// thresholds may be nil to use the calibrated defaults.
func NewReviewPortfoliosUseCase(
	officerRepo domain.OfficerRepository,
	thresholds *domain.ImbalanceThresholds,
	logger *logging.Logger,
) *ReviewPortfoliosUseCase {
	return &ReviewPortfoliosUseCase{
		officerRepo:  officerRepo,
		thresholds:   thresholds,
		timeProvider: RealTime,
		logger:       logger.WithComponent("review_portfolios"),
	}
}

// WithTimeProvider sets a custom time provider for testing.
func (uc *ReviewPortfoliosUseCase) WithTimeProvider(tp TimeProvider) *ReviewPortfoliosUseCase {
	uc.timeProvider = tp
	return uc
}

// WithMetrics sets the metrics recorder for observability.
func (uc *ReviewPortfoliosUseCase) WithMetrics(m PortfolioMetricsRecorder) *ReviewPortfoliosUseCase {
	uc.metrics = m
	return uc
}

// Execute aggregates officer portfolios and runs imbalance detection.
func (uc *ReviewPortfoliosUseCase) Execute(ctx context.Context, input ReviewPortfoliosInput) (*ReviewPortfoliosOutput, error) {
	organizationID, err := domain.ParseOrganizationID(input.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("invalid organization id: %w", err)
	}

	officers, err := uc.officerRepo.PortfolioMetricsByOrganization(ctx, organizationID)
	if err != nil {
		uc.logger.Error("portfolio review failed: loading officer metrics",
			"organization_id", organizationID.String(),
			"error", err.Error(),
		)
		return nil, fmt.Errorf("loading officer metrics: %w", err)
	}

	result := domain.DetectImbalances(officers, uc.thresholds)
	officerAlerts := domain.GenerateImbalanceAlerts(officers, uc.timeProvider(), uc.thresholds)

	uc.publishGauges(organizationID, result)
	uc.logger.PortfolioReviewCompleted(organizationID.String(), len(officers), len(officerAlerts))

	return &ReviewPortfoliosOutput{
		Officers:      len(officers),
		Result:        result,
		OfficerAlerts: officerAlerts,
	}, nil
}

// publishGauges exports the latest dispersion scores. dimensions without
// a detected imbalance publish zero so recoveries are visible.
func (uc *ReviewPortfoliosUseCase) publishGauges(organizationID domain.OrganizationID, result domain.ImbalanceResult) {
	if uc.metrics == nil {
		return
	}

	sizeScore := 0.0
	if result.SizeImbalance != nil {
		sizeScore = result.SizeImbalance.Score
	}
	capacityScore := 0.0
	if result.CapacityImbalance != nil {
		capacityScore = result.CapacityImbalance.Score
	}

	uc.metrics.SetPortfolioImbalance(organizationID.String(), "size", sizeScore)
	uc.metrics.SetPortfolioImbalance(organizationID.String(), "capacity", capacityScore)
}
