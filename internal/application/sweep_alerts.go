package application

import (
	"context"
	"fmt"

	"github.com/advancehq/steward/internal/domain"
	"github.com/advancehq/steward/internal/infrastructure/logging"
)

// AlertMetricsRecorder abstracts prometheus metrics for alert sweeps.
type AlertMetricsRecorder interface {
	RecordAlertGenerated(alertType, severity string)
}

// SweepAlertsInput selects the organization to scan.
type SweepAlertsInput struct {
	OrganizationID string
	Limit          int // max constituents to scan, 0 for all
}

// SweepAlertsOutput contains the result of an alert sweep.
type SweepAlertsOutput struct {
	Scanned   int
	Generated int
}

// SweepAlertsUseCase runs anomaly detection across an organization and
// replaces its open alerts with the fresh findings. acknowledged and
// dismissed alerts are officer decisions and survive the rewrite.
type SweepAlertsUseCase struct {
	constituentRepo domain.ConstituentRepository
	historyRepo     domain.HistoryRepository
	alertRepo       domain.AlertRepository
	detectorConfig  domain.DetectorConfig
	timeProvider    TimeProvider
	metrics         AlertMetricsRecorder
	logger          *logging.Logger
}

// NewSweepAlertsUseCase creates a new SweepAlertsUseCase.
func NewSweepAlertsUseCase(
	constituentRepo domain.ConstituentRepository,
	historyRepo domain.HistoryRepository,
	alertRepo domain.AlertRepository,
	detectorConfig domain.DetectorConfig,
	logger *logging.Logger,
) *SweepAlertsUseCase {
	return &SweepAlertsUseCase{
		constituentRepo: constituentRepo,
		historyRepo:     historyRepo,
		alertRepo:       alertRepo,
		detectorConfig:  detectorConfig,
		timeProvider:    RealTime,
		logger:          logger.WithComponent("sweep_alerts"),
	}
}

// WithTimeProvider sets a custom time provider for testing.
func (uc *SweepAlertsUseCase) WithTimeProvider(tp TimeProvider) *SweepAlertsUseCase {
	uc.timeProvider = tp
	return uc
}

// WithMetrics sets the metrics recorder for observability.
func (uc *SweepAlertsUseCase) WithMetrics(m AlertMetricsRecorder) *SweepAlertsUseCase {
	uc.metrics = m
	return uc
}

// Execute scans every constituent in the organization and rewrites the
// organization's open alerts with the current findings.
func (uc *SweepAlertsUseCase) Execute(ctx context.Context, input SweepAlertsInput) (*SweepAlertsOutput, error) {
	organizationID, err := domain.ParseOrganizationID(input.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("invalid organization id: %w", err)
	}

	limit := input.Limit
	if limit == 0 {
		limit = defaultSweepLimit
	}

	constituents, err := uc.constituentRepo.ListByOrganization(ctx, organizationID, limit, 0)
	if err != nil {
		uc.logger.Error("alert sweep failed: listing constituents",
			"organization_id", organizationID.String(),
			"error", err.Error(),
		)
		return nil, fmt.Errorf("listing constituents: %w", err)
	}

	inputs := make([]domain.AnomalyInput, 0, len(constituents))
	for _, c := range constituents {
		gifts, err := uc.historyRepo.GiftsByConstituent(ctx, c.ID())
		if err != nil {
			uc.logger.Warn("skipping constituent: gift history load failed",
				"constituent_id", c.ID().String(),
				"error", err.Error(),
			)
			continue
		}

		contacts, err := uc.historyRepo.ContactsByConstituent(ctx, c.ID())
		if err != nil {
			uc.logger.Warn("skipping constituent: contact history load failed",
				"constituent_id", c.ID().String(),
				"error", err.Error(),
			)
			continue
		}

		inputs = append(inputs, domain.AnomalyInput{
			ConstituentID:     c.ID(),
			Gifts:             gifts,
			Contacts:          contacts,
			EstimatedCapacity: c.EstimatedCapacity(),
		})
	}

	now := uc.timeProvider()
	alerts := domain.GenerateAlertsForOrganization(organizationID, inputs, now, uc.detectorConfig)

	// clear the previous sweep's open alerts so findings never duplicate
	if err := uc.alertRepo.DeleteOpenByOrganization(ctx, organizationID); err != nil {
		uc.logger.Error("alert sweep failed: clearing open alerts",
			"organization_id", organizationID.String(),
			"error", err.Error(),
		)
		return nil, fmt.Errorf("clearing open alerts: %w", err)
	}

	if len(alerts) > 0 {
		if err := uc.alertRepo.SaveBatch(ctx, alerts); err != nil {
			uc.logger.Error("alert sweep failed: saving alerts",
				"organization_id", organizationID.String(),
				"alert_count", len(alerts),
				"error", err.Error(),
			)
			return nil, fmt.Errorf("saving alerts: %w", err)
		}
	}

	if uc.metrics != nil {
		for _, alert := range alerts {
			uc.metrics.RecordAlertGenerated(string(alert.Type), string(alert.Severity))
		}
	}

	uc.logger.AlertSweepCompleted(organizationID.String(), len(alerts))

	return &SweepAlertsOutput{
		Scanned:   len(inputs),
		Generated: len(alerts),
	}, nil
}
