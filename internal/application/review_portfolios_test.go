package application

import (
	"context"
	"errors"
	"testing"

	"github.com/advancehq/steward/internal/domain"
	"github.com/advancehq/steward/internal/infrastructure/logging"
)

type fakeOfficerRepo struct {
	metrics []domain.OfficerPortfolioMetrics
	err     error
}

func (r *fakeOfficerRepo) PortfolioMetricsByOrganization(_ context.Context, _ domain.OrganizationID) ([]domain.OfficerPortfolioMetrics, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.metrics, nil
}

type gaugeCall struct {
	organizationID string
	dimension      string
	score          float64
}

type fakeGauges struct {
	calls []gaugeCall
}

func (f *fakeGauges) SetPortfolioImbalance(organizationID, dimension string, score float64) {
	f.calls = append(f.calls, gaugeCall{organizationID, dimension, score})
}

func officerMetrics(t *testing.T, name string, count int, capacity float64) domain.OfficerPortfolioMetrics {
	t.Helper()
	return domain.OfficerPortfolioMetrics{
		OfficerID:        domain.NewOfficerID(),
		OfficerName:      name,
		ConstituentCount: count,
		TotalCapacity:    capacity,
	}
}

func TestReviewPortfoliosSkewedTeam(t *testing.T) {
	officers := &fakeOfficerRepo{metrics: []domain.OfficerPortfolioMetrics{
		officerMetrics(t, "Overloaded", 150, 1_500_000),
		officerMetrics(t, "Underused", 20, 200_000),
		officerMetrics(t, "Typical", 70, 700_000),
	}}
	gauges := &fakeGauges{}

	uc := NewReviewPortfoliosUseCase(officers, nil, logging.New()).
		WithTimeProvider(fixedTime).
		WithMetrics(gauges)

	output, err := uc.Execute(context.Background(), ReviewPortfoliosInput{
		OrganizationID: mustOrganization(t).String(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if output.Officers != 3 {
		t.Errorf("expected 3 officers, got %d", output.Officers)
	}
	if !output.Result.HasImbalances {
		t.Error("expected imbalances for a heavily skewed team")
	}
	if len(output.OfficerAlerts) == 0 {
		t.Fatal("expected per-officer deviation alerts")
	}

	for _, alert := range output.OfficerAlerts {
		if !alert.DetectedAt.Equal(fixedTime()) {
			t.Errorf("alert should carry the review reference date, got %v", alert.DetectedAt)
		}
	}

	// both dimensions publish a gauge, even balanced ones
	if len(gauges.calls) != 2 {
		t.Fatalf("expected 2 gauge updates, got %d", len(gauges.calls))
	}
	dims := map[string]bool{}
	for _, call := range gauges.calls {
		dims[call.dimension] = true
	}
	if !dims["size"] || !dims["capacity"] {
		t.Errorf("expected size and capacity gauges, got %v", gauges.calls)
	}
}

func TestReviewPortfoliosBalancedTeam(t *testing.T) {
	officers := &fakeOfficerRepo{metrics: []domain.OfficerPortfolioMetrics{
		officerMetrics(t, "A", 50, 500_000),
		officerMetrics(t, "B", 52, 520_000),
		officerMetrics(t, "C", 48, 480_000),
	}}
	gauges := &fakeGauges{}

	uc := NewReviewPortfoliosUseCase(officers, nil, logging.New()).
		WithTimeProvider(fixedTime).
		WithMetrics(gauges)

	output, err := uc.Execute(context.Background(), ReviewPortfoliosInput{
		OrganizationID: mustOrganization(t).String(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if output.Result.HasImbalances {
		t.Error("balanced team should not be flagged")
	}
	if len(output.OfficerAlerts) != 0 {
		t.Errorf("expected no officer alerts, got %d", len(output.OfficerAlerts))
	}

	// recoveries publish zero scores rather than going silent
	for _, call := range gauges.calls {
		if call.score != 0 {
			t.Errorf("balanced dimension %s should publish score 0, got %f", call.dimension, call.score)
		}
	}
}

func TestReviewPortfoliosRepositoryError(t *testing.T) {
	officers := &fakeOfficerRepo{err: errors.New("aggregate query failed")}

	uc := NewReviewPortfoliosUseCase(officers, nil, logging.New()).
		WithTimeProvider(fixedTime)

	if _, err := uc.Execute(context.Background(), ReviewPortfoliosInput{
		OrganizationID: mustOrganization(t).String(),
	}); err == nil {
		t.Error("expected error when metrics cannot be loaded")
	}
}

func TestReviewPortfoliosInvalidID(t *testing.T) {
	uc := NewReviewPortfoliosUseCase(&fakeOfficerRepo{}, nil, logging.New())

	if _, err := uc.Execute(context.Background(), ReviewPortfoliosInput{OrganizationID: "bogus"}); err == nil {
		t.Error("expected error for malformed organization id")
	}
}
