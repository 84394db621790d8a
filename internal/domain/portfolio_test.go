package domain

import (
	"testing"
	"time"
)

func officerWith(name string, count int, capacity float64) OfficerPortfolioMetrics {
	return OfficerPortfolioMetrics{
		OfficerID:        NewOfficerID(),
		OfficerName:      name,
		ConstituentCount: count,
		TotalCapacity:    capacity,
	}
}

func TestImbalanceScore(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []float64{100}, 0},
		{"uniform", []float64{50, 50, 50, 50}, 0},
		{"zero_mean", []float64{0, 0, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ImbalanceScore(tt.values); got != tt.want {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestImbalanceScore_OrdersBySpread(t *testing.T) {
	spread := ImbalanceScore([]float64{20, 50, 100, 30})
	tight := ImbalanceScore([]float64{48, 50, 52, 50})

	if spread <= tight {
		t.Errorf("wider spread must score higher: spread %f, tight %f", spread, tight)
	}
	if tight >= 0.1 {
		t.Errorf("a tight distribution should score near zero, got %f", tight)
	}
}

func TestClassifyOfficer(t *testing.T) {
	thresholds := DefaultImbalanceThresholds()
	averageSize := 80.0
	averageCapacity := 800_000.0

	tests := []struct {
		name    string
		officer OfficerPortfolioMetrics
		want    ImbalanceType
	}{
		{"overloaded_by_size", officerWith("a", 150, 1_500_000), ImbalanceOverloaded},
		{"overloaded_by_capacity_alone", officerWith("b", 80, 1_300_000), ImbalanceOverloaded},
		{"underutilized", officerWith("c", 20, 200_000), ImbalanceUnderutilized},
		{"capacity_heavy", officerWith("d", 80, 1_100_000), ImbalanceCapacityHeavy},
		{"balanced", officerWith("e", 80, 800_000), ImbalanceBalanced},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyOfficer(tt.officer, averageSize, averageCapacity, thresholds)
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestClassifyOfficer_ZeroAverages(t *testing.T) {
	got := ClassifyOfficer(officerWith("a", 10, 100_000), 0, 0, DefaultImbalanceThresholds())

	// with no organizational baseline every officer reads as underutilized
	// rather than dividing by zero
	if got != ImbalanceUnderutilized {
		t.Errorf("expected underutilized with zero averages, got %s", got)
	}
}

func TestDetectImbalances(t *testing.T) {
	t.Run("skewed_portfolios_flag", func(t *testing.T) {
		officers := []OfficerPortfolioMetrics{
			officerWith("a", 150, 1_500_000),
			officerWith("b", 30, 300_000),
			officerWith("c", 80, 800_000),
		}

		result := DetectImbalances(officers, nil)

		if !result.HasImbalances {
			t.Fatal("expected imbalances for a skewed distribution")
		}
		if result.SizeImbalance == nil {
			t.Error("expected a size imbalance")
		}
		if result.CapacityImbalance == nil {
			t.Error("expected a capacity imbalance")
		}
	})

	t.Run("even_portfolios_pass", func(t *testing.T) {
		officers := []OfficerPortfolioMetrics{
			officerWith("a", 50, 500_000),
			officerWith("b", 52, 520_000),
			officerWith("c", 48, 480_000),
		}

		result := DetectImbalances(officers, nil)

		if result.HasImbalances {
			t.Errorf("even portfolios must not flag: %+v", result)
		}
		if result.SizeImbalance != nil || result.CapacityImbalance != nil {
			t.Error("expected nil imbalance details")
		}
	})

	t.Run("single_officer_never_imbalanced", func(t *testing.T) {
		officers := []OfficerPortfolioMetrics{officerWith("a", 500, 10_000_000)}

		if result := DetectImbalances(officers, nil); result.HasImbalances {
			t.Errorf("one officer cannot be imbalanced: %+v", result)
		}
	})

	t.Run("custom_thresholds", func(t *testing.T) {
		officers := []OfficerPortfolioMetrics{
			officerWith("a", 60, 600_000),
			officerWith("b", 40, 400_000),
		}

		strict := ImbalanceThresholds{SizeVariance: 0.1, CapacityVariance: 0.1, OverloadRatio: 1.5, UnderuseRatio: 0.5}
		if result := DetectImbalances(officers, &strict); !result.HasImbalances {
			t.Error("expected the stricter variance bound to flag")
		}
		if result := DetectImbalances(officers, nil); result.HasImbalances {
			t.Error("the default variance bound should tolerate this spread")
		}
	})
}

func TestGenerateImbalanceAlerts(t *testing.T) {
	ref := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	t.Run("flags_each_deviating_officer", func(t *testing.T) {
		officers := []OfficerPortfolioMetrics{
			officerWith("Overloaded Olivia", 150, 1_500_000),
			officerWith("Underused Umar", 30, 300_000),
			officerWith("Balanced Bea", 80, 800_000),
		}

		alerts := GenerateImbalanceAlerts(officers, ref, nil)

		if len(alerts) != 2 {
			t.Fatalf("expected 2 alerts, got %d", len(alerts))
		}

		byType := map[ImbalanceType]OfficerAlert{}
		for _, a := range alerts {
			byType[a.Type] = a
			if !a.DetectedAt.Equal(ref) {
				t.Error("alerts must carry the reference date")
			}
		}
		if byType[ImbalanceOverloaded].OfficerName != "Overloaded Olivia" {
			t.Error("expected the large portfolio to flag as overloaded")
		}
		if byType[ImbalanceUnderutilized].OfficerName != "Underused Umar" {
			t.Error("expected the small portfolio to flag as underutilized")
		}
	})

	t.Run("balanced_team_yields_nothing", func(t *testing.T) {
		officers := []OfficerPortfolioMetrics{
			officerWith("a", 80, 800_000),
			officerWith("b", 82, 820_000),
			officerWith("c", 78, 780_000),
		}

		alerts := GenerateImbalanceAlerts(officers, ref, nil)

		if len(alerts) != 0 {
			t.Errorf("expected no alerts for a balanced team, got %d", len(alerts))
		}
	})
}
