package domain

import (
	"fmt"
	"math"
	"time"
)

// OfficerPortfolioMetrics aggregates one officer's book of assigned
// constituents. derived by the caller from stored composite scores.
type OfficerPortfolioMetrics struct {
	OfficerID             OfficerID
	OfficerName           string
	ConstituentCount      int
	TotalCapacity         float64
	AverageCapacity       float64
	AveragePriorityScore  float64
	AverageLapseRiskScore float64
	HighPriorityCount     int
	HighRiskCount         int
}

// ImbalanceThresholds configures when organization-wide dispersion counts
// as an imbalance.
type ImbalanceThresholds struct {
	// SizeVariance is the maximum tolerated coefficient of variation in
	// portfolio sizes.
	SizeVariance float64

	// CapacityVariance is the maximum tolerated coefficient of variation
	// in portfolio capacity totals.
	CapacityVariance float64

	// OverloadRatio and UnderuseRatio bound an individual officer's
	// deviation from the organizational average.
	OverloadRatio float64
	UnderuseRatio float64
}

// DefaultImbalanceThresholds returns the calibrated thresholds.
func DefaultImbalanceThresholds() ImbalanceThresholds {
	return ImbalanceThresholds{
		SizeVariance:     0.5,
		CapacityVariance: 0.5,
		OverloadRatio:    1.5,
		UnderuseRatio:    0.5,
	}
}

// Imbalance is one detected organization-wide dispersion problem.
type Imbalance struct {
	Score       float64
	Severity    Severity
	Description string
}

// ImbalanceResult reports whether the organization's portfolios are out
// of balance, and along which dimensions.
type ImbalanceResult struct {
	HasImbalances     bool
	SizeImbalance     *Imbalance
	CapacityImbalance *Imbalance
}

// ImbalanceScore measures dispersion as the coefficient of variation:
// 0 for uniform values, increasing with spread. empty and single-element
// inputs score 0 because there is nothing to be imbalanced against.
func ImbalanceScore(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if mean == 0 {
		return 0
	}

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))

	return math.Sqrt(variance) / math.Abs(mean)
}

// ClassifyOfficer places one officer's portfolio relative to the
// organizational averages. rules are ordered: overload along either
// dimension wins, then underuse, then concentrated capacity at a normal
// size.
func ClassifyOfficer(m OfficerPortfolioMetrics, averageSize, averageCapacity float64, thresholds ImbalanceThresholds) ImbalanceType {
	sizeRatio := ratioOrZero(float64(m.ConstituentCount), averageSize)
	capacityRatio := ratioOrZero(m.TotalCapacity, averageCapacity)

	switch {
	case sizeRatio >= thresholds.OverloadRatio || capacityRatio >= thresholds.OverloadRatio:
		return ImbalanceOverloaded
	case sizeRatio <= thresholds.UnderuseRatio && capacityRatio <= thresholds.UnderuseRatio:
		return ImbalanceUnderutilized
	case sizeRatio >= 0.8 && sizeRatio <= 1.2 && capacityRatio >= 1.25:
		return ImbalanceCapacityHeavy
	default:
		return ImbalanceBalanced
	}
}

// ratioOrZero guards the average==0 case: with no organizational
// baseline, every officer compares as zero rather than dividing by zero.
func ratioOrZero(value, average float64) float64 {
	if average == 0 {
		return 0
	}
	return value / average
}

// DetectImbalances measures organization-wide size and capacity
// dispersion across officers. a single officer or an empty list can never
// be imbalanced.
func DetectImbalances(officers []OfficerPortfolioMetrics, thresholds *ImbalanceThresholds) ImbalanceResult {
	t := DefaultImbalanceThresholds()
	if thresholds != nil {
		t = *thresholds
	}

	if len(officers) < 2 {
		return ImbalanceResult{}
	}

	sizes := make([]float64, len(officers))
	capacities := make([]float64, len(officers))
	for i, o := range officers {
		sizes[i] = float64(o.ConstituentCount)
		capacities[i] = o.TotalCapacity
	}

	result := ImbalanceResult{}

	if score := ImbalanceScore(sizes); score > t.SizeVariance {
		result.HasImbalances = true
		result.SizeImbalance = &Imbalance{
			Score:       score,
			Severity:    dispersionSeverity(score),
			Description: fmt.Sprintf("Portfolio sizes vary widely across %d officers (dispersion %.2f)", len(officers), score),
		}
	}

	if score := ImbalanceScore(capacities); score > t.CapacityVariance {
		result.HasImbalances = true
		result.CapacityImbalance = &Imbalance{
			Score:       score,
			Severity:    dispersionSeverity(score),
			Description: fmt.Sprintf("Portfolio capacity totals vary widely across %d officers (dispersion %.2f)", len(officers), score),
		}
	}

	return result
}

// dispersionSeverity scales severity with how far dispersion has drifted.
func dispersionSeverity(score float64) Severity {
	switch {
	case score >= 1.0:
		return SeverityHigh
	case score >= 0.75:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// OfficerAlert flags one officer whose portfolio deviates from the
// organizational averages.
type OfficerAlert struct {
	OfficerID   OfficerID
	OfficerName string
	Type        ImbalanceType
	Severity    Severity
	Title       string
	Description string
	DetectedAt  time.Time
}

// GenerateImbalanceAlerts emits one alert per non-balanced officer, with
// severity scaled to the magnitude of the deviation. all officers
// balanced yields an empty slice.
func GenerateImbalanceAlerts(officers []OfficerPortfolioMetrics, referenceDate time.Time, thresholds *ImbalanceThresholds) []OfficerAlert {
	t := DefaultImbalanceThresholds()
	if thresholds != nil {
		t = *thresholds
	}

	alerts := make([]OfficerAlert, 0)
	if len(officers) < 2 {
		return alerts
	}

	var sizeSum, capacitySum float64
	for _, o := range officers {
		sizeSum += float64(o.ConstituentCount)
		capacitySum += o.TotalCapacity
	}
	averageSize := sizeSum / float64(len(officers))
	averageCapacity := capacitySum / float64(len(officers))

	for _, o := range officers {
		class := ClassifyOfficer(o, averageSize, averageCapacity, t)
		if class == ImbalanceBalanced {
			continue
		}

		sizeRatio := ratioOrZero(float64(o.ConstituentCount), averageSize)
		capacityRatio := ratioOrZero(o.TotalCapacity, averageCapacity)
		deviation := math.Max(math.Abs(sizeRatio-1), math.Abs(capacityRatio-1))

		alerts = append(alerts, OfficerAlert{
			OfficerID:   o.OfficerID,
			OfficerName: o.OfficerName,
			Type:        class,
			Severity:    deviationSeverity(deviation),
			Title:       fmt.Sprintf("Portfolio %s", class),
			Description: fmt.Sprintf("%s manages %d constituents ($%.0f capacity) against an average of %.0f ($%.0f)",
				o.OfficerName, o.ConstituentCount, o.TotalCapacity, averageSize, averageCapacity),
			DetectedAt: referenceDate,
		})
	}

	return alerts
}

// deviationSeverity scales severity with an officer's distance from the
// organizational average.
func deviationSeverity(deviation float64) Severity {
	switch {
	case deviation >= 1.0:
		return SeverityHigh
	case deviation >= 0.5:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
