package domain

import (
	"sort"
	"time"
)

// Alert is a persisted, addressable view of an anomaly: the anomaly
// fields pass through unchanged, with an identity, an owning
// organization, and a workflow status attached.
type Alert struct {
	ID AlertID
	AnomalyResult
	OrganizationID OrganizationID
	Status         AlertStatus
}

// NewAlertFromAnomaly lifts an anomaly into an open alert for the given
// organization. type, severity, title, description, and factors pass
// through untouched.
func NewAlertFromAnomaly(anomaly AnomalyResult, organizationID OrganizationID) Alert {
	return Alert{
		ID:             NewAlertID(),
		AnomalyResult:  anomaly,
		OrganizationID: organizationID,
		Status:         AlertStatusOpen,
	}
}

// ReconstructAlert rebuilds an alert from persistence.
// bypasses creation defaults for trusted data from the database.
func ReconstructAlert(id AlertID, anomaly AnomalyResult, organizationID OrganizationID, status AlertStatus) Alert {
	return Alert{
		ID:             id,
		AnomalyResult:  anomaly,
		OrganizationID: organizationID,
		Status:         status,
	}
}

// GenerateAlertsForConstituent runs anomaly detection over one
// constituent's history and lifts every finding into an alert. no
// anomalies means an empty slice, never nil handling for the caller.
func GenerateAlertsForConstituent(in AnomalyInput, cfg DetectorConfig, organizationID OrganizationID) []Alert {
	anomalies := DetectAnomalies(in, cfg)
	alerts := make([]Alert, 0, len(anomalies))
	for _, anomaly := range anomalies {
		alerts = append(alerts, NewAlertFromAnomaly(anomaly, organizationID))
	}
	return alerts
}

// GenerateAlertsForOrganization batch-applies anomaly detection across
// many constituents with a shared reference date and returns all
// resulting alerts. empty input yields an empty slice.
func GenerateAlertsForOrganization(organizationID OrganizationID, constituents []AnomalyInput, referenceDate time.Time, cfg DetectorConfig) []Alert {
	alerts := make([]Alert, 0)
	for _, in := range constituents {
		in.ReferenceDate = referenceDate
		alerts = append(alerts, GenerateAlertsForConstituent(in, cfg, organizationID)...)
	}
	return alerts
}

// PrioritizeAlerts returns alerts ordered by severity descending and,
// within equal severity, by detection time descending. the sort is
// stable, so alerts tied on both keys keep their input order.
func PrioritizeAlerts(alerts []Alert) []Alert {
	sorted := make([]Alert, len(alerts))
	copy(sorted, alerts)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Severity.Rank() != sorted[j].Severity.Rank() {
			return sorted[i].Severity.Rank() > sorted[j].Severity.Rank()
		}
		return sorted[i].DetectedAt.After(sorted[j].DetectedAt)
	})

	return sorted
}
