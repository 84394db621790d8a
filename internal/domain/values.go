package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ConstituentID represents a unique identifier for a constituent.
// wrapping uuid to enforce type safety and prevent mixing with other ids.
type ConstituentID struct {
	value uuid.UUID
}

// NewConstituentID creates a new random ConstituentID.
func NewConstituentID() ConstituentID {
	return ConstituentID{value: uuid.New()}
}

// ParseConstituentID parses a string into a ConstituentID.
func ParseConstituentID(s string) (ConstituentID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ConstituentID{}, fmt.Errorf("invalid constituent id: %w", err)
	}
	return ConstituentID{value: id}, nil
}

// ConstituentIDFromUUID creates a ConstituentID from an existing uuid.
func ConstituentIDFromUUID(id uuid.UUID) ConstituentID {
	return ConstituentID{value: id}
}

// String returns the string representation of the ConstituentID.
func (id ConstituentID) String() string {
	return id.value.String()
}

// UUID returns the underlying uuid value.
func (id ConstituentID) UUID() uuid.UUID {
	return id.value
}

// IsZero returns true if the ConstituentID is not set.
func (id ConstituentID) IsZero() bool {
	return id.value == uuid.Nil
}

// OfficerID represents a unique identifier for a relationship officer.
type OfficerID struct {
	value uuid.UUID
}

// NewOfficerID creates a new random OfficerID.
func NewOfficerID() OfficerID {
	return OfficerID{value: uuid.New()}
}

// ParseOfficerID parses a string into an OfficerID.
func ParseOfficerID(s string) (OfficerID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return OfficerID{}, fmt.Errorf("invalid officer id: %w", err)
	}
	return OfficerID{value: id}, nil
}

// OfficerIDFromUUID creates an OfficerID from an existing uuid.
func OfficerIDFromUUID(id uuid.UUID) OfficerID {
	return OfficerID{value: id}
}

// String returns the string representation of the OfficerID.
func (id OfficerID) String() string {
	return id.value.String()
}

// UUID returns the underlying uuid value.
func (id OfficerID) UUID() uuid.UUID {
	return id.value
}

// IsZero returns true if the OfficerID is not set.
func (id OfficerID) IsZero() bool {
	return id.value == uuid.Nil
}

// OrganizationID represents a unique identifier for an organization.
type OrganizationID struct {
	value uuid.UUID
}

// NewOrganizationID creates a new random OrganizationID.
func NewOrganizationID() OrganizationID {
	return OrganizationID{value: uuid.New()}
}

// ParseOrganizationID parses a string into an OrganizationID.
func ParseOrganizationID(s string) (OrganizationID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return OrganizationID{}, fmt.Errorf("invalid organization id: %w", err)
	}
	return OrganizationID{value: id}, nil
}

// OrganizationIDFromUUID creates an OrganizationID from an existing uuid.
func OrganizationIDFromUUID(id uuid.UUID) OrganizationID {
	return OrganizationID{value: id}
}

// String returns the string representation of the OrganizationID.
func (id OrganizationID) String() string {
	return id.value.String()
}

// UUID returns the underlying uuid value.
func (id OrganizationID) UUID() uuid.UUID {
	return id.value
}

// IsZero returns true if the OrganizationID is not set.
func (id OrganizationID) IsZero() bool {
	return id.value == uuid.Nil
}

// AlertID represents a unique identifier for an alert.
type AlertID struct {
	value uuid.UUID
}

// NewAlertID creates a new random AlertID.
func NewAlertID() AlertID {
	return AlertID{value: uuid.New()}
}

// ParseAlertID parses a string into an AlertID.
func ParseAlertID(s string) (AlertID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return AlertID{}, fmt.Errorf("invalid alert id: %w", err)
	}
	return AlertID{value: id}, nil
}

// AlertIDFromUUID creates an AlertID from an existing uuid.
func AlertIDFromUUID(id uuid.UUID) AlertID {
	return AlertID{value: id}
}

// String returns the string representation of the AlertID.
func (id AlertID) String() string {
	return id.value.String()
}

// UUID returns the underlying uuid value.
func (id AlertID) UUID() uuid.UUID {
	return id.value
}

// IsZero returns true if the AlertID is not set.
func (id AlertID) IsZero() bool {
	return id.value == uuid.Nil
}

// Score represents a normalized score value.
// always clamped to the [0, 1] range.
type Score struct {
	value float64
}

// NewScore creates a new Score, clamping the value to [0, 1].
func NewScore(v float64) Score {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return Score{value: v}
}

// Value returns the numeric score value.
func (s Score) Value() float64 {
	return s.value
}

// IsZero returns true if the score is zero.
func (s Score) IsZero() bool {
	return s.value == 0
}

// Severity classifies how urgent an anomaly or alert is.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

var ErrInvalidSeverity = errors.New("invalid severity")

// validSeverities for quick lookup.
var validSeverities = map[Severity]bool{
	SeverityHigh:   true,
	SeverityMedium: true,
	SeverityLow:    true,
}

// ParseSeverity validates and returns a Severity from a string.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(s)
	if !validSeverities[sev] {
		return "", ErrInvalidSeverity
	}
	return sev, nil
}

// String returns the string representation of the Severity.
func (s Severity) String() string {
	return string(s)
}

// IsValid returns true if the severity is valid.
func (s Severity) IsValid() bool {
	return validSeverities[s]
}

// Rank returns the sort rank of the severity.
// higher rank sorts first: high > medium > low.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Impact classifies how strongly a single factor contributed to a composite score.
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// String returns the string representation of the Impact.
func (i Impact) String() string {
	return string(i)
}

// ImpactForScore derives the impact tier from a raw factor score.
func ImpactForScore(score Score) Impact {
	switch {
	case score.Value() >= 0.7:
		return ImpactHigh
	case score.Value() >= 0.4:
		return ImpactMedium
	default:
		return ImpactLow
	}
}

// RiskTier classifies a composite lapse risk score.
type RiskTier string

const (
	RiskTierHigh   RiskTier = "high"
	RiskTierMedium RiskTier = "medium"
	RiskTierLow    RiskTier = "low"
)

// String returns the string representation of the RiskTier.
func (r RiskTier) String() string {
	return string(r)
}

// RiskTierForScore derives the tier from a composite risk score.
// boundaries are inclusive on the lower bound: high >= 0.7, medium >= 0.4.
func RiskTierForScore(score Score) RiskTier {
	switch {
	case score.Value() >= 0.7:
		return RiskTierHigh
	case score.Value() >= 0.4:
		return RiskTierMedium
	default:
		return RiskTierLow
	}
}

// Trend classifies the direction of a giving pattern over time.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendStable     Trend = "stable"
	TrendDecreasing Trend = "decreasing"
	TrendStopped    Trend = "stopped"
)

// String returns the string representation of the Trend.
func (t Trend) String() string {
	return string(t)
}

// AnomalyType identifies the kind of engagement anomaly detected.
type AnomalyType string

const (
	AnomalyEngagementSpike    AnomalyType = "engagement_spike"
	AnomalyGivingPatternShift AnomalyType = "giving_pattern_change"
	AnomalyContactGap         AnomalyType = "contact_gap"
)

var ErrInvalidAnomalyType = errors.New("invalid anomaly type")

// validAnomalyTypes for quick lookup.
var validAnomalyTypes = map[AnomalyType]bool{
	AnomalyEngagementSpike:    true,
	AnomalyGivingPatternShift: true,
	AnomalyContactGap:         true,
}

// ParseAnomalyType validates and returns an AnomalyType from a string.
func ParseAnomalyType(s string) (AnomalyType, error) {
	at := AnomalyType(s)
	if !validAnomalyTypes[at] {
		return "", ErrInvalidAnomalyType
	}
	return at, nil
}

// String returns the string representation of the AnomalyType.
func (a AnomalyType) String() string {
	return string(a)
}

// IsValid returns true if the anomaly type is valid.
func (a AnomalyType) IsValid() bool {
	return validAnomalyTypes[a]
}

// AlertStatus represents the lifecycle state of a persisted alert.
type AlertStatus string

const (
	AlertStatusOpen         AlertStatus = "open"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusDismissed    AlertStatus = "dismissed"
)

var ErrInvalidAlertStatus = errors.New("invalid alert status")

// validAlertStatuses for quick lookup.
var validAlertStatuses = map[AlertStatus]bool{
	AlertStatusOpen:         true,
	AlertStatusAcknowledged: true,
	AlertStatusDismissed:    true,
}

// ParseAlertStatus validates and returns an AlertStatus from a string.
func ParseAlertStatus(s string) (AlertStatus, error) {
	st := AlertStatus(s)
	if !validAlertStatuses[st] {
		return "", ErrInvalidAlertStatus
	}
	return st, nil
}

// String returns the string representation of the AlertStatus.
func (s AlertStatus) String() string {
	return string(s)
}

// IsValid returns true if the alert status is valid.
func (s AlertStatus) IsValid() bool {
	return validAlertStatuses[s]
}

// ImbalanceType classifies one officer's portfolio relative to organizational averages.
type ImbalanceType string

const (
	ImbalanceOverloaded    ImbalanceType = "overloaded"
	ImbalanceUnderutilized ImbalanceType = "underutilized"
	ImbalanceCapacityHeavy ImbalanceType = "capacity_heavy"
	ImbalanceBalanced      ImbalanceType = "balanced"
)

// String returns the string representation of the ImbalanceType.
func (i ImbalanceType) String() string {
	return string(i)
}
