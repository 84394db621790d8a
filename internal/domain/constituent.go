package domain

import (
	"context"
	"errors"
	"time"
)

// Constituent represents a donor or prospect tracked by an organization.
// giving history lives in separate gift/contact records; the entity
// carries identity, the capacity estimate, and the latest stored scores.
type Constituent struct {
	id                ConstituentID
	organizationID    OrganizationID
	name              string
	estimatedCapacity *float64
	capacitySource    string
	assignedOfficerID *OfficerID
	priorityScore     *Score
	lapseRiskScore    *Score
	scoresUpdatedAt   *time.Time
	createdAt         time.Time
	updatedAt         time.Time
}

var (
	ErrConstituentNameEmpty = errors.New("constituent name cannot be empty")
	ErrConstituentOrgEmpty  = errors.New("constituent must belong to an organization")
)

// NewConstituent creates a new Constituent with the required fields.
func NewConstituent(organizationID OrganizationID, name string) (*Constituent, error) {
	if name == "" {
		return nil, ErrConstituentNameEmpty
	}
	if organizationID.IsZero() {
		return nil, ErrConstituentOrgEmpty
	}

	now := time.Now().UTC()
	return &Constituent{
		id:             NewConstituentID(),
		organizationID: organizationID,
		name:           name,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructConstituent recreates a Constituent from stored data.
// use this when loading from database, not for creating new records.
func ReconstructConstituent(
	id ConstituentID,
	organizationID OrganizationID,
	name string,
	estimatedCapacity *float64,
	capacitySource string,
	assignedOfficerID *OfficerID,
	priorityScore *Score,
	lapseRiskScore *Score,
	scoresUpdatedAt *time.Time,
	createdAt time.Time,
	updatedAt time.Time,
) *Constituent {
	return &Constituent{
		id:                id,
		organizationID:    organizationID,
		name:              name,
		estimatedCapacity: estimatedCapacity,
		capacitySource:    capacitySource,
		assignedOfficerID: assignedOfficerID,
		priorityScore:     priorityScore,
		lapseRiskScore:    lapseRiskScore,
		scoresUpdatedAt:   scoresUpdatedAt,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// ID returns the constituent's unique identifier.
func (c *Constituent) ID() ConstituentID {
	return c.id
}

// OrganizationID returns the owning organization.
func (c *Constituent) OrganizationID() OrganizationID {
	return c.organizationID
}

// Name returns the constituent's display name.
func (c *Constituent) Name() string {
	return c.name
}

// EstimatedCapacity returns the screened wealth estimate, if any.
func (c *Constituent) EstimatedCapacity() *float64 {
	return c.estimatedCapacity
}

// CapacitySource returns where the capacity estimate came from.
func (c *Constituent) CapacitySource() string {
	return c.capacitySource
}

// AssignedOfficerID returns the managing officer, if assigned.
func (c *Constituent) AssignedOfficerID() *OfficerID {
	return c.assignedOfficerID
}

// PriorityScore returns the stored composite priority score, if computed.
func (c *Constituent) PriorityScore() *Score {
	return c.priorityScore
}

// LapseRiskScore returns the stored composite lapse risk, if computed.
func (c *Constituent) LapseRiskScore() *Score {
	return c.lapseRiskScore
}

// ScoresUpdatedAt returns when the stored scores were last refreshed.
func (c *Constituent) ScoresUpdatedAt() *time.Time {
	return c.scoresUpdatedAt
}

// CreatedAt returns when the constituent record was created.
func (c *Constituent) CreatedAt() time.Time {
	return c.createdAt
}

// UpdatedAt returns when the constituent record was last updated.
func (c *Constituent) UpdatedAt() time.Time {
	return c.updatedAt
}

// SetCapacity records a new wealth screening result.
func (c *Constituent) SetCapacity(estimate float64, source string) {
	c.estimatedCapacity = &estimate
	c.capacitySource = source
	c.updatedAt = time.Now().UTC()
}

// AssignOfficer moves the constituent into an officer's portfolio.
func (c *Constituent) AssignOfficer(officerID OfficerID) {
	c.assignedOfficerID = &officerID
	c.updatedAt = time.Now().UTC()
}

// UpdateScores stores freshly computed composite scores.
// at is the reference date the scores were computed against.
func (c *Constituent) UpdateScores(priority, lapseRisk Score, at time.Time) {
	c.priorityScore = &priority
	c.lapseRiskScore = &lapseRisk
	c.scoresUpdatedAt = &at
	c.updatedAt = at
}

// ConstituentRepository defines persistence for constituents.
type ConstituentRepository interface {
	// FindByID retrieves a constituent by id.
	FindByID(ctx context.Context, id ConstituentID) (*Constituent, error)

	// FindByIDs retrieves multiple constituents, preserving input order.
	// ids with no matching row are skipped.
	FindByIDs(ctx context.Context, ids []ConstituentID) ([]*Constituent, error)

	// ListByOrganization retrieves all constituents for an organization.
	ListByOrganization(ctx context.Context, organizationID OrganizationID, limit, offset int) ([]*Constituent, error)

	// ListByPriority retrieves an organization's constituents ordered by
	// stored priority score descending.
	ListByPriority(ctx context.Context, organizationID OrganizationID, limit, offset int) ([]*Constituent, error)

	// Save persists a constituent (insert or update).
	Save(ctx context.Context, constituent *Constituent) error

	// UpdateScores updates just the stored score columns.
	UpdateScores(ctx context.Context, id ConstituentID, priority, lapseRisk Score, at time.Time) error
}

// HistoryRepository fetches the raw gift and contact records the scoring
// core consumes. the core never touches storage itself.
type HistoryRepository interface {
	// GiftsByConstituent retrieves a constituent's full gift history.
	GiftsByConstituent(ctx context.Context, id ConstituentID) ([]Gift, error)

	// ContactsByConstituent retrieves a constituent's full contact history.
	ContactsByConstituent(ctx context.Context, id ConstituentID) ([]Contact, error)
}

// AlertRepository defines persistence for generated alerts.
type AlertRepository interface {
	// SaveBatch persists a batch of freshly generated alerts.
	SaveBatch(ctx context.Context, alerts []Alert) error

	// ListByOrganization retrieves alerts for an organization, newest
	// detection first, optionally filtered by status.
	ListByOrganization(ctx context.Context, organizationID OrganizationID, status *AlertStatus, limit, offset int) ([]Alert, error)

	// UpdateStatus transitions an alert's workflow status. the update is
	// scoped to the organization; an alert outside it reports ErrNotFound.
	UpdateStatus(ctx context.Context, organizationID OrganizationID, id AlertID, status AlertStatus) error

	// DeleteOpenByOrganization clears open alerts before a sweep rewrites
	// them, so a sweep never duplicates findings.
	DeleteOpenByOrganization(ctx context.Context, organizationID OrganizationID) error
}

// OfficerRepository aggregates per-officer portfolio metrics.
type OfficerRepository interface {
	// PortfolioMetricsByOrganization computes portfolio metrics for every
	// officer with at least one assigned constituent.
	PortfolioMetricsByOrganization(ctx context.Context, organizationID OrganizationID) ([]OfficerPortfolioMetrics, error)
}
