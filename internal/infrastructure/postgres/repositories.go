package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/advancehq/steward/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConstituentRepository implements domain.ConstituentRepository using Postgres.
type ConstituentRepository struct {
	pool *pgxpool.Pool
}

// NewConstituentRepository creates a new ConstituentRepository.
func NewConstituentRepository(pool *pgxpool.Pool) *ConstituentRepository {
	return &ConstituentRepository{pool: pool}
}

const constituentColumns = `id, organization_id, name, estimated_capacity, capacity_source,
       assigned_officer_id, priority_score, lapse_risk_score, scores_updated_at, created_at, updated_at`

// FindByID retrieves a constituent by id.
func (r *ConstituentRepository) FindByID(ctx context.Context, id domain.ConstituentID) (*domain.Constituent, error) {
	query := `
		SELECT ` + constituentColumns + `
		FROM steward.constituents
		WHERE id = $1
	`

	row := r.pool.QueryRow(ctx, query, id.UUID())
	constituent, err := scanConstituent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return constituent, nil
}

// FindByIDs retrieves multiple constituents by their ids.
// maintains the order of the input ids.
func (r *ConstituentRepository) FindByIDs(ctx context.Context, ids []domain.ConstituentID) ([]*domain.Constituent, error) {
	if len(ids) == 0 {
		return []*domain.Constituent{}, nil
	}

	uuids := make([]string, len(ids))
	for i, id := range ids {
		uuids[i] = id.String()
	}

	query := `
		SELECT ` + constituentColumns + `
		FROM steward.constituents
		WHERE id = ANY($1)
	`

	rows, err := r.pool.Query(ctx, query, uuids)
	if err != nil {
		return nil, fmt.Errorf("finding constituents by ids: %w", err)
	}
	defer rows.Close()

	// collect results in a map for reordering
	byID := make(map[string]*domain.Constituent)
	for rows.Next() {
		constituent, err := scanConstituent(rows)
		if err != nil {
			return nil, err
		}
		byID[constituent.ID().String()] = constituent
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating constituents: %w", err)
	}

	// reorder results to match input order, silently skipping missing rows
	constituents := make([]*domain.Constituent, 0, len(ids))
	for _, id := range ids {
		if constituent, ok := byID[id.String()]; ok {
			constituents = append(constituents, constituent)
		}
	}

	return constituents, nil
}

// ListByOrganization retrieves all constituents for an organization.
func (r *ConstituentRepository) ListByOrganization(ctx context.Context, organizationID domain.OrganizationID, limit, offset int) ([]*domain.Constituent, error) {
	query := `
		SELECT ` + constituentColumns + `
		FROM steward.constituents
		WHERE organization_id = $1
		ORDER BY name
		LIMIT $2 OFFSET $3
	`

	return r.list(ctx, query, organizationID.UUID(), limit, offset)
}

// ListByPriority retrieves an organization's constituents ordered by stored
// priority score descending. unscored constituents sort last.
func (r *ConstituentRepository) ListByPriority(ctx context.Context, organizationID domain.OrganizationID, limit, offset int) ([]*domain.Constituent, error) {
	query := `
		SELECT ` + constituentColumns + `
		FROM steward.constituents
		WHERE organization_id = $1
		ORDER BY priority_score DESC NULLS LAST, id
		LIMIT $2 OFFSET $3
	`

	return r.list(ctx, query, organizationID.UUID(), limit, offset)
}

func (r *ConstituentRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Constituent, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing constituents: %w", err)
	}
	defer rows.Close()

	var constituents []*domain.Constituent
	for rows.Next() {
		constituent, err := scanConstituent(rows)
		if err != nil {
			return nil, err
		}
		constituents = append(constituents, constituent)
	}

	return constituents, rows.Err()
}

// ListOrganizations returns every organization with at least one
// constituent. used by the background sweep to discover its workload.
func (r *ConstituentRepository) ListOrganizations(ctx context.Context) ([]domain.OrganizationID, error) {
	const query = `
		SELECT DISTINCT organization_id
		FROM steward.constituents
		ORDER BY organization_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing organizations: %w", err)
	}
	defer rows.Close()

	var organizations []domain.OrganizationID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning organization id: %w", err)
		}

		id, err := domain.ParseOrganizationID(raw)
		if err != nil {
			return nil, fmt.Errorf("corrupted organization id in database: %w", err)
		}
		organizations = append(organizations, id)
	}

	return organizations, rows.Err()
}

// Save persists a constituent (insert or update).
func (r *ConstituentRepository) Save(ctx context.Context, constituent *domain.Constituent) error {
	const query = `
		INSERT INTO steward.constituents (id, organization_id, name, estimated_capacity, capacity_source,
		                                  assigned_officer_id, priority_score, lapse_risk_score,
		                                  scores_updated_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			estimated_capacity = EXCLUDED.estimated_capacity,
			capacity_source = EXCLUDED.capacity_source,
			assigned_officer_id = EXCLUDED.assigned_officer_id,
			priority_score = EXCLUDED.priority_score,
			lapse_risk_score = EXCLUDED.lapse_risk_score,
			scores_updated_at = EXCLUDED.scores_updated_at,
			updated_at = EXCLUDED.updated_at
	`

	var officerID any
	if constituent.AssignedOfficerID() != nil {
		officerID = constituent.AssignedOfficerID().UUID()
	}

	_, err := r.pool.Exec(ctx, query,
		constituent.ID().UUID(),
		constituent.OrganizationID().UUID(),
		constituent.Name(),
		constituent.EstimatedCapacity(),
		constituent.CapacitySource(),
		officerID,
		scoreValue(constituent.PriorityScore()),
		scoreValue(constituent.LapseRiskScore()),
		constituent.ScoresUpdatedAt(),
		constituent.CreatedAt(),
		constituent.UpdatedAt(),
	)

	if err != nil {
		return fmt.Errorf("saving constituent: %w", err)
	}
	return nil
}

// UpdateScores updates just the stored score columns.
func (r *ConstituentRepository) UpdateScores(ctx context.Context, id domain.ConstituentID, priority, lapseRisk domain.Score, at time.Time) error {
	const query = `
		UPDATE steward.constituents
		SET priority_score = $2, lapse_risk_score = $3, scores_updated_at = $4, updated_at = $4
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id.UUID(), priority.Value(), lapseRisk.Value(), at)
	if err != nil {
		return fmt.Errorf("updating scores: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// scanConstituent reads one constituent row. works for both QueryRow and
// rows iteration since pgx.Row and pgx.Rows share Scan.
func scanConstituent(row pgx.Row) (*domain.Constituent, error) {
	var (
		id                string
		organizationID    string
		name              string
		estimatedCapacity *float64
		capacitySource    string
		assignedOfficerID *string
		priorityScore     *float64
		lapseRiskScore    *float64
		scoresUpdatedAt   *time.Time
		createdAt         time.Time
		updatedAt         time.Time
	)

	err := row.Scan(
		&id, &organizationID, &name, &estimatedCapacity, &capacitySource,
		&assignedOfficerID, &priorityScore, &lapseRiskScore, &scoresUpdatedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning constituent: %w", err)
	}

	// database stores trusted data, but we still validate for safety
	constituentID, err := domain.ParseConstituentID(id)
	if err != nil {
		return nil, fmt.Errorf("corrupted constituent id in database: %w", err)
	}

	orgID, err := domain.ParseOrganizationID(organizationID)
	if err != nil {
		return nil, fmt.Errorf("corrupted organization id in database: %w", err)
	}

	var officerID *domain.OfficerID
	if assignedOfficerID != nil {
		parsed, err := domain.ParseOfficerID(*assignedOfficerID)
		if err != nil {
			return nil, fmt.Errorf("corrupted officer id in database: %w", err)
		}
		officerID = &parsed
	}

	return domain.ReconstructConstituent(
		constituentID,
		orgID,
		name,
		estimatedCapacity,
		capacitySource,
		officerID,
		scoreFromColumn(priorityScore),
		scoreFromColumn(lapseRiskScore),
		scoresUpdatedAt,
		createdAt,
		updatedAt,
	), nil
}

// HistoryRepository implements domain.HistoryRepository using Postgres.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// GiftsByConstituent retrieves a constituent's full gift history.
func (r *HistoryRepository) GiftsByConstituent(ctx context.Context, id domain.ConstituentID) ([]domain.Gift, error) {
	const query = `
		SELECT amount, gift_date
		FROM steward.gifts
		WHERE constituent_id = $1
		ORDER BY gift_date
	`

	rows, err := r.pool.Query(ctx, query, id.UUID())
	if err != nil {
		return nil, fmt.Errorf("querying gifts: %w", err)
	}
	defer rows.Close()

	var gifts []domain.Gift
	for rows.Next() {
		var gift domain.Gift
		if err := rows.Scan(&gift.Amount, &gift.Date); err != nil {
			return nil, fmt.Errorf("scanning gift row: %w", err)
		}
		gifts = append(gifts, gift)
	}

	return gifts, rows.Err()
}

// ContactsByConstituent retrieves a constituent's full contact history.
func (r *HistoryRepository) ContactsByConstituent(ctx context.Context, id domain.ConstituentID) ([]domain.Contact, error) {
	const query = `
		SELECT contact_date, contact_type, outcome
		FROM steward.contacts
		WHERE constituent_id = $1
		ORDER BY contact_date
	`

	rows, err := r.pool.Query(ctx, query, id.UUID())
	if err != nil {
		return nil, fmt.Errorf("querying contacts: %w", err)
	}
	defer rows.Close()

	var contacts []domain.Contact
	for rows.Next() {
		var (
			date        time.Time
			contactType string
			outcome     string
		)
		if err := rows.Scan(&date, &contactType, &outcome); err != nil {
			return nil, fmt.Errorf("scanning contact row: %w", err)
		}

		parsedType, err := domain.ParseContactType(contactType)
		if err != nil {
			return nil, fmt.Errorf("corrupted contact type in database: %w", err)
		}
		parsedOutcome, err := domain.ParseContactOutcome(outcome)
		if err != nil {
			return nil, fmt.Errorf("corrupted contact outcome in database: %w", err)
		}

		contacts = append(contacts, domain.Contact{
			Date:    date,
			Type:    parsedType,
			Outcome: parsedOutcome,
		})
	}

	return contacts, rows.Err()
}

// OfficerRepository implements domain.OfficerRepository using Postgres.
type OfficerRepository struct {
	pool *pgxpool.Pool
}

// NewOfficerRepository creates a new OfficerRepository.
func NewOfficerRepository(pool *pgxpool.Pool) *OfficerRepository {
	return &OfficerRepository{pool: pool}
}

// PortfolioMetricsByOrganization aggregates per-officer portfolio metrics.
// the 0.7 cutoffs match the high impact and high risk tier boundaries.
func (r *OfficerRepository) PortfolioMetricsByOrganization(ctx context.Context, organizationID domain.OrganizationID) ([]domain.OfficerPortfolioMetrics, error) {
	const query = `
		SELECT o.id,
		       o.name,
		       COUNT(c.id),
		       COALESCE(SUM(c.estimated_capacity), 0),
		       COALESCE(AVG(c.estimated_capacity), 0),
		       COALESCE(AVG(c.priority_score), 0),
		       COALESCE(AVG(c.lapse_risk_score), 0),
		       COUNT(c.id) FILTER (WHERE c.priority_score >= 0.7),
		       COUNT(c.id) FILTER (WHERE c.lapse_risk_score >= 0.7)
		FROM steward.officers o
		JOIN steward.constituents c ON c.assigned_officer_id = o.id
		WHERE o.organization_id = $1
		GROUP BY o.id, o.name
		ORDER BY o.name
	`

	rows, err := r.pool.Query(ctx, query, organizationID.UUID())
	if err != nil {
		return nil, fmt.Errorf("querying portfolio metrics: %w", err)
	}
	defer rows.Close()

	var metrics []domain.OfficerPortfolioMetrics
	for rows.Next() {
		var (
			id string
			m  domain.OfficerPortfolioMetrics
		)
		err := rows.Scan(
			&id, &m.OfficerName, &m.ConstituentCount, &m.TotalCapacity, &m.AverageCapacity,
			&m.AveragePriorityScore, &m.AverageLapseRiskScore, &m.HighPriorityCount, &m.HighRiskCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning portfolio metrics row: %w", err)
		}

		officerID, err := domain.ParseOfficerID(id)
		if err != nil {
			return nil, fmt.Errorf("corrupted officer id in database: %w", err)
		}
		m.OfficerID = officerID

		metrics = append(metrics, m)
	}

	return metrics, rows.Err()
}

// helper functions

func scoreValue(s *domain.Score) any {
	if s == nil {
		return nil
	}
	return s.Value()
}

func scoreFromColumn(v *float64) *domain.Score {
	if v == nil {
		return nil
	}
	score := domain.NewScore(*v)
	return &score
}
