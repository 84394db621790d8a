package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/advancehq/steward/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AlertRepository implements domain.AlertRepository using Postgres.
type AlertRepository struct {
	pool *pgxpool.Pool
}

// NewAlertRepository creates a new AlertRepository.
func NewAlertRepository(pool *pgxpool.Pool) *AlertRepository {
	return &AlertRepository{pool: pool}
}

// factorRecord is the persisted JSON shape of a scoring factor.
type factorRecord struct {
	Name       string   `json:"name"`
	Score      float64  `json:"score"`
	Value      string   `json:"value"`
	Impact     string   `json:"impact"`
	Confidence *float64 `json:"confidence,omitempty"`
}

func marshalFactors(factors []domain.Factor) ([]byte, error) {
	records := make([]factorRecord, len(factors))
	for i, f := range factors {
		records[i] = factorRecord{
			Name:       f.Name,
			Score:      f.Score.Value(),
			Value:      f.Value,
			Impact:     f.Impact.String(),
			Confidence: f.Confidence,
		}
	}
	return json.Marshal(records)
}

func unmarshalFactors(data []byte) ([]domain.Factor, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var records []factorRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("corrupted factors json in database: %w", err)
	}

	factors := make([]domain.Factor, 0, len(records))
	for _, rec := range records {
		factor := domain.NewFactor(rec.Name, rec.Score, rec.Value)
		if rec.Confidence != nil {
			factor = factor.WithConfidence(*rec.Confidence)
		}
		factors = append(factors, factor)
	}
	return factors, nil
}

// SaveBatch persists a batch of freshly generated alerts.
// uses CopyFrom inside a transaction, the sweeps write hundreds at a time.
func (r *AlertRepository) SaveBatch(ctx context.Context, alerts []domain.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows := make([][]any, len(alerts))
	for i, alert := range alerts {
		factorsJSON, err := marshalFactors(alert.Factors)
		if err != nil {
			return fmt.Errorf("serializing factors for alert %s: %w", alert.ID.String(), err)
		}

		rows[i] = []any{
			alert.ID.UUID(),
			alert.OrganizationID.UUID(),
			alert.ConstituentID.UUID(),
			alert.Type.String(),
			alert.Severity.String(),
			alert.Title,
			alert.Description,
			string(factorsJSON),
			alert.Status.String(),
			alert.DetectedAt,
		}
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"steward", "alerts"},
		[]string{"id", "organization_id", "constituent_id", "alert_type", "severity", "title", "description", "factors", "status", "detected_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("batch inserting alerts: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// ListByOrganization retrieves alerts for an organization, newest detection
// first, optionally filtered by status.
func (r *AlertRepository) ListByOrganization(ctx context.Context, organizationID domain.OrganizationID, status *domain.AlertStatus, limit, offset int) ([]domain.Alert, error) {
	query := `
		SELECT id, organization_id, constituent_id, alert_type, severity, title, description, factors, status, detected_at
		FROM steward.alerts
		WHERE organization_id = $1
	`
	args := []any{organizationID.UUID()}

	if status != nil {
		query += ` AND status = $2`
		args = append(args, status.String())
	}

	query += fmt.Sprintf(` ORDER BY detected_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying alerts: %w", err)
	}
	defer rows.Close()

	var alerts []domain.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}

	return alerts, rows.Err()
}

// UpdateStatus transitions an alert's workflow status. the organization
// predicate keeps one organization's tokens from touching another's alerts;
// a cross-organization id matches zero rows and surfaces as ErrNotFound.
func (r *AlertRepository) UpdateStatus(ctx context.Context, organizationID domain.OrganizationID, id domain.AlertID, status domain.AlertStatus) error {
	const query = `
		UPDATE steward.alerts
		SET status = $3
		WHERE id = $1 AND organization_id = $2
	`

	result, err := r.pool.Exec(ctx, query, id.UUID(), organizationID.UUID(), status.String())
	if err != nil {
		return fmt.Errorf("updating alert status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteOpenByOrganization clears open alerts before a sweep rewrites them.
// acknowledged and dismissed alerts are officer decisions and survive.
func (r *AlertRepository) DeleteOpenByOrganization(ctx context.Context, organizationID domain.OrganizationID) error {
	const query = `
		DELETE FROM steward.alerts
		WHERE organization_id = $1 AND status = 'open'
	`

	if _, err := r.pool.Exec(ctx, query, organizationID.UUID()); err != nil {
		return fmt.Errorf("clearing open alerts: %w", err)
	}
	return nil
}

func scanAlert(rows pgx.Rows) (domain.Alert, error) {
	var (
		id             string
		organizationID string
		constituentID  string
		alertType      string
		severity       string
		title          string
		description    string
		factorsJSON    []byte
		status         string
		detectedAt     time.Time
	)

	err := rows.Scan(&id, &organizationID, &constituentID, &alertType, &severity,
		&title, &description, &factorsJSON, &status, &detectedAt)
	if err != nil {
		return domain.Alert{}, fmt.Errorf("scanning alert row: %w", err)
	}

	// database stores trusted data, but we still validate for safety
	alertID, err := domain.ParseAlertID(id)
	if err != nil {
		return domain.Alert{}, fmt.Errorf("corrupted alert id in database: %w", err)
	}
	orgID, err := domain.ParseOrganizationID(organizationID)
	if err != nil {
		return domain.Alert{}, fmt.Errorf("corrupted organization id in database: %w", err)
	}
	cID, err := domain.ParseConstituentID(constituentID)
	if err != nil {
		return domain.Alert{}, fmt.Errorf("corrupted constituent id in database: %w", err)
	}
	parsedType, err := domain.ParseAnomalyType(alertType)
	if err != nil {
		return domain.Alert{}, fmt.Errorf("corrupted alert type in database: %w", err)
	}
	parsedSeverity, err := domain.ParseSeverity(severity)
	if err != nil {
		return domain.Alert{}, fmt.Errorf("corrupted severity in database: %w", err)
	}
	parsedStatus, err := domain.ParseAlertStatus(status)
	if err != nil {
		return domain.Alert{}, fmt.Errorf("corrupted alert status in database: %w", err)
	}

	factors, err := unmarshalFactors(factorsJSON)
	if err != nil {
		return domain.Alert{}, err
	}

	anomaly := domain.AnomalyResult{
		ConstituentID: cID,
		Type:          parsedType,
		Severity:      parsedSeverity,
		Title:         title,
		Description:   description,
		Factors:       factors,
		DetectedAt:    detectedAt,
	}

	return domain.ReconstructAlert(alertID, anomaly, orgID, parsedStatus), nil
}
