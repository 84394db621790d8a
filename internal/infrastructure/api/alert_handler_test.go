package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/advancehq/steward/internal/domain"
	"github.com/advancehq/steward/internal/infrastructure/auth"
)

type statusUpdate struct {
	organizationID domain.OrganizationID
	id             domain.AlertID
	status         domain.AlertStatus
}

// stubAlertRepo records status updates and lets tests force repository errors.
type stubAlertRepo struct {
	updates []statusUpdate
	err     error
}

func (r *stubAlertRepo) SaveBatch(_ context.Context, _ []domain.Alert) error {
	return nil
}

func (r *stubAlertRepo) ListByOrganization(_ context.Context, _ domain.OrganizationID, _ *domain.AlertStatus, _, _ int) ([]domain.Alert, error) {
	return nil, nil
}

func (r *stubAlertRepo) UpdateStatus(_ context.Context, organizationID domain.OrganizationID, id domain.AlertID, status domain.AlertStatus) error {
	if r.err != nil {
		return r.err
	}
	r.updates = append(r.updates, statusUpdate{organizationID, id, status})
	return nil
}

func (r *stubAlertRepo) DeleteOpenByOrganization(_ context.Context, _ domain.OrganizationID) error {
	return nil
}

const (
	testOrgID   = "7f000000-0000-0000-0000-000000000001"
	testAlertID = "aa000000-0000-0000-0000-000000000001"
)

func updateStatusContext(t *testing.T, claims *auth.APIClaims) echo.Context {
	t.Helper()

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/alerts/"+testAlertID+"/status",
		strings.NewReader(`{"status":"acknowledged"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	c := echo.New().NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(testAlertID)
	if claims != nil {
		c.Set(string(ClaimsContextKey), claims)
	}
	return c
}

func TestUpdateStatusScopedToTokenOrganization(t *testing.T) {
	repo := &stubAlertRepo{}
	handler := NewAlertHandler(nil, repo)

	c := updateStatusContext(t, &auth.APIClaims{OrganizationID: testOrgID, Role: "officer"})

	if err := handler.UpdateStatus(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Response().Status != http.StatusNoContent {
		t.Errorf("expected 204, got %d", c.Response().Status)
	}

	if len(repo.updates) != 1 {
		t.Fatalf("expected 1 status update, got %d", len(repo.updates))
	}
	// the repository must be addressed with the token's organization,
	// never with an unscoped alert id alone
	if got := repo.updates[0].organizationID.String(); got != testOrgID {
		t.Errorf("update scoped to %s, expected the token organization %s", got, testOrgID)
	}
	if repo.updates[0].status != domain.AlertStatusAcknowledged {
		t.Errorf("expected acknowledged, got %s", repo.updates[0].status)
	}
}

func TestUpdateStatusForeignAlertIsNotFound(t *testing.T) {
	// a scoped repository reports alerts of other organizations as missing
	repo := &stubAlertRepo{err: domain.ErrNotFound}
	handler := NewAlertHandler(nil, repo)

	c := updateStatusContext(t, &auth.APIClaims{OrganizationID: testOrgID, Role: "officer"})

	err := handler.UpdateStatus(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusNotFound {
		t.Errorf("expected 404 for a foreign alert, got %v", err)
	}
}

func TestUpdateStatusWithoutClaims(t *testing.T) {
	handler := NewAlertHandler(nil, &stubAlertRepo{})

	err := handler.UpdateStatus(updateStatusContext(t, nil))
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without claims, got %v", err)
	}
}
