package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestCollapseIDSegments(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/api/v1/constituents/7f000000-0000-0000-0000-000000000001/scores", "/api/v1/constituents/:id/scores"},
		{"/api/v1/organizations/7f000000-0000-0000-0000-000000000001/alerts", "/api/v1/organizations/:id/alerts"},
		{"/api/v1/alerts/aa000000-0000-0000-0000-000000000001/status", "/api/v1/alerts/:id/status"},
		{"/health", "/health"},
		{"/api/v1/constituents", "/api/v1/constituents"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := collapseIDSegments(tt.path); got != tt.expected {
				t.Errorf("collapseIDSegments(%q) = %q, expected %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestNormalizePathUnmatchedRoute(t *testing.T) {
	// 404s have no route pattern; the raw path must still come back with
	// uuid segments collapsed
	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope/7f000000-0000-0000-0000-000000000001", nil)
	c := echo.New().NewContext(req, httptest.NewRecorder())

	if got := normalizePath(c); got != "/api/v1/nope/:id" {
		t.Errorf("expected collapsed fallback path, got %q", got)
	}
}
