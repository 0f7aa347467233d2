package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newQueryContext(t *testing.T, query string) echo.Context {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec)
}

func TestParseFilters(t *testing.T) {
	projectID := uuid.New()
	c := newQueryContext(t, "path=/api&ip=10.&user_agent=bot&location=Berlin&search=health"+
		"&bots_only=true&response_code=404&start=2026-08-01T00:00:00Z&end=2026-08-02T00:00:00Z")

	f := parseFilters(c, projectID)
	if f.ProjectID != projectID {
		t.Fatalf("unexpected project id %v", f.ProjectID)
	}
	if f.PathPrefix != "/api" || f.IPPrefix != "10." || f.UserAgentContains != "bot" ||
		f.LocationPrefix != "Berlin" || f.Search != "health" {
		t.Fatalf("unexpected string filters %+v", f)
	}
	if !f.BotsOnly {
		t.Fatal("expected bots_only parsed")
	}
	if f.ResponseCode == nil || *f.ResponseCode != 404 {
		t.Fatalf("unexpected response code %v", f.ResponseCode)
	}
	if f.Start == nil || f.End == nil {
		t.Fatal("expected time window parsed")
	}
	if !f.End.After(*f.Start) {
		t.Fatalf("unexpected window %v..%v", f.Start, f.End)
	}
}

func TestParseFilters_IgnoresBadValues(t *testing.T) {
	c := newQueryContext(t, "response_code=many&start=yesterday&bots_only=yes")
	f := parseFilters(c, uuid.New())
	if f.ResponseCode != nil || f.Start != nil {
		t.Fatalf("expected unparseable values dropped, got %+v", f)
	}
	if f.BotsOnly {
		t.Fatal("only the literal \"true\" enables bots_only")
	}
}

func TestIntQuery(t *testing.T) {
	c := newQueryContext(t, "page=3&limit=abc")
	if got := intQuery(c, "page", 1); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	if got := intQuery(c, "limit", 50); got != 50 {
		t.Fatalf("expected fallback on garbage, got %d", got)
	}
	if got := intQuery(c, "missing", 7); got != 7 {
		t.Fatalf("expected fallback on absent param, got %d", got)
	}
}
