package api

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/coastwatch/coastal-hazard-alerts/internal/alerting"
	"github.com/coastwatch/coastal-hazard-alerts/internal/models"
	"github.com/coastwatch/coastal-hazard-alerts/internal/tide"
)

func tideRouter(t *testing.T, th tide.Thresholds) *gin.Engine {
	t.Helper()
	monitor := tide.NewMonitor(
		models.Location{Latitude: 37.77, Longitude: -122.41, Name: "Test Bay"},
		th,
		alerting.NewDispatcher(nil),
	)
	r := gin.New()
	NewTideHandler(monitor).RegisterRoutes(r)
	return r
}

func defaultTideThresholds() tide.Thresholds {
	return tide.Thresholds{HighTide: 3.0, LowTide: 0.5, StormSurge: 4.0}
}

func TestTideStatus(t *testing.T) {
	r := tideRouter(t, defaultTideThresholds())

	w, resp := doJSON(t, r, http.MethodGet, "/tide/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	current, ok := resp["current_tide"].(map[string]any)
	if !ok {
		t.Fatalf("expected current_tide object, got %v", resp["current_tide"])
	}
	if _, ok := current["height_meters"].(float64); !ok {
		t.Errorf("expected numeric height, got %v", current["height_meters"])
	}
	risk, ok := resp["risk_assessment"].(map[string]any)
	if !ok || risk["level"] == "" {
		t.Errorf("expected risk assessment, got %v", resp["risk_assessment"])
	}
	loc, ok := resp["location"].(map[string]any)
	if !ok || loc["name"] != "Test Bay" {
		t.Errorf("expected monitor location, got %v", resp["location"])
	}
}

func TestTideForecast(t *testing.T) {
	r := tideRouter(t, defaultTideThresholds())

	w, resp := doJSON(t, r, http.MethodGet, "/tide/forecast?days=3", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resp["forecast_period"] != "3 days" {
		t.Errorf("unexpected period: %v", resp["forecast_period"])
	}
	summaries, ok := resp["daily_summaries"].([]any)
	if !ok || len(summaries) == 0 {
		t.Fatalf("expected daily summaries, got %v", resp["daily_summaries"])
	}

	// Out-of-range periods clamp instead of failing.
	w, resp = doJSON(t, r, http.MethodGet, "/tide/forecast?days=99", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resp["forecast_period"] != "7 days" {
		t.Errorf("expected clamp to 7 days, got %v", resp["forecast_period"])
	}
}

func TestTideAlertsCheck(t *testing.T) {
	// Thresholds below any predicted height guarantee alerts.
	r := tideRouter(t, tide.Thresholds{HighTide: 0.05, LowTide: 0.01, StormSurge: 0.08})

	w, resp := doJSON(t, r, http.MethodPost, "/tide/alerts/check", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	count, ok := resp["count"].(float64)
	if !ok || count == 0 {
		t.Fatalf("expected new alerts, got %v", resp["count"])
	}

	w, resp = doJSON(t, r, http.MethodGet, "/tide/alerts", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	alerts, ok := resp["alerts"].([]any)
	if !ok || len(alerts) == 0 {
		t.Fatalf("expected active alerts, got %v", resp["alerts"])
	}

	// Severity filter must not leak other levels.
	w, resp = doJSON(t, r, http.MethodGet, "/tide/alerts?severity=CRITICAL", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	for _, a := range resp["alerts"].([]any) {
		if sev := a.(map[string]any)["severity"]; sev != "CRITICAL" {
			t.Errorf("severity filter leaked %v", sev)
		}
	}
}

func TestTideAlerts_EmptyIsArray(t *testing.T) {
	r := tideRouter(t, tide.Thresholds{HighTide: 10, LowTide: 0.01, StormSurge: 20})

	w, resp := doJSON(t, r, http.MethodGet, "/tide/alerts", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if alerts, ok := resp["alerts"].([]any); !ok || len(alerts) != 0 {
		t.Errorf("expected empty alert array, got %v", resp["alerts"])
	}
}

func TestTideRisk(t *testing.T) {
	r := tideRouter(t, defaultTideThresholds())

	w, resp := doJSON(t, r, http.MethodGet, "/tide/risk", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	risk, ok := resp["risk_assessment"].(map[string]any)
	if !ok {
		t.Fatalf("expected risk assessment, got %v", resp["risk_assessment"])
	}
	switch risk["level"] {
	case "MINIMAL", "LOW", "MEDIUM", "HIGH", "CRITICAL":
	default:
		t.Errorf("unknown risk level %v", risk["level"])
	}
}

func TestTideCalendar(t *testing.T) {
	r := tideRouter(t, defaultTideThresholds())

	w, resp := doJSON(t, r, http.MethodGet, "/tide/calendar", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	current, ok := resp["current"].(map[string]any)
	if !ok || current["nakshatra"] == "" || current["tithi"] == "" {
		t.Errorf("expected current lunar position, got %v", resp["current"])
	}
}

func TestTideStatistics(t *testing.T) {
	r := tideRouter(t, defaultTideThresholds())

	w, resp := doJSON(t, r, http.MethodGet, "/tide/statistics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	maxH := resp["max_height"].(float64)
	minH := resp["min_height"].(float64)
	if minH > maxH {
		t.Errorf("min %v above max %v", minH, maxH)
	}
	if resp["period"] != "7 days" {
		t.Errorf("unexpected period: %v", resp["period"])
	}
}
