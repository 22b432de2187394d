package tide

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coastwatch/coastal-hazard-alerts/internal/alerting"
	"github.com/coastwatch/coastal-hazard-alerts/internal/models"
)

// Risk levels, ordered.
const (
	RiskMinimal  = "MINIMAL"
	RiskLow      = "LOW"
	RiskMedium   = "MEDIUM"
	RiskHigh     = "HIGH"
	RiskCritical = "CRITICAL"
)

// Alert types.
const (
	AlertHighTide    = "HIGH_TIDE"
	AlertStormSurge  = "STORM_SURGE"
	AlertCoastalRisk = "COASTAL_RISK"
)

// Thresholds are the tide heights, in meters, that trigger alerts.
type Thresholds struct {
	HighTide   float64
	LowTide    float64
	StormSurge float64
}

// Alert is a tide-driven warning with a lifetime; unlike citizen-report
// alerts these expire and are kept in memory only.
type Alert struct {
	ID              string          `json:"id"`
	Timestamp       time.Time       `json:"timestamp"`
	Type            string          `json:"alert_type"`
	Severity        string          `json:"severity"`
	Location        models.Location `json:"location"`
	Height          float64         `json:"tide_height"`
	Impact          string          `json:"predicted_impact"`
	Recommendations []string        `json:"recommendations"`
	ExpiresAt       time.Time       `json:"expires_at"`
	Active          bool            `json:"is_active"`
}

// RiskAssessment is the scored coastal risk for the current conditions.
type RiskAssessment struct {
	Level           string   `json:"level"`
	Score           int      `json:"score"`
	Factors         []string `json:"factors"`
	Recommendations []string `json:"recommendations"`
}

// Monitor tracks tide conditions for one location, scores coastal risk, and
// raises alerts through the shared dispatcher when the risk warrants it.
type Monitor struct {
	predictor  *Predictor
	dispatcher *alerting.Dispatcher
	location   models.Location
	thresholds Thresholds
	now        func() time.Time

	mu          sync.Mutex
	forecast    []Prediction
	refreshedAt time.Time
	alerts      []*Alert
}

func NewMonitor(location models.Location, thresholds Thresholds, dispatcher *alerting.Dispatcher) *Monitor {
	return &Monitor{
		predictor:  NewPredictor(location.Latitude, location.Longitude),
		dispatcher: dispatcher,
		location:   location,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// forecastLocked returns the cached 7-day hourly forecast, regenerating it
// when it is older than an hour. Caller holds mu.
func (m *Monitor) forecastLocked() []Prediction {
	now := m.now()
	if m.forecast == nil || now.Sub(m.refreshedAt) > time.Hour {
		m.forecast = m.predictor.Predict(now.Truncate(time.Hour), 7)
		m.refreshedAt = now
		slog.Info("tide forecast refreshed", "predictions", len(m.forecast))
	}
	return m.forecast
}

// Status reports the current tide, its trend, and the scored risk.
func (m *Monitor) Status() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	current := m.predictor.At(now)
	next6 := m.rangeLocked(now, 6*time.Hour)

	return map[string]any{
		"timestamp": now,
		"location":  m.location,
		"current_tide": map[string]any{
			"height_meters": current.Height,
			"type":          current.Type,
			"trend":         trend(next6),
			"next_change":   nextChange(current, next6, now),
		},
		"risk_assessment": m.assessLocked(current, next6),
		"active_alerts":   m.activeCountLocked(),
		"weather":         current.Weather,
		"lunar_calendar":  current.Lunar,
	}
}

// Risk returns the current risk assessment on its own.
func (m *Monitor) Risk() RiskAssessment {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	current := m.predictor.At(now)
	return m.assessLocked(current, m.rangeLocked(now, 6*time.Hour))
}

func (m *Monitor) rangeLocked(start time.Time, span time.Duration) []Prediction {
	end := start.Add(span)
	var out []Prediction
	for _, p := range m.forecastLocked() {
		if !p.Timestamp.Before(start) && !p.Timestamp.After(end) {
			out = append(out, p)
		}
	}
	return out
}

func trend(predictions []Prediction) string {
	if len(predictions) < 3 {
		return "stable"
	}
	last := predictions[len(predictions)-3:]
	switch {
	case last[0].Height < last[1].Height && last[1].Height < last[2].Height:
		return "rising"
	case last[0].Height > last[1].Height && last[1].Height > last[2].Height:
		return "falling"
	default:
		return "stable"
	}
}

func nextChange(current Prediction, forecast []Prediction, now time.Time) map[string]any {
	for _, p := range forecast {
		if p.Type != current.Type {
			return map[string]any{
				"type":        p.Type,
				"timestamp":   p.Timestamp,
				"height":      p.Height,
				"hours_until": p.Timestamp.Sub(now).Hours(),
			}
		}
	}
	return nil
}

// assessLocked scores the current conditions. Caller holds mu.
func (m *Monitor) assessLocked(current Prediction, next6 []Prediction) RiskAssessment {
	score := 0
	var factors []string

	switch {
	case current.Height > m.thresholds.StormSurge:
		score += 5
		factors = append(factors, "Storm surge conditions")
	case current.Height > m.thresholds.HighTide:
		score += 3
		factors = append(factors, "High tide conditions")
	}

	switch current.Weather.Condition {
	case "stormy":
		score += 4
		factors = append(factors, "Stormy weather")
	case "rainy":
		score += 2
		factors = append(factors, "Rainy conditions")
	}
	switch {
	case current.Weather.WindSpeed > 15:
		score += 3
		factors = append(factors, "High winds")
	case current.Weather.WindSpeed > 10:
		score += 2
		factors = append(factors, "Moderate winds")
	}

	forecastHigh := false
	for _, p := range next6 {
		if p.Height > m.thresholds.HighTide {
			score++
			forecastHigh = true
		}
	}
	if forecastHigh {
		factors = append(factors, "High tide forecast")
	}

	level := RiskMinimal
	switch {
	case score >= 8:
		level = RiskCritical
	case score >= 6:
		level = RiskHigh
	case score >= 4:
		level = RiskMedium
	case score >= 2:
		level = RiskLow
	}

	return RiskAssessment{
		Level:           level,
		Score:           score,
		Factors:         factors,
		Recommendations: recommendations(level, factors),
	}
}

func recommendations(level string, factors []string) []string {
	var recs []string
	switch level {
	case RiskCritical:
		recs = append(recs,
			"Immediate evacuation of low-lying coastal areas",
			"Activate emergency response protocols",
			"Issue public safety announcements")
	case RiskHigh:
		recs = append(recs,
			"Prepare for potential flooding",
			"Secure loose objects and boats",
			"Monitor weather updates")
	case RiskMedium:
		recs = append(recs,
			"Exercise caution near water",
			"Monitor tide conditions")
	case RiskLow:
		recs = append(recs,
			"Normal coastal activities",
			"Regular monitoring recommended")
	}

	for _, f := range factors {
		switch f {
		case "High tide conditions":
			recs = append(recs, "Avoid low-lying coastal areas during high tide")
		case "Stormy weather":
			recs = append(recs, "Stay indoors and away from windows")
		case "High winds":
			recs = append(recs, "Secure outdoor objects and avoid coastal areas")
		}
	}
	return recs
}

// CheckAlerts evaluates the current conditions, records any new alerts, and
// dispatches HIGH/CRITICAL ones through the notification channels. Expired
// alerts are swept on every call.
func (m *Monitor) CheckAlerts(ctx context.Context) []*Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	current := m.predictor.At(now)
	risk := m.assessLocked(current, m.rangeLocked(now, 6*time.Hour))

	var created []*Alert

	switch {
	case current.Height > m.thresholds.StormSurge:
		created = append(created, m.addAlertLocked(AlertStormSurge, RiskCritical, current.Height,
			"Severe coastal flooding expected",
			[]string{"Immediate evacuation", "Emergency response activation"}))
	case current.Height > m.thresholds.HighTide:
		created = append(created, m.addAlertLocked(AlertHighTide, RiskHigh, current.Height,
			"Coastal flooding possible",
			[]string{"Avoid low-lying areas", "Monitor conditions"}))
	}

	if (risk.Level == RiskHigh || risk.Level == RiskCritical) && !m.hasActiveLocked(AlertCoastalRisk) {
		created = append(created, m.addAlertLocked(AlertCoastalRisk, risk.Level, current.Height,
			fmt.Sprintf("Coastal risk level: %s", risk.Level), risk.Recommendations))
	}

	m.sweepLocked(now)

	for _, a := range created {
		m.dispatchLocked(ctx, a)
	}
	return created
}

func (m *Monitor) addAlertLocked(alertType, severity string, height float64, impact string, recs []string) *Alert {
	now := m.now()
	a := &Alert{
		ID:              uuid.NewString(),
		Timestamp:       now,
		Type:            alertType,
		Severity:        severity,
		Location:        m.location,
		Height:          height,
		Impact:          impact,
		Recommendations: recs,
		ExpiresAt:       now.Add(alertLifetime(severity)),
		Active:          true,
	}
	m.alerts = append(m.alerts, a)
	slog.Info("tide alert raised", "type", alertType, "severity", severity, "height", height)
	return a
}

func alertLifetime(severity string) time.Duration {
	switch severity {
	case RiskCritical:
		return 2 * time.Hour
	case RiskHigh:
		return 4 * time.Hour
	case RiskMedium:
		return 6 * time.Hour
	default:
		return 12 * time.Hour
	}
}

// dispatchLocked pushes a tide alert through the same channels citizen-report
// alerts use, mapping the severity onto the dispatcher's level scale.
func (m *Monitor) dispatchLocked(ctx context.Context, a *Alert) {
	if m.dispatcher == nil {
		return
	}

	var level models.AlertLevel
	switch a.Severity {
	case RiskCritical:
		level = models.AlertLevelRed
	case RiskHigh:
		level = models.AlertLevelOrange
	case RiskMedium:
		level = models.AlertLevelYellow
	default:
		return
	}

	desc := fmt.Sprintf("%s (tide %.2fm)", a.Impact, a.Height)
	m.dispatcher.Send(ctx, level, models.HazardCoastalErosion, m.location.Name, desc, predictionConfidence, nil)
}

func (m *Monitor) hasActiveLocked(alertType string) bool {
	for _, a := range m.alerts {
		if a.Type == alertType && a.Active {
			return true
		}
	}
	return false
}

func (m *Monitor) sweepLocked(now time.Time) {
	for _, a := range m.alerts {
		if a.ExpiresAt.Before(now) {
			a.Active = false
		}
	}
	cutoff := now.Add(-24 * time.Hour)
	kept := m.alerts[:0]
	for _, a := range m.alerts {
		if a.Active || a.Timestamp.After(cutoff) {
			kept = append(kept, a)
		}
	}
	m.alerts = kept
}

func (m *Monitor) activeCountLocked() int {
	n := 0
	for _, a := range m.alerts {
		if a.Active {
			n++
		}
	}
	return n
}

// ActiveAlerts returns active alerts, optionally filtered by type and
// severity (empty string matches all).
func (m *Monitor) ActiveAlerts(alertType, severity string) []*Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Alert, 0, len(m.alerts))
	for _, a := range m.alerts {
		if !a.Active {
			continue
		}
		if alertType != "" && a.Type != alertType {
			continue
		}
		if severity != "" && a.Severity != severity {
			continue
		}
		out = append(out, a)
	}
	return out
}
