package alerting

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/coastwatch/coastal-hazard-alerts/internal/models"
)

// Message is the transport-agnostic alert content handed to every sender.
type Message struct {
	Subject   string
	Body      string // HTML, for email and webhook consumers
	Plain     string // short form for SMS and voice
	ImageData []byte
	Metadata  map[string]any
}

var bodyTmpl = template.Must(template.New("body").Parse(`<html>
<body>
  <h2 style="color: {{.Color}}">{{.Subject}}</h2>
  <h3>Location</h3>
  <p>{{.Location}}</p>
  <h3>Hazard Details</h3>
  <p><strong>Type:</strong> {{.Hazard}}</p>
  <p><strong>Confidence:</strong> {{.Confidence}}</p>
  <p><strong>Description:</strong> {{.Description}}</p>
  <h3>Alert Level</h3>
  <p><strong>{{.Level}}</strong> - {{.LevelDescription}}</p>
  <h3>Recommended Action</h3>
  <p>{{.Action}}</p>
  <hr>
  <p><small>Alert generated at {{.Timestamp}}</small></p>
</body>
</html>`))

// NewMessage renders the alert content once for all channels.
func NewMessage(level models.AlertLevel, hazard models.HazardType, location, description string, confidence float64, imageData []byte) *Message {
	now := time.Now()
	subject := fmt.Sprintf("%s ALERT: %s Detected", level, hazard.Title())

	var body strings.Builder
	_ = bodyTmpl.Execute(&body, map[string]any{
		"Subject":          subject,
		"Color":            levelColor(level),
		"Location":         location,
		"Hazard":           hazard.Title(),
		"Confidence":       fmt.Sprintf("%.1f%%", confidence*100),
		"Description":      description,
		"Level":            level.String(),
		"LevelDescription": level.Description(),
		"Action":           level.Action(),
		"Timestamp":        now.Format("2006-01-02 15:04:05"),
	})

	plain := fmt.Sprintf("%s alert: %s detected at %s. %s.",
		level, hazard.Title(), location, level.Action())

	return &Message{
		Subject:   subject,
		Body:      body.String(),
		Plain:     plain,
		ImageData: imageData,
		Metadata: map[string]any{
			"alert_level": level.String(),
			"hazard_type": string(hazard),
			"location":    location,
			"confidence":  confidence,
			"timestamp":   now.Format(time.RFC3339),
		},
	}
}

func levelColor(level models.AlertLevel) string {
	switch level {
	case models.AlertLevelRed:
		return "red"
	case models.AlertLevelOrange:
		return "orange"
	case models.AlertLevelYellow:
		return "#b8a000"
	default:
		return "green"
	}
}
