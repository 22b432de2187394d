package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// AlertLevel is an ordinal severity tag: GREEN < YELLOW < ORANGE < RED.
type AlertLevel int

const (
	AlertLevelGreen AlertLevel = iota
	AlertLevelYellow
	AlertLevelOrange
	AlertLevelRed
)

func (l AlertLevel) String() string {
	switch l {
	case AlertLevelGreen:
		return "GREEN"
	case AlertLevelYellow:
		return "YELLOW"
	case AlertLevelOrange:
		return "ORANGE"
	case AlertLevelRed:
		return "RED"
	default:
		return "UNKNOWN"
	}
}

// ParseAlertLevel accepts the string form in any case.
func ParseAlertLevel(s string) (AlertLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GREEN":
		return AlertLevelGreen, nil
	case "YELLOW":
		return AlertLevelYellow, nil
	case "ORANGE":
		return AlertLevelOrange, nil
	case "RED":
		return AlertLevelRed, nil
	default:
		return AlertLevelGreen, fmt.Errorf("unknown alert level: %q", s)
	}
}

func (l AlertLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *AlertLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	level, err := ParseAlertLevel(s)
	if err != nil {
		return err
	}
	*l = level
	return nil
}

// Description returns the human summary for a level.
func (l AlertLevel) Description() string {
	switch l {
	case AlertLevelRed:
		return "High risk detected"
	case AlertLevelOrange:
		return "Moderate risk detected"
	case AlertLevelYellow:
		return "Low risk detected"
	default:
		return "No immediate threat"
	}
}

// Action returns the recommended response for a level.
func (l AlertLevel) Action() string {
	switch l {
	case AlertLevelRed:
		return "Immediate action required"
	case AlertLevelOrange:
		return "Prepare response"
	case AlertLevelYellow:
		return "Monitor closely"
	default:
		return "Continue monitoring"
	}
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
}

// ChannelResult records the outcome of one delivery attempt.
type ChannelResult struct {
	Success   bool      `json:"success"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}

// Alert is one detection event. Immutable after dispatch; delivery is
// best-effort and the per-channel outcomes live in ChannelResults.
type Alert struct {
	ID             string                   `json:"id"`
	HazardType     HazardType               `json:"hazard_type"`
	Level          AlertLevel               `json:"alert_level"`
	Location       Location                 `json:"location"`
	Confidence     float64                  `json:"confidence"`
	Description    string                   `json:"description"`
	Timestamp      time.Time                `json:"timestamp"`
	ChannelResults map[string]ChannelResult `json:"channel_results,omitempty"`
}
