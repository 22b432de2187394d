package alerting

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coastwatch/coastal-hazard-alerts/internal/models"
)

// Dispatcher fans an alert out to every enabled channel whose priority
// levels include the alert's level. Delivery is sequential, best-effort and
// single-attempt: a failing channel is recorded and never blocks the rest.
type Dispatcher struct {
	channels []*Channel
}

func NewDispatcher(channels []*Channel) *Dispatcher {
	return &Dispatcher{channels: channels}
}

// Send delivers one alert and reports the per-channel outcome. Channels
// skipped because they are disabled or do not handle the level get a result
// entry with a "skipped" detail so callers can tell "not attempted" from
// "attempted and failed".
func (d *Dispatcher) Send(ctx context.Context, level models.AlertLevel, hazard models.HazardType, location, description string, confidence float64, imageData []byte) map[string]models.ChannelResult {
	msg := NewMessage(level, hazard, location, description, confidence, imageData)

	results := make(map[string]models.ChannelResult, len(d.channels))
	for _, ch := range d.channels {
		switch {
		case !ch.Enabled:
			results[ch.ID] = models.ChannelResult{
				Detail:    "skipped: channel disabled",
				Timestamp: time.Now(),
			}
		case !ch.handles(level):
			results[ch.ID] = models.ChannelResult{
				Detail:    fmt.Sprintf("skipped: level %s not in priority levels", level),
				Timestamp: time.Now(),
			}
		default:
			err := invoke(ctx, ch.Sender, msg)
			if err != nil {
				slog.Error("alert delivery failed", "channel", ch.ID, "level", level, "error", err)
				results[ch.ID] = models.ChannelResult{
					Detail:    err.Error(),
					Timestamp: time.Now(),
				}
				continue
			}
			slog.Info("alert delivered", "channel", ch.ID, "level", level, "hazard", hazard)
			results[ch.ID] = models.ChannelResult{
				Success:   true,
				Detail:    "delivered",
				Timestamp: time.Now(),
			}
		}
	}

	return results
}

// invoke shields the fan-out from a misbehaving sender.
func invoke(ctx context.Context, s Sender, msg *Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("channel panic: %v", r)
		}
	}()
	return s.Send(ctx, msg)
}

// ChannelStatus describes one configured channel for the status endpoint.
type ChannelStatus struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Enabled        bool                `json:"enabled"`
	PriorityLevels []models.AlertLevel `json:"priority_levels"`
}

func (d *Dispatcher) Status() []ChannelStatus {
	status := make([]ChannelStatus, 0, len(d.channels))
	for _, ch := range d.channels {
		status = append(status, ChannelStatus{
			ID:             ch.ID,
			Name:           ch.Name,
			Enabled:        ch.Enabled,
			PriorityLevels: ch.Levels,
		})
	}
	return status
}
