package alerting

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/coastwatch/coastal-hazard-alerts/internal/models"
)

// Sender is one delivery mechanism for an alert.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg *Message) error
}

// ChannelConfig mirrors one entry of the alerts config file. It is loaded
// once at startup and not mutated at runtime.
type ChannelConfig struct {
	Name           string              `json:"name"`
	Enabled        bool                `json:"enabled"`
	PriorityLevels []models.AlertLevel `json:"priority_levels"`
	Config         json.RawMessage     `json:"config"`
}

type channelsFile struct {
	Channels map[string]ChannelConfig `json:"channels"`
}

// Channel pairs a configured channel with its sender implementation.
type Channel struct {
	ID      string
	Name    string
	Enabled bool
	Levels  []models.AlertLevel
	Sender  Sender
}

func (c *Channel) handles(level models.AlertLevel) bool {
	for _, l := range c.Levels {
		if l == level {
			return true
		}
	}
	return false
}

// LoadChannels reads the alerts config file and constructs a sender per
// channel. A channel whose credentials are missing or invalid is kept but
// degraded to disabled with a logged warning; only an unreadable file is an
// error.
func LoadChannels(path string) ([]*Channel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading alerts config: %w", err)
	}

	var file channelsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("error decoding alerts config %s: %w", path, err)
	}

	channels := make([]*Channel, 0, len(file.Channels))
	for _, id := range orderedIDs(file.Channels) {
		cfg := file.Channels[id]

		sender, err := newSender(id, cfg.Config)
		if err != nil {
			slog.Warn("alert channel misconfigured, disabling", "channel", id, "error", err)
			channels = append(channels, &Channel{
				ID:      id,
				Name:    cfg.Name,
				Enabled: false,
				Levels:  cfg.PriorityLevels,
			})
			continue
		}

		channels = append(channels, &Channel{
			ID:      id,
			Name:    cfg.Name,
			Enabled: cfg.Enabled,
			Levels:  cfg.PriorityLevels,
			Sender:  sender,
		})
		slog.Info("alert channel configured", "channel", id, "enabled", cfg.Enabled, "levels", cfg.PriorityLevels)
	}

	return channels, nil
}

func newSender(id string, cfg json.RawMessage) (Sender, error) {
	switch id {
	case "email":
		return NewEmailSender(cfg)
	case "sms":
		return NewSMSSender(cfg)
	case "ivr":
		return NewIVRSender(cfg)
	case "webhook":
		return NewWebhookSender(cfg)
	case "push":
		return NewPushSender(cfg)
	default:
		return nil, fmt.Errorf("unknown channel type %q", id)
	}
}

// orderedIDs keeps channel iteration deterministic for logs and tests; the
// dispatcher itself guarantees no ordering between channels.
func orderedIDs(m map[string]ChannelConfig) []string {
	known := []string{"email", "sms", "ivr", "webhook", "push"}
	ids := make([]string, 0, len(m))
	for _, id := range known {
		if _, ok := m[id]; ok {
			ids = append(ids, id)
		}
	}
	for id := range m {
		if !contains(known, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
