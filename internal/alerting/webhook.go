package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type webhookConfig struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Timeout int               `json:"timeout"`
}

// WebhookSender POSTs the alert as JSON to an external integration endpoint.
type WebhookSender struct {
	cfg    webhookConfig
	client *http.Client
}

func NewWebhookSender(raw json.RawMessage) (*WebhookSender, error) {
	var cfg webhookConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("invalid webhook config: %w", err)
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("webhook url missing")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30
	}
	return &WebhookSender{
		cfg:    cfg,
		client: &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
	}, nil
}

func (s *WebhookSender) Name() string { return "webhook" }

func (s *WebhookSender) Send(ctx context.Context, msg *Message) error {
	payload, err := json.Marshal(map[string]any{
		"timestamp": time.Now().Format(time.RFC3339),
		"subject":   msg.Subject,
		"body":      msg.Body,
		"metadata":  msg.Metadata,
	})
	if err != nil {
		return fmt.Errorf("error marshaling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	for k, v := range s.cfg.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("error doing request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		return nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(body))
	}
}
