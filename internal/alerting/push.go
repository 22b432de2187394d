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

const fcmSendURL = "https://fcm.googleapis.com/fcm/send"

type pushConfig struct {
	ServerKey    string   `json:"fcm_server_key"`
	Topic        string   `json:"topic"`
	DeviceTokens []string `json:"device_tokens"`
}

// PushSender delivers mobile notifications through the FCM legacy HTTP API,
// to a topic or to explicit device tokens.
type PushSender struct {
	cfg     pushConfig
	sendURL string
	client  *http.Client
}

func NewPushSender(raw json.RawMessage) (*PushSender, error) {
	var cfg pushConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("invalid push config: %w", err)
	}
	if cfg.ServerKey == "" {
		return nil, fmt.Errorf("fcm server key missing")
	}
	if cfg.Topic == "" && len(cfg.DeviceTokens) == 0 {
		return nil, fmt.Errorf("fcm topic/device tokens missing")
	}
	return &PushSender{
		cfg:     cfg,
		sendURL: fcmSendURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (s *PushSender) Name() string { return "push" }

func (s *PushSender) Send(ctx context.Context, msg *Message) error {
	body := map[string]any{
		"notification": map[string]string{
			"title": msg.Subject,
			"body":  msg.Plain,
		},
		"data": msg.Metadata,
	}
	if s.cfg.Topic != "" {
		body["to"] = "/topics/" + s.cfg.Topic
	} else {
		body["registration_ids"] = s.cfg.DeviceTokens
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("error marshaling push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.sendURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+s.cfg.ServerKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("error doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("fcm returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
