package alerting

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/smtp"
	"strings"
)

type emailConfig struct {
	SMTPServer string   `json:"smtp_server"`
	SMTPPort   int      `json:"smtp_port"`
	Username   string   `json:"username"`
	Password   string   `json:"password"`
	FromEmail  string   `json:"from_email"`
	Recipients []string `json:"recipients"`
}

// EmailSender delivers alerts over SMTP with an HTML body and the uploaded
// image attached when present.
type EmailSender struct {
	cfg emailConfig
}

func NewEmailSender(raw json.RawMessage) (*EmailSender, error) {
	var cfg emailConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("invalid email config: %w", err)
	}
	if cfg.SMTPServer == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("email credentials missing")
	}
	if cfg.FromEmail == "" || len(cfg.Recipients) == 0 {
		return nil, fmt.Errorf("email sender/recipients missing")
	}
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = 587
	}
	return &EmailSender{cfg: cfg}, nil
}

func (s *EmailSender) Name() string { return "email" }

func (s *EmailSender) Send(ctx context.Context, msg *Message) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPServer, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPServer)

	if err := smtp.SendMail(addr, auth, s.cfg.FromEmail, s.cfg.Recipients, s.build(msg)); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

func (s *EmailSender) build(msg *Message) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", s.cfg.FromEmail)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(s.cfg.Recipients, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")

	if len(msg.ImageData) == 0 {
		buf.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
		buf.WriteString(msg.Body)
		return buf.Bytes()
	}

	const boundary = "coastal-alert-boundary"
	fmt.Fprintf(&buf, "Content-Type: multipart/related; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	buf.WriteString(msg.Body)
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: image/jpeg\r\n")
	buf.WriteString("Content-Transfer-Encoding: base64\r\n")
	buf.WriteString("Content-ID: <alert_image>\r\n\r\n")
	buf.WriteString(base64.StdEncoding.EncodeToString(msg.ImageData))
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes()
}
