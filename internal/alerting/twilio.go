package alerting

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const twilioBaseURL = "https://api.twilio.com/2010-04-01"

type twilioConfig struct {
	AccountSID string   `json:"account_sid"`
	AuthToken  string   `json:"auth_token"`
	FromNumber string   `json:"from_number"`
	Recipients []string `json:"recipients"`
	WebhookURL string   `json:"webhook_url"`
	Voice      string   `json:"voice"`
	Language   string   `json:"language"`
}

func (c *twilioConfig) check() error {
	if c.AccountSID == "" || c.AuthToken == "" {
		return fmt.Errorf("twilio credentials missing")
	}
	if c.FromNumber == "" || len(c.Recipients) == 0 {
		return fmt.Errorf("twilio from number/recipients missing")
	}
	return nil
}

// twilioClient wraps the two REST resources we use (Messages, Calls).
type twilioClient struct {
	cfg     twilioConfig
	baseURL string
	client  *http.Client
}

func newTwilioClient(cfg twilioConfig) *twilioClient {
	return &twilioClient{
		cfg:     cfg,
		baseURL: twilioBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (t *twilioClient) post(ctx context.Context, resource string, form url.Values) error {
	endpoint := fmt.Sprintf("%s/Accounts/%s/%s.json", t.baseURL, t.cfg.AccountSID, resource)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(t.cfg.AccountSID, t.cfg.AuthToken)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("error doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("twilio returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// SMSSender delivers the short alert form to each configured recipient via
// the Twilio Messages API.
type SMSSender struct {
	tw *twilioClient
}

func NewSMSSender(raw json.RawMessage) (*SMSSender, error) {
	var cfg twilioConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("invalid sms config: %w", err)
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &SMSSender{tw: newTwilioClient(cfg)}, nil
}

func (s *SMSSender) Name() string { return "sms" }

func (s *SMSSender) Send(ctx context.Context, msg *Message) error {
	for _, to := range s.tw.cfg.Recipients {
		if err := s.SendTo(ctx, to, msg.Plain); err != nil {
			return fmt.Errorf("sms to %s: %w", to, err)
		}
	}
	return nil
}

// SendTo delivers a single SMS outside the fan-out, used to notify the
// citizen who filed the report.
func (s *SMSSender) SendTo(ctx context.Context, to, body string) error {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.tw.cfg.FromNumber)
	form.Set("Body", body)
	return s.tw.post(ctx, "Messages", form)
}

// IVRSender places automated voice calls via the Twilio Calls API, speaking
// the alert twice before hanging up.
type IVRSender struct {
	tw *twilioClient
}

func NewIVRSender(raw json.RawMessage) (*IVRSender, error) {
	var cfg twilioConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("invalid ivr config: %w", err)
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}
	if cfg.Voice == "" {
		cfg.Voice = "alice"
	}
	if cfg.Language == "" {
		cfg.Language = "en-US"
	}
	return &IVRSender{tw: newTwilioClient(cfg)}, nil
}

func (s *IVRSender) Name() string { return "ivr" }

func (s *IVRSender) Send(ctx context.Context, msg *Message) error {
	twiml, err := buildTwiML(msg, s.tw.cfg.Voice, s.tw.cfg.Language)
	if err != nil {
		return fmt.Errorf("building twiml: %w", err)
	}

	for _, to := range s.tw.cfg.Recipients {
		form := url.Values{}
		form.Set("To", to)
		form.Set("From", s.tw.cfg.FromNumber)
		form.Set("Twiml", twiml)
		if s.tw.cfg.WebhookURL != "" {
			form.Set("StatusCallback", s.tw.cfg.WebhookURL+"/call-status")
		}
		if err := s.tw.post(ctx, "Calls", form); err != nil {
			return fmt.Errorf("ivr call to %s: %w", to, err)
		}
	}
	return nil
}

type twimlSay struct {
	XMLName  xml.Name `xml:"Say"`
	Voice    string   `xml:"voice,attr"`
	Language string   `xml:"language,attr"`
	Text     string   `xml:",chardata"`
}

type twimlPause struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr"`
}

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	First   twimlSay
	Pause   twimlPause
	Second  twimlSay
	Hangup  struct{} `xml:"Hangup"`
}

func buildTwiML(msg *Message, voice, language string) (string, error) {
	text := fmt.Sprintf(
		"This is an automated emergency alert from the coastal hazard detection system. %s This message will repeat once.",
		msg.Plain)

	doc := twimlResponse{
		First:  twimlSay{Voice: voice, Language: language, Text: text},
		Pause:  twimlPause{Length: 2},
		Second: twimlSay{Voice: voice, Language: language, Text: text},
	}
	out, err := xml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return xml.Header + string(out), nil
}
