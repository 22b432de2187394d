package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewHandler_ServiceAttribute(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, "info"))

	logger.Info("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if line["service"] != serviceName {
		t.Errorf("expected service=%q, got %v", serviceName, line["service"])
	}
	if line["msg"] != "hello" {
		t.Errorf("unexpected message: %v", line["msg"])
	}
}

func TestNewHandler_Levels(t *testing.T) {
	cases := []struct {
		level      string
		debugShown bool
		errorShown bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, true},
		{"error", false, true},
		{"bogus", false, true}, // unknown levels fall back to info
	}

	for _, tc := range cases {
		h := newHandler(&bytes.Buffer{}, tc.level)
		if got := h.Enabled(context.Background(), slog.LevelDebug); got != tc.debugShown {
			t.Errorf("level %q: debug enabled = %v, want %v", tc.level, got, tc.debugShown)
		}
		if got := h.Enabled(context.Background(), slog.LevelError); got != tc.errorShown {
			t.Errorf("level %q: error enabled = %v, want %v", tc.level, got, tc.errorShown)
		}
	}
}
