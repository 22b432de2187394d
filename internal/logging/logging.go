// Package logging configures the process-wide slog logger used across the
// coastal hazard service.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// serviceName tags every log line so aggregated logs from co-located
// services stay distinguishable.
const serviceName = "coastal-alerts"

// Setup installs a JSON logger on stdout as the slog default. Unknown level
// strings fall back to info.
func Setup(level string) {
	slog.SetDefault(slog.New(newHandler(os.Stdout, level)))
}

func newHandler(w io.Writer, level string) slog.Handler {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})

	return handler.WithAttrs([]slog.Attr{slog.String("service", serviceName)})
}

// Fatalf logs at error level and exits. Only meant for startup failures,
// before the server is accepting traffic.
func Fatalf(format string, args ...any) {
	slog.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
