// README: Structured JSON logger shared by the server and background workers.
package infra

import (
	"log/slog"
	"os"
)

// NewLogger returns a JSON slog logger with normalized field names and the
// service name attached to every record.
func NewLogger(service string) *slog.Logger {
	host, _ := os.Hostname()
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				a.Key = "timestamp"
			case slog.MessageKey:
				a.Key = "message"
			}
			return a
		},
	})
	return slog.New(handler).With("service", service, "host", host)
}
