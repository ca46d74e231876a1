package audit

import (
	"context"
	"log/slog"
)

// LogSink writes events to the structured log. Used when no broker is configured.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Write(ctx context.Context, e Event) error {
	s.logger.InfoContext(ctx, "audit",
		"category", string(e.Category),
		"action", string(e.Action),
		"account_id", e.AccountID,
		"actor_id", e.ActorID,
		"decision", e.Decision,
		"reason", e.Reason,
		"request_id", e.RequestID,
		"client_ip", e.ClientIP,
		"browser", e.Browser,
		"os", e.OS,
	)
	return nil
}
