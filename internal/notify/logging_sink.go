package notify

import (
	"context"

	"eventcore/libs/observability"
)

// LoggingSink writes every notification through the package's structured
// logger. It never fails, so it is a reasonable default or fallback sink.
type LoggingSink struct{}

// NewLoggingSink creates a LoggingSink.
func NewLoggingSink() *LoggingSink { return &LoggingSink{} }

func (s *LoggingSink) Name() string { return "log" }

func (s *LoggingSink) Send(ctx context.Context, p Payload) error {
	observability.LogEvent(ctx, "info", "notification", map[string]any{
		"notification_id": p.ID,
		"object_id":        p.ObjectID,
		"to_state":         p.State,
		"group":            p.Group,
		"message":          p.Message,
		"algorithm_kind":   p.AlgorithmKind,
	})
	return nil
}
