package observability

import (
	"context"
	"time"
)

// RecordEvaluation logs a scheduler-coalesced evaluate() call as a metric
// event.
func RecordEvaluation(ctx context.Context, algorithmKind string, duration time.Duration, changedCount int) {
	LogEvent(ctx, "info", "metric", map[string]any{
		"name":           "evaluation",
		"algorithm_kind": algorithmKind,
		"latency_ms":     duration.Milliseconds(),
		"changed_count":  changedCount,
	})
}

// RecordTransition logs a committed transition as a metric event.
func RecordTransition(ctx context.Context, fromGroup, toGroup string) {
	LogEvent(ctx, "info", "metric", map[string]any{
		"name":       "transition",
		"from_group": fromGroup,
		"to_group":   toGroup,
	})
}

// RecordNotificationDispatch logs a notification sink call outcome.
func RecordNotificationDispatch(ctx context.Context, sink string, err error) {
	fields := map[string]any{
		"name":    "notification_dispatch",
		"sink":    sink,
		"success": err == nil,
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	LogEvent(ctx, "info", "metric", fields)
}
