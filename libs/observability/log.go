package observability

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"
)

var logger = log.New(os.Stdout, "", 0)

// LogEvent writes a single structured JSON line carrying whatever EvalInfo
// is attached to ctx plus the given fields. The library packages send their
// diagnostics through here instead of ad hoc fmt.Printf/log.Printf calls, so
// a downstream log pipeline can parse them uniformly; cmd/eventdemo's own
// startup and shutdown messages use log.Printf.
func LogEvent(ctx context.Context, level string, event string, fields map[string]any) {
	payload := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339),
		"level": level,
		"event": event,
	}

	info := EvalInfoFromContext(ctx)
	if info.AlgorithmID != "" {
		payload["algorithm_id"] = info.AlgorithmID
	}
	if info.ObjectID != "" {
		payload["object_id"] = info.ObjectID
	}
	if info.RunID != "" {
		payload["run_id"] = info.RunID
	}

	for key, value := range normalizeFields(fields) {
		payload[key] = value
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Printf("{\"level\":\"error\",\"event\":\"log_marshal_failed\",\"error\":%q}", err.Error())
		return
	}
	logger.Print(string(raw))
}

// LogEvaluation records one scheduler-coalesced evaluate() invocation.
func LogEvaluation(ctx context.Context, changed []string, duration time.Duration) {
	LogEvent(ctx, "info", "evaluate", map[string]any{
		"changed":    changed,
		"latency_ms": duration.Milliseconds(),
	})
}

// LogTransition records a committed state transition just before the
// hand-off to the notification emitter.
func LogTransition(ctx context.Context, fromState, toState, group string) {
	LogEvent(ctx, "info", "transition", map[string]any{
		"from_state": fromState,
		"to_state":   toState,
		"group":      group,
	})
}

// LogNotificationFailure records a downstream notification sink error.
func LogNotificationFailure(ctx context.Context, sink string, err error) {
	fields := map[string]any{"sink": sink, "success": err == nil}
	if err != nil {
		fields["error"] = err.Error()
	}
	LogEvent(ctx, "warn", "notification_dispatch", fields)
}

func normalizeFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for key, value := range fields {
		if err, ok := value.(error); ok {
			out[key] = err.Error()
			continue
		}
		out[key] = value
	}
	return out
}
