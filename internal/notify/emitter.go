package notify

import (
	"context"

	"github.com/google/uuid"

	"eventcore/internal/eventalgorithm"
	"eventcore/libs/observability"
)

// Emitter is the Notification Emitter. It fans a committed
// transition out to every registered sink, tagging the dispatch with a
// fresh notification ID. A sink failure is logged and does not block the
// remaining sinks.
type Emitter struct {
	sinks []Sink
}

// NewEmitter creates an Emitter dispatching to the given sinks in order.
func NewEmitter(sinks ...Sink) *Emitter {
	return &Emitter{sinks: sinks}
}

// Deliver implements eventalgorithm.Notifier.
func (e *Emitter) Deliver(ctx context.Context, event eventalgorithm.NotificationEvent) error {
	payload := Payload{
		ID:        uuid.NewString(),
		ObjectID:  string(event.InitiatingObject),
		State:     string(event.NewState),
		Group:     string(event.Group),
		Timestamp: event.Timestamp,
		Message:   event.Message,
	}
	if event.Params != nil {
		payload.AlgorithmKind = event.Params.AlgorithmKind()
	}

	var firstErr error
	for _, sink := range e.sinks {
		if err := sink.Send(ctx, payload); err != nil {
			observability.LogNotificationFailure(ctx, sink.Name(), err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
	}
	return firstErr
}
