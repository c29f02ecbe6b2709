// Package notify implements the Notification Emitter: the component a
// committed state transition is handed off to once the event algorithm
// core decides it should be reported.
package notify

import (
	"context"
	"time"
)

// Payload is the sink-facing notification, decoupled from the event
// algorithm core's own transition bookkeeping so a Sink implementation
// never needs to import internal/eventalgorithm.
type Payload struct {
	ID            string
	ObjectID      string
	State         string
	Group         string
	Timestamp     time.Time
	Message       string
	AlgorithmKind string
}

// Sink is one downstream notification destination.
type Sink interface {
	Name() string
	Send(ctx context.Context, p Payload) error
}
