package algorithms

import (
	"context"
	"testing"
	"time"

	"eventcore/internal/domain"
	"eventcore/internal/eventalgorithm"
	"eventcore/internal/objectstore"
	"eventcore/libs/clock"
)

// recordingNotifier captures every delivered notification in order.
type recordingNotifier struct {
	events []eventalgorithm.NotificationEvent
}

func (n *recordingNotifier) Deliver(ctx context.Context, event eventalgorithm.NotificationEvent) error {
	n.events = append(n.events, event)
	return nil
}

// mutableFault is a FaultSource whose verdict the test flips mid-scenario.
type mutableFault struct {
	reliability domain.Reliability
}

func (f *mutableFault) EvaluatedReliability(ctx context.Context) domain.Reliability {
	return f.reliability
}

// testEnv is the common fixture: one monitored object in a memory store,
// a recording notifier, and a manual clock so timestamp assertions are
// exact.
type testEnv struct {
	store    *objectstore.MemoryStore
	obj      *objectstore.Object
	notifier *recordingNotifier
	clk      *clock.ManualClock
}

func newTestEnv(t *testing.T, objID domain.ObjectID) *testEnv {
	t.Helper()
	store := objectstore.NewMemoryStore()
	obj := objectstore.NewObject(objID)
	obj.SetProperty(domain.PropertyEventState, domain.CharacterStringValue(string(domain.EventStateNormal)))
	store.Add(obj)
	return &testEnv{
		store:    store,
		obj:      obj,
		notifier: &recordingNotifier{},
		clk:      clock.NewManualClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
	}
}

// addObject registers a further object in the fixture's store.
func addObject(e *testEnv, id domain.ObjectID) *objectstore.Object {
	obj := objectstore.NewObject(id)
	e.store.Add(obj)
	return obj
}

// config builds an intrinsic-reporting Config over the fixture's store and
// object. Callers mutate the returned value for fault/inhibit variants.
func (e *testEnv) config() Config {
	return Config{
		Store:           e.store,
		MonitoredObject: e.obj,
		Notifier:        e.notifier,
		Clock:           e.clk,
	}
}

// setValue writes the monitored object's property and, with no Engine
// configured, runs the resulting evaluation synchronously before
// returning.
func (e *testEnv) setValue(t *testing.T, prop domain.PropertyID, v domain.Value) {
	t.Helper()
	cell, ok := e.obj.Property(prop)
	if !ok {
		t.Fatalf("property %s not set on %s", prop, e.obj.ID())
	}
	if err := cell.Set(context.Background(), v); err != nil {
		t.Fatalf("set %s: %v", prop, err)
	}
}

func requireState(t *testing.T, base *eventalgorithm.Base, want domain.EventState) {
	t.Helper()
	if got := base.CurrentState(); got != want {
		t.Fatalf("current state = %v, want %v", got, want)
	}
}

func requireEvents(t *testing.T, n *recordingNotifier, want int) {
	t.Helper()
	if len(n.events) != want {
		t.Fatalf("got %d notifications, want %d: %+v", len(n.events), want, n.events)
	}
}
