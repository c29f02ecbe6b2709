package eventalgorithm

import (
	"context"
	"testing"
	"time"

	"eventcore/internal/domain"
	"eventcore/libs/clock"
)

func newTestBase(t *testing.T, ev Evaluator, p BindParams) (*Base, *fakeObject) {
	t.Helper()
	obj := newFakeObject("ao1")
	obj.set(domain.PropertyEventState, domain.CharacterStringValue(string(domain.EventStateNormal)))
	if p.MonitoredObject == nil {
		p.MonitoredObject = obj
	}
	base := NewBase(t.Name(), ev, p)
	return base, obj
}

func TestBase_NormalToOffNormal_Commits(t *testing.T) {
	ev := &fixedEvaluator{kind: "test", state: domain.EventStateOffNormal, changed: true}
	clk := clock.NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	notifier := &fakeNotifier{}
	base, obj := newTestBase(t, ev, BindParams{Notifier: notifier, Clock: clk})
	if err := base.Bind(context.Background(), nil); err != nil {
		t.Fatalf("bind: %v", err)
	}

	if err := base.Evaluate(context.Background()); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if base.CurrentState() != domain.EventStateOffNormal {
		t.Fatalf("got state %v, want OffNormal", base.CurrentState())
	}
	if len(notifier.events) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.events))
	}
	cell, _ := obj.Property(domain.PropertyEventState)
	v, _ := cell.Get(context.Background())
	s, _ := v.CharacterString()
	if s != string(domain.EventStateOffNormal) {
		t.Fatalf("eventState property not updated, got %q", s)
	}
}

func TestBase_FaultTakesPrecedenceOverConcreteAlgorithm(t *testing.T) {
	ev := &fixedEvaluator{kind: "test", state: domain.EventStateOffNormal, changed: true}
	fault := fakeFaultSource{reliability: domain.ReliabilityCommFault}
	base, _ := newTestBase(t, ev, BindParams{FaultAlgorithm: fault, Clock: clock.SystemClock{}})
	base.Bind(context.Background(), nil)

	if err := base.Evaluate(context.Background()); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if base.CurrentState() != domain.EventStateFault {
		t.Fatalf("got %v, want Fault: unhealthy reliability must dominate the concrete algorithm's proposal", base.CurrentState())
	}
}

func TestBase_RecoversFromFaultToNormalBeforeConcreteAlgorithmRuns(t *testing.T) {
	ev := &fixedEvaluator{kind: "test", state: domain.EventStateOffNormal, changed: true}
	mutable := &mutableFaultSource{reliability: domain.ReliabilityCommFault}
	base, _ := newTestBase(t, ev, BindParams{FaultAlgorithm: mutable})
	base.Bind(context.Background(), nil)

	base.Evaluate(context.Background())
	if base.CurrentState() != domain.EventStateFault {
		t.Fatalf("setup: expected Fault after first evaluate, got %v", base.CurrentState())
	}

	mutable.reliability = domain.NoFaultDetected
	base.Evaluate(context.Background())
	if base.CurrentState() != domain.EventStateNormal {
		t.Fatalf("got %v, want Normal: recovery must land on Normal before OffNormal is reachable again", base.CurrentState())
	}
}

func TestBase_InhibitSuppressesOffNormalTransition(t *testing.T) {
	ev := &fixedEvaluator{kind: "test", state: domain.EventStateOffNormal, changed: true}
	inhibitObj := newFakeObject("inhibit-src")
	inhibitCell := inhibitObj.set("value", domain.BooleanValue(true))
	inhibitBinding, err := NewRefBinding(context.Background(), newFakeStore(inhibitObj), "inhibit", domain.ObjectPropertyRef{Object: "inhibit-src", Property: "value"})
	if err != nil {
		t.Fatalf("bind inhibit: %v", err)
	}

	base, _ := newTestBase(t, ev, BindParams{Inhibit: inhibitBinding})
	base.Bind(context.Background(), nil)

	base.Evaluate(context.Background())
	if base.CurrentState() != domain.EventStateNormal {
		t.Fatalf("got %v, want Normal: inhibited transitions must be dropped", base.CurrentState())
	}

	inhibitCell.Set(context.Background(), domain.BooleanValue(false))
	base.inhibited = false
	base.Evaluate(context.Background())
	if base.CurrentState() != domain.EventStateOffNormal {
		t.Fatalf("got %v, want OffNormal once uninhibited", base.CurrentState())
	}
}

func TestBase_DetectionDisabled_ForcesNormalAndSkipsEvaluation(t *testing.T) {
	calls := 0
	ev := &countingEvaluator{fixedEvaluator: fixedEvaluator{kind: "test", state: domain.EventStateOffNormal, changed: true}, calls: &calls}
	disabledBinding := NewLiteralBinding("detect", domain.BooleanValue(false))
	base, _ := newTestBase(t, ev, BindParams{DetectionEnabled: disabledBinding})

	if err := base.Bind(context.Background(), nil); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if base.DetectionEnabled() {
		t.Fatal("expected detection disabled")
	}

	if err := base.Evaluate(context.Background()); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if calls != 0 {
		t.Fatal("concrete algorithm must not run while detection is disabled")
	}
	if base.CurrentState() != domain.EventStateNormal {
		t.Fatalf("got %v, want Normal while detection disabled", base.CurrentState())
	}
}

func TestBase_TimestampsAreMonotonic(t *testing.T) {
	clk := clock.NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	ev := &toggleEvaluator{states: []domain.EventState{domain.EventStateOffNormal, domain.EventStateNormal}}
	base, _ := newTestBase(t, ev, BindParams{Clock: clk})
	base.Bind(context.Background(), nil)

	base.Evaluate(context.Background())
	firstTS := base.EventTimeStamps()[domain.GroupIndex(domain.GroupOffNormal)]

	clk.Advance(time.Minute)
	base.Evaluate(context.Background())
	secondTS := base.EventTimeStamps()[domain.GroupIndex(domain.GroupNormal)]

	if !secondTS.After(firstTS) {
		t.Fatalf("expected second timestamp %v after first %v", secondTS, firstTS)
	}
}

func TestBase_NotificationFailureDoesNotRevertCommittedState(t *testing.T) {
	ev := &fixedEvaluator{kind: "test", state: domain.EventStateOffNormal, changed: true}
	notifier := &fakeNotifier{err: context.DeadlineExceeded}
	base, _ := newTestBase(t, ev, BindParams{Notifier: notifier})
	base.Bind(context.Background(), nil)

	if err := base.Evaluate(context.Background()); err != nil {
		t.Fatalf("evaluate must not surface a notification failure: %v", err)
	}
	if base.CurrentState() != domain.EventStateOffNormal {
		t.Fatalf("got %v, want OffNormal: state must stay committed even if delivery fails", base.CurrentState())
	}
}

func TestBase_ChangeLandingMidEvaluationTriggersFollowUp(t *testing.T) {
	obj := newFakeObject("ao1")
	valueCell := obj.set("present-value", domain.RealValue(1))
	store := newFakeStore(obj)

	binding, err := NewRefBinding(context.Background(), store, "pMonitoredValue", domain.ObjectPropertyRef{Object: "ao1", Property: "present-value"})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}

	// On its first run only, the evaluator writes the observed property,
	// as an external writer racing the execute window would.
	evaluations := 0
	ev := &funcEvaluator{fn: func(ctx context.Context, base *Base) (domain.EventState, domain.NotificationParams, bool, error) {
		evaluations++
		if evaluations == 1 {
			valueCell.Set(ctx, domain.RealValue(2))
		}
		return base.CurrentState(), nil, false, nil
	}}

	base := NewBase(t.Name(), ev, BindParams{MonitoredObject: obj})
	if err := base.Bind(context.Background(), []*Binding{binding}); err != nil {
		t.Fatalf("bind: %v", err)
	}

	valueCell.Set(context.Background(), domain.RealValue(1.5))

	if evaluations != 2 {
		t.Fatalf("got %d evaluations, want 2: the mid-evaluation write must schedule one follow-up", evaluations)
	}
}

type funcEvaluator struct {
	fn func(ctx context.Context, base *Base) (domain.EventState, domain.NotificationParams, bool, error)
}

func (e *funcEvaluator) Kind() string { return "func" }

func (e *funcEvaluator) Evaluate(ctx context.Context, base *Base) (domain.EventState, domain.NotificationParams, bool, error) {
	return e.fn(ctx, base)
}

// mutableFaultSource returns whatever reliability the test last set,
// consistently across every EvaluatedReliability call within a single
// Evaluate invocation.
type mutableFaultSource struct {
	reliability domain.Reliability
}

func (f *mutableFaultSource) EvaluatedReliability(ctx context.Context) domain.Reliability {
	return f.reliability
}

type toggleEvaluator struct {
	states []domain.EventState
	idx    int
}

func (e *toggleEvaluator) Kind() string { return "toggle" }

func (e *toggleEvaluator) Evaluate(ctx context.Context, base *Base) (domain.EventState, domain.NotificationParams, bool, error) {
	if e.idx >= len(e.states) {
		return base.CurrentState(), nil, false, nil
	}
	s := e.states[e.idx]
	e.idx++
	return s, stubParams{kind: "toggle"}, true, nil
}

type countingEvaluator struct {
	fixedEvaluator
	calls *int
}

func (e *countingEvaluator) Evaluate(ctx context.Context, base *Base) (domain.EventState, domain.NotificationParams, bool, error) {
	*e.calls++
	return e.fixedEvaluator.Evaluate(ctx, base)
}
