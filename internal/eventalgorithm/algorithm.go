package eventalgorithm

import (
	"context"
	"fmt"
	"time"

	"eventcore/internal/domain"
	"eventcore/libs/clock"
	"eventcore/libs/observability"
)

// Evaluator is implemented by every concrete algorithm in
// internal/algorithms. Evaluate inspects the current parameter bindings and
// proposes a candidate state; changed reports whether the proposal
// represents a transition attempt at all.
type Evaluator interface {
	Kind() string
	Evaluate(ctx context.Context, base *Base) (newState domain.EventState, params domain.NotificationParams, changed bool, err error)
}

// FaultSource exposes the fault interlock's read-only verdict.
// internal/fault.Interlock satisfies this structurally.
type FaultSource interface {
	EvaluatedReliability(ctx context.Context) domain.Reliability
}

// Notifier is the downstream distribution collaborator.
// internal/notify.Sink implementations satisfy this structurally.
type Notifier interface {
	Deliver(ctx context.Context, event NotificationEvent) error
}

// NotificationEvent is the payload handed to the Notification Emitter once
// a transition commits.
type NotificationEvent struct {
	InitiatingObject domain.ObjectID
	NewState         domain.EventState
	Group            domain.EventStateGroup
	Timestamp        time.Time
	Message          string
	Params           domain.NotificationParams
}

// BindParams configures one EventAlgorithm instance at construction time.
type BindParams struct {
	MonitoredObject  domain.Object
	MonitoringObject domain.Object // nil => intrinsic reporting
	FaultAlgorithm   FaultSource   // nil => always treated as NoFaultDetected
	Inhibit          *Binding      // nil => never inhibited
	DetectionEnabled *Binding      // nil => always enabled
	MessageTemplates [3]string     // per-group eventMessageTextsConfig; "" uses the default
	Notifier         Notifier
	Engine           *Engine
	Clock            clock.Clock
}

// Base is the shared EventAlgorithm state every concrete algorithm embeds
// by reference. It owns pCurrentState, the inhibit flag, the
// transition table wiring, and timestamp/message bookkeeping; concrete
// algorithms implement only Evaluate.
type Base struct {
	id         string
	kind       string
	monitored  domain.Object
	monitoring domain.Object
	fault      FaultSource
	notifier   Notifier
	engine     *Engine
	clk        clock.Clock

	inhibitBinding   *Binding
	detectionBinding *Binding
	templates        [3]string

	sched *schedulerState

	currentState    domain.EventState
	lastReliability domain.Reliability
	inhibited       bool
	detectionOn     bool
	timestamps      [3]time.Time
	messages        [3]string
	acked           [3]bool

	evaluator Evaluator
	bindings  []*Binding
}

// NewBase constructs the shared state for one instance. id should be
// stable and unique per instance; it is used only for logging/metrics
// labels and error messages.
func NewBase(id string, evaluator Evaluator, p BindParams) *Base {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Base{
		id:               id,
		kind:             evaluator.Kind(),
		monitored:        p.MonitoredObject,
		monitoring:       p.MonitoringObject,
		fault:            p.FaultAlgorithm,
		notifier:         p.Notifier,
		engine:           p.Engine,
		clk:              clk,
		inhibitBinding:   p.Inhibit,
		detectionBinding: p.DetectionEnabled,
		templates:        p.MessageTemplates,
		sched:            newSchedulerState(),
		currentState:     domain.EventStateNormal,
		lastReliability:  domain.NoFaultDetected,
		evaluator:        evaluator,
	}
}

// ID returns this instance's stable identifier.
func (b *Base) ID() string { return b.id }

// MonitoredObject is the object whose value is evaluated.
func (b *Base) MonitoredObject() domain.Object { return b.monitored }

// InitiatingObject is the monitoring object if this instance is
// algorithmic, else the monitored object.
func (b *Base) InitiatingObject() domain.Object {
	if b.monitoring != nil {
		return b.monitoring
	}
	return b.monitored
}

// Intrinsic reports whether this instance reads parameters from the
// monitored object itself (no monitoring object configured).
func (b *Base) Intrinsic() bool { return b.monitoring == nil }

func (b *Base) CurrentState() domain.EventState  { return b.currentState }
func (b *Base) Inhibited() bool                  { return b.inhibited }
func (b *Base) DetectionEnabled() bool            { return b.detectionOn }
func (b *Base) EventTimeStamps() [3]time.Time     { return b.timestamps }
func (b *Base) EventMessageTexts() [3]string      { return b.messages }
func (b *Base) AckedTransitions() [3]bool         { return b.acked }

// Bind resolves the bindings the concrete algorithm built, reads
// eventDetectionEnable, and either installs monitors or resets to Normal
// with detection disabled.
func (b *Base) Bind(ctx context.Context, bindings []*Binding) error {
	b.bindings = bindings

	enabled := true
	if b.detectionBinding != nil {
		v, err := b.detectionBinding.Value(ctx)
		if err != nil {
			return fmt.Errorf("eventalgorithm: bind %s: read eventDetectionEnable: %w", b.id, err)
		}
		enabled, err = v.Boolean()
		if err != nil {
			return fmt.Errorf("eventalgorithm: bind %s: eventDetectionEnable must be boolean: %w", b.id, err)
		}
	}
	b.detectionOn = enabled

	if !enabled {
		b.currentState = domain.EventStateNormal
		b.timestamps = [3]time.Time{}
		b.messages = [3]string{}
		b.acked = [3]bool{}
		return nil
	}

	for _, bd := range bindings {
		bd.Observe(func(name string, old, new domain.Value) {
			b.onChange(name)
		})
	}
	if b.inhibitBinding != nil {
		b.inhibitBinding.Observe(func(name string, old, new domain.Value) {
			b.onChange(name)
		})
		if v, err := b.inhibitBinding.Value(ctx); err == nil {
			if inh, err := v.Boolean(); err == nil {
				b.inhibited = inh
			}
		}
	}
	return nil
}

// onChange is the Property Binding's delivery callback: it records the
// change and, on the first change of a scheduling quantum, submits the
// continuation to the engine.
func (b *Base) onChange(name string) {
	if !b.sched.noteChange(name) {
		return
	}
	if b.engine != nil {
		b.engine.Submit(func(ctx context.Context) {
			b.runScheduled(ctx)
		})
		return
	}
	b.runScheduled(context.Background())
}

// runScheduled is the scheduler's one-shot continuation. Changes that land
// while the evaluator body runs are captured but not acted on until the
// window closes; endExecute then requests one follow-up continuation for
// them.
func (b *Base) runScheduled(ctx context.Context) {
	changed := b.sched.beginExecute()
	defer func() {
		if !b.sched.endExecute() {
			return
		}
		if b.engine != nil {
			b.engine.Submit(func(ctx context.Context) {
				b.runScheduled(ctx)
			})
			return
		}
		b.runScheduled(context.Background())
	}()

	if b.inhibitBinding != nil {
		if v, err := b.inhibitBinding.Value(ctx); err == nil {
			if inh, err := v.Boolean(); err == nil {
				b.inhibited = inh
			}
		}
	}

	start := b.clk.Now()
	if err := b.Evaluate(ctx); err != nil {
		observability.LogEvent(ctx, "error", "evaluation_error", map[string]any{
			"algorithm_id": b.id,
			"error":        err.Error(),
		})
	}
	observability.RecordEvaluation(ctx, b.kind, b.clk.Now().Sub(start), len(changed))
}

// Evaluate runs the fault-precedence check and, if healthy, the concrete
// algorithm's Evaluate, then attempts the resulting transition.
func (b *Base) Evaluate(ctx context.Context) error {
	if !b.detectionOn {
		return nil
	}

	reliability := domain.NoFaultDetected
	if b.fault != nil {
		reliability = b.fault.EvaluatedReliability(ctx)
	}

	if !reliability.Healthy() {
		return b.StateTransition(ctx, domain.EventStateFault, faultParams{kind: b.kind, reliability: reliability})
	}

	if domain.GroupOf(b.currentState) == domain.GroupFault {
		// Reliability just cleared; recover to Normal before the concrete
		// algorithm's own predicates see a non-Fault current state again.
		return b.StateTransition(ctx, domain.EventStateNormal, recoveryParams{kind: b.kind})
	}

	newState, params, changed, err := b.evaluator.Evaluate(ctx, b)
	if err != nil {
		return fmt.Errorf("eventalgorithm: %s evaluate: %w", b.id, err)
	}
	if !changed {
		return nil
	}
	return b.StateTransition(ctx, newState, params)
}

// StateTransition maps current/new state to groups, looks up the handler in
// the transition table, and commits via transitionAction if permitted.
func (b *Base) StateTransition(ctx context.Context, newState domain.EventState, params domain.NotificationParams) error {
	fromGroup := domain.GroupOf(b.currentState)
	toGroup := domain.GroupOf(newState)

	reliability := domain.NoFaultDetected
	if b.fault != nil {
		reliability = b.fault.EvaluatedReliability(ctx)
	}
	input := TransitionInput{
		Reliability:        reliability,
		ReliabilityChanged: reliability != b.lastReliability,
		Inhibited:          b.inhibited,
	}
	b.lastReliability = reliability

	handler, ok := DefaultTransitionTable.Lookup(fromGroup, toGroup)
	if !ok {
		return fmt.Errorf("eventalgorithm: %s: no transition handler for %s -> %s (corrupt state)", b.id, fromGroup, toGroup)
	}
	if !handler(input) {
		return nil
	}
	return b.transitionAction(ctx, newState, toGroup, params)
}

// transitionAction is shared by every committing handler.
func (b *Base) transitionAction(ctx context.Context, newState domain.EventState, group domain.EventStateGroup, params domain.NotificationParams) error {
	previous := b.currentState
	b.currentState = newState

	initiating := b.InitiatingObject()
	if initiating != nil {
		if cell, ok := initiating.Property(domain.PropertyEventState); ok {
			if err := cell.Set(ctx, domain.CharacterStringValue(string(newState))); err != nil {
				return fmt.Errorf("eventalgorithm: %s: write eventState: %w", b.id, err)
			}
		}
	}

	idx := domain.GroupIndex(group)
	now := b.clk.Now()
	b.timestamps[idx] = now

	tmpl := b.templates[idx]
	if tmpl == "" {
		tmpl = "{eventState} at {timestamp}"
	}
	msg, err := substituteTemplate(tmpl, b.templateVars(ctx, newState, now))
	if err != nil {
		msg = string(newState)
	}
	b.messages[idx] = msg
	b.acked[idx] = false

	observability.RecordTransition(ctx, string(domain.GroupOf(previous)), string(group))
	observability.LogTransition(ctx, string(previous), string(newState), string(group))

	if b.notifier == nil {
		return nil
	}
	var objID domain.ObjectID
	if initiating != nil {
		objID = initiating.ID()
	}
	event := NotificationEvent{
		InitiatingObject: objID,
		NewState:         newState,
		Group:            group,
		Timestamp:        now,
		Message:          msg,
		Params:           params,
	}
	if err := b.notifier.Deliver(ctx, event); err != nil {
		observability.LogNotificationFailure(ctx, "emitter", err)
		observability.RecordNotificationDispatch(ctx, "emitter", err)
		return nil // reported, not retried; state has already committed
	}
	observability.RecordNotificationDispatch(ctx, "emitter", nil)
	return nil
}

func (b *Base) templateVars(ctx context.Context, newState domain.EventState, ts time.Time) map[string]string {
	vars := map[string]string{
		"eventState": string(newState),
		"timestamp":  ts.Format(time.RFC3339),
	}
	for _, bd := range b.bindings {
		if v, err := bd.Value(ctx); err == nil {
			vars[bd.Name()] = v.String()
		}
	}
	return vars
}

// Close tears down every bound property monitor on instance teardown.
func (b *Base) Close() {
	for _, bd := range b.bindings {
		bd.Close()
	}
	if b.inhibitBinding != nil {
		b.inhibitBinding.Close()
	}
}

type faultParams struct {
	kind        string
	reliability domain.Reliability
}

func (p faultParams) AlgorithmKind() string { return p.kind }

type recoveryParams struct{ kind string }

func (p recoveryParams) AlgorithmKind() string { return p.kind }
