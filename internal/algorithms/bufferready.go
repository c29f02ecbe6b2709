package algorithms

import (
	"context"

	"eventcore/internal/domain"
	"eventcore/internal/eventalgorithm"
)

// BufferReadyConfig is BufferReady's parameter schema (clause 13.3.7),
// bound from the enrollment object's eventParameters.bufferReady.
// InitialPreviousCount seeds pPreviousCount; thereafter it is
// algorithm-owned state, updated on every report — bindings are read-only,
// so the running count lives here rather than being written back through
// a binding.
type BufferReadyConfig struct {
	MonitoredValue       ParamBinding
	Threshold            ParamBinding
	BufferProperty       domain.ObjectPropertyRef
	InitialPreviousCount uint64
}

type BufferReady struct {
	base *eventalgorithm.Base

	monitoredValue *eventalgorithm.Binding
	threshold      *eventalgorithm.Binding
	bufferProperty domain.ObjectPropertyRef

	previousCount uint64
}

func NewBufferReady(ctx context.Context, id string, cfg Config, params BufferReadyConfig) (*BufferReady, error) {
	const op = "BufferReady.bind"
	store := cfg.Store

	mv, err := resolveRequired(ctx, store, op, "pMonitoredValue", &params.MonitoredValue)
	if err != nil {
		return nil, err
	}
	threshold, err := resolveRequired(ctx, store, op, "pThreshold", &params.Threshold)
	if err != nil {
		return nil, err
	}
	inhibit, detection, err := resolveCommon(ctx, store, cfg)
	if err != nil {
		return nil, err
	}

	alg := &BufferReady{
		monitoredValue: mv,
		threshold:      threshold,
		bufferProperty: params.BufferProperty,
		previousCount:  params.InitialPreviousCount,
	}
	alg.base = eventalgorithm.NewBase(id, alg, cfg.baseParams(inhibit, detection))
	if err := alg.base.Bind(ctx, collectBindings(mv, threshold)); err != nil {
		return nil, err
	}
	return alg, nil
}

func (a *BufferReady) Kind() string               { return "buffer-ready" }
func (a *BufferReady) Base() *eventalgorithm.Base { return a.base }

func (a *BufferReady) Evaluate(ctx context.Context, base *eventalgorithm.Base) (domain.EventState, domain.NotificationParams, bool, error) {
	current := base.CurrentState()
	if domain.GroupOf(current) != domain.GroupNormal {
		// BufferReady never holds an off-normal sub-state; it only ever
		// re-announces Normal with a notification attached.
		return current, nil, false, nil
	}

	v, err := a.monitoredValue.Value(ctx)
	if err != nil {
		return current, nil, false, err
	}
	count, err := v.Unsigned()
	if err != nil {
		return current, nil, false, err
	}

	thV, err := a.threshold.Value(ctx)
	if err != nil {
		return current, nil, false, err
	}
	threshold, err := thV.Unsigned()
	if err != nil {
		return current, nil, false, err
	}

	// Modular-unsigned subtraction: count wrapping past previousCount (a
	// ring buffer's notification count rolling over) still yields the
	// correct forward distance.
	delta := count - a.previousCount
	if delta < threshold {
		return current, nil, false, nil
	}

	params := NotificationParametersBufferReady{
		Kind:                 a.Kind(),
		BufferProperty:       a.bufferProperty,
		PreviousNotification: a.previousCount,
		CurrentNotification:  count,
	}
	a.previousCount = count
	return domain.EventStateNormal, params, true, nil
}
