package algorithms

import (
	"context"

	"eventcore/internal/domain"
	"eventcore/internal/eventalgorithm"
)

// ChangeOfDiscreteValueConfig is ChangeOfDiscreteValue's parameter schema.
// TimeDelay/TimeDelayNormal are its own parameters, not a reuse of
// ChangeOfCharacterString's.
type ChangeOfDiscreteValueConfig struct {
	MonitoredValue  ParamBinding
	StatusFlags     *ParamBinding
	TimeDelay       *ParamBinding
	TimeDelayNormal *ParamBinding
}

// ChangeOfDiscreteValue reports off-normal for exactly one evaluation
// whenever the monitored discrete value differs from the last value it
// reported, then immediately re-announces Normal — there is no persistent
// alarm set to test membership against, only change itself.
type ChangeOfDiscreteValue struct {
	base *eventalgorithm.Base

	monitoredValue  *eventalgorithm.Binding
	statusFlags     *eventalgorithm.Binding
	timeDelay       *eventalgorithm.Binding
	timeDelayNormal *eventalgorithm.Binding

	hasLast bool
	last    domain.Value
}

func NewChangeOfDiscreteValue(ctx context.Context, id string, cfg Config, params ChangeOfDiscreteValueConfig) (*ChangeOfDiscreteValue, error) {
	const op = "ChangeOfDiscreteValue.bind"
	store := cfg.Store

	mv, err := resolveRequired(ctx, store, op, "pMonitoredValue", &params.MonitoredValue)
	if err != nil {
		return nil, err
	}
	statusFlags, err := resolve(ctx, store, "pStatusFlags", params.StatusFlags)
	if err != nil {
		return nil, err
	}
	timeDelay, err := resolve(ctx, store, "pTimeDelay", params.TimeDelay)
	if err != nil {
		return nil, err
	}
	timeDelayNormal, err := resolve(ctx, store, "pTimeDelayNormal", params.TimeDelayNormal)
	if err != nil {
		return nil, err
	}
	inhibit, detection, err := resolveCommon(ctx, store, cfg)
	if err != nil {
		return nil, err
	}

	alg := &ChangeOfDiscreteValue{
		monitoredValue:  mv,
		statusFlags:     statusFlags,
		timeDelay:       timeDelay,
		timeDelayNormal: timeDelayNormal,
	}
	alg.base = eventalgorithm.NewBase(id, alg, cfg.baseParams(inhibit, detection))
	if err := alg.base.Bind(ctx, collectBindings(mv, statusFlags, timeDelay, timeDelayNormal)); err != nil {
		return nil, err
	}
	return alg, nil
}

func (a *ChangeOfDiscreteValue) Kind() string               { return "change-of-discrete-value" }
func (a *ChangeOfDiscreteValue) Base() *eventalgorithm.Base { return a.base }

func (a *ChangeOfDiscreteValue) Evaluate(ctx context.Context, base *eventalgorithm.Base) (domain.EventState, domain.NotificationParams, bool, error) {
	current := base.CurrentState()

	v, err := a.monitoredValue.Value(ctx)
	if err != nil {
		return current, nil, false, err
	}

	changedSinceLast := a.hasLast && !a.last.Equal(v)
	a.hasLast = true
	a.last = v

	if domain.GroupOf(current) != domain.GroupNormal {
		// Already reported this change; return to Normal on the next tick.
		return domain.EventStateNormal, NotificationParametersChangeOfDiscreteValue{Kind: a.Kind(), NewValue: v}, true, nil
	}
	if !changedSinceLast {
		return current, nil, false, nil
	}

	sf, err := readStatusFlags(ctx, a.statusFlags)
	if err != nil {
		return current, nil, false, err
	}
	params := NotificationParametersChangeOfDiscreteValue{
		Kind:        a.Kind(),
		NewValue:    v,
		StatusFlags: sf,
	}
	return domain.EventStateOffNormal, params, true, nil
}
