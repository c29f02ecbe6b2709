package algorithms

import (
	"context"

	"eventcore/internal/domain"
	"eventcore/internal/eventalgorithm"
)

// ChangeOfStateConfig is ChangeOfState's parameter schema (clause 13.3.2).
// AlarmValues is a fixed list configured at construction, not a live
// binding: the standard treats it as a list-valued property, and this
// module's Binding carries one scalar domain.Value per parameter, so the
// list itself is supplied directly rather than resolved through the object
// store.
type ChangeOfStateConfig struct {
	MonitoredValue ParamBinding
	AlarmValues    []domain.Value
	StatusFlags    *ParamBinding
}

// ChangeOfState implements clause 13.3.2: off-normal while the monitored
// value is one of a configured set of alarm values.
type ChangeOfState struct {
	base *eventalgorithm.Base

	monitoredValue *eventalgorithm.Binding
	statusFlags    *eventalgorithm.Binding
	alarmValues    []domain.Value
}

func NewChangeOfState(ctx context.Context, id string, cfg Config, params ChangeOfStateConfig) (*ChangeOfState, error) {
	const op = "ChangeOfState.bind"
	store := cfg.Store

	mv, err := resolveRequired(ctx, store, op, "pMonitoredValue", &params.MonitoredValue)
	if err != nil {
		return nil, err
	}
	if len(params.AlarmValues) == 0 {
		return nil, &eventalgorithm.ConfigError{Op: op, Detail: "pAlarmValues must be non-empty"}
	}
	statusFlags, err := resolve(ctx, store, "pStatusFlags", params.StatusFlags)
	if err != nil {
		return nil, err
	}
	inhibit, detection, err := resolveCommon(ctx, store, cfg)
	if err != nil {
		return nil, err
	}

	alg := &ChangeOfState{
		monitoredValue: mv,
		statusFlags:    statusFlags,
		alarmValues:    append([]domain.Value(nil), params.AlarmValues...),
	}
	alg.base = eventalgorithm.NewBase(id, alg, cfg.baseParams(inhibit, detection))
	if err := alg.base.Bind(ctx, collectBindings(mv, statusFlags)); err != nil {
		return nil, err
	}
	return alg, nil
}

func (a *ChangeOfState) Kind() string               { return "change-of-state" }
func (a *ChangeOfState) Base() *eventalgorithm.Base { return a.base }

func (a *ChangeOfState) inAlarmValues(v domain.Value) bool {
	for _, av := range a.alarmValues {
		if av.Equal(v) {
			return true
		}
	}
	return false
}

func (a *ChangeOfState) Evaluate(ctx context.Context, base *eventalgorithm.Base) (domain.EventState, domain.NotificationParams, bool, error) {
	current := base.CurrentState()

	v, err := a.monitoredValue.Value(ctx)
	if err != nil {
		return current, nil, false, err
	}
	inAlarm := a.inAlarmValues(v)

	var newState domain.EventState
	switch {
	case domain.GroupOf(current) == domain.GroupNormal && inAlarm:
		newState = domain.EventStateOffNormal
	case current == domain.EventStateOffNormal && !inAlarm:
		newState = domain.EventStateNormal
	default:
		return current, nil, false, nil
	}

	sf, err := readStatusFlags(ctx, a.statusFlags)
	if err != nil {
		return current, nil, false, err
	}
	params := NotificationParametersChangeOfState{
		Kind:        a.Kind(),
		NewState:    v,
		StatusFlags: sf,
	}
	return newState, params, true, nil
}
