package algorithms

import (
	"context"

	"eventcore/internal/domain"
	"eventcore/internal/eventalgorithm"
)

// ChangeOfStatusFlagsConfig is ChangeOfStatusFlags's parameter schema:
// off-normal iff pMonitoredValue & pSelectedFlags != 0.
type ChangeOfStatusFlagsConfig struct {
	MonitoredValue ParamBinding
	SelectedFlags  []bool
}

type ChangeOfStatusFlags struct {
	base *eventalgorithm.Base

	monitoredValue *eventalgorithm.Binding
	selectedFlags  []bool
}

func NewChangeOfStatusFlags(ctx context.Context, id string, cfg Config, params ChangeOfStatusFlagsConfig) (*ChangeOfStatusFlags, error) {
	const op = "ChangeOfStatusFlags.bind"
	store := cfg.Store

	mv, err := resolveRequired(ctx, store, op, "pMonitoredValue", &params.MonitoredValue)
	if err != nil {
		return nil, err
	}
	inhibit, detection, err := resolveCommon(ctx, store, cfg)
	if err != nil {
		return nil, err
	}

	alg := &ChangeOfStatusFlags{
		monitoredValue: mv,
		selectedFlags:  append([]bool(nil), params.SelectedFlags...),
	}
	alg.base = eventalgorithm.NewBase(id, alg, cfg.baseParams(inhibit, detection))
	if err := alg.base.Bind(ctx, collectBindings(mv)); err != nil {
		return nil, err
	}
	return alg, nil
}

func (a *ChangeOfStatusFlags) Kind() string               { return "change-of-status-flags" }
func (a *ChangeOfStatusFlags) Base() *eventalgorithm.Base { return a.base }

func (a *ChangeOfStatusFlags) selected(bits []bool) bool {
	for i, sel := range a.selectedFlags {
		if sel && i < len(bits) && bits[i] {
			return true
		}
	}
	return false
}

func (a *ChangeOfStatusFlags) Evaluate(ctx context.Context, base *eventalgorithm.Base) (domain.EventState, domain.NotificationParams, bool, error) {
	current := base.CurrentState()

	v, err := a.monitoredValue.Value(ctx)
	if err != nil {
		return current, nil, false, err
	}
	bits, err := v.Bitstring()
	if err != nil {
		return current, nil, false, err
	}
	inAlarm := a.selected(bits)

	var newState domain.EventState
	switch {
	case domain.GroupOf(current) == domain.GroupNormal && inAlarm:
		newState = domain.EventStateOffNormal
	case current == domain.EventStateOffNormal && !inAlarm:
		newState = domain.EventStateNormal
	default:
		return current, nil, false, nil
	}

	var sf domain.StatusFlags
	if len(bits) > 0 {
		sf.InAlarm = bits[0]
	}
	if len(bits) > 1 {
		sf.Fault = bits[1]
	}
	if len(bits) > 2 {
		sf.Overridden = bits[2]
	}
	if len(bits) > 3 {
		sf.OutOfService = bits[3]
	}
	params := NotificationParametersChangeOfStatusFlags{
		Kind:            a.Kind(),
		PresentValue:    v,
		ReferencedFlags: sf,
	}
	return newState, params, true, nil
}
