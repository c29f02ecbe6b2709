package algorithms

import (
	"context"
	"math"

	"eventcore/internal/domain"
	"eventcore/internal/eventalgorithm"
)

// FloatingLimitConfig is FloatingLimit's parameter schema (clause 13.3.5).
// high = setpoint + highDiffLimit; low = setpoint - |lowDiffLimit|. When
// LowDiffLimit is unbound, HighDiffLimit is used symmetrically for both
// directions.
//
// Setpoint is resolved through the object store like any other
// ParamBinding, so a missing referenced setpoint object surfaces as a
// configuration error at bind time rather than failing on first use.
type FloatingLimitConfig struct {
	MonitoredValue  ParamBinding
	Setpoint        ParamBinding
	HighDiffLimit   ParamBinding
	LowDiffLimit    *ParamBinding
	Deadband        ParamBinding
	HighLimitEnable *ParamBinding
	LowLimitEnable  *ParamBinding
	StatusFlags     *ParamBinding
}

type FloatingLimit struct {
	base *eventalgorithm.Base

	monitoredValue  *eventalgorithm.Binding
	setpoint        *eventalgorithm.Binding
	highDiffLimit   *eventalgorithm.Binding
	lowDiffLimit    *eventalgorithm.Binding
	deadband        *eventalgorithm.Binding
	highLimitEnable *eventalgorithm.Binding
	lowLimitEnable  *eventalgorithm.Binding
	statusFlags     *eventalgorithm.Binding
}

func NewFloatingLimit(ctx context.Context, id string, cfg Config, params FloatingLimitConfig) (*FloatingLimit, error) {
	const op = "FloatingLimit.bind"
	store := cfg.Store

	mv, err := resolveRequired(ctx, store, op, "pMonitoredValue", &params.MonitoredValue)
	if err != nil {
		return nil, err
	}
	setpoint, err := resolveRequired(ctx, store, op, "pSetpoint", &params.Setpoint)
	if err != nil {
		return nil, err
	}
	highDiff, err := resolveRequired(ctx, store, op, "pHighDiffLimit", &params.HighDiffLimit)
	if err != nil {
		return nil, err
	}
	lowDiff, err := resolve(ctx, store, "pLowDiffLimit", params.LowDiffLimit)
	if err != nil {
		return nil, err
	}
	deadband, err := resolveRequired(ctx, store, op, "pDeadband", &params.Deadband)
	if err != nil {
		return nil, err
	}
	highEnable, err := resolve(ctx, store, "pLimitEnable.high", params.HighLimitEnable)
	if err != nil {
		return nil, err
	}
	lowEnable, err := resolve(ctx, store, "pLimitEnable.low", params.LowLimitEnable)
	if err != nil {
		return nil, err
	}
	statusFlags, err := resolve(ctx, store, "pStatusFlags", params.StatusFlags)
	if err != nil {
		return nil, err
	}
	inhibit, detection, err := resolveCommon(ctx, store, cfg)
	if err != nil {
		return nil, err
	}

	alg := &FloatingLimit{
		monitoredValue:  mv,
		setpoint:        setpoint,
		highDiffLimit:   highDiff,
		lowDiffLimit:    lowDiff,
		deadband:        deadband,
		highLimitEnable: highEnable,
		lowLimitEnable:  lowEnable,
		statusFlags:     statusFlags,
	}
	alg.base = eventalgorithm.NewBase(id, alg, cfg.baseParams(inhibit, detection))
	if err := alg.base.Bind(ctx, collectBindings(mv, setpoint, highDiff, lowDiff, deadband, highEnable, lowEnable, statusFlags)); err != nil {
		return nil, err
	}
	return alg, nil
}

func (a *FloatingLimit) Kind() string               { return "floating-limit" }
func (a *FloatingLimit) Base() *eventalgorithm.Base { return a.base }

func (a *FloatingLimit) Evaluate(ctx context.Context, base *eventalgorithm.Base) (domain.EventState, domain.NotificationParams, bool, error) {
	current := base.CurrentState()

	v, err := a.monitoredValue.Value(ctx)
	if err != nil {
		return current, nil, false, err
	}
	value, err := v.Real()
	if err != nil {
		return current, nil, false, err
	}

	spV, err := a.setpoint.Value(ctx)
	if err != nil {
		return current, nil, false, err
	}
	setpoint, err := spV.Real()
	if err != nil {
		return current, nil, false, err
	}

	highDiffV, err := a.highDiffLimit.Value(ctx)
	if err != nil {
		return current, nil, false, err
	}
	highDiff, err := highDiffV.Real()
	if err != nil {
		return current, nil, false, err
	}

	lowDiff := highDiff
	if a.lowDiffLimit != nil {
		lowDiffV, err := a.lowDiffLimit.Value(ctx)
		if err != nil {
			return current, nil, false, err
		}
		lowDiff, err = lowDiffV.Real()
		if err != nil {
			return current, nil, false, err
		}
	}

	deadbandV, err := a.deadband.Value(ctx)
	if err != nil {
		return current, nil, false, err
	}
	deadband, err := deadbandV.Real()
	if err != nil {
		return current, nil, false, err
	}

	le, err := readLimitEnable(ctx, a.highLimitEnable, a.lowLimitEnable)
	if err != nil {
		return current, nil, false, err
	}

	high := setpoint + highDiff
	low := setpoint - math.Abs(lowDiff)

	newState, changed := evaluateRange(rangeInput{
		Current:     current,
		Value:       value,
		Low:         low,
		High:        high,
		Deadband:    deadband,
		HighEnabled: le.High,
		LowEnabled:  le.Low,
	})
	if !changed {
		return current, nil, false, nil
	}

	sf, err := readStatusFlags(ctx, a.statusFlags)
	if err != nil {
		return current, nil, false, err
	}

	exceeded := high
	if newState == domain.EventStateLowLimit {
		exceeded = low
	}
	params := NotificationParametersOutOfRange{
		Kind:           a.Kind(),
		ExceedingValue: v,
		StatusFlags:    sf,
		Deadband:       deadbandV,
		ExceededLimit:  domain.RealValue(exceeded),
	}
	return newState, params, true, nil
}
