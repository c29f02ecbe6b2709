package algorithms

import (
	"context"
	"fmt"

	"eventcore/internal/domain"
	"eventcore/internal/eventalgorithm"
)

// OutOfRangeConfig names OutOfRange's typed parameter schema (clause
// 13.3.6). HighLimitEnable/LowLimitEnable
// and StatusFlags/TimeDelay/TimeDelayNormal are optional; the limit-enable
// pair defaults to domain.DefaultLimitEnable when unbound.
type OutOfRangeConfig struct {
	MonitoredValue  ParamBinding
	LowLimit        ParamBinding
	HighLimit       ParamBinding
	Deadband        ParamBinding
	HighLimitEnable *ParamBinding
	LowLimitEnable  *ParamBinding
	StatusFlags     *ParamBinding
	TimeDelay       *ParamBinding
	TimeDelayNormal *ParamBinding
}

// OutOfRange implements clause 13.3.6: a monitored real/double value
// crossing pHighLimit/pLowLimit with pDeadband hysteresis on the return to
// Normal.
type OutOfRange struct {
	base *eventalgorithm.Base

	monitoredValue  *eventalgorithm.Binding
	lowLimit        *eventalgorithm.Binding
	highLimit       *eventalgorithm.Binding
	deadband        *eventalgorithm.Binding
	highLimitEnable *eventalgorithm.Binding
	lowLimitEnable  *eventalgorithm.Binding
	statusFlags     *eventalgorithm.Binding
	timeDelay       *eventalgorithm.Binding
	timeDelayNormal *eventalgorithm.Binding
}

// NewOutOfRange resolves params' bindings and binds the embedded
// eventalgorithm.Base. Intrinsic vs algorithmic reporting is entirely a
// property of which ParamBinding the caller supplies: an
// intrinsic caller points every binding at the monitored object's own
// properties, an algorithmic caller points the limit/deadband bindings at
// the monitoring object's eventParameters.outOfRange fields instead.
func NewOutOfRange(ctx context.Context, id string, cfg Config, params OutOfRangeConfig) (*OutOfRange, error) {
	const op = "OutOfRange.bind"
	store := cfg.Store

	mv, err := resolveRequired(ctx, store, op, "pMonitoredValue", &params.MonitoredValue)
	if err != nil {
		return nil, err
	}
	low, err := resolveRequired(ctx, store, op, "pLowLimit", &params.LowLimit)
	if err != nil {
		return nil, err
	}
	high, err := resolveRequired(ctx, store, op, "pHighLimit", &params.HighLimit)
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

	alg := &OutOfRange{
		monitoredValue:  mv,
		lowLimit:        low,
		highLimit:       high,
		deadband:        deadband,
		highLimitEnable: highEnable,
		lowLimitEnable:  lowEnable,
		statusFlags:     statusFlags,
		timeDelay:       timeDelay,
		timeDelayNormal: timeDelayNormal,
	}
	alg.base = eventalgorithm.NewBase(id, alg, cfg.baseParams(inhibit, detection))
	if err := alg.base.Bind(ctx, collectBindings(mv, low, high, deadband, highEnable, lowEnable, statusFlags, timeDelay, timeDelayNormal)); err != nil {
		return nil, err
	}
	return alg, nil
}

func (a *OutOfRange) Kind() string { return "out-of-range" }

// Base exposes the embedded shared state, e.g. for Close() on teardown.
func (a *OutOfRange) Base() *eventalgorithm.Base { return a.base }

func (a *OutOfRange) Evaluate(ctx context.Context, base *eventalgorithm.Base) (domain.EventState, domain.NotificationParams, bool, error) {
	v, err := a.monitoredValue.Value(ctx)
	if err != nil {
		return base.CurrentState(), nil, false, fmt.Errorf("out-of-range: read pMonitoredValue: %w", err)
	}
	value, err := v.Real()
	if err != nil {
		return base.CurrentState(), nil, false, err
	}

	lowV, err := a.lowLimit.Value(ctx)
	if err != nil {
		return base.CurrentState(), nil, false, err
	}
	low, err := lowV.Real()
	if err != nil {
		return base.CurrentState(), nil, false, err
	}

	highV, err := a.highLimit.Value(ctx)
	if err != nil {
		return base.CurrentState(), nil, false, err
	}
	high, err := highV.Real()
	if err != nil {
		return base.CurrentState(), nil, false, err
	}

	deadbandV, err := a.deadband.Value(ctx)
	if err != nil {
		return base.CurrentState(), nil, false, err
	}
	deadband, err := deadbandV.Real()
	if err != nil {
		return base.CurrentState(), nil, false, err
	}

	le, err := readLimitEnable(ctx, a.highLimitEnable, a.lowLimitEnable)
	if err != nil {
		return base.CurrentState(), nil, false, err
	}

	newState, changed := evaluateRange(rangeInput{
		Current:     base.CurrentState(),
		Value:       value,
		Low:         low,
		High:        high,
		Deadband:    deadband,
		HighEnabled: le.High,
		LowEnabled:  le.Low,
	})
	if !changed {
		return base.CurrentState(), nil, false, nil
	}

	sf, err := readStatusFlags(ctx, a.statusFlags)
	if err != nil {
		return base.CurrentState(), nil, false, err
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
