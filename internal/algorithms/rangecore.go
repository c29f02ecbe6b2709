package algorithms

import (
	"context"
	"fmt"

	"eventcore/internal/domain"
	"eventcore/internal/eventalgorithm"
)

// rangeCore factors the bind/evaluate machinery shared by every
// range-style variant (DoubleOutOfRange, SignedOutOfRange,
// UnsignedOutOfRange, UnsignedRange) that isn't already the canonical
// OutOfRange. Each wrapper supplies a kind label, a unit
// converter to/from float64, and whether unsigned deadband clamping
// applies.
type rangeCore struct {
	kind string

	monitoredValue  *eventalgorithm.Binding
	lowLimit        *eventalgorithm.Binding
	highLimit       *eventalgorithm.Binding
	deadband        *eventalgorithm.Binding // may be nil (UnsignedRange has no deadband)
	highLimitEnable *eventalgorithm.Binding
	lowLimitEnable  *eventalgorithm.Binding
	statusFlags     *eventalgorithm.Binding

	toFloat   func(domain.Value) (float64, error)
	fromFloat func(float64) domain.Value
	unsignedClamp bool
}

type rangeCoreConfig struct {
	Kind            string
	MonitoredValue  ParamBinding
	LowLimit        ParamBinding
	HighLimit       ParamBinding
	Deadband        *ParamBinding // nil => no deadband (UnsignedRange)
	HighLimitEnable *ParamBinding
	LowLimitEnable  *ParamBinding
	StatusFlags     *ParamBinding
	ToFloat         func(domain.Value) (float64, error)
	FromFloat       func(float64) domain.Value
	UnsignedClamp   bool
}

func newRangeCore(ctx context.Context, store domain.ObjectStore, cfg Config, rc rangeCoreConfig) (*rangeCore, []*eventalgorithm.Binding, error) {
	op := rc.Kind + ".bind"

	mv, err := resolveRequired(ctx, store, op, "pMonitoredValue", &rc.MonitoredValue)
	if err != nil {
		return nil, nil, err
	}
	low, err := resolveRequired(ctx, store, op, "pLowLimit", &rc.LowLimit)
	if err != nil {
		return nil, nil, err
	}
	high, err := resolveRequired(ctx, store, op, "pHighLimit", &rc.HighLimit)
	if err != nil {
		return nil, nil, err
	}
	var deadband *eventalgorithm.Binding
	if rc.Deadband != nil {
		deadband, err = resolve(ctx, store, "pDeadband", rc.Deadband)
		if err != nil {
			return nil, nil, err
		}
	}
	highEnable, err := resolve(ctx, store, "pLimitEnable.high", rc.HighLimitEnable)
	if err != nil {
		return nil, nil, err
	}
	lowEnable, err := resolve(ctx, store, "pLimitEnable.low", rc.LowLimitEnable)
	if err != nil {
		return nil, nil, err
	}
	statusFlags, err := resolve(ctx, store, "pStatusFlags", rc.StatusFlags)
	if err != nil {
		return nil, nil, err
	}

	core := &rangeCore{
		kind:            rc.Kind,
		monitoredValue:  mv,
		lowLimit:        low,
		highLimit:       high,
		deadband:        deadband,
		highLimitEnable: highEnable,
		lowLimitEnable:  lowEnable,
		statusFlags:     statusFlags,
		toFloat:         rc.ToFloat,
		fromFloat:       rc.FromFloat,
		unsignedClamp:   rc.UnsignedClamp,
	}
	return core, collectBindings(mv, low, high, deadband, highEnable, lowEnable, statusFlags), nil
}

func (c *rangeCore) evaluate(ctx context.Context, current domain.EventState) (domain.EventState, domain.NotificationParams, bool, error) {
	v, err := c.monitoredValue.Value(ctx)
	if err != nil {
		return current, nil, false, fmt.Errorf("%s: read pMonitoredValue: %w", c.kind, err)
	}
	value, err := c.toFloat(v)
	if err != nil {
		return current, nil, false, err
	}

	lowV, err := c.lowLimit.Value(ctx)
	if err != nil {
		return current, nil, false, err
	}
	low, err := c.toFloat(lowV)
	if err != nil {
		return current, nil, false, err
	}

	highV, err := c.highLimit.Value(ctx)
	if err != nil {
		return current, nil, false, err
	}
	high, err := c.toFloat(highV)
	if err != nil {
		return current, nil, false, err
	}

	var deadband float64
	var deadbandV domain.Value
	if c.deadband != nil {
		deadbandV, err = c.deadband.Value(ctx)
		if err != nil {
			return current, nil, false, err
		}
		deadband, err = c.toFloat(deadbandV)
		if err != nil {
			return current, nil, false, err
		}
		if c.unsignedClamp {
			deadband = clampUnsignedDeadband(high, deadband)
		}
		deadbandV = c.fromFloat(deadband)
	}

	le, err := readLimitEnable(ctx, c.highLimitEnable, c.lowLimitEnable)
	if err != nil {
		return current, nil, false, err
	}

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

	sf, err := readStatusFlags(ctx, c.statusFlags)
	if err != nil {
		return current, nil, false, err
	}

	exceeded := high
	if newState == domain.EventStateLowLimit {
		exceeded = low
	}
	params := NotificationParametersOutOfRange{
		Kind:           c.kind,
		ExceedingValue: v,
		StatusFlags:    sf,
		Deadband:       deadbandV,
		ExceededLimit:  c.fromFloat(exceeded),
	}
	return newState, params, true, nil
}
