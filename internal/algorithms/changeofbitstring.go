package algorithms

import (
	"context"

	"eventcore/internal/domain"
	"eventcore/internal/eventalgorithm"
)

// ChangeOfBitstringConfig is ChangeOfBitstring's parameter schema (clause
// 13.3.1): off-normal iff the monitored bitstring, masked by pBitMask,
// equals one of a configured set of alarm values.
type ChangeOfBitstringConfig struct {
	MonitoredValue ParamBinding
	BitMask        []bool
	AlarmValues    [][]bool
	StatusFlags    *ParamBinding
}

type ChangeOfBitstring struct {
	base *eventalgorithm.Base

	monitoredValue *eventalgorithm.Binding
	statusFlags    *eventalgorithm.Binding
	bitMask        []bool
	alarmValues    [][]bool
}

func NewChangeOfBitstring(ctx context.Context, id string, cfg Config, params ChangeOfBitstringConfig) (*ChangeOfBitstring, error) {
	const op = "ChangeOfBitstring.bind"
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

	alg := &ChangeOfBitstring{
		monitoredValue: mv,
		statusFlags:    statusFlags,
		bitMask:        append([]bool(nil), params.BitMask...),
		alarmValues:    params.AlarmValues,
	}
	alg.base = eventalgorithm.NewBase(id, alg, cfg.baseParams(inhibit, detection))
	if err := alg.base.Bind(ctx, collectBindings(mv, statusFlags)); err != nil {
		return nil, err
	}
	return alg, nil
}

func (a *ChangeOfBitstring) Kind() string               { return "change-of-bitstring" }
func (a *ChangeOfBitstring) Base() *eventalgorithm.Base { return a.base }

func maskedEqual(mask, a, b []bool) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		masked := true
		if i < len(mask) {
			masked = mask[i]
		}
		if !masked {
			continue
		}
		av := i < len(a) && a[i]
		bv := i < len(b) && b[i]
		if av != bv {
			return false
		}
	}
	return true
}

func (a *ChangeOfBitstring) matches(bits []bool) bool {
	for _, alarm := range a.alarmValues {
		if maskedEqual(a.bitMask, bits, alarm) {
			return true
		}
	}
	return false
}

func (a *ChangeOfBitstring) Evaluate(ctx context.Context, base *eventalgorithm.Base) (domain.EventState, domain.NotificationParams, bool, error) {
	current := base.CurrentState()

	v, err := a.monitoredValue.Value(ctx)
	if err != nil {
		return current, nil, false, err
	}
	bits, err := v.Bitstring()
	if err != nil {
		return current, nil, false, err
	}
	inAlarm := a.matches(bits)

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
	params := NotificationParametersChangeOfBitstring{
		Kind:                a.Kind(),
		ReferencedBitstring: v,
		StatusFlags:         sf,
	}
	return newState, params, true, nil
}
