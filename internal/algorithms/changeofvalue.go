package algorithms

import (
	"context"
	"math"

	"eventcore/internal/domain"
	"eventcore/internal/eventalgorithm"
)

// ChangeOfValueConfig is ChangeOfValue's parameter schema (clause 13.3.3).
// ChangeOfValue is algorithmic reporting only: cfg.MonitoringObject must be
// non-nil, since the criterion (increment or bitmask) is configured on the
// enrollment object's eventParameters.changeOfValue, never the monitored
// object itself.
type ChangeOfValueConfig struct {
	MonitoredValue ParamBinding
	Increment      *ParamBinding // real kind: report on |Δ| >= increment
	Bitmask        []bool        // bitstring kind: report on any masked bit differing
	StatusFlags    *ParamBinding
}

// ChangeOfValue reports a transient Normal<->OffNormal toggle every time the
// change-of-value criterion fires, recording the value last reported since
// it has no fixed "alarm set" the way ChangeOfState does.
type ChangeOfValue struct {
	base *eventalgorithm.Base

	monitoredValue *eventalgorithm.Binding
	increment      *eventalgorithm.Binding
	statusFlags    *eventalgorithm.Binding
	bitmask        []bool

	hasLast bool
	last    domain.Value
}

func NewChangeOfValue(ctx context.Context, id string, cfg Config, params ChangeOfValueConfig) (*ChangeOfValue, error) {
	const op = "ChangeOfValue.bind"
	if cfg.MonitoringObject == nil {
		return nil, &eventalgorithm.ConfigError{Op: op, Detail: "ChangeOfValue is algorithmic-only: MonitoringObject is required"}
	}
	store := cfg.Store

	mv, err := resolveRequired(ctx, store, op, "pMonitoredValue", &params.MonitoredValue)
	if err != nil {
		return nil, err
	}
	increment, err := resolve(ctx, store, "pIncrement", params.Increment)
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

	alg := &ChangeOfValue{
		monitoredValue: mv,
		increment:      increment,
		statusFlags:    statusFlags,
		bitmask:        append([]bool(nil), params.Bitmask...),
	}
	alg.base = eventalgorithm.NewBase(id, alg, cfg.baseParams(inhibit, detection))
	if err := alg.base.Bind(ctx, collectBindings(mv, increment, statusFlags)); err != nil {
		return nil, err
	}
	return alg, nil
}

func (a *ChangeOfValue) Kind() string               { return "change-of-value" }
func (a *ChangeOfValue) Base() *eventalgorithm.Base { return a.base }

func (a *ChangeOfValue) criterionMet(v domain.Value) bool {
	if !a.hasLast {
		return false
	}
	switch v.Kind {
	case domain.KindReal, domain.KindDouble:
		cur, err1 := v.Real()
		prev, err2 := a.last.Real()
		if err1 != nil || err2 != nil {
			return false
		}
		incr := 0.0
		if a.increment != nil {
			if iv, err := a.increment.Value(context.Background()); err == nil {
				incr, _ = iv.Real()
			}
		}
		return math.Abs(cur-prev) >= incr
	case domain.KindBitstring:
		cur, err1 := v.Bitstring()
		prev, err2 := a.last.Bitstring()
		if err1 != nil || err2 != nil {
			return false
		}
		n := len(cur)
		if len(prev) > n {
			n = len(prev)
		}
		for i := 0; i < n; i++ {
			masked := i >= len(a.bitmask) || a.bitmask[i]
			if !masked {
				continue
			}
			cv := i < len(cur) && cur[i]
			pv := i < len(prev) && prev[i]
			if cv != pv {
				return true
			}
		}
		return false
	default:
		return !v.Equal(a.last)
	}
}

func (a *ChangeOfValue) Evaluate(ctx context.Context, base *eventalgorithm.Base) (domain.EventState, domain.NotificationParams, bool, error) {
	current := base.CurrentState()

	v, err := a.monitoredValue.Value(ctx)
	if err != nil {
		return current, nil, false, err
	}

	fire := a.criterionMet(v)
	if fire || !a.hasLast {
		a.hasLast = true
		a.last = v
	}

	if !fire {
		return current, nil, false, nil
	}
	if domain.GroupOf(current) != domain.GroupNormal {
		// A report is already outstanding via the off-normal state; let the
		// next quantum's hysteresis-free toggle bring it back to Normal.
		sf, err := readStatusFlags(ctx, a.statusFlags)
		if err != nil {
			return current, nil, false, err
		}
		return domain.EventStateNormal, NotificationParametersChangeOfValue{Kind: a.Kind(), NewValue: v, StatusFlags: sf}, true, nil
	}

	sf, err := readStatusFlags(ctx, a.statusFlags)
	if err != nil {
		return current, nil, false, err
	}
	params := NotificationParametersChangeOfValue{Kind: a.Kind(), NewValue: v, StatusFlags: sf}
	return domain.EventStateOffNormal, params, true, nil
}
