package algorithms

import (
	"context"

	"eventcore/internal/domain"
	"eventcore/internal/eventalgorithm"
)

// UnsignedOutOfRangeConfig is UnsignedOutOfRange's parameter schema (clause
// 13.3.15): OutOfRange's shape over Unsigned, with the deadband clamped to
// the high limit so high - deadband bottoms out at 0 rather than underflowing.
type UnsignedOutOfRangeConfig struct {
	MonitoredValue  ParamBinding
	LowLimit        ParamBinding
	HighLimit       ParamBinding
	Deadband        ParamBinding
	HighLimitEnable *ParamBinding
	LowLimitEnable  *ParamBinding
	StatusFlags     *ParamBinding
}

type UnsignedOutOfRange struct {
	base *eventalgorithm.Base
	core *rangeCore
}

func unsignedToFloat(v domain.Value) (float64, error) {
	n, err := v.Unsigned()
	if err != nil {
		return 0, err
	}
	return float64(n), nil
}

func unsignedFromFloat(f float64) domain.Value {
	if f < 0 {
		f = 0
	}
	return domain.UnsignedValue(uint64(f))
}

func NewUnsignedOutOfRange(ctx context.Context, id string, cfg Config, params UnsignedOutOfRangeConfig) (*UnsignedOutOfRange, error) {
	alg := &UnsignedOutOfRange{}
	deadband := params.Deadband
	core, bindings, err := newRangeCore(ctx, cfg.Store, cfg, rangeCoreConfig{
		Kind:            "unsigned-out-of-range",
		MonitoredValue:  params.MonitoredValue,
		LowLimit:        params.LowLimit,
		HighLimit:       params.HighLimit,
		Deadband:        &deadband,
		HighLimitEnable: params.HighLimitEnable,
		LowLimitEnable:  params.LowLimitEnable,
		StatusFlags:     params.StatusFlags,
		ToFloat:         unsignedToFloat,
		FromFloat:       unsignedFromFloat,
		UnsignedClamp:   true,
	})
	if err != nil {
		return nil, err
	}
	alg.core = core

	inhibit, detection, err := resolveCommon(ctx, cfg.Store, cfg)
	if err != nil {
		return nil, err
	}
	alg.base = eventalgorithm.NewBase(id, alg, cfg.baseParams(inhibit, detection))
	if err := alg.base.Bind(ctx, bindings); err != nil {
		return nil, err
	}
	return alg, nil
}

func (a *UnsignedOutOfRange) Kind() string               { return "unsigned-out-of-range" }
func (a *UnsignedOutOfRange) Base() *eventalgorithm.Base { return a.base }

func (a *UnsignedOutOfRange) Evaluate(ctx context.Context, base *eventalgorithm.Base) (domain.EventState, domain.NotificationParams, bool, error) {
	return a.core.evaluate(ctx, base.CurrentState())
}
