package algorithms

import (
	"context"

	"eventcore/internal/domain"
	"eventcore/internal/eventalgorithm"
)

// UnsignedRangeConfig is UnsignedRange's parameter schema (clause 13.3.9).
// Unlike UnsignedOutOfRange it has no pDeadband: low/high limit and
// limit-enable only, with plain crossing (no hysteresis margin) on the
// return to Normal.
type UnsignedRangeConfig struct {
	MonitoredValue  ParamBinding
	LowLimit        ParamBinding
	HighLimit       ParamBinding
	HighLimitEnable *ParamBinding
	LowLimitEnable  *ParamBinding
	StatusFlags     *ParamBinding
}

type UnsignedRange struct {
	base *eventalgorithm.Base
	core *rangeCore
}

func NewUnsignedRange(ctx context.Context, id string, cfg Config, params UnsignedRangeConfig) (*UnsignedRange, error) {
	alg := &UnsignedRange{}
	core, bindings, err := newRangeCore(ctx, cfg.Store, cfg, rangeCoreConfig{
		Kind:            "unsigned-range",
		MonitoredValue:  params.MonitoredValue,
		LowLimit:        params.LowLimit,
		HighLimit:       params.HighLimit,
		Deadband:        nil,
		HighLimitEnable: params.HighLimitEnable,
		LowLimitEnable:  params.LowLimitEnable,
		StatusFlags:     params.StatusFlags,
		ToFloat:         unsignedToFloat,
		FromFloat:       unsignedFromFloat,
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

func (a *UnsignedRange) Kind() string               { return "unsigned-range" }
func (a *UnsignedRange) Base() *eventalgorithm.Base { return a.base }

func (a *UnsignedRange) Evaluate(ctx context.Context, base *eventalgorithm.Base) (domain.EventState, domain.NotificationParams, bool, error) {
	return a.core.evaluate(ctx, base.CurrentState())
}
