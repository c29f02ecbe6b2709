package algorithms

import (
	"context"

	"eventcore/internal/domain"
	"eventcore/internal/eventalgorithm"
)

// DoubleOutOfRangeConfig is DoubleOutOfRange's parameter schema (clause
// 13.3.13): identical shape to OutOfRange but over the Double kind, a
// distinct datatype in the standard even though both are float64 here.
type DoubleOutOfRangeConfig struct {
	MonitoredValue  ParamBinding
	LowLimit        ParamBinding
	HighLimit       ParamBinding
	Deadband        ParamBinding
	HighLimitEnable *ParamBinding
	LowLimitEnable  *ParamBinding
	StatusFlags     *ParamBinding
}

// DoubleOutOfRange implements clause 13.3.13.
type DoubleOutOfRange struct {
	base *eventalgorithm.Base
	core *rangeCore
}

func NewDoubleOutOfRange(ctx context.Context, id string, cfg Config, params DoubleOutOfRangeConfig) (*DoubleOutOfRange, error) {
	alg := &DoubleOutOfRange{}
	deadband := params.Deadband
	core, bindings, err := newRangeCore(ctx, cfg.Store, cfg, rangeCoreConfig{
		Kind:            "double-out-of-range",
		MonitoredValue:  params.MonitoredValue,
		LowLimit:        params.LowLimit,
		HighLimit:       params.HighLimit,
		Deadband:        &deadband,
		HighLimitEnable: params.HighLimitEnable,
		LowLimitEnable:  params.LowLimitEnable,
		StatusFlags:     params.StatusFlags,
		ToFloat:         domain.Value.Real,
		FromFloat:       domain.DoubleValue,
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

func (a *DoubleOutOfRange) Kind() string             { return "double-out-of-range" }
func (a *DoubleOutOfRange) Base() *eventalgorithm.Base { return a.base }

func (a *DoubleOutOfRange) Evaluate(ctx context.Context, base *eventalgorithm.Base) (domain.EventState, domain.NotificationParams, bool, error) {
	return a.core.evaluate(ctx, base.CurrentState())
}
