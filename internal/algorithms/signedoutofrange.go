package algorithms

import (
	"context"

	"eventcore/internal/domain"
	"eventcore/internal/eventalgorithm"
)

// SignedOutOfRangeConfig is SignedOutOfRange's parameter schema (clause
// 13.3.14): OutOfRange's shape over SignedInteger.
type SignedOutOfRangeConfig struct {
	MonitoredValue  ParamBinding
	LowLimit        ParamBinding
	HighLimit       ParamBinding
	Deadband        ParamBinding
	HighLimitEnable *ParamBinding
	LowLimitEnable  *ParamBinding
	StatusFlags     *ParamBinding
}

type SignedOutOfRange struct {
	base *eventalgorithm.Base
	core *rangeCore
}

func signedToFloat(v domain.Value) (float64, error) {
	n, err := v.Signed()
	if err != nil {
		return 0, err
	}
	return float64(n), nil
}

func signedFromFloat(f float64) domain.Value { return domain.SignedValue(int64(f)) }

func NewSignedOutOfRange(ctx context.Context, id string, cfg Config, params SignedOutOfRangeConfig) (*SignedOutOfRange, error) {
	alg := &SignedOutOfRange{}
	deadband := params.Deadband
	core, bindings, err := newRangeCore(ctx, cfg.Store, cfg, rangeCoreConfig{
		Kind:            "signed-out-of-range",
		MonitoredValue:  params.MonitoredValue,
		LowLimit:        params.LowLimit,
		HighLimit:       params.HighLimit,
		Deadband:        &deadband,
		HighLimitEnable: params.HighLimitEnable,
		LowLimitEnable:  params.LowLimitEnable,
		StatusFlags:     params.StatusFlags,
		ToFloat:         signedToFloat,
		FromFloat:       signedFromFloat,
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

func (a *SignedOutOfRange) Kind() string               { return "signed-out-of-range" }
func (a *SignedOutOfRange) Base() *eventalgorithm.Base { return a.base }

func (a *SignedOutOfRange) Evaluate(ctx context.Context, base *eventalgorithm.Base) (domain.EventState, domain.NotificationParams, bool, error) {
	return a.core.evaluate(ctx, base.CurrentState())
}
