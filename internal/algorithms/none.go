package algorithms

import (
	"context"

	"eventcore/internal/domain"
	"eventcore/internal/eventalgorithm"
)

// None implements the NONE algorithm: it never proposes an
// off-normal state. Base.Evaluate already handles the Normal<->Fault
// transitions driven by reliability before this Evaluate ever runs, so
// None's own contribution is simply "no opinion".
type None struct {
	base *eventalgorithm.Base
}

func NewNone(ctx context.Context, id string, cfg Config) (*None, error) {
	inhibit, detection, err := resolveCommon(ctx, cfg.Store, cfg)
	if err != nil {
		return nil, err
	}
	alg := &None{}
	alg.base = eventalgorithm.NewBase(id, alg, cfg.baseParams(inhibit, detection))
	if err := alg.base.Bind(ctx, nil); err != nil {
		return nil, err
	}
	return alg, nil
}

func (a *None) Kind() string               { return "none" }
func (a *None) Base() *eventalgorithm.Base { return a.base }

func (a *None) Evaluate(ctx context.Context, base *eventalgorithm.Base) (domain.EventState, domain.NotificationParams, bool, error) {
	return base.CurrentState(), nil, false, nil
}
