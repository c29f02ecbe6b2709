package algorithms

import (
	"context"

	"eventcore/internal/domain"
	"eventcore/internal/eventalgorithm"
)

// CommandFailureConfig is CommandFailure's parameter schema (clause
// 13.3.4). FeedbackValue is resolved through the object store like any
// other ParamBinding; a missing referenced feedback object is a bind-time
// configuration error.
type CommandFailureConfig struct {
	MonitoredValue ParamBinding
	FeedbackValue  ParamBinding
	StatusFlags    *ParamBinding
}

// CommandFailure reports off-normal while the commanded value and its
// feedback disagree.
type CommandFailure struct {
	base *eventalgorithm.Base

	monitoredValue *eventalgorithm.Binding
	feedbackValue  *eventalgorithm.Binding
	statusFlags    *eventalgorithm.Binding
}

func NewCommandFailure(ctx context.Context, id string, cfg Config, params CommandFailureConfig) (*CommandFailure, error) {
	const op = "CommandFailure.bind"
	store := cfg.Store

	mv, err := resolveRequired(ctx, store, op, "pMonitoredValue", &params.MonitoredValue)
	if err != nil {
		return nil, err
	}
	fb, err := resolveRequired(ctx, store, op, "pFeedbackValue", &params.FeedbackValue)
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

	alg := &CommandFailure{monitoredValue: mv, feedbackValue: fb, statusFlags: statusFlags}
	alg.base = eventalgorithm.NewBase(id, alg, cfg.baseParams(inhibit, detection))
	if err := alg.base.Bind(ctx, collectBindings(mv, fb, statusFlags)); err != nil {
		return nil, err
	}
	return alg, nil
}

func (a *CommandFailure) Kind() string               { return "command-failure" }
func (a *CommandFailure) Base() *eventalgorithm.Base { return a.base }

func (a *CommandFailure) Evaluate(ctx context.Context, base *eventalgorithm.Base) (domain.EventState, domain.NotificationParams, bool, error) {
	current := base.CurrentState()

	cmd, err := a.monitoredValue.Value(ctx)
	if err != nil {
		return current, nil, false, err
	}
	fb, err := a.feedbackValue.Value(ctx)
	if err != nil {
		return current, nil, false, err
	}
	mismatched := !cmd.Equal(fb)

	var newState domain.EventState
	switch {
	case domain.GroupOf(current) == domain.GroupNormal && mismatched:
		newState = domain.EventStateOffNormal
	case current == domain.EventStateOffNormal && !mismatched:
		newState = domain.EventStateNormal
	default:
		return current, nil, false, nil
	}

	sf, err := readStatusFlags(ctx, a.statusFlags)
	if err != nil {
		return current, nil, false, err
	}
	params := NotificationParametersCommandFailure{
		Kind:          a.Kind(),
		CommandValue:  cmd,
		StatusFlags:   sf,
		FeedbackValue: fb,
	}
	return newState, params, true, nil
}
