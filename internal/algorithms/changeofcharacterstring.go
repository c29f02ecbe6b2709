package algorithms

import (
	"context"
	"strings"

	"eventcore/internal/domain"
	"eventcore/internal/eventalgorithm"
)

// ChangeOfCharacterStringConfig is ChangeOfCharacterString's parameter
// schema (clause 13.3.16): off-normal iff the monitored string contains any
// non-empty entry in pAlarmValues as a case-sensitive substring.
type ChangeOfCharacterStringConfig struct {
	MonitoredValue ParamBinding
	AlarmValues    []string
	StatusFlags    *ParamBinding
}

type ChangeOfCharacterString struct {
	base *eventalgorithm.Base

	monitoredValue *eventalgorithm.Binding
	statusFlags    *eventalgorithm.Binding
	alarmValues    []string
}

func NewChangeOfCharacterString(ctx context.Context, id string, cfg Config, params ChangeOfCharacterStringConfig) (*ChangeOfCharacterString, error) {
	const op = "ChangeOfCharacterString.bind"
	store := cfg.Store

	mv, err := resolveRequired(ctx, store, op, "pMonitoredValue", &params.MonitoredValue)
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

	alg := &ChangeOfCharacterString{
		monitoredValue: mv,
		statusFlags:    statusFlags,
		alarmValues:    append([]string(nil), params.AlarmValues...),
	}
	alg.base = eventalgorithm.NewBase(id, alg, cfg.baseParams(inhibit, detection))
	if err := alg.base.Bind(ctx, collectBindings(mv, statusFlags)); err != nil {
		return nil, err
	}
	return alg, nil
}

func (a *ChangeOfCharacterString) Kind() string               { return "change-of-character-string" }
func (a *ChangeOfCharacterString) Base() *eventalgorithm.Base { return a.base }

// matching returns the first non-empty alarm entry that v contains as a
// substring, or "" if none matches.
func (a *ChangeOfCharacterString) matching(v string) string {
	for _, alarm := range a.alarmValues {
		if alarm == "" {
			continue
		}
		if strings.Contains(v, alarm) {
			return alarm
		}
	}
	return ""
}

func (a *ChangeOfCharacterString) Evaluate(ctx context.Context, base *eventalgorithm.Base) (domain.EventState, domain.NotificationParams, bool, error) {
	current := base.CurrentState()

	v, err := a.monitoredValue.Value(ctx)
	if err != nil {
		return current, nil, false, err
	}
	str, err := v.CharacterString()
	if err != nil {
		return current, nil, false, err
	}
	match := a.matching(str)

	var newState domain.EventState
	switch {
	case domain.GroupOf(current) == domain.GroupNormal && match != "":
		newState = domain.EventStateOffNormal
	case current == domain.EventStateOffNormal && match == "":
		newState = domain.EventStateNormal
	default:
		return current, nil, false, nil
	}

	sf, err := readStatusFlags(ctx, a.statusFlags)
	if err != nil {
		return current, nil, false, err
	}
	params := NotificationParametersChangeOfCharacterString{
		Kind:         a.Kind(),
		ChangedValue: str,
		StatusFlags:  sf,
		AlarmValue:   match,
	}
	return newState, params, true, nil
}
