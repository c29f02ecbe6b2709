// Package config loads and validates enrollment descriptors: JSON files
// that describe one event-algorithm instance each — which algorithm, which
// monitored (and optionally monitoring) object, and how every parameter is
// sourced. A descriptor that fails validation is a configuration error;
// nothing is constructed from it.
package config

import (
	"encoding/json"
	"fmt"

	"eventcore/internal/algorithms"
	"eventcore/internal/domain"
)

// Descriptor is one enrollment: a single algorithm instance bound to a
// monitored object.
type Descriptor struct {
	ID               string                 `json:"id" validate:"required"`
	Algorithm        string                 `json:"algorithm" validate:"required,oneof=change-of-bitstring change-of-state change-of-value command-failure floating-limit out-of-range buffer-ready unsigned-range extended change-of-status-flags double-out-of-range signed-out-of-range unsigned-out-of-range change-of-character-string none change-of-discrete-value"`
	MonitoredObject  string                 `json:"monitoredObject" validate:"required"`
	MonitoringObject string                 `json:"monitoringObject,omitempty"`
	Parameters       map[string]ParamSource `json:"parameters,omitempty"`
	AlarmValues      []ValueLiteral         `json:"alarmValues,omitempty"`
	MessageTemplates []string               `json:"messageTemplates,omitempty" validate:"max=3"`
}

// ParamSource is how one named parameter is sourced: exactly one of a
// literal value or a live (object, property) reference.
type ParamSource struct {
	Literal *ValueLiteral `json:"literal,omitempty"`
	Ref     *PropertyRef  `json:"ref,omitempty"`
}

// Binding converts the source into an algorithms.ParamBinding. name is used
// only for error messages.
func (s ParamSource) Binding(name string) (algorithms.ParamBinding, error) {
	switch {
	case s.Literal != nil && s.Ref != nil:
		return algorithms.ParamBinding{}, fmt.Errorf("parameter %s: literal and ref are mutually exclusive", name)
	case s.Literal != nil:
		v, err := s.Literal.Domain()
		if err != nil {
			return algorithms.ParamBinding{}, fmt.Errorf("parameter %s: %w", name, err)
		}
		return algorithms.Literal(v), nil
	case s.Ref != nil:
		return algorithms.RefBinding(domain.ObjectID(s.Ref.Object), domain.PropertyID(s.Ref.Property)), nil
	default:
		return algorithms.ParamBinding{}, fmt.Errorf("parameter %s: one of literal or ref is required", name)
	}
}

// PropertyRef names a property on an object.
type PropertyRef struct {
	Object   string `json:"object" validate:"required"`
	Property string `json:"property" validate:"required"`
}

// ValueLiteral is a typed literal value as it appears in a descriptor
// file. Value's JSON shape depends on Kind: a number for the numeric
// kinds, a string for character-string, a bool for boolean, and an array
// of bools for bitstring.
type ValueLiteral struct {
	Kind  string          `json:"kind" validate:"required,oneof=real double unsigned signed-integer bitstring enumerated character-string boolean"`
	Value json.RawMessage `json:"value" validate:"required"`
}

// Domain decodes the literal into a domain.Value of the declared kind.
func (l ValueLiteral) Domain() (domain.Value, error) {
	switch domain.Kind(l.Kind) {
	case domain.KindReal:
		var f float64
		if err := json.Unmarshal(l.Value, &f); err != nil {
			return domain.Value{}, fmt.Errorf("real literal: %w", err)
		}
		return domain.RealValue(f), nil
	case domain.KindDouble:
		var f float64
		if err := json.Unmarshal(l.Value, &f); err != nil {
			return domain.Value{}, fmt.Errorf("double literal: %w", err)
		}
		return domain.DoubleValue(f), nil
	case domain.KindUnsigned:
		var u uint64
		if err := json.Unmarshal(l.Value, &u); err != nil {
			return domain.Value{}, fmt.Errorf("unsigned literal: %w", err)
		}
		return domain.UnsignedValue(u), nil
	case domain.KindSignedInteger:
		var i int64
		if err := json.Unmarshal(l.Value, &i); err != nil {
			return domain.Value{}, fmt.Errorf("signed-integer literal: %w", err)
		}
		return domain.SignedValue(i), nil
	case domain.KindBitstring:
		var bits []bool
		if err := json.Unmarshal(l.Value, &bits); err != nil {
			return domain.Value{}, fmt.Errorf("bitstring literal: %w", err)
		}
		return domain.BitstringValue(bits), nil
	case domain.KindEnumerated:
		var e uint32
		if err := json.Unmarshal(l.Value, &e); err != nil {
			return domain.Value{}, fmt.Errorf("enumerated literal: %w", err)
		}
		return domain.EnumeratedValue(e), nil
	case domain.KindCharacterString:
		var s string
		if err := json.Unmarshal(l.Value, &s); err != nil {
			return domain.Value{}, fmt.Errorf("character-string literal: %w", err)
		}
		return domain.CharacterStringValue(s), nil
	case domain.KindBoolean:
		var b bool
		if err := json.Unmarshal(l.Value, &b); err != nil {
			return domain.Value{}, fmt.Errorf("boolean literal: %w", err)
		}
		return domain.BooleanValue(b), nil
	default:
		return domain.Value{}, fmt.Errorf("unknown literal kind %q", l.Kind)
	}
}

// Param looks up a named parameter source and converts it; ok is false
// when the descriptor does not bind that name at all.
func (d Descriptor) Param(name string) (algorithms.ParamBinding, bool, error) {
	src, ok := d.Parameters[name]
	if !ok {
		return algorithms.ParamBinding{}, false, nil
	}
	b, err := src.Binding(name)
	if err != nil {
		return algorithms.ParamBinding{}, false, fmt.Errorf("descriptor %s: %w", d.ID, err)
	}
	return b, true, nil
}

// Templates returns the per-group message templates padded to the three
// event-state-group slots.
func (d Descriptor) Templates() [3]string {
	var out [3]string
	copy(out[:], d.MessageTemplates)
	return out
}
