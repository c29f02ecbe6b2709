// Package algorithms implements the concrete per-clause event algorithms:
// each type here declares a typed parameter schema, resolves its bindings
// either against the monitored object itself (intrinsic reporting) or an
// enrollment object's eventParameters (algorithmic reporting), and
// implements eventalgorithm.Evaluator.
package algorithms

import (
	"context"

	"eventcore/internal/domain"
	"eventcore/internal/eventalgorithm"
	"eventcore/libs/clock"
)

// ParamBinding describes how a single algorithm parameter is sourced: a
// literal value baked in at construction, or a live (object, property)
// reference resolved against the object store at bind time.
// The zero value means "unbound" — callers may fall back to a
// documented default (e.g. domain.DefaultLimitEnable) instead of treating
// every parameter as required.
type ParamBinding struct {
	Literal *domain.Value
	Ref     *domain.ObjectPropertyRef
}

// Literal builds a ParamBinding fixed to v.
func Literal(v domain.Value) ParamBinding { return ParamBinding{Literal: &v} }

// RefBinding builds a ParamBinding resolved against (obj, prop) at bind
// time, the live half of a Parameter Binding.
func RefBinding(obj domain.ObjectID, prop domain.PropertyID) ParamBinding {
	r := domain.ObjectPropertyRef{Object: obj, Property: prop}
	return ParamBinding{Ref: &r}
}

// Config carries the collaborators every concrete algorithm's embedded
// eventalgorithm.Base needs, shared across constructors in this package.
type Config struct {
	Store            domain.ObjectStore
	MonitoredObject  domain.Object
	MonitoringObject domain.Object // non-nil => algorithmic reporting
	FaultAlgorithm   eventalgorithm.FaultSource
	Inhibit          *ParamBinding
	DetectionEnabled *ParamBinding
	MessageTemplates [3]string
	Notifier         eventalgorithm.Notifier
	Engine           *eventalgorithm.Engine
	Clock            clock.Clock
}

// resolve turns an optional ParamBinding into an *eventalgorithm.Binding,
// returning (nil, nil) when pb is nil so callers can apply a default.
func resolve(ctx context.Context, store domain.ObjectStore, name string, pb *ParamBinding) (*eventalgorithm.Binding, error) {
	if pb == nil {
		return nil, nil
	}
	if pb.Ref != nil {
		return eventalgorithm.NewRefBinding(ctx, store, name, *pb.Ref)
	}
	if pb.Literal != nil {
		return eventalgorithm.NewLiteralBinding(name, *pb.Literal), nil
	}
	return nil, nil
}

// resolveRequired is resolve, but an unbound parameter is a configuration
// error rather than silently defaulted.
func resolveRequired(ctx context.Context, store domain.ObjectStore, op, name string, pb *ParamBinding) (*eventalgorithm.Binding, error) {
	b, err := resolve(ctx, store, name, pb)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, &eventalgorithm.ConfigError{Op: op, Detail: name + " is required but unbound"}
	}
	return b, nil
}

// baseParams builds the embedded eventalgorithm.BindParams shared by every
// constructor in this package.
func (c Config) baseParams(inhibit, detection *eventalgorithm.Binding) eventalgorithm.BindParams {
	return eventalgorithm.BindParams{
		MonitoredObject:  c.MonitoredObject,
		MonitoringObject: c.MonitoringObject,
		FaultAlgorithm:   c.FaultAlgorithm,
		Inhibit:          inhibit,
		DetectionEnabled: detection,
		MessageTemplates: c.MessageTemplates,
		Notifier:         c.Notifier,
		Engine:           c.Engine,
		Clock:            c.Clock,
	}
}

// resolveCommon resolves the Inhibit/DetectionEnabled bindings shared by
// every concrete algorithm's Config.
func resolveCommon(ctx context.Context, store domain.ObjectStore, cfg Config) (inhibit, detection *eventalgorithm.Binding, err error) {
	inhibit, err = resolve(ctx, store, "pEventAlgorithmInhibit", cfg.Inhibit)
	if err != nil {
		return nil, nil, err
	}
	detection, err = resolve(ctx, store, "eventDetectionEnable", cfg.DetectionEnabled)
	if err != nil {
		return nil, nil, err
	}
	return inhibit, detection, nil
}

// readBool reads a binding as a boolean, defaulting to def when b is nil.
func readBool(ctx context.Context, b *eventalgorithm.Binding, def bool) (bool, error) {
	if b == nil {
		return def, nil
	}
	v, err := b.Value(ctx)
	if err != nil {
		return def, err
	}
	return v.Boolean()
}

// readLimitEnable reads the two-flag HighLimitEnable/LowLimitEnable pair
// shared by every range-style algorithm, defaulting to
// domain.DefaultLimitEnable when unbound.
func readLimitEnable(ctx context.Context, high, low *eventalgorithm.Binding) (domain.LimitEnable, error) {
	le := domain.DefaultLimitEnable
	if high != nil {
		v, err := high.Value(ctx)
		if err != nil {
			return le, err
		}
		if le.High, err = v.Boolean(); err != nil {
			return le, err
		}
	}
	if low != nil {
		v, err := low.Value(ctx)
		if err != nil {
			return le, err
		}
		if le.Low, err = v.Boolean(); err != nil {
			return le, err
		}
	}
	return le, nil
}

// readStatusFlags reads an optional StatusFlags-bearing binding, encoded as
// a 4-bit domain.Value bitstring [inAlarm, fault, overridden, outOfService].
// An unbound binding yields the zero value.
func readStatusFlags(ctx context.Context, b *eventalgorithm.Binding) (domain.StatusFlags, error) {
	if b == nil {
		return domain.StatusFlags{}, nil
	}
	v, err := b.Value(ctx)
	if err != nil {
		return domain.StatusFlags{}, err
	}
	bits, err := v.Bitstring()
	if err != nil {
		return domain.StatusFlags{}, err
	}
	var sf domain.StatusFlags
	if len(bits) > 0 {
		sf.InAlarm = bits[0]
	}
	if len(bits) > 1 {
		sf.Fault = bits[1]
	}
	if len(bits) > 2 {
		sf.Overridden = bits[2]
	}
	if len(bits) > 3 {
		sf.OutOfService = bits[3]
	}
	return sf, nil
}

// collectBindings drops nil entries so optional parameters that were never
// bound aren't passed to Base.Bind.
func collectBindings(bs ...*eventalgorithm.Binding) []*eventalgorithm.Binding {
	out := make([]*eventalgorithm.Binding, 0, len(bs))
	for _, b := range bs {
		if b != nil {
			out = append(out, b)
		}
	}
	return out
}
