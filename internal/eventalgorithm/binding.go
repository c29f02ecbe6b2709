package eventalgorithm

import (
	"context"

	"eventcore/internal/domain"
)

// Binding is the Property Binding collaborator: a parameter
// is bound either to a literal value or to a live (object, property)
// reference resolved once at bind time. Reads are always forwarded live;
// there is no caching.
type Binding struct {
	name    string
	literal bool
	value   domain.Value
	ref     domain.ObjectPropertyRef
	cell    domain.PropertyCell
	unsub   domain.Unsubscribe
}

// NewLiteralBinding wraps a fixed value. Literal bindings never change and
// never schedule evaluation.
func NewLiteralBinding(name string, v domain.Value) *Binding {
	return &Binding{name: name, literal: true, value: v}
}

// NewRefBinding resolves ref against store, registering with the target
// property's monitor list so later writes are delivered through Observe.
// A missing object or property is a configuration error, fatal
// at bind time.
func NewRefBinding(ctx context.Context, store domain.ObjectStore, name string, ref domain.ObjectPropertyRef) (*Binding, error) {
	obj, ok := store.GetObject(ctx, ref.Object)
	if !ok {
		return nil, newConfigError("bind "+name, "object %q not found", ref.Object)
	}
	cell, ok := obj.Property(ref.Property)
	if !ok {
		return nil, newConfigError("bind "+name, "object %q has no property %q", ref.Object, ref.Property)
	}
	return &Binding{name: name, ref: ref, cell: cell}, nil
}

// Name is the parameter name this binding fills, used for template
// substitution and change-set keys.
func (b *Binding) Name() string { return b.name }

// Value reads the current value. For a literal binding this is always the
// same value; for a reference binding it is forwarded live from the store.
func (b *Binding) Value(ctx context.Context) (domain.Value, error) {
	if b.literal {
		return b.value, nil
	}
	return b.cell.Get(ctx)
}

// Observe installs fn as the delivery callback for this binding's changes.
// Literal bindings have nothing to observe and return a no-op unsubscribe.
func (b *Binding) Observe(fn func(name string, old, new domain.Value)) domain.Unsubscribe {
	if b.literal || b.cell == nil {
		return func() {}
	}
	unsub := b.cell.AddMonitor(func(old, new domain.Value) {
		fn(b.name, old, new)
	})
	b.unsub = unsub
	return unsub
}

// Close removes any installed monitor. Safe to call on a literal binding or
// one that was never observed.
func (b *Binding) Close() {
	if b.unsub != nil {
		b.unsub()
		b.unsub = nil
	}
}
