package domain

import "context"

// ObjectID identifies an object in the store.
type ObjectID string

// PropertyID identifies a property on an object.
type PropertyID string

// Unsubscribe removes a previously installed monitor.
type Unsubscribe func()

// PropertyCell is a single (object, property) value slot. Writes are
// committed synchronously and fire every registered monitor with the old
// and new value before Set returns, matching the single-threaded
// cooperative model: by the time a write returns, every
// observer has already seen it.
type PropertyCell interface {
	Get(ctx context.Context) (Value, error)
	Set(ctx context.Context, v Value) error
	AddMonitor(fn func(old, new Value)) Unsubscribe
}

// Object exposes its properties by PropertyID.
type Object interface {
	ID() ObjectID
	Property(id PropertyID) (PropertyCell, bool)
}

// ObjectStore resolves object references. Implementations may be local
// (internal/objectstore.MemoryStore) or remote
// (internal/objectstore.HTTPStore); the event algorithm core never assumes
// which.
type ObjectStore interface {
	GetObject(ctx context.Context, id ObjectID) (Object, bool)
}

// PropertyEventState is the well-known property ID an Object exposes for
// its persistent event state, written by transition_action
// when the object chooses to expose it as an observable property.
const PropertyEventState PropertyID = "event-state"

// ObjectPropertyRef names a property on an object, the live half of a
// Parameter Binding.
type ObjectPropertyRef struct {
	Object   ObjectID
	Property PropertyID
}

func (r ObjectPropertyRef) String() string {
	return string(r.Object) + "." + string(r.Property)
}
