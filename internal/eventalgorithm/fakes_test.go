package eventalgorithm

import (
	"context"

	"eventcore/internal/domain"
)

// fakeCell is a minimal in-memory domain.PropertyCell used across this
// package's tests. Writes fire monitors synchronously, matching the
// single-threaded cooperative model the real store implementations honor.
type fakeCell struct {
	value    domain.Value
	monitors []func(old, new domain.Value)
}

func newFakeCell(v domain.Value) *fakeCell {
	return &fakeCell{value: v}
}

func (c *fakeCell) Get(ctx context.Context) (domain.Value, error) {
	return c.value, nil
}

func (c *fakeCell) Set(ctx context.Context, v domain.Value) error {
	old := c.value
	c.value = v
	for _, fn := range c.monitors {
		fn(old, v)
	}
	return nil
}

func (c *fakeCell) AddMonitor(fn func(old, new domain.Value)) domain.Unsubscribe {
	idx := len(c.monitors)
	c.monitors = append(c.monitors, fn)
	return func() {
		c.monitors[idx] = func(old, new domain.Value) {}
	}
}

// fakeObject is a minimal domain.Object backed by a property map.
type fakeObject struct {
	id    domain.ObjectID
	props map[domain.PropertyID]*fakeCell
}

func newFakeObject(id domain.ObjectID) *fakeObject {
	return &fakeObject{id: id, props: make(map[domain.PropertyID]*fakeCell)}
}

func (o *fakeObject) ID() domain.ObjectID { return o.id }

func (o *fakeObject) Property(id domain.PropertyID) (domain.PropertyCell, bool) {
	c, ok := o.props[id]
	return c, ok
}

func (o *fakeObject) set(id domain.PropertyID, v domain.Value) *fakeCell {
	c := newFakeCell(v)
	o.props[id] = c
	return c
}

// fakeStore is a minimal domain.ObjectStore over a fixed object set.
type fakeStore struct {
	objects map[domain.ObjectID]*fakeObject
}

func newFakeStore(objs ...*fakeObject) *fakeStore {
	s := &fakeStore{objects: make(map[domain.ObjectID]*fakeObject)}
	for _, o := range objs {
		s.objects[o.id] = o
	}
	return s
}

func (s *fakeStore) GetObject(ctx context.Context, id domain.ObjectID) (domain.Object, bool) {
	o, ok := s.objects[id]
	return o, ok
}

// fakeFaultSource returns a fixed reliability regardless of input.
type fakeFaultSource struct {
	reliability domain.Reliability
}

func (f fakeFaultSource) EvaluatedReliability(ctx context.Context) domain.Reliability {
	return f.reliability
}

// fakeNotifier records every delivered event.
type fakeNotifier struct {
	events []NotificationEvent
	err    error
}

func (n *fakeNotifier) Deliver(ctx context.Context, event NotificationEvent) error {
	n.events = append(n.events, event)
	return n.err
}

// fixedEvaluator always proposes the same (state, params, changed) triple.
type fixedEvaluator struct {
	kind    string
	state   domain.EventState
	params  domain.NotificationParams
	changed bool
	err     error
}

func (e *fixedEvaluator) Kind() string { return e.kind }

func (e *fixedEvaluator) Evaluate(ctx context.Context, base *Base) (domain.EventState, domain.NotificationParams, bool, error) {
	return e.state, e.params, e.changed, e.err
}

type stubParams struct{ kind string }

func (p stubParams) AlgorithmKind() string { return p.kind }
