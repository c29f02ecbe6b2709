// Package fault implements the Fault Interlock: a read-only adapter that
// exposes a companion fault algorithm's evaluated reliability to the event
// algorithm core. It never writes to the reliability it reports.
package fault

import (
	"context"
	"sync"

	"eventcore/internal/domain"
)

// ReliabilityProbe is implemented by a companion fault algorithm. It is
// asked for its current reliability rather than pushing it.
type ReliabilityProbe interface {
	ProbeName() string
	Check(ctx context.Context) domain.Reliability
}

// FuncProbe wraps a function as a ReliabilityProbe.
type FuncProbe struct {
	name string
	fn   func(ctx context.Context) domain.Reliability
}

// NewFuncProbe creates a ReliabilityProbe from a function.
func NewFuncProbe(name string, fn func(ctx context.Context) domain.Reliability) *FuncProbe {
	return &FuncProbe{name: name, fn: fn}
}

func (f *FuncProbe) ProbeName() string { return f.name }

func (f *FuncProbe) Check(ctx context.Context) domain.Reliability { return f.fn(ctx) }

// ReliabilityProperty is the well-known property an Interlock exposes its
// last-observed reliability under, so a Binding can Observe it the same way
// it observes any monitored value.
const ReliabilityProperty domain.PropertyID = "reliability"

// Interlock polls an attached ReliabilityProbe on demand and mirrors the
// result onto a PropertyCell, so a reliability change is delivered through
// the same monitor mechanism every other parameter binding uses and the
// scheduler coalesces a fault change with a value change into one
// evaluation. With no probe attached, EvaluatedReliability always reports
// NoFaultDetected.
type Interlock struct {
	probe ReliabilityProbe

	mu   sync.Mutex
	last domain.Reliability
	cell *reliabilityCell
}

// NewInterlock creates an Interlock. probe may be nil, meaning no companion
// fault algorithm is attached.
func NewInterlock(probe ReliabilityProbe) *Interlock {
	return &Interlock{
		probe: probe,
		last:  domain.NoFaultDetected,
		cell:  newReliabilityCell(domain.NoFaultDetected),
	}
}

// EvaluatedReliability implements eventalgorithm.FaultSource: it polls the
// probe, mirrors any change onto the exposed property cell, and returns the
// live value.
func (i *Interlock) EvaluatedReliability(ctx context.Context) domain.Reliability {
	if i.probe == nil {
		return domain.NoFaultDetected
	}
	r := i.probe.Check(ctx)

	i.mu.Lock()
	changed := r != i.last
	i.last = r
	i.mu.Unlock()

	if changed {
		i.cell.set(r)
	}
	return r
}

// ID lets Interlock double as a domain.Object so a Binding can be built
// against its reliability property like any other parameter.
func (i *Interlock) ID() domain.ObjectID { return domain.ObjectID("fault-interlock") }

// Property exposes ReliabilityProperty only.
func (i *Interlock) Property(id domain.PropertyID) (domain.PropertyCell, bool) {
	if id != ReliabilityProperty {
		return nil, false
	}
	return i.cell, true
}

// reliabilityCell is a minimal domain.PropertyCell mirroring the last
// reliability observed by an Interlock. Set is internal-only: external
// callers must never write evaluated_reliability.
type reliabilityCell struct {
	mu       sync.Mutex
	value    domain.Reliability
	monitors []func(old, new domain.Value)
}

func newReliabilityCell(r domain.Reliability) *reliabilityCell {
	return &reliabilityCell{value: r}
}

func (c *reliabilityCell) Get(ctx context.Context) (domain.Value, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.CharacterStringValue(string(c.value)), nil
}

// Set always fails: the event algorithm core only ever reads reliability.
func (c *reliabilityCell) Set(ctx context.Context, v domain.Value) error {
	return errNoWrite
}

func (c *reliabilityCell) AddMonitor(fn func(old, new domain.Value)) domain.Unsubscribe {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := len(c.monitors)
	c.monitors = append(c.monitors, fn)
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.monitors[idx] = func(old, new domain.Value) {}
	}
}

func (c *reliabilityCell) set(r domain.Reliability) {
	c.mu.Lock()
	old := c.value
	c.value = r
	monitors := append([]func(old, new domain.Value){}, c.monitors...)
	c.mu.Unlock()

	oldValue := domain.CharacterStringValue(string(old))
	newValue := domain.CharacterStringValue(string(r))
	for _, fn := range monitors {
		fn(oldValue, newValue)
	}
}
