package algorithms

import (
	"context"
	"fmt"
	"sync"

	"eventcore/internal/domain"
	"eventcore/internal/eventalgorithm"
)

// ExtendedEvaluator is a vendor-supplied evaluator for one (vendorID,
// extendedEventType) pair (clause 13.3.10).
// It receives every bound parameter's live value by name and proposes a
// candidate transition exactly like any other concrete algorithm's
// Evaluate.
type ExtendedEvaluator func(ctx context.Context, current domain.EventState, params map[string]domain.Value) (domain.EventState, map[string]domain.Value, bool, error)

type vendorKey struct {
	VendorID          uint32
	ExtendedEventType uint32
}

// VendorRegistry is a process-wide, init-once registry of
// (vendorID, extendedEventType) -> ExtendedEvaluator.
type VendorRegistry struct {
	mu         sync.RWMutex
	evaluators map[vendorKey]ExtendedEvaluator
}

// NewVendorRegistry creates an empty registry.
func NewVendorRegistry() *VendorRegistry {
	return &VendorRegistry{evaluators: make(map[vendorKey]ExtendedEvaluator)}
}

// Register adds ev for (vendorID, extendedEventType). It returns an error
// if the pair is already registered or ev is nil.
func (r *VendorRegistry) Register(vendorID, extendedEventType uint32, ev ExtendedEvaluator) error {
	if ev == nil {
		return fmt.Errorf("algorithms: cannot register nil extended evaluator")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := vendorKey{vendorID, extendedEventType}
	if _, exists := r.evaluators[key]; exists {
		return fmt.Errorf("algorithms: extended evaluator for vendor %d type %d already registered", vendorID, extendedEventType)
	}
	r.evaluators[key] = ev
	return nil
}

// Get looks up the evaluator for (vendorID, extendedEventType). A miss is
// not an error; an unknown combination simply remains Normal.
func (r *VendorRegistry) Get(vendorID, extendedEventType uint32) (ExtendedEvaluator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ev, ok := r.evaluators[vendorKey{vendorID, extendedEventType}]
	return ev, ok
}

// DefaultVendorRegistry is the process-wide registry Extended consults
// when its own Registry field is nil.
var DefaultVendorRegistry = NewVendorRegistry()

// ExtendedConfig is Extended's parameter schema. Parameters is an
// arbitrary named set of bindings, read fresh on every evaluation and
// handed to the resolved ExtendedEvaluator by name.
type ExtendedConfig struct {
	VendorID          uint32
	ExtendedEventType uint32
	Parameters        map[string]ParamBinding
	Registry          *VendorRegistry // nil => DefaultVendorRegistry
}

type Extended struct {
	base *eventalgorithm.Base

	vendorID          uint32
	extendedEventType uint32
	registry          *VendorRegistry
	parameters        map[string]*eventalgorithm.Binding
}

func NewExtended(ctx context.Context, id string, cfg Config, params ExtendedConfig) (*Extended, error) {
	store := cfg.Store
	registry := params.Registry
	if registry == nil {
		registry = DefaultVendorRegistry
	}

	resolved := make(map[string]*eventalgorithm.Binding, len(params.Parameters))
	bindings := make([]*eventalgorithm.Binding, 0, len(params.Parameters))
	for name, pb := range params.Parameters {
		pbCopy := pb
		b, err := resolve(ctx, store, name, &pbCopy)
		if err != nil {
			return nil, err
		}
		if b != nil {
			resolved[name] = b
			bindings = append(bindings, b)
		}
	}
	inhibit, detection, err := resolveCommon(ctx, store, cfg)
	if err != nil {
		return nil, err
	}

	alg := &Extended{
		vendorID:          params.VendorID,
		extendedEventType: params.ExtendedEventType,
		registry:          registry,
		parameters:        resolved,
	}
	alg.base = eventalgorithm.NewBase(id, alg, cfg.baseParams(inhibit, detection))
	if err := alg.base.Bind(ctx, bindings); err != nil {
		return nil, err
	}
	return alg, nil
}

func (a *Extended) Kind() string               { return "extended" }
func (a *Extended) Base() *eventalgorithm.Base { return a.base }

func (a *Extended) Evaluate(ctx context.Context, base *eventalgorithm.Base) (domain.EventState, domain.NotificationParams, bool, error) {
	current := base.CurrentState()

	ev, ok := a.registry.Get(a.vendorID, a.extendedEventType)
	if !ok {
		return current, nil, false, nil
	}

	values := make(map[string]domain.Value, len(a.parameters))
	for name, b := range a.parameters {
		v, err := b.Value(ctx)
		if err != nil {
			return current, nil, false, err
		}
		values[name] = v
	}

	newState, out, changed, err := ev(ctx, current, values)
	if err != nil {
		return current, nil, false, err
	}
	if !changed {
		return current, nil, false, nil
	}
	params := NotificationParametersExtended{
		Kind:              a.Kind(),
		VendorID:          a.vendorID,
		ExtendedEventType: a.extendedEventType,
		Values:            out,
	}
	return newState, params, true, nil
}
