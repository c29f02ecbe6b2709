package eventalgorithm

import (
	"context"
	"testing"

	"eventcore/internal/domain"
)

func TestLiteralBinding_ValueNeverChanges(t *testing.T) {
	b := NewLiteralBinding("limit", domain.RealValue(10))
	v, err := b.Value(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := v.Real()
	if got != 10 {
		t.Fatalf("got %v, want 10", got)
	}
	unsub := b.Observe(func(name string, old, new domain.Value) {
		t.Fatalf("literal binding must never invoke its observer")
	})
	unsub()
}

func TestRefBinding_ForwardsLiveReads(t *testing.T) {
	obj := newFakeObject("ao1")
	cell := obj.set("present-value", domain.RealValue(5))
	store := newFakeStore(obj)

	b, err := NewRefBinding(context.Background(), store, "pv", domain.ObjectPropertyRef{Object: "ao1", Property: "present-value"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, err := b.Value(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := v.Real(); got != 5 {
		t.Fatalf("got %v, want 5", got)
	}

	cell.Set(context.Background(), domain.RealValue(99))
	v2, _ := b.Value(context.Background())
	if got, _ := v2.Real(); got != 99 {
		t.Fatalf("expected live forward, got %v", got)
	}
}

func TestRefBinding_MissingObjectIsConfigError(t *testing.T) {
	store := newFakeStore()
	_, err := NewRefBinding(context.Background(), store, "pv", domain.ObjectPropertyRef{Object: "missing", Property: "x"})
	if err == nil {
		t.Fatal("expected error for missing object")
	}
	var cfgErr *ConfigError
	if !asConfigError(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T: %v", err, err)
	}
}

func TestRefBinding_MissingPropertyIsConfigError(t *testing.T) {
	obj := newFakeObject("ao1")
	store := newFakeStore(obj)
	_, err := NewRefBinding(context.Background(), store, "pv", domain.ObjectPropertyRef{Object: "ao1", Property: "missing"})
	if err == nil {
		t.Fatal("expected error for missing property")
	}
}

func TestRefBinding_ObserveDeliversChanges(t *testing.T) {
	obj := newFakeObject("ao1")
	cell := obj.set("present-value", domain.RealValue(1))
	store := newFakeStore(obj)

	b, _ := NewRefBinding(context.Background(), store, "pv", domain.ObjectPropertyRef{Object: "ao1", Property: "present-value"})

	var gotOld, gotNew domain.Value
	calls := 0
	b.Observe(func(name string, old, new domain.Value) {
		calls++
		gotOld, gotNew = old, new
	})

	cell.Set(context.Background(), domain.RealValue(2))
	if calls != 1 {
		t.Fatalf("expected 1 delivery, got %d", calls)
	}
	if v, _ := gotOld.Real(); v != 1 {
		t.Fatalf("old = %v, want 1", v)
	}
	if v, _ := gotNew.Real(); v != 2 {
		t.Fatalf("new = %v, want 2", v)
	}

	b.Close()
	cell.Set(context.Background(), domain.RealValue(3))
	if calls != 1 {
		t.Fatalf("expected delivery count to stay 1 after Close, got %d", calls)
	}
}

func asConfigError(err error, target **ConfigError) bool {
	ce, ok := err.(*ConfigError)
	if !ok {
		return false
	}
	*target = ce
	return true
}
