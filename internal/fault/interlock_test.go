package fault

import (
	"context"
	"testing"

	"eventcore/internal/domain"
)

func TestInterlock_NoProbeReportsNoFaultDetected(t *testing.T) {
	i := NewInterlock(nil)
	if got := i.EvaluatedReliability(context.Background()); got != domain.NoFaultDetected {
		t.Fatalf("got %v, want NoFaultDetected", got)
	}
}

func TestInterlock_ReportsProbeValue(t *testing.T) {
	probe := NewFuncProbe("test", func(ctx context.Context) domain.Reliability {
		return domain.ReliabilityOverrange
	})
	i := NewInterlock(probe)
	if got := i.EvaluatedReliability(context.Background()); got != domain.ReliabilityOverrange {
		t.Fatalf("got %v, want ReliabilityOverrange", got)
	}
}

func TestInterlock_ChangeFiresPropertyMonitor(t *testing.T) {
	reliability := domain.NoFaultDetected
	probe := NewFuncProbe("test", func(ctx context.Context) domain.Reliability {
		return reliability
	})
	i := NewInterlock(probe)

	cell, ok := i.Property(ReliabilityProperty)
	if !ok {
		t.Fatal("expected reliability property to be exposed")
	}

	var calls int
	var lastOld, lastNew domain.Value
	cell.AddMonitor(func(old, new domain.Value) {
		calls++
		lastOld, lastNew = old, new
	})

	i.EvaluatedReliability(context.Background()) // no change, should not fire
	if calls != 0 {
		t.Fatalf("expected no monitor call on first (unchanged) poll, got %d", calls)
	}

	reliability = domain.ReliabilityCommFault
	i.EvaluatedReliability(context.Background())
	if calls != 1 {
		t.Fatalf("expected exactly 1 monitor call after a change, got %d", calls)
	}
	oldStr, _ := lastOld.CharacterString()
	newStr, _ := lastNew.CharacterString()
	if oldStr != string(domain.NoFaultDetected) || newStr != string(domain.ReliabilityCommFault) {
		t.Fatalf("got old=%q new=%q, want old=%q new=%q", oldStr, newStr, domain.NoFaultDetected, domain.ReliabilityCommFault)
	}

	i.EvaluatedReliability(context.Background())
	if calls != 1 {
		t.Fatalf("re-polling the same value must not fire again, got %d calls", calls)
	}
}

func TestInterlock_SetIsRejected(t *testing.T) {
	i := NewInterlock(nil)
	cell, _ := i.Property(ReliabilityProperty)
	if err := cell.Set(context.Background(), domain.CharacterStringValue("anything")); err == nil {
		t.Fatal("expected Set on evaluated_reliability to be rejected")
	}
}

func TestInterlock_PropertyLookupMiss(t *testing.T) {
	i := NewInterlock(nil)
	if _, ok := i.Property("present-value"); ok {
		t.Fatal("expected only the reliability property to be exposed")
	}
}
