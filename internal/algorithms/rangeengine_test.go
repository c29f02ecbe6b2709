package algorithms

import (
	"math"
	"testing"

	"eventcore/internal/domain"
)

func TestEvaluateRange_ClauseOrdering(t *testing.T) {
	base := rangeInput{
		Low: 0, High: 100, Deadband: 5,
		HighEnabled: true, LowEnabled: true,
	}

	tests := []struct {
		name        string
		mutate      func(*rangeInput)
		wantState   domain.EventState
		wantChanged bool
	}{
		{
			name:      "normal rising above high",
			mutate:    func(in *rangeInput) { in.Current = domain.EventStateNormal; in.Value = 101 },
			wantState: domain.EventStateHighLimit, wantChanged: true,
		},
		{
			name:      "normal dropping below low",
			mutate:    func(in *rangeInput) { in.Current = domain.EventStateNormal; in.Value = -1 },
			wantState: domain.EventStateLowLimit, wantChanged: true,
		},
		{
			name:        "normal inside limits",
			mutate:      func(in *rangeInput) { in.Current = domain.EventStateNormal; in.Value = 50 },
			wantChanged: false,
		},
		{
			name:      "high limit disabled forces normal",
			mutate:    func(in *rangeInput) { in.Current = domain.EventStateHighLimit; in.Value = 150; in.HighEnabled = false },
			wantState: domain.EventStateNormal, wantChanged: true,
		},
		{
			name:      "high limit crosses over directly to low",
			mutate:    func(in *rangeInput) { in.Current = domain.EventStateHighLimit; in.Value = -1 },
			wantState: domain.EventStateLowLimit, wantChanged: true,
		},
		{
			name:      "high limit recovers below high minus deadband",
			mutate:    func(in *rangeInput) { in.Current = domain.EventStateHighLimit; in.Value = 94 },
			wantState: domain.EventStateNormal, wantChanged: true,
		},
		{
			name:        "high limit holds inside deadband",
			mutate:      func(in *rangeInput) { in.Current = domain.EventStateHighLimit; in.Value = 96 },
			wantChanged: false,
		},
		{
			name:      "low limit disabled forces normal",
			mutate:    func(in *rangeInput) { in.Current = domain.EventStateLowLimit; in.Value = -10; in.LowEnabled = false },
			wantState: domain.EventStateNormal, wantChanged: true,
		},
		{
			name:      "low limit crosses over directly to high",
			mutate:    func(in *rangeInput) { in.Current = domain.EventStateLowLimit; in.Value = 101 },
			wantState: domain.EventStateHighLimit, wantChanged: true,
		},
		{
			name:      "low limit recovers above low plus deadband",
			mutate:    func(in *rangeInput) { in.Current = domain.EventStateLowLimit; in.Value = 6 },
			wantState: domain.EventStateNormal, wantChanged: true,
		},
		{
			name:        "low limit holds inside deadband",
			mutate:      func(in *rangeInput) { in.Current = domain.EventStateLowLimit; in.Value = 4 },
			wantChanged: false,
		},
		{
			name:        "normal high crossing ignored when high disabled",
			mutate:      func(in *rangeInput) { in.Current = domain.EventStateNormal; in.Value = 150; in.HighEnabled = false },
			wantChanged: false,
		},
		{
			name:        "nan reports no transition from normal",
			mutate:      func(in *rangeInput) { in.Current = domain.EventStateNormal; in.Value = math.NaN() },
			wantChanged: false,
		},
		{
			name:        "nan reports no transition from high limit",
			mutate:      func(in *rangeInput) { in.Current = domain.EventStateHighLimit; in.Value = math.NaN() },
			wantChanged: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			got, changed := evaluateRange(in)
			if changed != tt.wantChanged {
				t.Fatalf("changed = %v, want %v", changed, tt.wantChanged)
			}
			if changed && got != tt.wantState {
				t.Fatalf("state = %v, want %v", got, tt.wantState)
			}
		})
	}
}

func TestEvaluateRange_ExactBoundaryIsNotACrossing(t *testing.T) {
	in := rangeInput{
		Current: domain.EventStateNormal, Value: 100,
		Low: 0, High: 100, Deadband: 5,
		HighEnabled: true, LowEnabled: true,
	}
	if _, changed := evaluateRange(in); changed {
		t.Fatal("v == high must not report HighLimit; the predicate is strict")
	}

	in.Current = domain.EventStateHighLimit
	in.Value = 95
	if _, changed := evaluateRange(in); changed {
		t.Fatal("v == high-deadband must not recover; the hysteresis predicate is strict")
	}
}

func TestClampUnsignedDeadband_SaturatesAtHigh(t *testing.T) {
	if got := clampUnsignedDeadband(10, 3); got != 3 {
		t.Fatalf("got %v, want 3", got)
	}
	if got := clampUnsignedDeadband(2, 5); got != 2 {
		t.Fatalf("got %v, want saturation to high (2)", got)
	}
}
