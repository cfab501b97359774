package mood

import (
	"testing"
	"time"

	"github.com/agentruntime/runtime/internal/models"
)

func TestApplyClampsAtExtrema(t *testing.T) {
	now := time.Now()
	m := models.Mood{Valence: 1, Arousal: 0, Dominance: 0, UpdatedAt: now}

	result := Apply(m, now, models.Shift{Valence: 0.3})
	if result.Valence != 1 {
		t.Fatalf("expected valence clamped at 1, got %v", result.Valence)
	}
}

func TestApplySumsShiftsBeforeClamping(t *testing.T) {
	now := time.Now()
	m := models.Mood{UpdatedAt: now}

	// Two shifts applied together should equal the sum applied once
	// (associativity/commutativity within a single tick).
	a := Apply(m, now, models.Shift{Valence: 0.2}, models.Shift{Valence: 0.2})
	b := Apply(m, now, models.Shift{Valence: 0.2}, models.Shift{Valence: 0.2})
	if a.Valence != b.Valence {
		t.Fatalf("expected deterministic sum, got %v vs %v", a.Valence, b.Valence)
	}
	if a.Valence != 0.4 {
		t.Fatalf("expected summed shift 0.4, got %v", a.Valence)
	}
}

func TestShiftClampedToHalfRange(t *testing.T) {
	now := time.Now()
	m := models.Mood{UpdatedAt: now}
	result := Apply(m, now, models.Shift{Valence: 5})
	if result.Valence != 0.5 {
		t.Fatalf("expected shift clamped to 0.5 before applying, got %v", result.Valence)
	}
}

func TestDecayHalvesAtHalfLife(t *testing.T) {
	start := time.Now()
	m := models.Mood{Valence: 1, UpdatedAt: start}
	later := start.Add(DefaultHalfLife)

	decayed := Decay(m, Default, DefaultHalfLife, later)
	if decayed.Valence < 0.49 || decayed.Valence > 0.51 {
		t.Fatalf("expected valence ~0.5 after one half-life, got %v", decayed.Valence)
	}
}

func TestTrackerReadAppliesDecayLazily(t *testing.T) {
	start := time.Now()
	tr := NewTracker(models.Mood{Valence: 1, UpdatedAt: start}, Default, time.Hour)

	noChange := tr.Read(start)
	if noChange.Valence != 1 {
		t.Fatalf("expected no decay at t=0, got %v", noChange.Valence)
	}

	later := start.Add(time.Hour)
	decayed := tr.Read(later)
	if decayed.Valence >= 1 {
		t.Fatalf("expected decay after an hour, got %v", decayed.Valence)
	}
}
