package content

import (
	"math/rand"
	"testing"
)

func TestLengthTargetBiasTowardShort(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	short := 0
	const n = 2000
	for i := 0; i < n; i++ {
		if LengthTarget(rng) == 100 {
			short++
		}
	}
	ratio := float64(short) / n
	if ratio < 0.5 || ratio > 0.7 {
		t.Fatalf("expected short-length ratio near 0.6, got %v", ratio)
	}
}

func TestMaybeConstraintProbability(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	hits := 0
	const n = 3000
	for i := 0; i < n; i++ {
		if MaybeConstraint(rng) != ConstraintNone {
			hits++
		}
	}
	ratio := float64(hits) / n
	if ratio < 0.12 || ratio > 0.28 {
		t.Fatalf("expected constraint injection ratio near 0.2, got %v", ratio)
	}
}

func TestOpeningDenylistMatchesWithinWindow(t *testing.T) {
	d := NewOpeningDenylist()
	d.Record("agent-1", "just had the most incredible thought about coffee")
	if !d.Matches("agent-1", "just had the most ridiculous day honestly") {
		t.Fatalf("expected collision on shared 4-word opening phrase")
	}
}

func TestOpeningDenylistEvictsOutsideWindow(t *testing.T) {
	d := NewOpeningDenylist()
	for i := 0; i < 25; i++ {
		d.Record("agent-1", "phrase number filler words here")
	}
	d.Record("agent-1", "totally unrelated opening words now")
	if len(d.recent["agent-1"]) != 20 {
		t.Fatalf("expected window capped at 20, got %d", len(d.recent["agent-1"]))
	}
}

func TestOpeningDenylistPerAgentIsolation(t *testing.T) {
	d := NewOpeningDenylist()
	d.Record("agent-1", "this is my opening phrase today")
	if d.Matches("agent-2", "this is my opening phrase today") {
		t.Fatalf("expected no cross-agent collision")
	}
}
