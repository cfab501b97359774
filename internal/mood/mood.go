// Package mood implements the VAD mood vector's clamped update and
// lazy half-life decay toward a configured default, per the runtime's
// mood model. There is no teacher analog for an emotional state vector
// (ares_api has no mood concept); the clamped-update style below
// follows the same defensive-clamp idiom the teacher's cognitive loop
// uses for its own state transitions.
package mood

import (
	"math"
	"time"

	"github.com/agentruntime/runtime/internal/models"
)

// DefaultHalfLife is the design-recommended decay half-life: a mood
// read after an idle gap drifts halfway back to Default every 6h.
const DefaultHalfLife = 6 * time.Hour

// Default is the at-rest mood every agent decays toward absent any
// configured override.
var Default = models.Mood{Valence: 0, Arousal: 0, Dominance: 0}

// Decay applies lazy half-life decay to m as of `now`, returning the
// decayed mood. It does not mutate m; callers store the result back
// via Tracker.
func Decay(m models.Mood, target models.Mood, halfLife time.Duration, now time.Time) models.Mood {
	if m.UpdatedAt.IsZero() || halfLife <= 0 {
		m.UpdatedAt = now
		return m
	}
	elapsed := now.Sub(m.UpdatedAt)
	if elapsed <= 0 {
		return m
	}
	// Exponential decay toward target: value(t) = target + (value0-target) * 0.5^(t/halfLife)
	factor := math.Pow(0.5, elapsed.Seconds()/halfLife.Seconds())
	return models.Mood{
		Valence:   target.Valence + (m.Valence-target.Valence)*factor,
		Arousal:   target.Arousal + (m.Arousal-target.Arousal)*factor,
		Dominance: target.Dominance + (m.Dominance-target.Dominance)*factor,
		UpdatedAt: now,
	}
}

// Apply sums shifts (so the combination is associative/commutative
// within one tick), clamps each shift component to [-0.5, 0.5], adds
// it to m, and clamps the result to [-1, 1].
func Apply(m models.Mood, now time.Time, shifts ...models.Shift) models.Mood {
	total := models.Sum(shifts...)
	clamped := models.ClampShift(total)

	result := models.Mood{
		Valence:   clampUnit(m.Valence + clamped.Valence),
		Arousal:   clampUnit(m.Arousal + clamped.Arousal),
		Dominance: clampUnit(m.Dominance + clamped.Dominance),
		UpdatedAt: now,
	}
	return result
}

func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

// Tracker owns a single agent's mood, serializing reads/updates to
// honor the per-agent, lock-free-between-suspension-points ownership
// rule: the Agent Runtime actor is the only caller, so Tracker itself
// holds no internal lock.
type Tracker struct {
	Target   models.Mood
	HalfLife time.Duration
	current  models.Mood
}

// NewTracker seeds a Tracker at the given starting mood.
func NewTracker(start models.Mood, target models.Mood, halfLife time.Duration) *Tracker {
	if halfLife <= 0 {
		halfLife = DefaultHalfLife
	}
	if start.UpdatedAt.IsZero() {
		start.UpdatedAt = time.Now()
	}
	return &Tracker{Target: target, HalfLife: halfLife, current: start}
}

// Read returns the mood after applying lazy decay as of now.
func (t *Tracker) Read(now time.Time) models.Mood {
	t.current = Decay(t.current, t.Target, t.HalfLife, now)
	return t.current
}

// Shift applies one or more shifts on top of the decayed mood and
// stores the result.
func (t *Tracker) Shift(now time.Time, shifts ...models.Shift) models.Mood {
	decayed := Decay(t.current, t.Target, t.HalfLife, now)
	t.current = Apply(decayed, now, shifts...)
	return t.current
}
