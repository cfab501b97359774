package models

import "time"

// Mood is a three-component VAD (valence, arousal, dominance) emotional
// state. All three components live in [-1, 1]; callers must clamp on
// every update rather than trust an invariant held elsewhere.
type Mood struct {
	Valence   float64 `json:"valence"`
	Arousal   float64 `json:"arousal"`
	Dominance float64 `json:"dominance"`

	// UpdatedAt is the last time any component was written (used to
	// compute lazy decay toward DefaultMood on the next read).
	UpdatedAt time.Time `json:"updated_at"`
}

// Shift is a proposed (valence, arousal, dominance) delta extracted by
// the content pipeline from an event, each component in [-0.5, 0.5].
type Shift struct {
	Valence   float64
	Arousal   float64
	Dominance float64
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampShift restricts a shift's components to the contract in §4.3:
// each component of an extracted shift lies in [-0.5, 0.5].
func ClampShift(s Shift) Shift {
	return Shift{
		Valence:   clamp(s.Valence, -0.5, 0.5),
		Arousal:   clamp(s.Arousal, -0.5, 0.5),
		Dominance: clamp(s.Dominance, -0.5, 0.5),
	}
}

// Sum combines shifts within a single tick before clamping is applied,
// so that "mood shift is associative and commutative within a single
// tick" holds regardless of the order shifts were extracted in.
func Sum(shifts ...Shift) Shift {
	var total Shift
	for _, s := range shifts {
		total.Valence += s.Valence
		total.Arousal += s.Arousal
		total.Dominance += s.Dominance
	}
	return total
}
