package content

import "testing"

func TestEnforceCharLimitNoop(t *testing.T) {
	if got := EnforceCharLimit("short", 280); got != "short" {
		t.Fatalf("expected unchanged, got %q", got)
	}
}

func TestEnforceCharLimitTruncatesAtWordBoundary(t *testing.T) {
	s := "one two three four five six seven eight nine ten"
	got := EnforceCharLimit(s, 20)
	if len([]rune(got)) > 20 {
		t.Fatalf("expected <=20 runes, got %d: %q", len([]rune(got)), got)
	}
	if got[len(got)-1] == ' ' {
		t.Fatalf("expected trimmed result, got trailing space: %q", got)
	}
}

func TestStripControlCharsKeepsNewlinesAndTabs(t *testing.T) {
	in := "line one\nline\ttwo\x00\x07"
	got := StripControlChars(in)
	if got != "line one\nline\ttwo" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestIsMetaConfusionDetectsKnownPhrases(t *testing.T) {
	cases := []string{
		"wait, what tweet are you even talking about?",
		"Which tweet is this in reference to?",
		"I'm not sure what context you mean",
		"what are you referring to here",
	}
	for _, c := range cases {
		if !IsMetaConfusion(c) {
			t.Fatalf("expected meta-confusion detection for %q", c)
		}
	}
}

func TestIsMetaConfusionIgnoresNormalReplies(t *testing.T) {
	if IsMetaConfusion("totally agree, that's wild") {
		t.Fatalf("expected normal reply not flagged")
	}
}

func TestFallbackPickerRotatesRoundRobin(t *testing.T) {
	fp := NewFallbackPicker()
	seen := make(map[string]bool)
	for i := 0; i < len(cannedFallbacks); i++ {
		seen[fp.Next("agent-1")] = true
	}
	if len(seen) != len(cannedFallbacks) {
		t.Fatalf("expected %d distinct fallbacks in one rotation, got %d", len(cannedFallbacks), len(seen))
	}
	// Rotation wraps and repeats identically per agent.
	if got := fp.Next("agent-1"); got != cannedFallbacks[0] {
		t.Fatalf("expected rotation to wrap to first entry, got %q", got)
	}
}

func TestFallbackPickerIndependentPerAgent(t *testing.T) {
	fp := NewFallbackPicker()
	fp.Next("agent-1")
	if got := fp.Next("agent-2"); got != cannedFallbacks[0] {
		t.Fatalf("expected agent-2 to start at index 0, got %q", got)
	}
}
