package content

import (
	"regexp"
	"strings"
	"sync"
	"unicode"
)

// PlatformCharLimit is the hard platform character limit (§4.1 step 4).
const PlatformCharLimit = 280

// EnforceCharLimit truncates s to limit runes, preferring a clean
// word boundary when the cut would otherwise split a word.
func EnforceCharLimit(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	cut := string(runes[:limit])
	if idx := strings.LastIndexAny(cut, " \n\t"); idx > limit/2 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}

// StripControlChars removes non-printable control characters (other
// than newline/tab) that a provider might emit.
func StripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// PostProcess applies the full §4.1 step 4 pipeline to raw provider
// output (minus meta-confusion handling, which needs pipeline-level
// re-invocation and lives in pipeline.go).
func PostProcess(raw string) string {
	s := StripControlChars(raw)
	s = strings.TrimSpace(s)
	return EnforceCharLimit(s, PlatformCharLimit)
}

// metaConfusionPatterns are language-agnostic-concept regexes for the
// "what tweet/which tweet/what context/what are you referring to"
// failure mode (§4.4).
var metaConfusionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bwhat tweet\b`),
	regexp.MustCompile(`(?i)\bwhich tweet\b`),
	regexp.MustCompile(`(?i)\bwhat context\b`),
	regexp.MustCompile(`(?i)\bwhat are you referring to\b`),
	regexp.MustCompile(`(?i)\bwhat are you (even )?talking about\b`),
	regexp.MustCompile(`(?i)\bi('m| am) not sure what (you('re| are) )?(talking|referring) about\b`),
	regexp.MustCompile(`(?i)\bcan you clarify what (tweet|post|context)\b`),
}

// IsMetaConfusion reports whether content exhibits the meta-confusion
// failure mode: a reply that asks the reader what it's replying to
// instead of engaging with the supplied context.
func IsMetaConfusion(content string) bool {
	for _, re := range metaConfusionPatterns {
		if re.MatchString(content) {
			return true
		}
	}
	return false
}

// RemediationInstruction is appended (at elevated temperature) on the
// one permitted re-try after meta-confusion is detected.
const RemediationInstruction = "Do not ask what tweet or context you are responding to -- you already have it. Write a standalone, engaging reply that directly addresses the content you were given."

// cannedFallbacks is the pool of generic safe replies used when
// remediation also fails detection. A pool of >=5 avoids an observer
// spotting a single repeated fallback string (recovered from
// original_source/, supplementing spec.md's single-fallback wording).
var cannedFallbacks = []string{
	"haha fair point",
	"can't argue with that",
	"this is the content I'm here for",
	"noted, and I respect it",
	"that's one way to put it",
	"love this energy",
}

// FallbackPicker rotates through the canned fallback pool per agent so
// the same fallback isn't visibly repeated back to back.
type FallbackPicker struct {
	mu  sync.Mutex
	idx map[string]int
}

func NewFallbackPicker() *FallbackPicker {
	return &FallbackPicker{idx: make(map[string]int)}
}

// Next returns the next canned fallback for agentID, round-robin.
func (f *FallbackPicker) Next(agentID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.idx[agentID] % len(cannedFallbacks)
	f.idx[agentID] = i + 1
	return cannedFallbacks[i]
}
