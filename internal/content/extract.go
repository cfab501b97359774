package content

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ReactionExtraction is the parsed result of an extract_reaction task.
type ReactionExtraction struct {
	ReactionText string `json:"reaction_text"`
	Action       string `json:"action"` // reply|quote|like|ignore
	Content      string `json:"content"`
	Reasoning    string `json:"reasoning"`
}

// MemoryUpdateExtraction is the parsed result of an
// extract_memory_update task.
type MemoryUpdateExtraction struct {
	Memory         string  `json:"memory"`
	Importance     float64 `json:"importance"`
	Emotion        float64 `json:"emotion"`
	ValenceShift   float64 `json:"valence_shift"`
	ArousalShift   float64 `json:"arousal_shift"`
	DominanceShift float64 `json:"dominance_shift"`
}

// RelationshipUpdateExtraction is the parsed result of an
// extract_relationship_update task.
type RelationshipUpdateExtraction struct {
	SentimentChange   float64 `json:"sentiment_change"`
	FamiliarityChange float64 `json:"familiarity_change"`
	TrustChange       float64 `json:"trust_change"`
	Note              string  `json:"note"`
}

// jsonObjectPattern extracts the outermost {...} span from a provider
// response that may wrap JSON in prose or code fences, generalizing
// internal/agent/solace.go's ParseLLMDecision keyword-scan approach
// into a JSON-envelope extraction since extract_* tasks request
// structured output instead of free text.
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

func extractJSONObject(raw string) string {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	if m := jsonObjectPattern.FindString(trimmed); m != "" {
		return m
	}
	return trimmed
}

// parseReactionExtraction parses raw provider output into a
// ReactionExtraction, degrading to an "ignore" decision on any parse
// failure -- per §4.4's Non-goals, provider output is an opaque string
// and malformed JSON must never propagate as an error to the caller.
func parseReactionExtraction(raw string) ReactionExtraction {
	var r ReactionExtraction
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &r); err != nil {
		return ReactionExtraction{Action: "ignore", Reasoning: "failed to parse provider response"}
	}
	if r.Action == "" {
		r.Action = "ignore"
	}
	return r
}

// parseMemoryUpdateExtraction parses raw provider output, degrading to
// a low-importance neutral memory entry on parse failure.
func parseMemoryUpdateExtraction(raw string) MemoryUpdateExtraction {
	var m MemoryUpdateExtraction
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &m); err != nil {
		return MemoryUpdateExtraction{Memory: strings.TrimSpace(raw), Importance: 0.1}
	}
	return m
}

// parseRelationshipUpdateExtraction parses raw provider output,
// degrading to a no-op delta on parse failure.
func parseRelationshipUpdateExtraction(raw string) RelationshipUpdateExtraction {
	var r RelationshipUpdateExtraction
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &r); err != nil {
		return RelationshipUpdateExtraction{Note: "failed to parse provider response"}
	}
	return r
}
