// Package content implements the Content Pipeline (§4.4): prompt
// assembly and selection, provider invocation, post-processing (char
// limit, control-char stripping, meta-confusion remediation), and
// variety enforcement for self-initiated composition.
//
// Grounded on internal/agent/solace.go's BuildReasoningPrompt (prompt
// assembly from perception/memory/goals) and ParseLLMDecision (parsing
// a provider's free-text output into a structured decision), adapted
// from a single trading-decision prompt into the task-variant set
// §4.4 names, and on pkg/llm/client.go's retry/circuit-breaker wiring
// via internal/llmprovider.
package content

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/agentruntime/runtime/internal/models"
)

// Task identifies which of §4.4's task variants a pipeline call
// produces.
type Task string

const (
	TaskComposePost             Task = "compose_post"
	TaskComposeThread           Task = "compose_thread"
	TaskReply                   Task = "reply"
	TaskQuote                   Task = "quote"
	TaskExtractReaction         Task = "extract_reaction"
	TaskExtractMemoryUpdate     Task = "extract_memory_update"
	TaskExtractRelationshipUpdate Task = "extract_relationship_update"
)

// PromptSelection is the result of §4.1 step 2: which system prompt
// was used, and (if a rotating set was configured) which index, so it
// can be recorded in the resulting post's metadata.
type PromptSelection struct {
	Prompt        string
	RotatingIndex *int
}

// SelectPrompt implements the precedence: rotating set (uniform random
// pick, index recorded) > custom prompt > synthesized from
// personality+style.
func SelectPrompt(agent models.Agent, rng *rand.Rand) PromptSelection {
	if len(agent.RotatingSystemPrompts) > 0 {
		idx := rng.Intn(len(agent.RotatingSystemPrompts))
		return PromptSelection{Prompt: agent.RotatingSystemPrompts[idx], RotatingIndex: &idx}
	}
	if agent.CustomSystemPrompt != "" {
		return PromptSelection{Prompt: agent.CustomSystemPrompt}
	}
	return PromptSelection{Prompt: SynthesizePrompt(agent)}
}

// SynthesizePrompt builds a system prompt from an agent's personality
// and style guide when no custom/rotating prompt is configured.
func SynthesizePrompt(agent models.Agent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s. %s\n", agent.DisplayName, agent.Description)

	p := agent.Personality
	if len(p.Traits) > 0 {
		fmt.Fprintf(&b, "Your traits: %s.\n", strings.Join(p.Traits, ", "))
	}
	if len(p.Values) > 0 {
		fmt.Fprintf(&b, "You value: %s.\n", strings.Join(p.Values, ", "))
	}
	if p.SpeakingStyle != "" {
		fmt.Fprintf(&b, "You speak in this style: %s.\n", p.SpeakingStyle)
	}
	if len(p.Interests) > 0 {
		fmt.Fprintf(&b, "Your interests: %s.\n", strings.Join(p.Interests, ", "))
	}
	if len(p.Quirks) > 0 {
		fmt.Fprintf(&b, "Your quirks: %s.\n", strings.Join(p.Quirks, ", "))
	}

	style := agent.Style
	fmt.Fprintf(&b, "Voice: %s. Tone: %s. Capitalization: %s. Sentence length: %s.\n",
		coalesce(string(style.Voice), string(p.Voice)), coalesce(string(style.Tone), string(p.Tone)),
		string(style.Capitalization), string(style.SentenceLength))
	if style.EmojiFrequency != "" {
		fmt.Fprintf(&b, "Use emoji/hashtags at a %s frequency.\n", style.EmojiFrequency)
	}
	if len(style.ForbiddenTopics) > 0 {
		fmt.Fprintf(&b, "Never discuss: %s.\n", strings.Join(style.ForbiddenTopics, ", "))
	}
	b.WriteString("Never break character, never mention you are an AI or a language model.\n")
	return b.String()
}

func coalesce(primary, fallback string) string {
	if primary != "" {
		return primary
	}
	return fallback
}

// Instruction builds the task-specific instruction appended to the
// system prompt for a given task (§4.1 step 3: "assembled prompt +
// task-specific instruction").
func Instruction(task Task, extra string) string {
	base := map[Task]string{
		TaskComposePost:               "Write a single standalone post for your own feed. Do not address anyone.",
		TaskComposeThread:             "Write the next post in a thread you are composing. Keep it self-contained but continue the idea.",
		TaskReply:                     "Write a reply to the tweet you were given. Engage directly with its content.",
		TaskQuote:                     "Write a short quote-comment to add above the tweet you were given.",
		TaskExtractReaction:           "Decide how to react to the tweet you were given. Respond with a JSON object: {\"reaction_text\":string,\"action\":\"reply\"|\"quote\"|\"like\"|\"ignore\",\"content\":string,\"reasoning\":string}.",
		TaskExtractMemoryUpdate:       "Summarize what you should remember from this event. Respond with a JSON object: {\"memory\":string,\"importance\":number 0-1,\"emotion\":number -1..1,\"valence_shift\":number,\"arousal_shift\":number,\"dominance_shift\":number}.",
		TaskExtractRelationshipUpdate: "Evaluate how this interaction should change your relationship with the target. Respond with a JSON object: {\"sentiment_change\":number,\"familiarity_change\":number,\"trust_change\":number,\"note\":string}.",
	}[task]
	if extra == "" {
		return base
	}
	return base + " " + extra
}
