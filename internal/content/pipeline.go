package content

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/agentruntime/runtime/internal/llmprovider"
	"github.com/agentruntime/runtime/internal/models"
)

// Context is the assembled snapshot §4.1 step 1 describes: everything
// the prompt builder and instruction need about the agent's current
// situation. Callers (internal/runtime) build this from the agent's
// mood tracker, memory store, and relationship graph.
type Context struct {
	Agent         models.Agent
	Mood          models.Mood
	Memories      []models.MemoryItem
	Relationships []models.Relationship
	TargetTweet   *models.Tweet // set for reply/quote/extract_* tasks
	HumanAuthored bool
}

// Result is one produced piece of content plus the bookkeeping the
// caller needs to gate, emit, and record it.
type Result struct {
	Content        string
	Task           Task
	RotatingIndex  *int
	OpeningStyle   string
	Constraint     Constraint
	UsedFallback   bool
	ReSampleCount  int
	MetaConfusionRemediated bool
}

// Pipeline ties prompt assembly, variety enforcement, provider
// invocation, and post-processing together to implement every §4.4
// task variant, grounded on internal/agent/solace.go's
// BuildReasoningPrompt/ParseLLMDecision pairing generalized from a
// single trading-decision call into this task-variant set.
type Pipeline struct {
	Provider  llmprovider.Provider
	Denylist  *OpeningDenylist
	Fallbacks *FallbackPicker
	Rand      *rand.Rand
}

// NewPipeline constructs a Pipeline over provider, wiring fresh variety
// and fallback state.
func NewPipeline(provider llmprovider.Provider, rng *rand.Rand) *Pipeline {
	return &Pipeline{
		Provider:  provider,
		Denylist:  NewOpeningDenylist(),
		Fallbacks: NewFallbackPicker(),
		Rand:      rng,
	}
}

func (p *Pipeline) contextSummary(c Context) string {
	var b strings.Builder
	b.WriteString("Current mood (valence/arousal/dominance): ")
	fmt.Fprintf(&b, "%.2f/%.2f/%.2f\n", c.Mood.Valence, c.Mood.Arousal, c.Mood.Dominance)
	if len(c.Memories) > 0 {
		b.WriteString("Relevant memories:\n")
		for _, m := range c.Memories {
			fmt.Fprintf(&b, "- (%s) %s\n", m.Kind, m.Content)
		}
	}
	if len(c.Relationships) > 0 {
		b.WriteString("Relationships:\n")
		for _, r := range c.Relationships {
			fmt.Fprintf(&b, "- %s: sentiment=%.2f trust=%.2f\n", r.TargetID, r.Sentiment, r.Trust)
		}
	}
	if c.TargetTweet != nil {
		fmt.Fprintf(&b, "Tweet you are responding to (from @%s): %q\n", c.TargetTweet.AuthorHandle, c.TargetTweet.Content)
		for _, anc := range c.TargetTweet.ThreadHistory {
			fmt.Fprintf(&b, "  earlier in thread (@%s): %q\n", anc.AuthorHandle, anc.Content)
		}
		if c.HumanAuthored {
			b.WriteString("This tweet was authored by a human, not an automated account.\n")
		}
	}
	return b.String()
}

// generate performs one provider call plus post-processing, without
// variety enforcement or meta-confusion handling -- used by the
// extract_* tasks which don't produce posted content.
func (p *Pipeline) generate(ctx context.Context, c Context, task Task, temperature float64, extraInstruction string) (string, error) {
	sel := SelectPrompt(c.Agent, p.Rand)
	prompt := sel.Prompt + "\n" + p.contextSummary(c)
	instruction := Instruction(task, extraInstruction)
	raw, err := p.Provider.Generate(ctx, prompt, instruction, llmprovider.GenerateParams{Temperature: temperature, MaxTokens: 400})
	if err != nil {
		return "", fmt.Errorf("content: generate %s: %w", task, err)
	}
	return PostProcess(raw), nil
}

// composeLike implements the shared shape of compose_post, compose_thread
// and quote: variety-enforced generation with denylist re-sampling, no
// meta-confusion handling (that failure mode is specific to replies
// that are handed a tweet to respond to).
func (p *Pipeline) composeLike(ctx context.Context, c Context, task Task) (Result, error) {
	sel := SelectPrompt(c.Agent, p.Rand)
	style := PickOpeningStyle(p.Rand)
	length := LengthTarget(p.Rand)
	constraint := MaybeConstraint(p.Rand)

	var content string
	resamples := 0
	// Replies start lower so Reply's remediation retry (0.7) runs at an
	// elevated temperature.
	temperature := 0.7
	if task == TaskReply {
		temperature = 0.5
	}
	for {
		extra := fmt.Sprintf("Open in a %s style. Aim for around %d characters or fewer.", style, length)
		if ci := ConstraintInstruction(constraint); ci != "" {
			extra += " " + ci
		}
		prompt := sel.Prompt + "\n" + p.contextSummary(c)
		raw, err := p.Provider.Generate(ctx, prompt, Instruction(task, extra), llmprovider.GenerateParams{Temperature: temperature, MaxTokens: 400})
		if err != nil {
			return Result{}, fmt.Errorf("content: generate %s: %w", task, err)
		}
		content = PostProcess(raw)
		if !p.Denylist.Matches(c.Agent.ID, content) || resamples >= DefaultMaxResamples {
			break
		}
		resamples++
	}
	p.Denylist.Record(c.Agent.ID, content)

	return Result{
		Content:       content,
		Task:          task,
		RotatingIndex: sel.RotatingIndex,
		OpeningStyle:  style,
		Constraint:    constraint,
		ReSampleCount: resamples,
	}, nil
}

// ComposePost implements the compose_post task variant (§4.4).
func (p *Pipeline) ComposePost(ctx context.Context, c Context) (Result, error) {
	return p.composeLike(ctx, c, TaskComposePost)
}

// ComposeThread implements compose_thread(N): n is the 1-indexed
// position of this post within the thread being composed.
func (p *Pipeline) ComposeThread(ctx context.Context, c Context, n int) (Result, error) {
	r, err := p.composeLike(ctx, c, TaskComposeThread)
	if err == nil {
		r.Content = strings.TrimSpace(r.Content)
	}
	_ = n // thread position is folded into the caller's prior-posts memory context
	return r, err
}

// Quote implements the quote task variant.
func (p *Pipeline) Quote(ctx context.Context, c Context) (Result, error) {
	return p.composeLike(ctx, c, TaskQuote)
}

// Reply implements the reply task variant, including §4.4's
// meta-confusion detection and single remediation retry, falling back
// to a canned response on persistent failure.
func (p *Pipeline) Reply(ctx context.Context, c Context) (Result, error) {
	r, err := p.composeLike(ctx, c, TaskReply)
	if err != nil {
		return Result{}, err
	}
	if !IsMetaConfusion(r.Content) {
		return r, nil
	}

	sel := SelectPrompt(c.Agent, p.Rand)
	prompt := sel.Prompt + "\n" + p.contextSummary(c)
	raw, genErr := p.Provider.Generate(ctx, prompt, Instruction(TaskReply, RemediationInstruction), llmprovider.GenerateParams{Temperature: 0.7, MaxTokens: 400})
	if genErr == nil {
		retried := PostProcess(raw)
		if !IsMetaConfusion(retried) {
			r.Content = retried
			r.MetaConfusionRemediated = true
			p.Denylist.Record(c.Agent.ID, retried)
			return r, nil
		}
	}

	r.Content = p.Fallbacks.Next(c.Agent.ID)
	r.UsedFallback = true
	r.MetaConfusionRemediated = true
	return r, nil
}

// ExtractReaction runs the extract_reaction task and parses the
// provider's JSON response, falling back to an "ignore" decision if
// parsing fails (§4.4 Non-goals: provider output is an opaque string,
// so a malformed response degrades gracefully rather than erroring the
// caller).
func (p *Pipeline) ExtractReaction(ctx context.Context, c Context) (ReactionExtraction, error) {
	raw, err := p.generate(ctx, c, TaskExtractReaction, 0.5, "")
	if err != nil {
		return ReactionExtraction{}, err
	}
	return parseReactionExtraction(raw), nil
}

// ExtractMemoryUpdate runs the extract_memory_update task.
func (p *Pipeline) ExtractMemoryUpdate(ctx context.Context, c Context) (MemoryUpdateExtraction, error) {
	raw, err := p.generate(ctx, c, TaskExtractMemoryUpdate, 0.5, "")
	if err != nil {
		return MemoryUpdateExtraction{}, err
	}
	return parseMemoryUpdateExtraction(raw), nil
}

// ExtractRelationshipUpdate runs the extract_relationship_update task.
func (p *Pipeline) ExtractRelationshipUpdate(ctx context.Context, c Context) (RelationshipUpdateExtraction, error) {
	raw, err := p.generate(ctx, c, TaskExtractRelationshipUpdate, 0.5, "")
	if err != nil {
		return RelationshipUpdateExtraction{}, err
	}
	return parseRelationshipUpdateExtraction(raw), nil
}
