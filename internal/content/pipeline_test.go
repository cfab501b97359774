package content

import (
	"context"
	"math/rand"
	"testing"

	"github.com/agentruntime/runtime/internal/llmprovider"
	"github.com/agentruntime/runtime/internal/models"
)

func testAgent() models.Agent {
	return models.Agent{
		ID:          "agent-1",
		DisplayName: "Nova",
		Description: "a curious observer of internet culture",
		Personality: models.Personality{
			Traits: []string{"curious", "witty"},
		},
	}
}

func TestComposePostProducesContent(t *testing.T) {
	provider := llmprovider.NewFakeProvider("just a normal post about the weather today")
	p := NewPipeline(provider, rand.New(rand.NewSource(1)))

	res, err := p.ComposePost(context.Background(), Context{Agent: testAgent(), Mood: models.Mood{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Content == "" {
		t.Fatalf("expected non-empty content")
	}
	if res.Task != TaskComposePost {
		t.Fatalf("expected task=compose_post, got %v", res.Task)
	}
}

func TestReplyNoMetaConfusionReturnsFirstAttempt(t *testing.T) {
	provider := llmprovider.NewFakeProvider("totally agree, that's a great point")
	p := NewPipeline(provider, rand.New(rand.NewSource(2)))
	target := models.Tweet{ID: "t1", AuthorHandle: "bob", Content: "coffee is overrated"}

	res, err := p.Reply(context.Background(), Context{Agent: testAgent(), TargetTweet: &target})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.MetaConfusionRemediated || res.UsedFallback {
		t.Fatalf("expected no remediation needed, got %+v", res)
	}
}

func TestReplyRemediatesMetaConfusionOnRetry(t *testing.T) {
	provider := llmprovider.NewFakeProvider(
		"wait, what tweet are you referring to?",
		"oh totally, coffee is great actually",
	)
	p := NewPipeline(provider, rand.New(rand.NewSource(3)))
	target := models.Tweet{ID: "t1", AuthorHandle: "bob", Content: "coffee is overrated"}

	res, err := p.Reply(context.Background(), Context{Agent: testAgent(), TargetTweet: &target})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.MetaConfusionRemediated {
		t.Fatalf("expected remediation flag set")
	}
	if res.UsedFallback {
		t.Fatalf("expected retry to succeed without falling back")
	}
	if IsMetaConfusion(res.Content) {
		t.Fatalf("expected remediated content to pass detection, got %q", res.Content)
	}
}

func TestReplyFallsBackOnPersistentMetaConfusion(t *testing.T) {
	provider := llmprovider.NewFakeProvider(
		"what tweet is this about",
		"sorry, which tweet do you mean exactly",
	)
	p := NewPipeline(provider, rand.New(rand.NewSource(4)))
	target := models.Tweet{ID: "t1", AuthorHandle: "bob", Content: "coffee is overrated"}

	res, err := p.Reply(context.Background(), Context{Agent: testAgent(), TargetTweet: &target})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.UsedFallback {
		t.Fatalf("expected fallback to be used after persistent meta-confusion")
	}
	found := false
	for _, c := range cannedFallbacks {
		if res.Content == c {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected content to be a canned fallback, got %q", res.Content)
	}
}

func TestExtractReactionParsesProviderJSON(t *testing.T) {
	provider := llmprovider.NewFakeProvider(`{"reaction_text":"nice","action":"like","content":"","reasoning":"short and positive"}`)
	p := NewPipeline(provider, rand.New(rand.NewSource(5)))
	target := models.Tweet{ID: "t1", AuthorHandle: "bob", Content: "look at this sunset"}

	r, err := p.ExtractReaction(context.Background(), Context{Agent: testAgent(), TargetTweet: &target})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Action != "like" {
		t.Fatalf("expected action=like, got %+v", r)
	}
}

func TestSelectPromptPrefersRotatingOverCustom(t *testing.T) {
	agent := testAgent()
	agent.CustomSystemPrompt = "custom prompt"
	agent.RotatingSystemPrompts = []string{"rotating A", "rotating B"}

	sel := SelectPrompt(agent, rand.New(rand.NewSource(6)))
	if sel.RotatingIndex == nil {
		t.Fatalf("expected rotating index to be set")
	}
	if sel.Prompt != "rotating A" && sel.Prompt != "rotating B" {
		t.Fatalf("expected one of the rotating prompts, got %q", sel.Prompt)
	}
}
