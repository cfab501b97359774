package runtime

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/agentruntime/runtime/internal/content"
	"github.com/agentruntime/runtime/internal/events"
	"github.com/agentruntime/runtime/internal/gates"
	"github.com/agentruntime/runtime/internal/llmprovider"
	"github.com/agentruntime/runtime/internal/memory"
	"github.com/agentruntime/runtime/internal/microblog"
	"github.com/agentruntime/runtime/internal/models"
)

func testAgent(id string) models.Agent {
	return models.Agent{
		ID:          id,
		DisplayName: "Nova",
		Personality: models.Personality{Traits: []string{"curious"}},
		Behavior: models.Behavior{
			PostFrequency: models.PostFrequency{MinHours: 1, MaxHours: 2},
			Interaction:   models.InteractionPatterns{ReplyProbability: 1, LikeProbability: 1},
			Trading:       models.TradingBehavior{Enabled: false},
		},
	}
}

func newTestActor(t *testing.T, agent models.Agent, provider llmprovider.Provider, client microblog.Client) *Actor {
	t.Helper()
	engine := events.New(0, 0)
	store := memory.NewStore(0, nil)
	pipeline := content.NewPipeline(provider, rand.New(rand.NewSource(1)))
	rateGate := gates.NewRateGate()
	tradeGate := gates.NewTradingSafetyGate(nil, nil, nil)
	return NewActor(agent, engine, store, pipeline, client, rateGate, tradeGate, nil, nil, nil, rand.New(rand.NewSource(42)))
}

func TestHandleSelfTickPostsWhenDue(t *testing.T) {
	agent := testAgent("agent-1")
	provider := llmprovider.NewFakeProvider("a post about today")
	client := microblog.NewFakeClient("nova")
	a := newTestActor(t, agent, provider, client)

	a.handleSelfTick(context.Background())

	if a.getLastPostTime().IsZero() {
		t.Fatalf("expected lastPostTime to be updated after a self-tick post")
	}
	if a.State() != StateCooling {
		t.Fatalf("expected actor to enter cooling after posting, got %v", a.State())
	}
}

func TestHandleSelfTickNoOpWhenNotIdle(t *testing.T) {
	agent := testAgent("agent-2")
	provider := llmprovider.NewFakeProvider("should not be used")
	client := microblog.NewFakeClient("nova")
	a := newTestActor(t, agent, provider, client)
	a.setState(StateComposing)

	a.handleSelfTick(context.Background())

	if provider.Calls() != 0 {
		t.Fatalf("expected no provider calls while not idle, got %d", provider.Calls())
	}
}

func TestHandleMentionReplies(t *testing.T) {
	agent := testAgent("agent-3")
	provider := llmprovider.NewFakeProvider("totally agree with that take")
	client := microblog.NewFakeClient("nova")
	a := newTestActor(t, agent, provider, client)

	target := models.Tweet{ID: "t1", AuthorID: "bob", AuthorHandle: "bob", Content: "coffee is overrated"}
	ev := models.NewEvent(models.EventMentionReceived, models.JSONB{"tweet": target, "human_authored": true}, models.PriorityNormal, agent.ID)

	a.handleMention(context.Background(), ev)

	if a.State() != StateCooling {
		t.Fatalf("expected cooling after handling a mention, got %v", a.State())
	}
	rel := a.memStore.Relationship(agent.ID, "bob")
	if rel.Familiarity <= 0 {
		t.Fatalf("expected a relationship bump after replying, got %+v", rel)
	}
}

func TestExecuteTradeDeniedWithoutAllowedTokens(t *testing.T) {
	agent := testAgent("agent-4")
	agent.Behavior.Trading = models.TradingBehavior{
		Enabled:               true,
		RandomProbability:     1,
		MinHoursBetweenTrades: 1,
		MaxHoursBetweenTrades: 1,
		MaxTradeAmountPerTx:   1,
		MaxDailyTrades:        5,
		MaxDailyVolume:        10,
		MinWalletBalance:      0,
		MaxSlippagePercent:    5,
	}
	provider := llmprovider.NewFakeProvider("n/a")
	client := microblog.NewFakeClient("nova")
	a := newTestActor(t, agent, provider, client)

	a.handleTradingTick(context.Background())

	if a.State() != StateCooling {
		t.Fatalf("expected cooling after a trading tick attempt, got %v", a.State())
	}
}

func TestNextPostDelayHalvesDuringPeakHour(t *testing.T) {
	agent := testAgent("agent-5")
	agent.Behavior.PostFrequency = models.PostFrequency{MinHours: 4, MaxHours: 4, PeakHours: []int{12}}
	a := newTestActor(t, agent, llmprovider.NewFakeProvider("x"), microblog.NewFakeClient("nova"))

	peak := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	off := time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC)

	peakDelay := a.nextPostDelay(peak)
	offDelay := a.nextPostDelay(off)

	if peakDelay >= offDelay {
		t.Fatalf("expected peak-hour delay (%v) to be shorter than off-peak delay (%v)", peakDelay, offDelay)
	}
}

func TestMoodShiftEventAppliesShift(t *testing.T) {
	agent := testAgent("agent-6")
	a := newTestActor(t, agent, llmprovider.NewFakeProvider("x"), microblog.NewFakeClient("nova"))

	before := a.Mood().Valence
	ev := models.NewEvent(models.EventMoodShift, models.JSONB{"valence_shift": 0.3, "arousal_shift": 0.0, "dominance_shift": 0.0}, models.PriorityLow, agent.ID)
	a.handleMoodShiftEvent(ev)
	after := a.Mood().Valence

	if after <= before {
		t.Fatalf("expected valence to increase after a positive mood shift, before=%v after=%v", before, after)
	}
}
