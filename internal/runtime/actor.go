package runtime

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agentruntime/runtime/internal/chain"
	"github.com/agentruntime/runtime/internal/content"
	"github.com/agentruntime/runtime/internal/events"
	"github.com/agentruntime/runtime/internal/gates"
	"github.com/agentruntime/runtime/internal/memory"
	"github.com/agentruntime/runtime/internal/microblog"
	"github.com/agentruntime/runtime/internal/models"
	"github.com/agentruntime/runtime/internal/mood"
)

// providerDeadline is the per-call deadline from §4.1 step 3 / §5.
const providerDeadline = 30 * time.Second

// shutdownGrace bounds how long an in-flight action may run past a
// cancellation signal before it is abandoned (§4.1, §5).
const shutdownGrace = 15 * time.Second

// Actor is the single cooperative actor that owns one agent's Mood,
// MemoryItem set, Relationships, and TradingSafetyState exclusively.
// All mutation arrives as an Event dispatched to it by *events.Engine,
// which serializes per-target-agent invocation (internal/events.Engine's
// withAgentLock) -- so Actor's handlers never need their own lock for
// the event path. A lightweight RWMutex guards the same state for
// concurrent Control-API reads that happen outside that serialized
// path.
type Actor struct {
	Agent models.Agent

	mu           sync.RWMutex
	state        State
	mood         *mood.Tracker
	trading      models.TradingSafetyState
	lastPostTime time.Time
	tradingOff   bool // set on a permanent credential error, per §7

	memStore  *memory.Store
	engine    *events.Engine
	pipeline  *content.Pipeline
	client    microblog.Client
	rateGate  *gates.RateGate
	cadence   gates.CadenceGate
	tradeGate *gates.TradingSafetyGate
	chainCli  *chain.Client
	launcher  *chain.Launcher
	trending  *chain.TrendingTracker

	rng      *rand.Rand
	localSeq uint64
}

// NewActor constructs an Actor. rng should be seeded deterministically
// per-agent by the caller (Manager) for reproducible tests.
func NewActor(agent models.Agent, engine *events.Engine, memStore *memory.Store, pipeline *content.Pipeline, client microblog.Client, rateGate *gates.RateGate, tradeGate *gates.TradingSafetyGate, chainCli *chain.Client, launcher *chain.Launcher, trending *chain.TrendingTracker, rng *rand.Rand) *Actor {
	return &Actor{
		Agent:        agent,
		state:        StateIdle,
		mood:         mood.NewTracker(agent.Mood, mood.Default, mood.DefaultHalfLife),
		trading:      models.TradingSafetyState{AgentID: agent.ID, TradingEnabled: true},
		lastPostTime: agent.LastPostTime,
		memStore:     memStore,
		engine:       engine,
		pipeline:     pipeline,
		client:       client,
		rateGate:     rateGate,
		tradeGate:    tradeGate,
		chainCli:     chainCli,
		launcher:     launcher,
		trending:     trending,
		rng:          rng,
	}
}

// HydrateTradingState overwrites the actor's trading-safety counters
// with a durable row loaded at boot (daily counters, wallet balance).
// Called once before the actor starts ticking; never concurrent with
// event dispatch.
func (a *Actor) HydrateTradingState(state models.TradingSafetyState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.trading = state
}

// State returns the actor's current state (safe for concurrent reads).
func (a *Actor) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

func (a *Actor) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// Mood returns the agent's current mood after lazy decay.
func (a *Actor) Mood() models.Mood {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mood.Read(time.Now())
}

// TradingState returns a snapshot of the agent's trading counters.
func (a *Actor) TradingState() models.TradingSafetyState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.trading
}

// nextSeq returns a monotonically increasing local sequence used by
// idempotency key generation.
func (a *Actor) nextSeq() uint64 {
	a.mu.Lock()
	a.localSeq++
	seq := a.localSeq
	a.mu.Unlock()
	return seq
}

// Handle dispatches one event targeted at this actor. It is invoked by
// the Manager's engine subscription, which already serializes
// invocations per target agent.
func (a *Actor) Handle(ctx context.Context, ev models.Event) {
	if a.State() == StateStopped {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, providerDeadline+shutdownGrace)
	defer cancel()

	switch ev.Type {
	case models.EventSelfTick:
		a.handleSelfTick(ctx)
	case models.EventTradingTick:
		a.handleTradingTick(ctx)
	case models.EventMentionReceived:
		a.handleMention(ctx, ev)
	case models.EventManualPost:
		a.handleManualPost(ctx, ev)
	case models.EventManualReply:
		a.handleManualReply(ctx, ev)
	case models.EventMoodShift:
		a.handleMoodShiftEvent(ev)
	default:
		log.Printf("[RUNTIME][WARN] agent=%s unknown event type=%s", a.Agent.ID, ev.Type)
	}
}

// Stop transitions the actor to Stopped; in-flight handlers already
// running are not interrupted (the caller's ctx deadline/cancellation
// handles that), but no further events are processed.
func (a *Actor) Stop() {
	a.setState(StateStopped)
}

// --- self-initiated posting --------------------------------------------

func (a *Actor) nextPostDelay(now time.Time) time.Duration {
	pf := a.Agent.Behavior.PostFrequency
	minH, maxH := pf.MinHours, pf.MaxHours
	if maxH <= 0 {
		maxH = minH
	}
	if maxH < minH {
		maxH = minH
	}
	delta := minH
	if maxH > minH {
		delta = minH + a.rng.Float64()*(maxH-minH)
	}
	for _, h := range pf.PeakHours {
		if h == now.Hour() {
			delta /= 2
			break
		}
	}
	jitter := time.Duration(a.rng.Intn(5*60)) * time.Second
	return time.Duration(delta*float64(time.Hour)) + jitter
}

func (a *Actor) handleSelfTick(ctx context.Context) {
	if a.State() != StateIdle {
		a.scheduleSelfTick(time.Minute)
		return
	}
	now := time.Now()
	a.mu.RLock()
	last := a.lastPostTime
	a.mu.RUnlock()

	delay := a.nextPostDelay(now)
	if now.Before(last.Add(delay)) {
		remaining := last.Add(delay).Sub(now)
		if remaining > time.Minute {
			remaining = time.Minute
		}
		a.scheduleSelfTick(remaining)
		return
	}

	a.setState(StateComposing)
	a.composeAndEmit(ctx, content.TaskComposePost, nil, false, false)
	a.enterCooling()
}

func (a *Actor) scheduleSelfTick(delay time.Duration) {
	a.engine.Schedule(models.NewEvent(models.EventSelfTick, nil, models.PriorityNormal, a.Agent.ID), delay)
}

func (a *Actor) enterCooling() {
	a.setState(StateCooling)
	pf := a.Agent.Behavior.PostFrequency
	cooldown := time.Duration(pf.MinHours/4*float64(time.Hour))
	if cooldown < 60*time.Second {
		cooldown = 60 * time.Second
	}
	a.engine.Schedule(models.NewEvent(models.EventSelfTick, nil, models.PriorityLow, a.Agent.ID), cooldown)
	// Cooling -> Idle is implicit: the next self.tick handler runs with
	// state back at whatever it finds; we flip it here rather than wait
	// since nothing else mutates state during the cooldown window.
	time.AfterFunc(cooldown, func() {
		if a.State() == StateCooling {
			a.setState(StateIdle)
		}
	})
}

// --- trading -------------------------------------------------------------

func (a *Actor) nextTradeDelay() time.Duration {
	tb := a.Agent.Behavior.Trading
	minH, maxH := tb.MinHoursBetweenTrades, tb.MaxHoursBetweenTrades
	if maxH < minH {
		maxH = minH
	}
	delta := minH
	if maxH > minH {
		delta = minH + a.rng.Float64()*(maxH-minH)
	}
	return time.Duration(delta * float64(time.Hour))
}

func (a *Actor) handleTradingTick(ctx context.Context) {
	tb := a.Agent.Behavior.Trading
	if !tb.Enabled {
		return
	}
	a.mu.Lock()
	off := a.tradingOff
	a.trading.ResetIfNewDay(time.Now())
	state := a.trading
	a.mu.Unlock()
	if off {
		return
	}

	if a.State() != StateIdle {
		a.scheduleTradingTick(time.Minute)
		return
	}

	if a.rng.Float64() >= tb.RandomProbability {
		a.scheduleTradingTick(a.nextTradeDelay())
		return
	}

	a.setState(StateTrading)
	a.executeTrade(ctx, state)
	a.enterCooling()
	a.scheduleTradingTick(a.nextTradeDelay())
}

func (a *Actor) scheduleTradingTick(delay time.Duration) {
	a.engine.Schedule(models.NewEvent(models.EventTradingTick, nil, models.PriorityNormal, a.Agent.ID), delay)
}

func (a *Actor) pickTradeToken(tb models.TradingBehavior) string {
	candidates := append([]string{}, tb.AllowedTokens...)
	if a.trending != nil {
		candidates = append(candidates, a.trending.Current()...)
	}
	if len(candidates) == 0 {
		return ""
	}
	return candidates[a.rng.Intn(len(candidates))]
}

func (a *Actor) executeTrade(ctx context.Context, state models.TradingSafetyState) {
	tb := a.Agent.Behavior.Trading
	mint := a.pickTradeToken(tb)
	if mint == "" {
		a.recordMemory(models.MemoryKindEvent, "no eligible token to trade this cycle", 0.1, 0)
		return
	}

	amount := tb.MaxTradeAmountPerTx
	intent := gates.TradingIntent{
		AmountNative:        amount,
		WalletBalanceNative: state.WalletBalanceNative,
		QuotedSlippagePct:   0,
		TokenMint:           mint,
	}

	var quote *chain.Quote
	if a.chainCli != nil {
		amountLamports := chain.ConvertToLamports(decimal.NewFromFloat(amount))
		var err error
		quote, err = a.chainCli.GetQuote(ctx, chain.SOLAddress, mint, amountLamports, int(tb.MaxSlippagePercent*100))
		if err != nil {
			a.recordMemory(models.MemoryKindEvent, fmt.Sprintf("trade quote failed: %v", err), 0.2, -0.1)
			return
		}
		if pct, perr := decimal.NewFromString(quote.PriceImpactPct); perr == nil {
			impact, _ := pct.Float64()
			intent.QuotedSlippagePct = impact * 100
		}
	}

	decision := a.tradeGate.Check(state, tb, intent)
	if !decision.Allowed {
		a.engine.Enqueue(models.NewEvent(models.EventTradeDenied, models.JSONB{"reason": string(decision.Reason)}, models.PriorityNormal, a.Agent.ID))
		a.recordMemory(models.MemoryKindEvent, fmt.Sprintf("trade denied: %s", decision.Reason), 0.1, -0.05)
		return
	}

	a.mu.Lock()
	gates.Reserve(&a.trading, amount)
	a.mu.Unlock()

	// Submission builds the signable swap transaction; broadcasting it
	// over the Solana RPC is the out-of-core-scope blockchain-RPC
	// collaborator (§1) and is not this actor's responsibility.
	if a.chainCli != nil && quote != nil {
		if _, err := a.chainCli.GetSwapTransaction(ctx, quote, a.Agent.Credentials.SolanaPrivateKey); err != nil {
			a.mu.Lock()
			gates.Rollback(&a.trading, amount)
			a.mu.Unlock()
			a.recordMemory(models.MemoryKindEvent, fmt.Sprintf("trade submission failed: %v", err), 0.2, -0.15)
			return
		}
	}

	a.engine.Enqueue(models.NewEvent(models.EventTradeExecuted, models.JSONB{"token_mint": mint, "amount": amount}, models.PriorityNormal, a.Agent.ID))
	a.recordMemory(models.MemoryKindEvent, fmt.Sprintf("executed a trade of %.4f into %s", amount, mint), 0.4, 0.2)
}

// --- reacting --------------------------------------------------------------

func (a *Actor) handleMention(ctx context.Context, ev models.Event) {
	if a.State() != StateIdle {
		return
	}
	tweet, ok := decodeTweet(ev.Payload)
	if !ok {
		return
	}
	humanAuthored, _ := ev.Payload["human_authored"].(bool)

	if a.rng.Float64() >= a.Agent.Behavior.Interaction.ReplyProbability {
		if a.rng.Float64() < a.Agent.Behavior.Interaction.QuoteProbability {
			a.setState(StateReacting)
			a.composeAndEmit(ctx, content.TaskQuote, &tweet, false, false)
			a.enterCooling()
			return
		}
		if a.rng.Float64() < a.Agent.Behavior.Interaction.LikeProbability {
			a.setState(StateReacting)
			_ = a.client.Like(ctx, tweet.ID, microblog.PostParams{IdempotencyKey: a.idempotencyKey("like", tweet.ID)})
			a.enterCooling()
			return
		}
		if a.rng.Float64() < a.Agent.Behavior.Interaction.RetweetProbability {
			a.setState(StateReacting)
			_ = a.client.Retweet(ctx, tweet.ID, microblog.PostParams{IdempotencyKey: a.idempotencyKey("retweet", tweet.ID)})
			a.enterCooling()
		}
		return
	}

	a.setState(StateReacting)
	res, err := a.pipeline.Reply(ctx, a.snapshotContext(&tweet, humanAuthored))
	if err != nil {
		a.recordMemory(models.MemoryKindEvent, fmt.Sprintf("reply generation failed: %v", err), 0.2, -0.1)
		a.enterCooling()
		return
	}
	a.emitPosted(ctx, res, func(c string) (models.Tweet, error) {
		return a.client.PostReply(ctx, c, tweet.ID, microblog.PostParams{IdempotencyKey: a.idempotencyKey("reply", tweet.ID)})
	}, &tweet)
	a.applyInteractionExtraction(ctx, &tweet, humanAuthored)
	a.enterCooling()
}

func (a *Actor) applyInteractionExtraction(ctx context.Context, tweet *models.Tweet, humanAuthored bool) {
	memUpdate, err := a.pipeline.ExtractMemoryUpdate(ctx, a.snapshotContext(tweet, humanAuthored))
	if err == nil {
		a.mu.Lock()
		now := time.Now()
		newMood := a.mood.Shift(now, models.Shift{Valence: memUpdate.ValenceShift, Arousal: memUpdate.ArousalShift, Dominance: memUpdate.DominanceShift})
		a.mu.Unlock()
		a.engine.Enqueue(models.NewEvent(models.EventMoodShift, models.JSONB{"valence": newMood.Valence}, models.PriorityLow, a.Agent.ID))
		a.recordMemory(models.MemoryKindInteraction, memUpdate.Memory, memUpdate.Importance, memUpdate.Emotion)
	}

	relUpdate, err := a.pipeline.ExtractRelationshipUpdate(ctx, a.snapshotContext(tweet, humanAuthored))
	if err == nil && tweet != nil {
		a.memStore.ApplyRelationshipDelta(a.Agent.ID, tweet.AuthorID, models.RelationshipDelta{
			SentimentChange:   relUpdate.SentimentChange,
			FamiliarityChange: relUpdate.FamiliarityChange,
			TrustChange:       relUpdate.TrustChange,
			Note:              relUpdate.Note,
		})
	}
}

// --- manual control-API driven actions --------------------------------------

func (a *Actor) handleManualPost(ctx context.Context, ev models.Event) {
	force, _ := ev.Payload["force"].(bool)
	a.setState(StateComposing)
	a.composeAndEmit(ctx, content.TaskComposePost, nil, force, true)
	a.enterCooling()
}

func (a *Actor) handleManualReply(ctx context.Context, ev models.Event) {
	tweetID, _ := ev.Payload["tweet_id"].(string)
	if tweetID == "" {
		return
	}
	tweet, err := a.client.GetTweet(ctx, tweetID)
	if err != nil {
		a.recordMemory(models.MemoryKindEvent, fmt.Sprintf("manual reply target lookup failed: %v", err), 0.1, -0.05)
		return
	}
	a.setState(StateReacting)
	res, err := a.pipeline.Reply(ctx, a.snapshotContext(&tweet, false))
	if err != nil {
		a.recordMemory(models.MemoryKindEvent, fmt.Sprintf("manual reply generation failed: %v", err), 0.2, -0.1)
		a.enterCooling()
		return
	}
	a.emitPosted(ctx, res, func(c string) (models.Tweet, error) {
		return a.client.PostReply(ctx, c, tweet.ID, microblog.PostParams{IdempotencyKey: a.idempotencyKey("reply", tweet.ID)})
	}, &tweet)
	a.enterCooling()
}

func (a *Actor) handleMoodShiftEvent(ev models.Event) {
	vs, _ := ev.Payload["valence_shift"].(float64)
	as, _ := ev.Payload["arousal_shift"].(float64)
	ds, _ := ev.Payload["dominance_shift"].(float64)
	if vs == 0 && as == 0 && ds == 0 {
		return
	}
	a.mu.Lock()
	a.mood.Shift(time.Now(), models.Shift{Valence: vs, Arousal: as, Dominance: ds})
	a.mu.Unlock()
}

// --- shared composition plumbing --------------------------------------------

func (a *Actor) composeAndEmit(ctx context.Context, task content.Task, target *models.Tweet, force, manual bool) {
	var res content.Result
	var err error
	snapshot := a.snapshotContext(target, false)
	switch task {
	case content.TaskComposePost:
		res, err = a.pipeline.ComposePost(ctx, snapshot)
	case content.TaskQuote:
		res, err = a.pipeline.Quote(ctx, snapshot)
	default:
		res, err = a.pipeline.ComposePost(ctx, snapshot)
	}
	if err != nil {
		a.recordMemory(models.MemoryKindEvent, fmt.Sprintf("post generation failed: %v", err), 0.2, -0.1)
		return
	}

	if !manual {
		cd := a.cadence.Check(a.getLastPostTime(), a.Agent.Behavior.PostFrequency.MinHours, force, time.Now())
		if !cd.Allowed {
			a.recordMemory(models.MemoryKindEvent, fmt.Sprintf("post gated: %s", cd.Reason), 0.1, 0)
			return
		}
	}
	rd := a.rateGate.Check(a.Agent.ID, "post")
	if !rd.Allowed {
		a.recordMemory(models.MemoryKindEvent, fmt.Sprintf("post gated: %s", rd.Reason), 0.1, 0)
		return
	}

	if task == content.TaskQuote && target != nil {
		a.emitPosted(ctx, res, func(c string) (models.Tweet, error) {
			return a.client.PostQuote(ctx, c, target.ID, microblog.PostParams{IdempotencyKey: a.idempotencyKey("quote", target.ID)})
		}, target)
		return
	}

	a.emitPosted(ctx, res, func(c string) (models.Tweet, error) {
		return a.client.PostTweet(ctx, c, microblog.PostParams{IdempotencyKey: a.idempotencyKey("post", "")})
	}, nil)
}

func (a *Actor) getLastPostTime() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastPostTime
}

// emitPosted sends via send, retrying once with a fresh idempotency
// key on failure per §4.1's platform-error policy; on second failure
// it records a post_failed memory and the caller proceeds to Cooling.
func (a *Actor) emitPosted(ctx context.Context, res content.Result, send func(string) (models.Tweet, error), target *models.Tweet) {
	tweet, err := send(res.Content)
	if err != nil {
		tweet, err = send(res.Content)
	}
	if err != nil {
		a.engine.Enqueue(models.NewEvent(models.EventPostFailed, models.JSONB{"reason": err.Error()}, models.PriorityNormal, a.Agent.ID))
		a.recordMemory(models.MemoryKindPost, fmt.Sprintf("failed to send: %s", res.Content), 0.2, -0.1)
		return
	}

	a.mu.Lock()
	a.lastPostTime = time.Now()
	a.mu.Unlock()

	meta := models.JSONB{"task": string(res.Task)}
	if res.RotatingIndex != nil {
		meta["rotating_prompt_index"] = *res.RotatingIndex
	}
	item := models.NewMemoryItem(a.Agent.ID, res.Content, models.MemoryKindPost, 0.3, 0)
	item.Metadata = meta
	a.memStore.Insert(ctx, item)

	a.engine.Enqueue(models.NewEvent(models.EventSelfPosted, models.JSONB{"tweet_id": tweet.ID}, models.PriorityNormal, a.Agent.ID))

	if target != nil {
		a.memStore.ApplyRelationshipDelta(a.Agent.ID, target.AuthorID, models.RelationshipDelta{
			SentimentChange:   0.05,
			FamiliarityChange: 0.02,
			Note:              "replied to them",
		})
	}
}

func (a *Actor) recordMemory(kind models.MemoryKind, text string, importance, valence float64) {
	a.memStore.Insert(context.Background(), models.NewMemoryItem(a.Agent.ID, text, kind, importance, valence))
}

func (a *Actor) idempotencyKey(actionKind, targetID string) string {
	digest := fmt.Sprintf("%s:%s", a.Agent.ID, targetID)
	return gates.IdempotencyKey(a.Agent.ID, actionKind, digest, a.nextSeq())
}

func (a *Actor) snapshotContext(target *models.Tweet, humanAuthored bool) content.Context {
	now := time.Now()
	a.mu.Lock()
	m := a.mood.Read(now)
	a.mu.Unlock()

	memories := a.memStore.ListByAgentAndKind(context.Background(), a.Agent.ID, models.MemoryKindCore, 0, 5)
	rels := a.memStore.TopRelationshipsByAbsSentiment(a.Agent.ID, 5)

	return content.Context{
		Agent:         a.Agent,
		Mood:          m,
		Memories:      memories,
		Relationships: rels,
		TargetTweet:   target,
		HumanAuthored: humanAuthored,
	}
}

func decodeTweet(payload models.JSONB) (models.Tweet, bool) {
	raw, ok := payload["tweet"]
	if !ok {
		return models.Tweet{}, false
	}
	t, ok := raw.(models.Tweet)
	return t, ok
}
