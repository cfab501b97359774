package runtime

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/agentruntime/runtime/internal/chain"
	"github.com/agentruntime/runtime/internal/content"
	"github.com/agentruntime/runtime/internal/events"
	"github.com/agentruntime/runtime/internal/gates"
	"github.com/agentruntime/runtime/internal/llmprovider"
	"github.com/agentruntime/runtime/internal/memory"
	"github.com/agentruntime/runtime/internal/microblog"
	"github.com/agentruntime/runtime/internal/models"
)

// Deps bundles the collaborators an Actor needs beyond what the
// Manager holds shared across all actors (engine, memory store, rate
// gate, denylist, fallback picker).
type Deps struct {
	Provider  llmprovider.Provider
	Client    microblog.Client
	TradeGate *gates.TradingSafetyGate
	ChainCli  *chain.Client
	Launcher  *chain.Launcher
	Trending  *chain.TrendingTracker
}

// Manager owns the shared collaborators for a fleet of agents and
// routes dispatched events to the right Actor. It is an explicit
// handle, not a package-level singleton, per §9's redesign flag
// against "agent manager, event engine" globals -- generalized from
// internal/agent/solace.go, which hard-codes a single actor per
// process, into a registry keyed by agent ID.
type Manager struct {
	mu     sync.RWMutex
	actors map[string]*Actor

	engine    *events.Engine
	memStore  *memory.Store
	rateGate  *gates.RateGate
	denylist  *content.OpeningDenylist
	fallbacks *content.FallbackPicker
}

// NewManager constructs a Manager around a shared event engine and
// memory store. The engine should not yet be started; Manager
// subscribes its dispatch handlers to it before the caller calls
// engine.Start.
func NewManager(engine *events.Engine, memStore *memory.Store) *Manager {
	m := &Manager{
		actors:    make(map[string]*Actor),
		engine:    engine,
		memStore:  memStore,
		rateGate:  gates.NewRateGate(),
		denylist:  content.NewOpeningDenylist(),
		fallbacks: content.NewFallbackPicker(),
	}
	for _, t := range []string{
		models.EventSelfTick,
		models.EventTradingTick,
		models.EventMentionReceived,
		models.EventManualPost,
		models.EventManualReply,
		models.EventMoodShift,
	} {
		engine.Subscribe(t, m.dispatch)
	}
	return m
}

// dispatch routes an event to the actor(s) named in TargetAgentIDs.
// The Engine already serializes invocation per target agent via its
// internal per-agent lock, so this never races a given Actor's other
// handlers.
func (m *Manager) dispatch(ctx context.Context, ev models.Event) {
	for _, agentID := range ev.TargetAgentIDs {
		m.mu.RLock()
		a, ok := m.actors[agentID]
		m.mu.RUnlock()
		if !ok {
			continue
		}
		a.Handle(ctx, ev)
	}
}

// RegisterAgent builds an Actor for agent and wires it into the
// registry. The Actor's Pipeline gets its own per-provider instance
// but shares the Manager's OpeningDenylist and FallbackPicker so
// variety enforcement and fallback rotation operate across the whole
// fleet rather than resetting per agent.
func (m *Manager) RegisterAgent(agent models.Agent, deps Deps) *Actor {
	seed := int64(0)
	for _, r := range agent.ID {
		seed = seed*31 + int64(r)
	}
	rng := rand.New(rand.NewSource(seed))

	pipeline := content.NewPipeline(deps.Provider, rng)
	pipeline.Denylist = m.denylist
	pipeline.Fallbacks = m.fallbacks

	actor := NewActor(agent, m.engine, m.memStore, pipeline, deps.Client, m.rateGate, deps.TradeGate, deps.ChainCli, deps.Launcher, deps.Trending, rng)

	m.mu.Lock()
	m.actors[agent.ID] = actor
	m.mu.Unlock()
	return actor
}

// Actor returns the registered actor for agentID, if any.
func (m *Manager) Actor(agentID string) (*Actor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.actors[agentID]
	return a, ok
}

// Actors returns a snapshot of all registered actors.
func (m *Manager) Actors() []*Actor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Actor, 0, len(m.actors))
	for _, a := range m.actors {
		out = append(out, a)
	}
	return out
}

// Start schedules each registered actor's initial self-tick and
// (where trading is enabled) trading-tick, jittered so a fleet
// registered at the same instant doesn't all tick in lockstep. For
// agents configured with PostIntroOnFirstBoot it also composes and
// sends one ordinary post, at every Start rather than only the first
// boot, without emitting a self.introduced event.
func (m *Manager) Start(ctx context.Context) {
	m.mu.RLock()
	actors := make([]*Actor, 0, len(m.actors))
	for _, a := range m.actors {
		actors = append(actors, a)
	}
	m.mu.RUnlock()

	for _, a := range actors {
		initialDelay := time.Duration(a.rng.Intn(60)) * time.Second
		a.scheduleSelfTick(initialDelay)

		if a.Agent.Behavior.Trading.Enabled {
			tradeDelay := time.Duration(a.rng.Intn(300)) * time.Second
			a.scheduleTradingTick(tradeDelay)
		}

		if a.Agent.Behavior.PostIntroOnFirstBoot {
			a.setState(StateComposing)
			a.composeAndEmit(ctx, content.TaskComposePost, nil, true, true)
			a.setState(StateIdle)
		}
	}

	log.Printf("[RUNTIME] manager started with %d agents", len(actors))
}

// Stop transitions every actor to Stopped, then sleeps for the full
// shutdownGrace so in-flight handler invocations can settle; it does
// not track whether any are still running.
func (m *Manager) Stop() {
	m.mu.RLock()
	actors := make([]*Actor, 0, len(m.actors))
	for _, a := range m.actors {
		actors = append(actors, a)
	}
	m.mu.RUnlock()

	for _, a := range actors {
		a.Stop()
	}
	time.Sleep(shutdownGrace)
	log.Printf("[RUNTIME] manager stopped %d agents", len(actors))
}
