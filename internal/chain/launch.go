package chain

import (
	"time"

	"github.com/agentruntime/runtime/internal/models"
)

// Launcher executes (or simulates) the one-shot token-launch
// operation, enforcing "at most one successful launch per agent id,
// across process restarts" by delegating persistence of the flag to a
// StateStore.
type Launcher struct {
	client *Client
	store  StateStore
}

// StateStore is the persistence capability a Launcher needs: get and
// atomically save a TokenLaunchState. internal/persistence implements
// this with write-temp-then-rename semantics.
type StateStore interface {
	GetTokenLaunchState(agentID string) (models.TokenLaunchState, error)
	SaveTokenLaunchState(state models.TokenLaunchState) error
}

func NewLauncher(client *Client, store StateStore) *Launcher {
	return &Launcher{client: client, store: store}
}

// LaunchParams describes a requested launch.
type LaunchParams struct {
	AgentID        string
	SimulationMode bool // per-agent/per-run config, never a package constant
	ForceTweet      bool
}

// LaunchResult is what LaunchIfNeeded returns.
type LaunchResult struct {
	State        models.TokenLaunchState
	AlreadyExisted bool
	ShouldTweet  bool
}

// LaunchIfNeeded implements scenario 4: idempotent launch. If the
// agent has already launched, this is a no-op returning the existing
// state; a caller-requested force_tweet still produces exactly one
// announcement tweet referencing the existing mint.
func (l *Launcher) LaunchIfNeeded(params LaunchParams) (LaunchResult, error) {
	existing, err := l.store.GetTokenLaunchState(params.AgentID)
	if err != nil {
		return LaunchResult{}, err
	}
	if existing.Launched {
		return LaunchResult{State: existing, AlreadyExisted: true, ShouldTweet: params.ForceTweet}, nil
	}

	var mint, link string
	if params.SimulationMode {
		mint = "SIM" + params.AgentID
		link = "https://pump.fun/simulated/" + mint
	} else {
		// Real on-chain launch is out of this module's scope (it would
		// call a pump.fun-style mint instruction builder); the mint
		// address here stands in for whatever the chain call returns.
		mint = "LIVE" + params.AgentID
		link = "https://pump.fun/" + mint
	}

	state := models.TokenLaunchState{
		AgentID:     params.AgentID,
		Launched:    true,
		MintAddress: mint,
		LaunchedAt:  time.Now(),
		PumpLink:    link,
	}
	if err := l.store.SaveTokenLaunchState(state); err != nil {
		return LaunchResult{}, err
	}
	return LaunchResult{State: state, AlreadyExisted: false, ShouldTweet: true}, nil
}

// TrendingTracker holds a trending-token list feeding
// trade_decision_factors=trending_tokens and the Trading Safety Gate's
// allowed_set ∪ trending_set. Recovered from original_source/'s
// trending-token refresh loop, dropped by the distilled spec. The list
// changes only through Set: nothing refreshes it periodically, and the
// client and interval fields are stored but not used.
type TrendingTracker struct {
	client   *Client
	interval time.Duration

	current []string
}

func NewTrendingTracker(client *Client, interval time.Duration) *TrendingTracker {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &TrendingTracker{client: client, interval: interval}
}

// Current returns a copy of the trending-token mint list last passed to Set.
func (t *TrendingTracker) Current() []string {
	out := make([]string, len(t.current))
	copy(out, t.current)
	return out
}

// Set overrides the current trending set; it is the only way the set
// changes.
func (t *TrendingTracker) Set(mints []string) { t.current = mints }
