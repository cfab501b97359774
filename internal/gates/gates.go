// Package gates implements the Outbound Gates: the final authority
// over whether an action leaves the system. Three gate families are
// applied in order: Rate, Cadence, and (for swap actions) Trading
// Safety.
//
// Grounded on internal/trading/authorization.go's granular per-check
// denial-reason/progress shape, with the actual checks replaced by
// §4.5's seven trading-safety checks, and golang.org/x/time/rate
// substituted for the teacher's ad-hoc counters to implement the
// token-bucket Rate gate.
package gates

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/agentruntime/runtime/internal/models"
)

// DenialReason enumerates the granular reasons a gate may reject an
// action.
type DenialReason string

const (
	DenialNone                 DenialReason = ""
	DenialRateLimited          DenialReason = "rate_limited"
	DenialTooSoon              DenialReason = "too_soon"
	DenialMaxDailyTrades       DenialReason = "max_daily_trades"
	DenialMaxDailyVolume       DenialReason = "max_daily_volume"
	DenialMaxTradeAmount       DenialReason = "max_trade_amount"
	DenialMinWalletBalance     DenialReason = "min_wallet_balance"
	DenialMaxSlippage          DenialReason = "max_slippage"
	DenialTokenNotAllowed      DenialReason = "token_not_allowed"
	DenialHumanTradingIgnored  DenialReason = "human_trading_ignored"
)

// Decision is the result of running an action through the gates.
type Decision struct {
	Allowed     bool
	Reason      DenialReason
	RetryAfter  time.Duration
	Detail      string
}

// IdempotencyKey computes hash(agent_id, action_kind, context_digest,
// local_sequence) per §4.5, so retries after an ambiguous failure can
// reuse the same key and let the external system deduplicate.
func IdempotencyKey(agentID, actionKind, contextDigest string, localSequence uint64) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%d", agentID, actionKind, contextDigest, localSequence)
	return hex.EncodeToString(h.Sum(nil))
}

// RateGate is a token-bucket per (agent, channel), configured from
// behavior and platform caps.
type RateGate struct {
	mu       sync.Mutex
	global   *rate.Limiter
	perAgent map[string]*rate.Limiter

	globalLimit   rate.Limit
	globalBurst   int
	perAgentFloor time.Duration // hard floor, e.g. 1 post/minute
}

// NewRateGate constructs a gate with the spec defaults: global 300
// calls / 15-minute window per credential set, per-agent floor of one
// post per minute.
func NewRateGate() *RateGate {
	globalLimit := rate.Every(15 * time.Minute / 300)
	return &RateGate{
		global:        rate.NewLimiter(globalLimit, 300),
		perAgent:      make(map[string]*rate.Limiter),
		globalLimit:   globalLimit,
		globalBurst:   300,
		perAgentFloor: time.Minute,
	}
}

func (g *RateGate) agentLimiter(agentID string) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.perAgent[agentID]
	if !ok {
		l = rate.NewLimiter(rate.Every(g.perAgentFloor), 1)
		g.perAgent[agentID] = l
	}
	return l
}

// Check attempts to reserve one token from both the global and
// per-agent (per-channel) buckets. channel disambiguates e.g. "post"
// vs "reply" if callers want independent per-agent buckets per
// channel; this implementation keys per-agent limiters by
// agentID+channel.
func (g *RateGate) Check(agentID, channel string) Decision {
	key := agentID + ":" + channel
	limiter := g.agentLimiter(key)

	if !g.global.Allow() {
		return Decision{Allowed: false, Reason: DenialRateLimited, RetryAfter: g.global.Reserve().Delay()}
	}
	if !limiter.Allow() {
		r := limiter.Reserve()
		return Decision{Allowed: false, Reason: DenialRateLimited, RetryAfter: r.Delay()}
	}
	return Decision{Allowed: true}
}

// CadenceGate enforces now >= last_post_time + min_hours_between_posts
// unless an explicit force flag is set.
type CadenceGate struct{}

func (CadenceGate) Check(lastPostTime time.Time, minHoursBetweenPosts float64, force bool, now time.Time) Decision {
	if force {
		return Decision{Allowed: true}
	}
	minDelta := time.Duration(minHoursBetweenPosts * float64(time.Hour))
	if now.Sub(lastPostTime) >= minDelta {
		return Decision{Allowed: true}
	}
	return Decision{
		Allowed: false,
		Reason:  DenialTooSoon,
		Detail:  fmt.Sprintf("last post at %s, need %.2fh", lastPostTime.Format(time.RFC3339), minHoursBetweenPosts),
	}
}

// TradingIntent describes a proposed swap action for the Trading
// Safety Gate to evaluate.
type TradingIntent struct {
	AmountNative        float64
	WalletBalanceNative float64
	QuotedSlippagePct   float64
	TokenMint           string
	HumanAuthored       bool
}

// TradingSafetyGate implements the seven checks of §4.5, all of which
// must hold before an outbound swap proceeds. State mutation (counter
// increments/rollbacks) happens under a per-agent mutex the caller
// owns via TradingSafetyState's agent-exclusive ownership.
type TradingSafetyGate struct {
	AllowedTokens     map[string]bool
	TrendingTokens    map[string]bool
	BlacklistedTokens map[string]bool
}

// NewTradingSafetyGate builds a gate from the sets configured on an
// agent's TradingBehavior.
func NewTradingSafetyGate(allowed, trending, blacklisted []string) *TradingSafetyGate {
	toSet := func(in []string) map[string]bool {
		m := make(map[string]bool, len(in))
		for _, v := range in {
			m[v] = true
		}
		return m
	}
	return &TradingSafetyGate{
		AllowedTokens:     toSet(allowed),
		TrendingTokens:    toSet(trending),
		BlacklistedTokens: toSet(blacklisted),
	}
}

// Check evaluates all seven checks against state and behavior, without
// mutating state. Callers that pass increment counters themselves
// (atomically, before submission) and roll back on submission failure.
func (g *TradingSafetyGate) Check(state models.TradingSafetyState, behavior models.TradingBehavior, intent TradingIntent) Decision {
	if state.TradesToday >= behavior.MaxDailyTrades {
		return Decision{Allowed: false, Reason: DenialMaxDailyTrades}
	}
	if state.VolumeToday+intent.AmountNative > behavior.MaxDailyVolume {
		return Decision{Allowed: false, Reason: DenialMaxDailyVolume}
	}
	if intent.AmountNative > behavior.MaxTradeAmountPerTx {
		return Decision{Allowed: false, Reason: DenialMaxTradeAmount}
	}
	if intent.WalletBalanceNative-intent.AmountNative < behavior.MinWalletBalance {
		return Decision{Allowed: false, Reason: DenialMinWalletBalance}
	}
	if intent.QuotedSlippagePct > behavior.MaxSlippagePercent {
		return Decision{Allowed: false, Reason: DenialMaxSlippage}
	}
	if g.BlacklistedTokens[intent.TokenMint] || !(g.AllowedTokens[intent.TokenMint] || g.TrendingTokens[intent.TokenMint]) {
		return Decision{Allowed: false, Reason: DenialTokenNotAllowed}
	}
	if behavior.IgnoreHumanTradingReqs && intent.HumanAuthored {
		return Decision{Allowed: false, Reason: DenialHumanTradingIgnored}
	}
	return Decision{Allowed: true}
}

// Reserve increments TradingSafetyState's counters atomically ahead of
// submission, debiting the tracked wallet balance by amount. Callers
// must call Rollback on submission failure.
func Reserve(state *models.TradingSafetyState, amount float64) {
	state.TradesToday++
	state.VolumeToday += amount
	state.WalletBalanceNative -= amount
	state.LastTradeAt = time.Now()
}

// Rollback undoes a Reserve call after a failed submission.
func Rollback(state *models.TradingSafetyState, amount float64) {
	state.WalletBalanceNative += amount
	state.TradesToday--
	state.VolumeToday -= amount
}
