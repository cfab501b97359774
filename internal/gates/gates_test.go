package gates

import (
	"testing"
	"time"

	"github.com/agentruntime/runtime/internal/models"
)

func TestCadenceGateDeniesTooSoon(t *testing.T) {
	g := CadenceGate{}
	now := time.Now()
	d := g.Check(now.Add(-30*time.Minute), 2, false, now)
	if d.Allowed {
		t.Fatalf("expected denial for too-soon post")
	}
	if d.Reason != DenialTooSoon {
		t.Fatalf("expected too_soon reason, got %v", d.Reason)
	}
}

func TestCadenceGateForceBypasses(t *testing.T) {
	g := CadenceGate{}
	now := time.Now()
	d := g.Check(now.Add(-time.Minute), 6, true, now)
	if !d.Allowed {
		t.Fatalf("expected force=true to bypass cadence gate")
	}
}

func TestTradingSafetyGateScenario3(t *testing.T) {
	gate := NewTradingSafetyGate([]string{"USDC"}, nil, nil)
	state := models.TradingSafetyState{TradesToday: 3}
	behavior := models.TradingBehavior{MaxDailyTrades: 3, MaxDailyVolume: 100, MaxTradeAmountPerTx: 1, MinWalletBalance: 0, MaxSlippagePercent: 5}
	intent := TradingIntent{AmountNative: 0.05, WalletBalanceNative: 10, QuotedSlippagePct: 1, TokenMint: "USDC"}

	d := gate.Check(state, behavior, intent)
	if d.Allowed {
		t.Fatalf("expected denial when trades_today >= max_daily_trades")
	}
	if d.Reason != DenialMaxDailyTrades {
		t.Fatalf("expected max_daily_trades denial, got %v", d.Reason)
	}
}

func TestTradingSafetyGateDeniesBlacklistedToken(t *testing.T) {
	gate := NewTradingSafetyGate([]string{"USDC"}, nil, []string{"USDC"})
	state := models.TradingSafetyState{}
	behavior := models.TradingBehavior{MaxDailyTrades: 5, MaxDailyVolume: 100, MaxTradeAmountPerTx: 1, MaxSlippagePercent: 5}
	intent := TradingIntent{AmountNative: 0.01, WalletBalanceNative: 10, TokenMint: "USDC"}

	d := gate.Check(state, behavior, intent)
	if d.Allowed || d.Reason != DenialTokenNotAllowed {
		t.Fatalf("expected token_not_allowed denial for blacklisted token, got %+v", d)
	}
}

func TestReserveAndRollback(t *testing.T) {
	state := &models.TradingSafetyState{}
	Reserve(state, 0.5)
	if state.TradesToday != 1 || state.VolumeToday != 0.5 {
		t.Fatalf("unexpected state after reserve: %+v", state)
	}
	Rollback(state, 0.5)
	if state.TradesToday != 0 || state.VolumeToday != 0 {
		t.Fatalf("unexpected state after rollback: %+v", state)
	}
}

func TestIdempotencyKeyStableForSameInputs(t *testing.T) {
	a := IdempotencyKey("agent-1", "post", "digest", 1)
	b := IdempotencyKey("agent-1", "post", "digest", 1)
	c := IdempotencyKey("agent-1", "post", "digest", 2)
	if a != b {
		t.Fatalf("expected same inputs to produce same key")
	}
	if a == c {
		t.Fatalf("expected different sequence to change key")
	}
}
