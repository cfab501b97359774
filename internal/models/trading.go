package models

import "time"

// TradingSafetyState is the per-agent counter set the Trading Safety
// Gate checks before any outbound swap proceeds.
type TradingSafetyState struct {
	AgentID             string    `gorm:"primaryKey;size:64" json:"agent_id"`
	TradesToday         int       `json:"trades_today"`
	VolumeToday         float64   `json:"volume_today"` // native units
	WalletBalanceNative float64   `json:"wallet_balance_native"`
	LastTradeAt         time.Time `json:"last_trade_at"`
	DailyResetAt        time.Time `json:"daily_reset_at"`
	TradingEnabled      bool      `gorm:"default:true" json:"trading_enabled"`
}

func (TradingSafetyState) TableName() string { return "trading_safety_state" }

// ResetIfNewDay zeroes the daily counters when DailyResetAt has rolled
// past midnight relative to now, returning whether a reset occurred.
func (s *TradingSafetyState) ResetIfNewDay(now time.Time) bool {
	if s.DailyResetAt.IsZero() {
		s.DailyResetAt = now
		return false
	}
	y1, m1, d1 := s.DailyResetAt.Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return false
	}
	s.TradesToday = 0
	s.VolumeToday = 0
	s.DailyResetAt = now
	return true
}

// TokenLaunchState is the per-agent, one-shot record proving an agent
// has already minted its token. At most one successful launch ever,
// across process restarts.
type TokenLaunchState struct {
	AgentID     string    `json:"agent_id"`
	Launched    bool      `json:"launched"`
	MintAddress string    `json:"mint_address,omitempty"`
	LaunchedAt  time.Time `json:"launched_at,omitempty"`
	PumpLink    string    `json:"link,omitempty"`
}
