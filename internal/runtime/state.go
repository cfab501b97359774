// Package runtime implements the Agent Runtime Loop (§4.1): a
// per-agent cooperative state machine that decides when to act and
// what action to take, subject to behavior configuration and the
// Outbound Gates.
//
// Grounded on internal/agent/solace.go's CognitiveLoop/ExecuteAction
// state-driven dispatch, generalized from a single trading-decision
// actor into the six-state {Idle, Composing, Reacting, Trading,
// Cooling, Stopped} machine §4.1 names, and rewired to take an
// explicit *events.Engine handle rather than own a package-level
// singleton (§9's redesign flag against "agent manager, event
// engine" globals).
package runtime

// State is one state of the per-agent cooperative actor.
type State string

const (
	StateIdle      State = "idle"
	StateComposing State = "composing"
	StateReacting  State = "reacting"
	StateTrading   State = "trading"
	StateCooling   State = "cooling"
	StateStopped   State = "stopped"
)
