package models

import (
	"time"

	"github.com/google/uuid"
)

// Priority orders events within the Event Engine's priority queue;
// higher numeric value dispatches first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Well-known event types. A tagged-variant discriminator per §9's
// redesign flag: payload is a map escape hatch, reserved for
// debug-inject events; every other type should populate typed fields
// out of band (e.g. via payload keys documented alongside the type).
const (
	EventMentionReceived      = "mention_received"
	EventManualPost           = "manual_post"
	EventManualReply          = "manual_reply"
	EventSelfPosted           = "self.posted"
	EventSelfIntroduced       = "self.introduced"
	EventPostFailed           = "post_failed"
	EventMoodShift            = "mood_shift"
	EventTradeExecuted        = "trade_executed"
	EventTradeDenied          = "trade_denied"
	EventCredentialError      = "credential_error"
	EventDebugInject          = "debug_inject"

	// EventSelfTick and EventTradingTick drive the Agent Runtime Loop's
	// own state machine (§4.1): a per-agent timer wheel re-schedules
	// these into the Event Engine after every cycle rather than each
	// agent owning an OS timer (§9's redesign flag).
	EventSelfTick    = "self.tick"
	EventTradingTick = "self.trading_tick"
)

// Event is the unit of work the Event Engine fans out to agents.
type Event struct {
	ID             uuid.UUID      `json:"id"`
	Type           string         `json:"type"`
	Payload        JSONB          `json:"payload"`
	CreatedAt      time.Time      `json:"created_at"`
	ScheduledAt    *time.Time     `json:"scheduled_at,omitempty"`
	Priority       Priority       `json:"priority"`
	TargetAgentIDs []string       `json:"target_agent_ids,omitempty"` // empty = broadcast
	AttemptCount   int            `json:"attempt_count"`

	// Sequence is assigned by the Event Engine on enqueue; it breaks
	// ties deterministically within equal (priority, scheduled_time).
	Sequence uint64 `json:"sequence"`
}

// NewEvent builds an Event with a fresh id and creation timestamp.
func NewEvent(eventType string, payload JSONB, priority Priority, targets ...string) Event {
	if payload == nil {
		payload = JSONB{}
	}
	return Event{
		ID:             uuid.New(),
		Type:           eventType,
		Payload:        payload,
		CreatedAt:      time.Now(),
		Priority:       priority,
		TargetAgentIDs: targets,
	}
}

// Broadcast reports whether the event targets every agent.
func (e Event) Broadcast() bool { return len(e.TargetAgentIDs) == 0 }

// TargetedAt reports whether the event is addressed to agentID.
func (e Event) TargetedAt(agentID string) bool {
	if e.Broadcast() {
		return true
	}
	for _, id := range e.TargetAgentIDs {
		if id == agentID {
			return true
		}
	}
	return false
}

// Tweet is a read-only external reference into the microblog
// collaborator; it is never persisted by this module beyond being
// embedded as thread_history in mention events.
type Tweet struct {
	ID            string    `json:"id"`
	Content       string    `json:"content"`
	AuthorID      string    `json:"author_id"`
	AuthorHandle  string    `json:"author_handle"`
	Timestamp     time.Time `json:"timestamp"`
	ReplyToID     string    `json:"reply_to_id,omitempty"`
	QuoteToID     string    `json:"quote_to_id,omitempty"`
	ThreadHistory []Tweet   `json:"thread_history,omitempty"`
}
