package api

import "github.com/agentruntime/runtime/internal/models"

// StatusResponse answers GET /status.
type StatusResponse struct {
	AgentCount    int            `json:"agent_count"`
	ActiveAgents  int            `json:"active_agents"`
	EventStats    map[string]int `json:"event_stats"`
	Environment   string         `json:"environment"`
}

// PostRequest is the body of POST /agents/{id}/post.
type PostRequest struct {
	Context string `json:"context,omitempty"`
	Force   bool   `json:"force,omitempty"`
}

// PostResponse reports the outcome of a manual post request. Since the
// compose/gate/send pipeline runs asynchronously on the agent's own
// actor, acceptance only confirms the command was enqueued; denial
// reasons surface through the agent's memory, not synchronously here.
type PostResponse struct {
	Enqueued bool   `json:"enqueued"`
	EventID  string `json:"event_id"`
}

// ReplyRequest is the body of POST /agents/{id}/reply.
type ReplyRequest struct {
	TweetID string `json:"tweetId"`
	Content string `json:"content,omitempty"`
}

// MoodShiftRequest is the body of POST /agents/{id}/mood.
type MoodShiftRequest struct {
	ValenceShift   float64 `json:"valenceShift"`
	ArousalShift   float64 `json:"arousalShift"`
	DominanceShift float64 `json:"dominanceShift"`
}

// AddMemoryRequest is the body of POST /agents/{id}/memories.
type AddMemoryRequest struct {
	Content    string  `json:"content"`
	Type       string  `json:"type,omitempty"`
	Importance float64 `json:"importance,omitempty"`
}

// InjectEventRequest is the body of POST /events.
type InjectEventRequest struct {
	Type           string                 `json:"type"`
	Data           map[string]interface{} `json:"data"`
	TargetAgentIDs []string               `json:"targetAgentIds,omitempty"`
	Priority       string                 `json:"priority,omitempty"`
	DelaySeconds   float64                `json:"delay,omitempty"`
}

// ContextDebugResponse answers GET /agents/{id}/context: the same
// snapshot shape §4.1 step 1 assembles for a real action, exposed
// read-only for operator debugging.
type ContextDebugResponse struct {
	Mood          models.Mood           `json:"mood"`
	CoreMemories  []models.MemoryItem   `json:"core_memories"`
	Relationships []models.Relationship `json:"relationships"`
	State         string                `json:"state"`
	TradingState  models.TradingSafetyState `json:"trading_state"`
}

func priorityFromString(s string) models.Priority {
	switch s {
	case "low":
		return models.PriorityLow
	case "high":
		return models.PriorityHigh
	case "critical":
		return models.PriorityCritical
	default:
		return models.PriorityNormal
	}
}
