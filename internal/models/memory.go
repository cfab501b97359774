package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// MemoryKind discriminates the lifecycle/eviction treatment of a
// MemoryItem.
type MemoryKind string

const (
	MemoryKindCore        MemoryKind = "core"
	MemoryKindInteraction MemoryKind = "interaction"
	MemoryKindEvent       MemoryKind = "event"
	MemoryKindGeneral     MemoryKind = "general"
	MemoryKindPost        MemoryKind = "post"
)

// MemoryItem is a single unit of an agent's memory store. Core items
// are never evicted; everything else is subject to
// age x (1 - importance) eviction when the per-agent cap is exceeded.
type MemoryItem struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AgentID   string         `gorm:"size:64;index" json:"agent_id"`
	Content   string         `gorm:"type:text" json:"content"`
	Kind      MemoryKind     `gorm:"size:20;index" json:"kind"`
	Timestamp time.Time      `gorm:"index" json:"timestamp"`
	Importance float64       `json:"importance"` // [0,1]
	Valence    float64       `json:"valence"`     // [-1,1]
	Associations pq.StringArray `gorm:"type:text[]" json:"associations,omitempty"`
	Metadata   JSONB         `gorm:"type:jsonb" json:"metadata,omitempty"`
}

func (MemoryItem) TableName() string { return "memory_items" }

// NewMemoryItem constructs a MemoryItem with a fresh id and the
// current timestamp; callers still need to clamp importance/valence.
func NewMemoryItem(agentID, content string, kind MemoryKind, importance, valence float64) MemoryItem {
	return MemoryItem{
		ID:         uuid.New(),
		AgentID:    agentID,
		Content:    content,
		Kind:       kind,
		Timestamp:  time.Now(),
		Importance: clamp(importance, 0, 1),
		Valence:    clamp(valence, -1, 1),
		Metadata:   JSONB{},
	}
}

// EvictionWeight is the spec's eviction-priority function: higher is
// evicted first. Core items must never be passed to this function by
// callers (they are filtered out before eviction candidates are
// ranked).
func (m MemoryItem) EvictionWeight(now time.Time) float64 {
	age := now.Sub(m.Timestamp).Seconds()
	return age * (1 - m.Importance)
}

// RelationshipNote is one entry of a Relationship's bounded ring
// buffer of recent interaction notes.
type RelationshipNote struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Relationship is the (owner agent, target id) edge an agent maintains
// about another identity (another agent, or an external account).
type Relationship struct {
	OwnerAgentID string    `gorm:"size:64;primaryKey" json:"owner_agent_id"`
	TargetID     string    `gorm:"size:128;primaryKey" json:"target_id"`
	Sentiment    float64   `json:"sentiment"`   // [-1,1]
	Familiarity  float64   `json:"familiarity"` // [0,1], monotonically non-decreasing
	Trust        float64   `json:"trust"`       // [0,1]
	LastInteraction time.Time `json:"last_interaction"`

	RecentInteractions []RelationshipNote `gorm:"-" json:"recent_interactions"` // ring, <=32
	Notes              []RelationshipNote `gorm:"-" json:"notes"`              // <=16
}

func (Relationship) TableName() string { return "relationships" }

const (
	maxRecentInteractions = 32
	maxRelationshipNotes  = 16
)

// RelationshipDelta is the input to an interaction-driven update.
type RelationshipDelta struct {
	SentimentChange   float64 // clamp to [-0.2, 0.2]
	FamiliarityChange float64 // clamp to [0, 0.1]
	TrustChange       float64 // clamp to [-0.2, 0.2]
	Note              string
}

// ApplyInteraction mutates the relationship in place per §4.3's clamped
// additions, appends the note to both ring buffers, and advances
// LastInteraction.
func (r *Relationship) ApplyInteraction(d RelationshipDelta, now time.Time) {
	sc := clamp(d.SentimentChange, -0.2, 0.2)
	fc := clamp(d.FamiliarityChange, 0, 0.1)
	tc := clamp(d.TrustChange, -0.2, 0.2)

	r.Sentiment = clamp(r.Sentiment+sc, -1, 1)
	r.Familiarity = clamp(r.Familiarity+fc, 0, 1)
	r.Trust = clamp(r.Trust+tc, 0, 1)
	r.LastInteraction = now

	if d.Note != "" {
		note := RelationshipNote{Text: d.Note, Timestamp: now}

		r.RecentInteractions = append(r.RecentInteractions, note)
		if len(r.RecentInteractions) > maxRecentInteractions {
			r.RecentInteractions = r.RecentInteractions[len(r.RecentInteractions)-maxRecentInteractions:]
		}

		r.Notes = append(r.Notes, note)
		if len(r.Notes) > maxRelationshipNotes {
			r.Notes = r.Notes[len(r.Notes)-maxRelationshipNotes:]
		}
	}
}

// NewRelationship constructs a zero-valued relationship edge.
func NewRelationship(ownerAgentID, targetID string) Relationship {
	return Relationship{OwnerAgentID: ownerAgentID, TargetID: targetID}
}
