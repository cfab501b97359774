package memory

import (
	"context"
	"testing"
	"time"

	"github.com/agentruntime/runtime/internal/models"
)

func TestInsertSearchRetrieveRoundTrip(t *testing.T) {
	s := NewStore(0, nil)
	ctx := context.Background()

	item := models.NewMemoryItem("agent-a", "the launch went great today", models.MemoryKindGeneral, 0.6, 0.2)
	inserted := s.Insert(ctx, item)

	results := s.SearchBySimilarity(ctx, "agent-a", "launch went great", 5, nil)
	if len(results) == 0 {
		t.Fatalf("expected at least one search result")
	}
	if results[0].Item.ID != inserted.ID {
		t.Fatalf("expected top result to be inserted item")
	}

	got, ok := s.RetrieveByID(ctx, inserted.ID)
	if !ok || got.Content != item.Content {
		t.Fatalf("round-trip failed: got %+v", got)
	}
}

func TestCoreMemoriesNeverEvicted(t *testing.T) {
	s := NewStore(2, nil)
	ctx := context.Background()

	core := models.NewMemoryItem("agent-a", "core fact", models.MemoryKindCore, 0.9, 0)
	s.Insert(ctx, core)

	for i := 0; i < 10; i++ {
		s.Insert(ctx, models.NewMemoryItem("agent-a", "filler", models.MemoryKindGeneral, 0.1, 0))
	}

	got, ok := s.RetrieveByID(ctx, core.ID)
	if !ok {
		t.Fatalf("expected core memory to survive eviction")
	}
	if got.Kind != models.MemoryKindCore {
		t.Fatalf("expected core kind preserved")
	}
}

func TestEvictionPrefersLowImportanceOldItems(t *testing.T) {
	s := NewStore(1, nil)
	ctx := context.Background()

	low := models.NewMemoryItem("agent-a", "low importance", models.MemoryKindGeneral, 0.1, 0)
	low.Timestamp = time.Now().Add(-time.Hour)
	s.Insert(ctx, low)

	high := models.NewMemoryItem("agent-a", "high importance", models.MemoryKindGeneral, 0.9, 0)
	s.Insert(ctx, high)

	if _, ok := s.RetrieveByID(ctx, low.ID); ok {
		t.Fatalf("expected low-importance older item evicted")
	}
	if _, ok := s.RetrieveByID(ctx, high.ID); !ok {
		t.Fatalf("expected high-importance item retained")
	}
}

func TestRelationshipDeltaClampsAndCapsRing(t *testing.T) {
	s := NewStore(0, nil)

	for i := 0; i < 40; i++ {
		s.ApplyRelationshipDelta("agent-a", "target-1", models.RelationshipDelta{
			SentimentChange:   5, // clamps to 0.2 per interaction
			FamiliarityChange: 5, // clamps to 0.1 per interaction
			TrustChange:       -5,
			Note:              "interacted",
		})
	}

	rel := s.Relationship("agent-a", "target-1")
	if rel.Sentiment != 1 {
		t.Fatalf("expected sentiment clamped to 1 after repeated max-positive deltas, got %v", rel.Sentiment)
	}
	if rel.Familiarity != 1 {
		t.Fatalf("expected familiarity clamped to 1, got %v", rel.Familiarity)
	}
	if rel.Trust != 0 {
		t.Fatalf("expected trust clamped to 0 floor, got %v", rel.Trust)
	}
	if len(rel.RecentInteractions) != 32 {
		t.Fatalf("expected ring buffer capped at 32, got %d", len(rel.RecentInteractions))
	}
}

func TestDeleteAllByKind(t *testing.T) {
	s := NewStore(0, nil)
	ctx := context.Background()

	s.Insert(ctx, models.NewMemoryItem("agent-a", "post 1", models.MemoryKindPost, 0.3, 0))
	s.Insert(ctx, models.NewMemoryItem("agent-a", "post 2", models.MemoryKindPost, 0.3, 0))
	s.Insert(ctx, models.NewMemoryItem("agent-a", "event 1", models.MemoryKindEvent, 0.3, 0))

	removed := s.DeleteAllByKind(ctx, "agent-a", models.MemoryKindPost)
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	remaining := s.ListByAgentAndKind(ctx, "agent-a", "", 0, 0)
	if len(remaining) != 1 {
		t.Fatalf("expected 1 remaining item, got %d", len(remaining))
	}
}
