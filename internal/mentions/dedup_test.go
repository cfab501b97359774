package mentions

import (
	"context"
	"testing"
)

func TestMemoryDedupMarksFirstSeenFalse(t *testing.T) {
	d := NewMemoryDedup(10)
	seen, err := d.SeenOrMark(context.Background(), "agent-1", "t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen {
		t.Fatalf("expected first observation to report seen=false")
	}
}

func TestMemoryDedupMarksRepeatTrue(t *testing.T) {
	d := NewMemoryDedup(10)
	ctx := context.Background()
	d.SeenOrMark(ctx, "agent-1", "t1")
	seen, err := d.SeenOrMark(ctx, "agent-1", "t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !seen {
		t.Fatalf("expected repeat observation to report seen=true")
	}
}

func TestMemoryDedupEvictsOldestBeyondCap(t *testing.T) {
	d := NewMemoryDedup(2)
	ctx := context.Background()
	d.SeenOrMark(ctx, "agent-1", "t1")
	d.SeenOrMark(ctx, "agent-1", "t2")
	d.SeenOrMark(ctx, "agent-1", "t3") // evicts t1

	seen, _ := d.SeenOrMark(ctx, "agent-1", "t1")
	if seen {
		t.Fatalf("expected t1 to have been evicted and re-observed as new")
	}
}

func TestMemoryDedupIsolatesAgents(t *testing.T) {
	d := NewMemoryDedup(10)
	ctx := context.Background()
	d.SeenOrMark(ctx, "agent-1", "t1")
	seen, _ := d.SeenOrMark(ctx, "agent-2", "t1")
	if seen {
		t.Fatalf("expected the same tweet id to be unseen for a different agent")
	}
}
