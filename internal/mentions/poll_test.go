package mentions

import (
	"context"
	"testing"
	"time"

	"github.com/agentruntime/runtime/internal/microblog"
	"github.com/agentruntime/runtime/internal/models"
)

func TestPollerOnMentionFiresForNewMentions(t *testing.T) {
	client := microblog.NewFakeClient("nova")
	client.SeedMention(models.Tweet{ID: "1", Content: "hey @nova"})
	client.SeedMention(models.Tweet{ID: "2", Content: "also @nova"})

	cursors := NewMemoryCursorStore()
	var got []string
	poller := NewPoller("agent-1", client, cursors, time.Millisecond, func(m models.Tweet) {
		got = append(got, m.ID)
	})

	poller.pollOnce(context.Background())

	if len(got) != 2 || got[0] != "1" || got[1] != "2" {
		t.Fatalf("expected both mentions in order, got %v", got)
	}
	if cursors.LoadCursor("agent-1") != "2" {
		t.Fatalf("expected cursor to advance to the last mention id, got %q", cursors.LoadCursor("agent-1"))
	}
}

func TestPollerDoesNotRefetchBeforeCursor(t *testing.T) {
	client := microblog.NewFakeClient("nova")
	client.SeedMention(models.Tweet{ID: "1", Content: "hey @nova"})

	cursors := NewMemoryCursorStore()
	cursors.SaveCursor("agent-1", "1")
	var got []string
	poller := NewPoller("agent-1", client, cursors, time.Millisecond, func(m models.Tweet) {
		got = append(got, m.ID)
	})

	poller.pollOnce(context.Background())

	if len(got) != 0 {
		t.Fatalf("expected no mentions below the cursor to be re-delivered, got %v", got)
	}
}

func TestNewPollerClampsIntervalToGlobalMinimum(t *testing.T) {
	client := microblog.NewFakeClient("nova")
	cursors := NewMemoryCursorStore()
	poller := NewPoller("agent-1", client, cursors, time.Second, func(models.Tweet) {})

	if poller.Interval != GlobalMinPollInterval {
		t.Fatalf("expected interval to clamp to %v, got %v", GlobalMinPollInterval, poller.Interval)
	}
}
