package mentions

import (
	"context"
	"testing"

	"github.com/agentruntime/runtime/internal/microblog"
	"github.com/agentruntime/runtime/internal/models"
)

func TestReconstructThreadWalksAncestorsOldestFirst(t *testing.T) {
	client := microblog.NewFakeClient("nova")
	root := models.Tweet{ID: "1", Content: "root"}
	mid := models.Tweet{ID: "2", Content: "mid", ReplyToID: "1"}
	leaf := models.Tweet{ID: "3", Content: "leaf", ReplyToID: "2"}
	client.SeedTweet(root)
	client.SeedTweet(mid)

	history := ReconstructThread(context.Background(), client, leaf, DefaultThreadDepth, DefaultThreadCount)

	if len(history) != 2 {
		t.Fatalf("expected 2 ancestors, got %d: %+v", len(history), history)
	}
	if history[0].ID != "1" || history[1].ID != "2" {
		t.Fatalf("expected oldest-first ordering [1,2], got %+v", history)
	}
}

func TestReconstructThreadToleratesMissingAncestor(t *testing.T) {
	client := microblog.NewFakeClient("nova")
	leaf := models.Tweet{ID: "3", Content: "leaf", ReplyToID: "missing"}

	history := ReconstructThread(context.Background(), client, leaf, DefaultThreadDepth, DefaultThreadCount)

	if len(history) != 0 {
		t.Fatalf("expected empty history on unresolvable ancestor, got %+v", history)
	}
}

func TestReconstructThreadStopsAtRoot(t *testing.T) {
	client := microblog.NewFakeClient("nova")
	root := models.Tweet{ID: "1", Content: "root"}
	client.SeedTweet(root)
	leaf := models.Tweet{ID: "2", Content: "leaf", ReplyToID: "1"}

	history := ReconstructThread(context.Background(), client, leaf, DefaultThreadDepth, DefaultThreadCount)

	if len(history) != 1 || history[0].ID != "1" {
		t.Fatalf("expected single-ancestor history, got %+v", history)
	}
}
