package mentions

import (
	"context"
	"testing"
	"time"

	"github.com/agentruntime/runtime/internal/events"
	"github.com/agentruntime/runtime/internal/microblog"
	"github.com/agentruntime/runtime/internal/models"
)

func waitForHistory(t *testing.T, engine *events.Engine, min int) []models.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h := engine.History(); len(h) >= min {
			return h
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for at least %d history entries", min)
	return nil
}

func TestManagerIngestEmitsMentionReceivedEvent(t *testing.T) {
	engine := events.New(0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine.Start(ctx)
	defer engine.Stop()

	mgr := NewManager(engine, nil, nil)
	client := microblog.NewFakeClient("nova")

	tweet := models.Tweet{ID: "1", AuthorHandle: "bob", Content: "hey @nova"}
	mgr.ingest(context.Background(), "agent-1", client, tweet, true)

	history := waitForHistory(t, engine, 1)
	if history[0].Type != models.EventMentionReceived {
		t.Fatalf("expected a mention_received event, got %s", history[0].Type)
	}
}

func TestManagerIngestDedupsRepeatedTweet(t *testing.T) {
	engine := events.New(0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine.Start(ctx)
	defer engine.Stop()

	mgr := NewManager(engine, nil, nil)
	client := microblog.NewFakeClient("nova")
	tweet := models.Tweet{ID: "1", AuthorHandle: "bob", Content: "hey @nova"}

	mgr.ingest(context.Background(), "agent-1", client, tweet, true)
	waitForHistory(t, engine, 1)
	mgr.ingest(context.Background(), "agent-1", client, tweet, true)
	time.Sleep(150 * time.Millisecond)

	if len(engine.History()) != 1 {
		t.Fatalf("expected the second ingest of the same tweet to be deduped, got %d events", len(engine.History()))
	}
}

func TestManagerIngestAttachesThreadHistoryForReplies(t *testing.T) {
	engine := events.New(0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine.Start(ctx)
	defer engine.Stop()

	mgr := NewManager(engine, nil, nil)
	client := microblog.NewFakeClient("nova")
	client.SeedTweet(models.Tweet{ID: "1", Content: "root"})
	reply := models.Tweet{ID: "2", AuthorHandle: "bob", Content: "hey @nova", ReplyToID: "1"}

	mgr.ingest(context.Background(), "agent-1", client, reply, true)

	history := waitForHistory(t, engine, 1)
	tweet, ok := history[0].Payload["tweet"].(models.Tweet)
	if !ok {
		t.Fatalf("expected payload tweet to decode, got %+v", history[0].Payload["tweet"])
	}
	if len(tweet.ThreadHistory) != 1 || tweet.ThreadHistory[0].ID != "1" {
		t.Fatalf("expected thread history to include the root tweet, got %+v", tweet.ThreadHistory)
	}
}

func TestManagerStartFallsBackToPollWhenNoStreamer(t *testing.T) {
	engine := events.New(0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine.Start(ctx)
	defer engine.Stop()

	mgr := NewManager(engine, nil, nil)
	client := microblog.NewFakeClient("nova")
	client.SeedMention(models.Tweet{ID: "1", Content: "hey @nova"})

	mgr.Start(ctx, AgentSource{
		AgentID:      "agent-1",
		Client:       client,
		Streamer:     nil,
		Mode:         models.IngestionAuto,
		PollInterval: time.Millisecond,
	})

	waitForHistory(t, engine, 1)
}
