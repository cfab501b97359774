// Package mentions implements Mention Ingestion (§4.6): surfacing
// externally-originated tweets that mention an agent, with
// reconstructed thread context, as mention_received events.
//
// Grounded on internal/websocket/hub.go for the long-lived-connection
// idiom (reconnect handling, ping/pong discipline), restructured from
// an inbound server hub with a package-level singleton into an
// outbound per-agent Streamer/Poller pair owned by an explicit
// Manager, per §9's redesign flag.
package mentions

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/agentruntime/runtime/internal/events"
	"github.com/agentruntime/runtime/internal/microblog"
	"github.com/agentruntime/runtime/internal/models"
)

// AgentSource bundles the per-agent collaborators Manager needs: the
// client used for both stream/poll and thread-ancestor lookups, the
// configured ingestion mode, and (for stream mode) an optional
// Streamer. When streamer is nil, Auto/Stream modes fall back to
// Poll immediately.
type AgentSource struct {
	AgentID      string
	Client       microblog.Client
	Streamer     microblog.Streamer // nil if this credential can't stream
	Mode         models.MentionIngestionMode
	PollInterval time.Duration
}

// Manager selects, per agent, stream or poll ingestion, deduplicates
// incoming mentions, reconstructs thread history, and emits
// mention_received events into the shared Event Engine. It is an
// explicit handle, not a singleton (§9).
type Manager struct {
	engine  *events.Engine
	dedup   Dedup
	cursors CursorStore

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewManager constructs a Manager. dedup/cursors may be nil, in which
// case in-memory defaults are used (adequate for a single-process
// runtime or for tests).
func NewManager(engine *events.Engine, dedup Dedup, cursors CursorStore) *Manager {
	if dedup == nil {
		dedup = NewMemoryDedup(DefaultDedupSize)
	}
	if cursors == nil {
		cursors = NewMemoryCursorStore()
	}
	return &Manager{engine: engine, dedup: dedup, cursors: cursors, cancels: make(map[string]context.CancelFunc)}
}

// Start begins ingestion for src according to its configured mode.
// Calling Start again for an agent already running replaces it.
func (m *Manager) Start(ctx context.Context, src AgentSource) {
	m.mu.Lock()
	if cancel, ok := m.cancels[src.AgentID]; ok {
		cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancels[src.AgentID] = cancel
	m.mu.Unlock()

	mode := src.Mode
	if mode == "" {
		mode = models.IngestionAuto
	}

	wantsStream := mode == models.IngestionStream || mode == models.IngestionAuto
	if wantsStream && src.Streamer != nil {
		go m.runStream(runCtx, src)
		return
	}
	if mode == models.IngestionStream && src.Streamer == nil {
		log.Printf("[MENTIONS] agent=%s mode=stream requested but no streamer configured; falling back to poll", src.AgentID)
	}
	go m.runPoll(runCtx, src)
}

// Stop halts ingestion for agentID.
func (m *Manager) Stop(agentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cancel, ok := m.cancels[agentID]; ok {
		cancel()
		delete(m.cancels, agentID)
	}
}

func (m *Manager) runStream(ctx context.Context, src AgentSource) {
	streamCh, err := src.Streamer.Connect(ctx)
	if err != nil {
		if microblog.IsInsufficientTier(err) {
			log.Printf("[MENTIONS] agent=%s stream unavailable (%v); falling back to poll", src.AgentID, err)
			m.runPoll(ctx, src)
			return
		}
		log.Printf("[MENTIONS][ERROR] agent=%s stream connect failed: %v; falling back to poll", src.AgentID, err)
		m.runPoll(ctx, src)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-streamCh:
			if !ok {
				return
			}
			if ev.Err != nil {
				continue // the Streamer implementation owns its own reconnect loop
			}
			m.ingest(ctx, src.AgentID, src.Client, ev.Tweet, true)
		}
	}
}

func (m *Manager) runPoll(ctx context.Context, src AgentSource) {
	poller := NewPoller(src.AgentID, src.Client, m.cursors, src.PollInterval, func(t models.Tweet) {
		m.ingest(ctx, src.AgentID, src.Client, t, true)
	})
	poller.Run(ctx)
}

// ingest dedups, reconstructs thread history, and enqueues a
// mention_received event for one observed tweet.
func (m *Manager) ingest(ctx context.Context, agentID string, client microblog.Client, tweet models.Tweet, humanAuthored bool) {
	seen, err := m.dedup.SeenOrMark(ctx, agentID, tweet.ID)
	if err != nil {
		log.Printf("[MENTIONS][WARN] agent=%s dedup check failed: %v", agentID, err)
	} else if seen {
		return
	}

	if tweet.ReplyToID != "" {
		tweet.ThreadHistory = ReconstructThread(ctx, client, tweet, DefaultThreadDepth, DefaultThreadCount)
	}

	payload := models.JSONB{
		"tweet":          tweet,
		"human_authored": humanAuthored,
	}
	m.engine.Enqueue(models.NewEvent(models.EventMentionReceived, payload, models.PriorityNormal, agentID))
}
