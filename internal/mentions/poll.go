package mentions

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/agentruntime/runtime/internal/microblog"
	"github.com/agentruntime/runtime/internal/models"
)

// GlobalMinPollInterval is the floor on how often any single credential
// may be polled, preventing mention-fetch storms across agents that
// share a credential (§4.6).
const GlobalMinPollInterval = 60 * time.Second

// CursorStore persists the last-seen mention id per agent so a
// restart doesn't re-process already-seen mentions (§4.6, §4.7).
type CursorStore interface {
	LoadCursor(agentID string) string
	SaveCursor(agentID, sinceID string)
}

// MemoryCursorStore is an in-process CursorStore; a durable
// implementation would back this with internal/persistence.
type MemoryCursorStore struct {
	mu      sync.Mutex
	cursors map[string]string
}

func NewMemoryCursorStore() *MemoryCursorStore {
	return &MemoryCursorStore{cursors: make(map[string]string)}
}

func (s *MemoryCursorStore) LoadCursor(agentID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursors[agentID]
}

func (s *MemoryCursorStore) SaveCursor(agentID, sinceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[agentID] = sinceID
}

// Poller periodically fetches mentions for one agent via its
// microblog.Client, respecting GlobalMinPollInterval, and forwards
// each newly-seen mention to onMention.
type Poller struct {
	AgentID   string
	Client    microblog.Client
	Cursors   CursorStore
	OnMention func(models.Tweet)
	Interval  time.Duration
}

// NewPoller constructs a Poller, clamping interval up to
// GlobalMinPollInterval if a shorter one is requested.
func NewPoller(agentID string, client microblog.Client, cursors CursorStore, interval time.Duration, onMention func(models.Tweet)) *Poller {
	if interval < GlobalMinPollInterval {
		interval = GlobalMinPollInterval
	}
	return &Poller{AgentID: agentID, Client: client, Cursors: cursors, OnMention: onMention, Interval: interval}
}

// Run blocks, polling on Interval until ctx is canceled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	p.pollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) {
	since := p.Cursors.LoadCursor(p.AgentID)
	mentions, err := p.Client.GetMentionsSince(ctx, since)
	if err != nil {
		log.Printf("[MENTIONS][WARN] agent=%s poll failed: %v", p.AgentID, err)
		return
	}
	for _, m := range mentions {
		// Some tiers return since_id inclusive; skip an exact repeat.
		if m.ID == since {
			continue
		}
		p.OnMention(m)
		p.Cursors.SaveCursor(p.AgentID, m.ID)
	}
}
