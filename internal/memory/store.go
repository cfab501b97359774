// Package memory implements the in-memory-authoritative MemoryItem and
// Relationship store described in §4.3: insert, retrieve-by-id,
// list-by-agent-and-kind with pagination, similarity search, and
// delete operations, plus importance-weighted eviction. Durable
// persistence of the same data is layered on top by
// internal/persistence; this package is the capability contract itself
// and the one source of truth while writes drain.
//
// Grounded on internal/memory/conversation_memory.go and
// internal/memory/summarizer.go's kind-tagged, importance-scored
// memory handling, adapted from a single-conversation buffer into a
// per-agent, multi-kind store with an explicit similarity-rank
// contract.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentruntime/runtime/internal/models"
)

// Writer is the durability hook a Store notifies on every mutation;
// internal/persistence implements it to enqueue background writes.
// A nil Writer makes the Store purely in-memory (used by tests and by
// the fake-provider harness).
type Writer interface {
	EnqueueMemory(op string, item models.MemoryItem)
	EnqueueRelationship(op string, rel models.Relationship)
}

// Store is a per-process, multi-agent MemoryItem/Relationship store.
// Each agent's slice of data is logically isolated; callers always
// scope operations by agent id.
type Store struct {
	mu            sync.RWMutex
	items         map[uuid.UUID]models.MemoryItem
	byAgent       map[string][]uuid.UUID // insertion order
	relationships map[string]map[string]*models.Relationship // agentID -> targetID -> rel

	perAgentCap int
	writer      Writer
}

// DefaultPerAgentCap bounds non-core memories per agent before
// eviction kicks in.
const DefaultPerAgentCap = 2000

// NewStore constructs an empty Store. perAgentCap <= 0 selects
// DefaultPerAgentCap.
func NewStore(perAgentCap int, writer Writer) *Store {
	if perAgentCap <= 0 {
		perAgentCap = DefaultPerAgentCap
	}
	return &Store{
		items:         make(map[uuid.UUID]models.MemoryItem),
		byAgent:       make(map[string][]uuid.UUID),
		relationships: make(map[string]map[string]*models.Relationship),
		perAgentCap:   perAgentCap,
		writer:        writer,
	}
}

// Insert adds a memory item, evicting the highest-weight non-core item
// for that agent if the per-agent cap is exceeded.
func (s *Store) Insert(_ context.Context, item models.MemoryItem) models.MemoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.Timestamp.IsZero() {
		item.Timestamp = time.Now()
	}

	s.items[item.ID] = item
	s.byAgent[item.AgentID] = append(s.byAgent[item.AgentID], item.ID)
	s.evictIfNeeded(item.AgentID)

	if s.writer != nil {
		s.writer.EnqueueMemory("create", item)
	}
	return item
}

// evictIfNeeded assumes mu is held. Core memories are filtered out of
// candidacy entirely: "never evicted unless an explicit core-delete
// operation is invoked."
func (s *Store) evictIfNeeded(agentID string) {
	ids := s.byAgent[agentID]
	var nonCore []uuid.UUID
	for _, id := range ids {
		if it, ok := s.items[id]; ok && it.Kind != models.MemoryKindCore {
			nonCore = append(nonCore, id)
		}
	}
	if len(nonCore) <= s.perAgentCap {
		return
	}

	now := time.Now()
	sort.Slice(nonCore, func(i, j int) bool {
		return s.items[nonCore[i]].EvictionWeight(now) > s.items[nonCore[j]].EvictionWeight(now)
	})

	toEvict := len(nonCore) - s.perAgentCap
	for _, id := range nonCore[:toEvict] {
		delete(s.items, id)
	}
	s.byAgent[agentID] = removeAll(s.byAgent[agentID], nonCore[:toEvict])
}

func removeAll(ids []uuid.UUID, remove []uuid.UUID) []uuid.UUID {
	rm := make(map[uuid.UUID]bool, len(remove))
	for _, id := range remove {
		rm[id] = true
	}
	out := ids[:0:0]
	for _, id := range ids {
		if !rm[id] {
			out = append(out, id)
		}
	}
	return out
}

// RetrieveByID returns the item and whether it was found.
func (s *Store) RetrieveByID(_ context.Context, id uuid.UUID) (models.MemoryItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	return item, ok
}

// ListByAgentAndKind returns a page of memories for agentID of the
// given kind (empty kind = any), newest first, with offset/limit
// pagination.
func (s *Store) ListByAgentAndKind(_ context.Context, agentID string, kind models.MemoryKind, offset, limit int) []models.MemoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.MemoryItem
	for _, id := range s.byAgent[agentID] {
		it := s.items[id]
		if kind != "" && it.Kind != kind {
			continue
		}
		matched = append(matched, it)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Timestamp.After(matched[j].Timestamp) })

	if offset >= len(matched) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end]
}

// ScoredItem pairs a MemoryItem with its similarity-ranking score.
type ScoredItem struct {
	Item  models.MemoryItem
	Score float64
}

// SearchBySimilarity ranks agentID's memories by
// similarity * (0.5 + 0.5*importance), per the chosen Open Question
// resolution. Ties are broken by (importance desc, timestamp desc) so
// that equal scores are still deterministically ordered.
//
// scorer computes a similarity in [0,1] between query and an item's
// content; when nil, a lexical token-overlap scorer is used (the
// "absent embed -> lexical fallback" contract from §4.4).
func (s *Store) SearchBySimilarity(_ context.Context, agentID, query string, topK int, scorer func(query, content string) float64) []ScoredItem {
	if scorer == nil {
		scorer = lexicalSimilarity
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var scored []ScoredItem
	for _, id := range s.byAgent[agentID] {
		it := s.items[id]
		sim := scorer(query, it.Content)
		score := sim * (0.5 + 0.5*it.Importance)
		scored = append(scored, ScoredItem{Item: it, Score: score})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].Item.Importance != scored[j].Item.Importance {
			return scored[i].Item.Importance > scored[j].Item.Importance
		}
		return scored[i].Item.Timestamp.After(scored[j].Item.Timestamp)
	})

	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

// lexicalSimilarity is a deterministic token-overlap ratio used when no
// embedding capability is configured.
func lexicalSimilarity(query, content string) float64 {
	q := tokenize(query)
	c := tokenize(content)
	if len(q) == 0 || len(c) == 0 {
		return 0
	}
	set := make(map[string]bool, len(c))
	for _, tok := range c {
		set[tok] = true
	}
	hits := 0
	for _, tok := range q {
		if set[tok] {
			hits++
		}
	}
	return float64(hits) / float64(len(q))
}

func tokenize(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:\"'()[]{}")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// DeleteByID removes a single item (including core items: this is the
// "explicit core-delete operation" the invariant requires).
func (s *Store) DeleteByID(_ context.Context, id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return false
	}
	delete(s.items, id)
	s.byAgent[item.AgentID] = removeAll(s.byAgent[item.AgentID], []uuid.UUID{id})
	if s.writer != nil {
		s.writer.EnqueueMemory("delete", item)
	}
	return true
}

// DeleteAllByKind removes every item of the given kind for agentID,
// including core items if explicitly requested.
func (s *Store) DeleteAllByKind(_ context.Context, agentID string, kind models.MemoryKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var toRemove []uuid.UUID
	for _, id := range s.byAgent[agentID] {
		if s.items[id].Kind == kind {
			toRemove = append(toRemove, id)
		}
	}
	for _, id := range toRemove {
		item := s.items[id]
		delete(s.items, id)
		if s.writer != nil {
			s.writer.EnqueueMemory("delete", item)
		}
	}
	s.byAgent[agentID] = removeAll(s.byAgent[agentID], toRemove)
	return len(toRemove)
}

// Relationship returns (creating if absent) the relationship edge from
// ownerAgentID to targetID.
func (s *Store) Relationship(ownerAgentID, targetID string) *models.Relationship {
	s.mu.Lock()
	defer s.mu.Unlock()
	byTarget, ok := s.relationships[ownerAgentID]
	if !ok {
		byTarget = make(map[string]*models.Relationship)
		s.relationships[ownerAgentID] = byTarget
	}
	rel, ok := byTarget[targetID]
	if !ok {
		r := models.NewRelationship(ownerAgentID, targetID)
		rel = &r
		byTarget[targetID] = rel
	}
	return rel
}

// ApplyRelationshipDelta applies an interaction delta and persists the
// resulting relationship snapshot.
func (s *Store) ApplyRelationshipDelta(ownerAgentID, targetID string, delta models.RelationshipDelta) models.Relationship {
	rel := s.Relationship(ownerAgentID, targetID)

	s.mu.Lock()
	rel.ApplyInteraction(delta, time.Now())
	snapshot := *rel
	s.mu.Unlock()

	if s.writer != nil {
		s.writer.EnqueueRelationship("update", snapshot)
	}
	return snapshot
}

// SeedRelationship installs rel as-is, bypassing ApplyInteraction and
// the writer notification. Used at boot to repopulate the in-memory
// store from durable storage without re-enqueueing a write for data
// that is already durable.
func (s *Store) SeedRelationship(rel models.Relationship) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byTarget, ok := s.relationships[rel.OwnerAgentID]
	if !ok {
		byTarget = make(map[string]*models.Relationship)
		s.relationships[rel.OwnerAgentID] = byTarget
	}
	r := rel
	byTarget[rel.TargetID] = &r
}

// TopRelationshipsByAbsSentiment returns up to M relationships for
// ownerAgentID ranked by |sentiment| descending (used for the context
// snapshot in §4.1 step 1).
func (s *Store) TopRelationshipsByAbsSentiment(ownerAgentID string, m int) []models.Relationship {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rels []models.Relationship
	for _, rel := range s.relationships[ownerAgentID] {
		rels = append(rels, *rel)
	}
	sort.Slice(rels, func(i, j int) bool { return abs(rels[i].Sentiment) > abs(rels[j].Sentiment) })
	if m > 0 && len(rels) > m {
		rels = rels[:m]
	}
	return rels
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
