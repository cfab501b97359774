package mentions

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultDedupSize is the per-agent bound from §4.6: an ingested
// (tweet_id, agent_id) pair is deduped in a bounded LRU of this size.
const DefaultDedupSize = 10000

// Dedup reports and records whether a (agentID, tweetID) pair has
// already been ingested.
type Dedup interface {
	// SeenOrMark atomically checks membership and records the pair if
	// new, returning true if the pair had already been seen.
	SeenOrMark(ctx context.Context, agentID, tweetID string) (bool, error)
}

// MemoryDedup is a bounded per-agent LRU, used when no distributed
// dedup store is configured -- adequate for a single-process runtime.
type MemoryDedup struct {
	mu   sync.Mutex
	cap  int
	sets map[string]*agentLRU
}

type agentLRU struct {
	order *list.List
	index map[string]*list.Element
}

// NewMemoryDedup builds a MemoryDedup bounding each agent's set to cap
// entries (DefaultDedupSize if cap <= 0).
func NewMemoryDedup(cap int) *MemoryDedup {
	if cap <= 0 {
		cap = DefaultDedupSize
	}
	return &MemoryDedup{cap: cap, sets: make(map[string]*agentLRU)}
}

func (d *MemoryDedup) SeenOrMark(_ context.Context, agentID, tweetID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.sets[agentID]
	if !ok {
		s = &agentLRU{order: list.New(), index: make(map[string]*list.Element)}
		d.sets[agentID] = s
	}

	if el, ok := s.index[tweetID]; ok {
		s.order.MoveToFront(el)
		return true, nil
	}

	el := s.order.PushFront(tweetID)
	s.index[tweetID] = el
	if s.order.Len() > d.cap {
		oldest := s.order.Back()
		if oldest != nil {
			s.order.Remove(oldest)
			delete(s.index, oldest.Value.(string))
		}
	}
	return false, nil
}

// RedisDedup backs the dedup set with Redis so multiple process
// instances sharing a credential don't double-ingest a mention. Each
// agent's set is a Redis key with a generous TTL standing in for the
// "bounded size" requirement (old entries age out rather than being
// LRU-evicted, which is an acceptable approximation for a dedup set
// whose only purpose is suppressing re-processing).
type RedisDedup struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDedup wraps an existing Redis client. ttl bounds how long a
// tweet id is remembered (default 72h if ttl <= 0).
func NewRedisDedup(client *redis.Client, ttl time.Duration) *RedisDedup {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &RedisDedup{client: client, ttl: ttl}
}

func (d *RedisDedup) key(agentID string) string {
	return "mentions:seen:" + agentID
}

func (d *RedisDedup) SeenOrMark(ctx context.Context, agentID, tweetID string) (bool, error) {
	added, err := d.client.SAdd(ctx, d.key(agentID), tweetID).Result()
	if err != nil {
		return false, err
	}
	d.client.Expire(ctx, d.key(agentID), d.ttl)
	return added == 0, nil
}
