package microblog

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/agentruntime/runtime/internal/models"
)

// FakeClient is a deterministic, in-memory microblog client satisfying
// §4.4's requirement that a fake provider with deterministic behavior
// must exist for tests -- extended here to the microblog capability
// since the Agent Runtime Loop drives both.
type FakeClient struct {
	mu       sync.Mutex
	handle   string
	nextID   int
	tweets   map[string]models.Tweet
	order    []string // insertion order, used for since_id polling
	sent     map[string]models.Tweet // idempotency key -> produced tweet
	mentions []models.Tweet

	FailHealthcheck bool
}

func NewFakeClient(handle string) *FakeClient {
	return &FakeClient{
		handle: handle,
		tweets: make(map[string]models.Tweet),
		sent:   make(map[string]models.Tweet),
	}
}

func (f *FakeClient) Name() string { return f.handle }

func (f *FakeClient) nextTweetID() string {
	f.nextID++
	return strconv.Itoa(f.nextID)
}

func (f *FakeClient) store(t models.Tweet, key string) models.Tweet {
	f.tweets[t.ID] = t
	f.order = append(f.order, t.ID)
	if key != "" {
		f.sent[key] = t
	}
	return t
}

func (f *FakeClient) PostTweet(_ context.Context, content string, params PostParams) (models.Tweet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.sent[params.IdempotencyKey]; params.IdempotencyKey != "" && ok {
		return existing, nil
	}
	t := models.Tweet{ID: f.nextTweetID(), Content: content, AuthorID: f.handle, AuthorHandle: f.handle, Timestamp: time.Now()}
	return f.store(t, params.IdempotencyKey), nil
}

func (f *FakeClient) PostReply(_ context.Context, content, replyToID string, params PostParams) (models.Tweet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.sent[params.IdempotencyKey]; params.IdempotencyKey != "" && ok {
		return existing, nil
	}
	t := models.Tweet{ID: f.nextTweetID(), Content: content, AuthorID: f.handle, AuthorHandle: f.handle, Timestamp: time.Now(), ReplyToID: replyToID}
	return f.store(t, params.IdempotencyKey), nil
}

func (f *FakeClient) PostQuote(_ context.Context, content, quoteToID string, params PostParams) (models.Tweet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.sent[params.IdempotencyKey]; params.IdempotencyKey != "" && ok {
		return existing, nil
	}
	t := models.Tweet{ID: f.nextTweetID(), Content: content, AuthorID: f.handle, AuthorHandle: f.handle, Timestamp: time.Now(), QuoteToID: quoteToID}
	return f.store(t, params.IdempotencyKey), nil
}

func (f *FakeClient) Like(_ context.Context, tweetID string, _ PostParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tweets[tweetID]; !ok {
		return fmt.Errorf("fake microblog: unknown tweet %s", tweetID)
	}
	return nil
}

func (f *FakeClient) Retweet(_ context.Context, tweetID string, _ PostParams) error {
	return f.Like(context.Background(), tweetID, PostParams{})
}

func (f *FakeClient) GetTweet(_ context.Context, id string) (models.Tweet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tweets[id]
	if !ok {
		return models.Tweet{}, fmt.Errorf("fake microblog: tweet %s not found", id)
	}
	return t, nil
}

func (f *FakeClient) GetMentionsSince(_ context.Context, sinceID string) ([]models.Tweet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sinceN, _ := strconv.Atoi(sinceID)
	var out []models.Tweet
	for _, m := range f.mentions {
		n, _ := strconv.Atoi(m.ID)
		if n > sinceN {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ni, _ := strconv.Atoi(out[i].ID)
		nj, _ := strconv.Atoi(out[j].ID)
		return ni < nj
	})
	return out, nil
}

func (f *FakeClient) Healthcheck(_ context.Context) error {
	if f.FailHealthcheck {
		return fmt.Errorf("fake microblog: unhealthy")
	}
	return nil
}

// SeedTweet registers a tweet as if it had been fetched from the real
// provider (used to build thread ancestries in tests).
func (f *FakeClient) SeedTweet(t models.Tweet) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store(t, "")
}

// SeedMention appends t to the queue GetMentionsSince serves from.
func (f *FakeClient) SeedMention(t models.Tweet) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mentions = append(f.mentions, t)
	f.tweets[t.ID] = t
}

// Sent returns the tweet produced for a given idempotency key, if any.
func (f *FakeClient) Sent(key string) (models.Tweet, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.sent[key]
	return t, ok
}
