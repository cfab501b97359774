// Package microblog defines the capability contract the Agent Runtime
// consumes to read and post to the microblogging network. Per §1 the
// raw SDK calls to the provider are out of core scope; this package
// is the thin seam the core depends on, grounded in the same
// capability-set idiom as internal/llmprovider.Provider rather than a
// class hierarchy (§9's redesign flag).
package microblog

import (
	"context"
	"errors"
	"time"

	"github.com/agentruntime/runtime/internal/models"
)

// PostParams carries the idempotency key every outbound send must
// attach (§4.5) so retries after an ambiguous failure can be
// deduplicated by the external system.
type PostParams struct {
	IdempotencyKey string
}

// Client is the capability set a credential-bound microblog connection
// exposes. Concrete implementations (a real HTTP-backed client, the
// deterministic FakeClient used in tests) are interchangeable.
type Client interface {
	// Name identifies the client for logging (e.g. the agent handle).
	Name() string

	PostTweet(ctx context.Context, content string, params PostParams) (models.Tweet, error)
	PostReply(ctx context.Context, content, replyToID string, params PostParams) (models.Tweet, error)
	PostQuote(ctx context.Context, content, quoteToID string, params PostParams) (models.Tweet, error)
	Like(ctx context.Context, tweetID string, params PostParams) error
	Retweet(ctx context.Context, tweetID string, params PostParams) error

	// GetTweet fetches a single tweet by id, used for thread-ancestor
	// reconstruction. Lookup failures are tolerated by callers (§4.6).
	GetTweet(ctx context.Context, id string) (models.Tweet, error)

	// GetMentionsSince returns mentions of this client's own handle
	// with id > sinceID (some tiers return sinceID inclusive; callers
	// must discard it -- scenario 5 of §8). Used by poll mode.
	GetMentionsSince(ctx context.Context, sinceID string) ([]models.Tweet, error)

	Healthcheck(ctx context.Context) error
}

// StreamEvent is one push-delivered mention from a filtered-stream
// connection.
type StreamEvent struct {
	Tweet models.Tweet
	Err   error // non-nil signals the stream ended/errored
}

// Streamer is the capability a Client may additionally expose for
// stream-mode ingestion (§4.6). Not every client/tier supports it;
// implementations that don't return an ErrInsufficientTier error from
// Connect.
type Streamer interface {
	// Connect opens a long-lived filtered-stream connection matching
	// this client's handle, and returns a channel of StreamEvents. The
	// channel closes when ctx is canceled or the connection ends.
	Connect(ctx context.Context) (<-chan StreamEvent, error)
}

type errInsufficientTier struct{ detail string }

func (e errInsufficientTier) Error() string { return "microblog: insufficient api tier: " + e.detail }

// ErrInsufficientTier signals that stream mode is unavailable for this
// credential set (§4.6's "access failure... falls back to Poll mode").
func ErrInsufficientTier(detail string) error { return errInsufficientTier{detail} }

// IsInsufficientTier reports whether err is (or wraps) an
// insufficient-API-tier failure.
func IsInsufficientTier(err error) bool {
	var tierErr errInsufficientTier
	return errors.As(err, &tierErr)
}

// RateLimitError marks an error as belonging to the rate-limit class
// for reconnect-backoff purposes (§4.6: base 60s instead of base 15s).
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string { return "microblog: rate limited: " + e.Err.Error() }
func (e *RateLimitError) Unwrap() error { return e.Err }
