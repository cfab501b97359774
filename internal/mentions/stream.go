package mentions

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/agentruntime/runtime/internal/concurrency"
	"github.com/agentruntime/runtime/internal/microblog"
	"github.com/agentruntime/runtime/internal/models"
)

// streamBackoffBase and streamBackoffBaseRateLimited are the §4.6
// reconnect base delays: 15s for ordinary disconnects, 60s when the
// failure is rate-limit-class.
var (
	streamBackoffBase            = 15 * time.Second
	streamBackoffBaseRateLimited = 60 * time.Second
)

// WSStreamer is a long-lived filtered-stream connection to the
// microblog provider's push endpoint, grounded on
// internal/websocket/hub.go's connection-management idiom (read loop
// + ping handling) but run as an outbound Dial client rather than the
// teacher's inbound server hub, and with no package-level singleton
// (§9's redesign flag).
type WSStreamer struct {
	URL        string
	Handle     string
	AuthHeader http.Header
	Dialer     *websocket.Dialer
}

// NewWSStreamer builds a streamer that filters for mentions of handle
// against url (the provider's filtered-stream endpoint).
func NewWSStreamer(url, handle string, authHeader http.Header) *WSStreamer {
	return &WSStreamer{URL: url, Handle: handle, AuthHeader: authHeader, Dialer: websocket.DefaultDialer}
}

// streamMessage is the wire shape a mention push delivers.
type streamMessage struct {
	Tweet models.Tweet `json:"tweet"`
}

// Connect dials the stream and returns a channel of StreamEvents. The
// returned goroutine owns reconnect-with-backoff internally: callers
// see a single logical stream for the lifetime of ctx, with
// disconnect/reconnect cycles transparent except for a log line.
func (s *WSStreamer) Connect(ctx context.Context) (<-chan microblog.StreamEvent, error) {
	conn, resp, err := s.Dialer.DialContext(ctx, s.URL, s.AuthHeader)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusForbidden {
			return nil, microblog.ErrInsufficientTier(fmt.Sprintf("stream dial forbidden for handle %s", s.Handle))
		}
		return nil, fmt.Errorf("mentions: stream dial failed: %w", err)
	}

	out := make(chan microblog.StreamEvent, 16)
	go s.run(ctx, conn, out)
	return out, nil
}

func (s *WSStreamer) run(ctx context.Context, conn *websocket.Conn, out chan<- microblog.StreamEvent) {
	defer close(out)
	backoff := concurrency.NewExponentialBackoff(concurrency.BackoffConfig{
		InitialDelay: streamBackoffBase,
		MaxDelay:     10 * time.Minute,
		Multiplier:   2,
		Jitter:       true,
		MaxRetries:   -1,
	})

	for {
		if conn == nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			delay := backoff.NextDelay()
			log.Printf("[MENTIONS][STREAM] handle=%s reconnecting in %s", s.Handle, delay)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			var err error
			var resp *http.Response
			conn, resp, err = s.Dialer.DialContext(ctx, s.URL, s.AuthHeader)
			if err != nil {
				if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
					backoff = concurrency.NewExponentialBackoff(concurrency.BackoffConfig{
						InitialDelay: streamBackoffBaseRateLimited,
						MaxDelay:     30 * time.Minute,
						Multiplier:   2,
						Jitter:       true,
						MaxRetries:   -1,
					})
				}
				continue
			}
			backoff.Reset()
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			conn = nil
			select {
			case out <- microblog.StreamEvent{Err: err}:
			default:
			}
			continue
		}

		var msg streamMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("[MENTIONS][STREAM][WARN] handle=%s malformed stream payload: %v", s.Handle, err)
			continue
		}
		select {
		case out <- microblog.StreamEvent{Tweet: msg.Tweet}:
		case <-ctx.Done():
			conn.Close()
			return
		}
	}
}
