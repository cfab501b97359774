package mentions

import (
	"context"

	"github.com/agentruntime/runtime/internal/microblog"
	"github.com/agentruntime/runtime/internal/models"
)

// DefaultThreadDepth and DefaultThreadCount bound the breadth-first
// ancestor walk §4.6 describes: depth D≈5, count ≈32 messages.
const (
	DefaultThreadDepth = 5
	DefaultThreadCount = 32
)

// ReconstructThread walks tweet's reply-chain ancestors breadth-first
// up to depth levels or count total messages, fetching each via
// client.GetTweet. Individual lookup failures are tolerated -- a
// partial history is acceptable (§4.6) -- so this never returns an
// error; it returns whatever it could assemble, oldest first.
func ReconstructThread(ctx context.Context, client microblog.Client, tweet models.Tweet, depth, count int) []models.Tweet {
	if depth <= 0 {
		depth = DefaultThreadDepth
	}
	if count <= 0 {
		count = DefaultThreadCount
	}

	var history []models.Tweet
	current := tweet
	for level := 0; level < depth && len(history) < count; level++ {
		if current.ReplyToID == "" {
			break
		}
		ancestor, err := client.GetTweet(ctx, current.ReplyToID)
		if err != nil {
			// Lookup failure for this ancestor is tolerated; the chain
			// stops here but whatever was gathered so far is kept.
			break
		}
		history = append([]models.Tweet{ancestor}, history...)
		current = ancestor
	}

	if len(history) > count {
		history = history[len(history)-count:]
	}
	return history
}
