// Package llmprovider defines the language-model capability contract
// from §4.4/§9: a capability set {generate, embed, name, healthcheck}
// rather than a class hierarchy, so concrete providers are
// interchangeable variants with no shared base class.
package llmprovider

import "context"

// GenerateParams carries the knobs the content pipeline needs to
// control a single generation call.
type GenerateParams struct {
	Temperature float64
	MaxTokens   int
}

// Provider is the capability contract every language-model
// collaborator implements. Concrete providers (OpenAI-compatible,
// Grok-compatible, a deterministic fake for tests) are interchangeable.
type Provider interface {
	// Name identifies the provider for logging/config purposes.
	Name() string
	// Generate produces a completion for prompt+instruction, honoring
	// ctx's deadline/cancellation.
	Generate(ctx context.Context, prompt, instruction string, params GenerateParams) (string, error)
	// Embed produces a vector embedding for text. Implementations that
	// don't support embeddings return ErrEmbedUnsupported so callers
	// fall back to lexical similarity per §4.4.
	Embed(ctx context.Context, text string) ([]float64, error)
	// Healthcheck reports whether the provider is currently reachable.
	Healthcheck(ctx context.Context) error
}

// ErrEmbedUnsupported is returned by providers with no embedding
// capability.
type errEmbedUnsupported struct{}

func (errEmbedUnsupported) Error() string { return "llmprovider: embed not supported" }

var ErrEmbedUnsupported error = errEmbedUnsupported{}
