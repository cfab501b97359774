// Grounded on pkg/llm/client.go: an HTTP-backed client to a local
// Ollama/DeepSeek-style completion endpoint, wrapped in a circuit
// breaker and exponential-backoff retry. Generalized here into a
// generic OpenAI-compatible-chat HTTP provider (the same transport the
// teacher used, pointed at the env-resolved endpoint/model/key
// combination instead of a single hardcoded local model).
package llmprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/agentruntime/runtime/internal/concurrency"
	"github.com/agentruntime/runtime/internal/rterrors"
)

// HTTPProvider talks to any OpenAI-compatible chat-completions
// endpoint (OpenAI itself, or a Grok-compatible endpoint via
// GROK_API_ENDPOINT).
type HTTPProvider struct {
	name       string
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	breaker    *CircuitBreaker
	retries    int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// HTTPProviderConfig configures an HTTPProvider.
type HTTPProviderConfig struct {
	Name      string
	BaseURL   string
	Model     string
	APIKey    string
	Deadline  time.Duration // per-call deadline, default 30s per §4.1
	Retries   int           // default 3 per §4.1
	BaseDelay time.Duration // default 1s
	MaxDelay  time.Duration // default 10s
}

// NewHTTPProvider constructs a provider with sensible defaults applied
// to any zero-valued config fields.
func NewHTTPProvider(cfg HTTPProviderConfig) *HTTPProvider {
	deadline := cfg.Deadline
	if deadline <= 0 {
		deadline = 30 * time.Second
	}
	retries := cfg.Retries
	if retries <= 0 {
		retries = 3
	}
	baseDelay := cfg.BaseDelay
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	maxDelay := cfg.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 10 * time.Second
	}
	return &HTTPProvider{
		name:       cfg.Name,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: deadline},
		breaker:    NewCircuitBreaker(5, 30*time.Second),
		retries:    retries,
		baseDelay:  baseDelay,
		maxDelay:   maxDelay,
	}
}

func (p *HTTPProvider) Name() string { return p.name }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate sends prompt+instruction to the chat-completions endpoint,
// making one initial attempt plus up to R retries with exponential
// backoff, honoring ctx's deadline at each attempt. Every failure is
// retried, 4xx responses other than 429 included, and the final error
// is always classified as rterrors.Transient.
func (p *HTTPProvider) Generate(ctx context.Context, prompt, instruction string, params GenerateParams) (string, error) {
	if !p.breaker.Allow() {
		return "", rterrors.New(rterrors.Transient, "llmprovider.Generate", fmt.Errorf("circuit breaker open for %s", p.name))
	}

	cfg := concurrency.BackoffConfig{
		InitialDelay: p.baseDelay,
		MaxDelay:     p.maxDelay,
		Multiplier:   2.0,
		Jitter:       true,
		MaxRetries:   p.retries,
	}
	backoff := concurrency.NewExponentialBackoff(cfg)

	var lastErr error
	for attempt := 0; ; attempt++ {
		out, err := p.generateOnce(ctx, prompt, instruction, params)
		if err == nil {
			p.breaker.RecordSuccess()
			return out, nil
		}
		lastErr = err
		p.breaker.RecordFailure()

		if !backoff.ShouldRetry() {
			break
		}
		delay := backoff.NextDelay()
		if delay == 0 {
			break
		}
		select {
		case <-ctx.Done():
			return "", rterrors.New(rterrors.Transient, "llmprovider.Generate", ctx.Err())
		case <-time.After(delay):
		}
	}
	return "", rterrors.New(rterrors.Transient, "llmprovider.Generate", fmt.Errorf("exhausted %d retries: %w", p.retries, lastErr))
}

func (p *HTTPProvider) generateOnce(ctx context.Context, prompt, instruction string, params GenerateParams) (string, error) {
	reqBody := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: instruction},
			{Role: "user", Content: prompt},
		},
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("provider %s returned %d: %s", p.name, resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("provider %s returned no choices", p.name)
	}
	return parsed.Choices[0].Message.Content, nil
}

// Embed is unsupported by the generic chat provider; callers fall back
// to lexical similarity per §4.4.
func (p *HTTPProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	return nil, ErrEmbedUnsupported
}

func (p *HTTPProvider) Healthcheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return err
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("provider %s unhealthy: status %d", p.name, resp.StatusCode)
	}
	return nil
}
