package llmprovider

import (
	"context"
	"fmt"
)

// FakeProvider returns deterministic echoes, satisfying §4.4's
// requirement that "a fake implementation returning deterministic
// echoes MUST exist for tests." Scripted responses can be queued for
// tests that exercise specific pipeline branches (e.g. meta-confusion
// remediation).
type FakeProvider struct {
	// Responses, if non-empty, is consumed in order (one per Generate
	// call); once exhausted, Generate falls back to the deterministic
	// echo.
	Responses []string
	calls     int

	EmbedFn func(text string) ([]float64, error)
	FailErr error // when set, Generate always returns this error
}

func NewFakeProvider(responses ...string) *FakeProvider {
	return &FakeProvider{Responses: responses}
}

func (f *FakeProvider) Name() string { return "fake" }

func (f *FakeProvider) Generate(ctx context.Context, prompt, instruction string, params GenerateParams) (string, error) {
	if f.FailErr != nil {
		return "", f.FailErr
	}
	idx := f.calls
	f.calls++
	if idx < len(f.Responses) {
		return f.Responses[idx], nil
	}
	return fmt.Sprintf("echo[%s]: %s", instruction, prompt), nil
}

func (f *FakeProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if f.EmbedFn != nil {
		return f.EmbedFn(text)
	}
	return nil, ErrEmbedUnsupported
}

func (f *FakeProvider) Healthcheck(ctx context.Context) error { return nil }

// Calls reports how many times Generate has been invoked.
func (f *FakeProvider) Calls() int { return f.calls }
