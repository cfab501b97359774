package llmprovider

import (
	"testing"
	"time"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, 50*time.Millisecond)

	for i := 0; i < 3; i++ {
		if !cb.Allow() {
			t.Fatalf("expected closed breaker to allow call %d", i)
		}
		cb.RecordFailure()
	}

	if cb.Allow() {
		t.Fatalf("expected breaker to be open after 3 failures")
	}
	if cb.State() != StateOpen {
		t.Fatalf("expected state Open, got %v", cb.State())
	}
}

func TestCircuitBreakerHalfOpenAfterCooldown(t *testing.T) {
	cb := NewCircuitBreaker(1, 20*time.Millisecond)
	cb.RecordFailure()
	if cb.Allow() {
		t.Fatalf("expected open immediately after tripping")
	}

	time.Sleep(30 * time.Millisecond)
	if !cb.Allow() {
		t.Fatalf("expected half-open probe to be allowed after cooldown")
	}
	if cb.State() != StateHalfOpen {
		t.Fatalf("expected HalfOpen, got %v", cb.State())
	}

	cb.RecordSuccess()
	if cb.State() != StateClosed {
		t.Fatalf("expected Closed after half-open success, got %v", cb.State())
	}
}

func TestFakeProviderDeterministicEcho(t *testing.T) {
	p := NewFakeProvider()
	out, err := p.Generate(nil, "hello", "instruction", GenerateParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out2, _ := NewFakeProvider().Generate(nil, "hello", "instruction", GenerateParams{})
	if out != out2 {
		t.Fatalf("expected deterministic echo across instances, got %q vs %q", out, out2)
	}
}

func TestFakeProviderScriptedResponses(t *testing.T) {
	p := NewFakeProvider("first", "second")
	a, _ := p.Generate(nil, "p", "i", GenerateParams{})
	b, _ := p.Generate(nil, "p", "i", GenerateParams{})
	c, _ := p.Generate(nil, "p", "i", GenerateParams{})

	if a != "first" || b != "second" {
		t.Fatalf("expected scripted responses in order, got %q, %q", a, b)
	}
	if c == "first" || c == "second" {
		t.Fatalf("expected fallback echo after scripted responses exhausted, got %q", c)
	}
}
