package config

import "testing"

func TestResolveCredentialsInlineTakesPrecedence(t *testing.T) {
	t.Setenv("TWITTER_API_KEY", "global-key")
	doc := AgentDocument{
		ID:                 "agent-a",
		TwitterCredentials: &InlineTwitterCredentials{APIKey: "inline-key"},
	}
	creds, err := ResolveCredentials("agent-a", doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.TwitterAPIKey != "inline-key" {
		t.Fatalf("expected inline config to win, got %q", creds.TwitterAPIKey)
	}
}

func TestResolveCredentialsFallsBackToGlobalEnv(t *testing.T) {
	t.Setenv("TWITTER_API_KEY", "global-key")
	doc := AgentDocument{ID: "agent-b"}
	creds, err := ResolveCredentials("agent-b", doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.TwitterAPIKey != "global-key" {
		t.Fatalf("expected global env fallback, got %q", creds.TwitterAPIKey)
	}
}

func TestResolveCredentialsPerAgentSolanaOverride(t *testing.T) {
	t.Setenv("SOLANA_PRIVATE_KEY", "global-sol")
	t.Setenv("SOLANA_PRIVATE_KEY_COBY_AGENT", "per-agent-sol")
	doc := AgentDocument{
		ID:                "coby-agent",
		SolanaIntegration: &SolanaIntegration{Enabled: true},
	}
	creds, err := ResolveCredentials("coby-agent", doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.SolanaPrivateKey != "per-agent-sol" {
		t.Fatalf("expected per-agent override to win, got %q", creds.SolanaPrivateKey)
	}
}

func TestResolveCredentialsFailsWhenSolanaEnabledWithoutKey(t *testing.T) {
	doc := AgentDocument{
		ID:                "agent-c",
		SolanaIntegration: &SolanaIntegration{Enabled: true},
	}
	if _, err := ResolveCredentials("agent-c", doc); err == nil {
		t.Fatalf("expected error when solana integration enabled without a private key anywhere")
	}
}

func TestRequireTwitterCredentialsDetectsMissingField(t *testing.T) {
	doc := AgentDocument{ID: "agent-d"}
	creds, _ := ResolveCredentials("agent-d", doc)
	if err := RequireTwitterCredentials("agent-d", creds); err == nil {
		t.Fatalf("expected missing-credential error")
	}
}
