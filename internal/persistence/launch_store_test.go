package persistence

import (
	"testing"
	"time"

	"github.com/agentruntime/runtime/internal/models"
)

func TestFileLaunchStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileLaunchStore(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	initial, err := store.GetTokenLaunchState("agent-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if initial.Launched {
		t.Fatalf("expected unlaunched state before any save")
	}

	want := initial
	want.Launched = true
	want.MintAddress = "SIMagent-1"
	want.LaunchedAt = time.Now()
	if err := store.SaveTokenLaunchState(want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.GetTokenLaunchState("agent-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Launched || got.MintAddress != want.MintAddress {
		t.Fatalf("expected persisted state to round-trip, got %+v", got)
	}
}

func TestFileLaunchStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewFileLaunchStore(dir)
	_ = store.SaveTokenLaunchState(models.TokenLaunchState{
		AgentID:     "agent-2",
		Launched:    true,
		MintAddress: "SIMagent-2",
	})

	reopened, err := NewFileLaunchStore(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := reopened.GetTokenLaunchState("agent-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Launched {
		t.Fatalf("expected launch state to survive reopening the store directory")
	}
}
