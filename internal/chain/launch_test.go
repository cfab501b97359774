package chain

import (
	"errors"
	"testing"

	"github.com/agentruntime/runtime/internal/models"
)

type memStateStore struct {
	state models.TokenLaunchState
	saved bool
}

func (m *memStateStore) GetTokenLaunchState(agentID string) (models.TokenLaunchState, error) {
	if m.saved {
		return m.state, nil
	}
	return models.TokenLaunchState{AgentID: agentID}, nil
}

func (m *memStateStore) SaveTokenLaunchState(state models.TokenLaunchState) error {
	m.state = state
	m.saved = true
	return nil
}

func TestLaunchIfNeededIsIdempotent(t *testing.T) {
	store := &memStateStore{}
	l := NewLauncher(nil, store)

	first, err := l.LaunchIfNeeded(LaunchParams{AgentID: "coby-agent", SimulationMode: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.AlreadyExisted {
		t.Fatalf("expected first launch to not already exist")
	}
	if !first.State.Launched {
		t.Fatalf("expected launched=true after first call")
	}

	second, err := l.LaunchIfNeeded(LaunchParams{AgentID: "coby-agent", SimulationMode: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.AlreadyExisted {
		t.Fatalf("expected second call to report already-existing launch")
	}
	if second.State.MintAddress != first.State.MintAddress {
		t.Fatalf("expected identical mint across repeated launch calls")
	}
	if second.ShouldTweet {
		t.Fatalf("expected no tweet on repeated launch without force_tweet")
	}
}

func TestLaunchIfNeededForceTweetOnRepeat(t *testing.T) {
	store := &memStateStore{}
	l := NewLauncher(nil, store)

	_, _ = l.LaunchIfNeeded(LaunchParams{AgentID: "coby-agent", SimulationMode: true})
	result, err := l.LaunchIfNeeded(LaunchParams{AgentID: "coby-agent", SimulationMode: true, ForceTweet: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.ShouldTweet {
		t.Fatalf("expected force_tweet to request exactly one announcement")
	}
}

type errStore struct{}

func (errStore) GetTokenLaunchState(agentID string) (models.TokenLaunchState, error) {
	return models.TokenLaunchState{}, errors.New("boom")
}
func (errStore) SaveTokenLaunchState(state models.TokenLaunchState) error { return nil }

func TestLaunchIfNeededPropagatesStoreError(t *testing.T) {
	l := NewLauncher(nil, errStore{})
	if _, err := l.LaunchIfNeeded(LaunchParams{AgentID: "a"}); err == nil {
		t.Fatalf("expected error to propagate")
	}
}
