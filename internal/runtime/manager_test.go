package runtime

import (
	"context"
	"testing"

	"github.com/agentruntime/runtime/internal/events"
	"github.com/agentruntime/runtime/internal/llmprovider"
	"github.com/agentruntime/runtime/internal/memory"
	"github.com/agentruntime/runtime/internal/microblog"
	"github.com/agentruntime/runtime/internal/models"
)

func TestManagerRegisterAndDispatchRoutesToCorrectActor(t *testing.T) {
	engine := events.New(0, 0)
	store := memory.NewStore(0, nil)
	mgr := NewManager(engine, store)

	agentA := testAgent("agent-a")
	agentB := testAgent("agent-b")
	providerA := llmprovider.NewFakeProvider("a response")
	providerB := llmprovider.NewFakeProvider("b response")
	clientA := microblog.NewFakeClient("nova-a")
	clientB := microblog.NewFakeClient("nova-b")

	mgr.RegisterAgent(agentA, Deps{Provider: providerA, Client: clientA})
	mgr.RegisterAgent(agentB, Deps{Provider: providerB, Client: clientB})

	ev := models.NewEvent(models.EventSelfTick, nil, models.PriorityNormal, agentA.ID)
	mgr.dispatch(context.Background(), ev)

	actorA, ok := mgr.Actor("agent-a")
	if !ok {
		t.Fatalf("expected agent-a to be registered")
	}
	if actorA.getLastPostTime().IsZero() {
		t.Fatalf("expected agent-a to have posted after a routed self-tick")
	}

	actorB, ok := mgr.Actor("agent-b")
	if !ok {
		t.Fatalf("expected agent-b to be registered")
	}
	if !actorB.getLastPostTime().IsZero() {
		t.Fatalf("expected agent-b to be untouched by an event targeted only at agent-a")
	}
	if providerB.Calls() != 0 {
		t.Fatalf("expected no provider calls for the untargeted agent, got %d", providerB.Calls())
	}
}

func TestManagerActorsReturnsAllRegistered(t *testing.T) {
	engine := events.New(0, 0)
	store := memory.NewStore(0, nil)
	mgr := NewManager(engine, store)

	mgr.RegisterAgent(testAgent("agent-x"), Deps{Provider: llmprovider.NewFakeProvider("x"), Client: microblog.NewFakeClient("x")})
	mgr.RegisterAgent(testAgent("agent-y"), Deps{Provider: llmprovider.NewFakeProvider("y"), Client: microblog.NewFakeClient("y")})

	if got := len(mgr.Actors()); got != 2 {
		t.Fatalf("expected 2 registered actors, got %d", got)
	}
}

func TestManagerStopTransitionsActorsToStopped(t *testing.T) {
	// Invoke the actor's own Stop rather than Manager.Stop, to avoid
	// sleeping the full shutdownGrace in a unit test.
	engine := events.New(0, 0)
	store := memory.NewStore(0, nil)
	mgr := NewManager(engine, store)
	mgr.RegisterAgent(testAgent("agent-z"), Deps{Provider: llmprovider.NewFakeProvider("z"), Client: microblog.NewFakeClient("z")})

	a, _ := mgr.Actor("agent-z")
	a.Stop()

	if a.State() != StateStopped {
		t.Fatalf("expected actor to be stopped, got %v", a.State())
	}
}
