package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/agentruntime/runtime/internal/models"
)

func TestPerAgentPriorityOrdering(t *testing.T) {
	e := New(0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var order []string

	e.Subscribe(models.EventMentionReceived, func(_ context.Context, ev models.Event) {
		mu.Lock()
		order = append(order, ev.Type)
		mu.Unlock()
	})
	e.Subscribe(models.EventManualPost, func(_ context.Context, ev models.Event) {
		mu.Lock()
		order = append(order, ev.Type)
		mu.Unlock()
	})

	// Scenario 6: mention_received (normal) enqueued before manual_post
	// (high) for the same agent; manual_post must dispatch first.
	e.Enqueue(models.NewEvent(models.EventMentionReceived, nil, models.PriorityNormal, "agent-a"))
	e.Enqueue(models.NewEvent(models.EventManualPost, nil, models.PriorityHigh, "agent-a"))
	e.Start(ctx)
	defer e.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(order)
		mu.Unlock()
		if n >= 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 {
		t.Fatalf("expected 2 dispatches, got %d: %v", len(order), order)
	}
	if order[0] != models.EventManualPost {
		t.Fatalf("expected manual_post dispatched first, got %v", order)
	}
}

func TestScheduleFiresExactlyOnce(t *testing.T) {
	e := New(0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.Start(ctx)
	defer e.Stop()

	var count int
	var mu sync.Mutex
	e.Subscribe(WildcardType, func(_ context.Context, ev models.Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	e.Schedule(models.NewEvent("timer_test", nil, models.PriorityNormal, "a"), 50*time.Millisecond)

	time.Sleep(300 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Fatalf("expected exactly one delivery, got %d", count)
	}
}

func TestCancelPreventsScheduledDispatch(t *testing.T) {
	e := New(0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.Start(ctx)
	defer e.Stop()

	var count int
	var mu sync.Mutex
	e.Subscribe(WildcardType, func(_ context.Context, ev models.Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	ev := e.Schedule(models.NewEvent("cancel_test", nil, models.PriorityNormal, "a"), 100*time.Millisecond)
	e.Cancel(ev.ID.String())

	time.Sleep(300 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if count != 0 {
		t.Fatalf("expected cancelled event not dispatched, got %d dispatches", count)
	}
}

func TestHighWaterMarkDropsLowPriority(t *testing.T) {
	e := New(0, 1)
	e.Enqueue(models.NewEvent("filler", nil, models.PriorityNormal, "a"))
	e.Enqueue(models.NewEvent("low", nil, models.PriorityLow, "a"))

	stats := e.Stats()
	if stats.DroppedLowPrio != 1 {
		t.Fatalf("expected 1 dropped low-priority event, got %d", stats.DroppedLowPrio)
	}
}
