// Package persistence implements the three persisted surfaces of §4.7:
// agent memory (MemoryItems + Relationships) via a background write
// queue, bounded event history (delegated to internal/events' ring),
// and the one-shot, atomically-written token-launch file.
//
// The write queue is grounded on internal/database/write_queue.go's
// Enqueue/flush/retry/drop-oldest-10%-on-overflow shape, generalized
// from arbitrary GORM models to the MemoryItem/Relationship payloads
// this runtime persists.
package persistence

import (
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/agentruntime/runtime/internal/models"
)

// QueuedWrite is a single pending database operation.
type QueuedWrite struct {
	Operation string // "create", "update", "delete"
	Table     string
	Data      interface{}
	Timestamp time.Time
	Retries   int
}

// WriteQueue provides resilient, non-blocking database writes with
// automatic retry. The in-memory store (internal/memory.Store) is
// authoritative for reads while writes drain here; on shutdown the
// queue is flushed with a bounded timeout and anything left is
// considered lost (content is regenerable, per §4.7's design note).
type WriteQueue struct {
	db    *gorm.DB
	queue []QueuedWrite
	mu    sync.Mutex

	maxQueueSize int
	retryDelay   time.Duration

	stop chan struct{}
	done chan struct{}
}

// NewWriteQueue constructs a queue and starts its background
// processor. A nil db makes every flush a no-op (used in tests / when
// running without durable storage).
func NewWriteQueue(db *gorm.DB, maxSize int) *WriteQueue {
	if maxSize <= 0 {
		maxSize = 10000
	}
	wq := &WriteQueue{
		db:           db,
		queue:        make([]QueuedWrite, 0),
		maxQueueSize: maxSize,
		retryDelay:   5 * time.Second,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	go wq.processQueue()
	return wq
}

func (wq *WriteQueue) enqueue(operation, table string, data interface{}) {
	wq.mu.Lock()
	defer wq.mu.Unlock()

	if len(wq.queue) >= wq.maxQueueSize {
		log.Printf("[PERSIST][ERROR] queue full (%d items), dropping oldest writes", wq.maxQueueSize)
		dropCount := wq.maxQueueSize / 10
		if dropCount == 0 {
			dropCount = 1
		}
		wq.queue = wq.queue[dropCount:]
	}

	wq.queue = append(wq.queue, QueuedWrite{
		Operation: operation,
		Table:     table,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// EnqueueMemory implements internal/memory.Writer.
func (wq *WriteQueue) EnqueueMemory(op string, item models.MemoryItem) {
	wq.enqueue(op, "memory_items", item)
}

// EnqueueRelationship implements internal/memory.Writer.
func (wq *WriteQueue) EnqueueRelationship(op string, rel models.Relationship) {
	wq.enqueue(op, "relationships", rel)
}

func (wq *WriteQueue) processQueue() {
	defer close(wq.done)
	ticker := time.NewTicker(wq.retryDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			wq.flush()
		case <-wq.stop:
			wq.flush()
			return
		}
	}
}

func (wq *WriteQueue) flush() {
	wq.mu.Lock()
	defer wq.mu.Unlock()

	if len(wq.queue) == 0 || wq.db == nil {
		return
	}

	sqlDB, err := wq.db.DB()
	if err != nil || sqlDB.Ping() != nil {
		log.Printf("[PERSIST][WARN] database unavailable, keeping queue (%d items)", len(wq.queue))
		return
	}

	processed := 0
	failed := make([]QueuedWrite, 0, len(wq.queue))

	for _, write := range wq.queue {
		var err error
		switch write.Operation {
		case "create", "update":
			err = wq.db.Save(write.Data).Error
		case "delete":
			err = wq.db.Delete(write.Data).Error
		default:
			log.Printf("[PERSIST][ERROR] unknown operation: %s", write.Operation)
			continue
		}

		if err != nil {
			write.Retries++
			if write.Retries < 5 {
				failed = append(failed, write)
				log.Printf("[PERSIST][RETRY] %s for %s failed (retry %d/5): %v", write.Operation, write.Table, write.Retries, err)
			} else {
				log.Printf("[PERSIST][DROP] dropping %s for %s after 5 retries: %v", write.Operation, write.Table, err)
			}
		} else {
			processed++
		}
	}

	wq.queue = failed
	if processed > 0 {
		log.Printf("[PERSIST][COMPLETE] flushed %d writes, %d remaining", processed, len(wq.queue))
	}
}

// Shutdown flushes the queue once more with a bounded timeout; any
// writes still unflushed afterward are dropped (content is
// regenerable).
func (wq *WriteQueue) Shutdown(timeout time.Duration) {
	close(wq.stop)
	select {
	case <-wq.done:
	case <-time.After(timeout):
		log.Printf("[PERSIST][WARN] shutdown flush timed out after %s, %d writes dropped", timeout, wq.Size())
	}
}

// Size returns the current queue depth.
func (wq *WriteQueue) Size() int {
	wq.mu.Lock()
	defer wq.mu.Unlock()
	return len(wq.queue)
}
