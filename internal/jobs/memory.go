package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/yukikurage/story-relay-api/internal/logging"
)

// MemoryQueue is an in-process queue backed by a buffered channel.
// Pending jobs are lost if the process dies.
type MemoryQueue struct {
	jobs    chan JobMessage
	handler Handler
	timeout time.Duration
	logger  logging.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewMemoryQueue starts workers goroutines consuming from a buffer of bufferSize jobs.
func NewMemoryQueue(handler Handler, workers, bufferSize int, timeout time.Duration, logger logging.Logger) *MemoryQueue {
	if workers < 1 {
		workers = 1
	}
	if bufferSize < 0 {
		bufferSize = 0
	}

	q := &MemoryQueue{
		jobs:    make(chan JobMessage, bufferSize),
		handler: handler,
		timeout: timeout,
		logger:  logger,
	}

	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	return q
}

func (q *MemoryQueue) work() {
	defer q.wg.Done()
	for msg := range q.jobs {
		runJob(q.handler, q.timeout, q.logger, msg)
	}
}

// Submit blocks while the buffer is full, until ctx is done.
func (q *MemoryQueue) Submit(ctx context.Context, msg JobMessage) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains buffered jobs before returning.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
	return nil
}
