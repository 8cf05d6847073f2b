// Package jobs runs story exports in the background.
//
// A Queue accepts JobMessages and hands each one to a Handler on a worker
// goroutine. Handlers run with their own deadline, detached from the
// request that submitted the job.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/story-relay-api/internal/logging"
	"github.com/yukikurage/story-relay-api/internal/models"
)

var ErrQueueClosed = errors.New("queue is closed")

// JobMessage is the payload passed from the API to the workers.
type JobMessage struct {
	JobID   string              `json:"job_id"`
	StoryID uint64              `json:"story_id"`
	Format  models.ExportFormat `json:"format"`
}

type Handler interface {
	Handle(ctx context.Context, msg JobMessage) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, msg JobMessage) error

func (f HandlerFunc) Handle(ctx context.Context, msg JobMessage) error {
	return f(ctx, msg)
}

type Queue interface {
	// Submit enqueues msg. It returns once the job is accepted, not when it finishes.
	Submit(ctx context.Context, msg JobMessage) error

	// Close stops accepting jobs and waits for in-flight jobs to finish.
	Close() error
}

func runJob(handler Handler, timeout time.Duration, logger logging.Logger, msg JobMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	log := logger.With("job_id", msg.JobID, "story_id", msg.StoryID, "format", msg.Format)
	start := time.Now()
	log.Info(ctx, "export job started")

	if err := handler.Handle(ctx, msg); err != nil {
		log.Error(ctx, "export job failed", "error", err, "duration", time.Since(start))
		return
	}
	log.Info(ctx, "export job finished", "duration", time.Since(start))
}
