package jobs

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/yukikurage/story-relay-api/internal/logging"
	"github.com/yukikurage/story-relay-api/internal/models"
	"github.com/yukikurage/story-relay-api/internal/render"
	"github.com/yukikurage/story-relay-api/internal/repository"
	"github.com/yukikurage/story-relay-api/internal/storage"
)

// recordTimeout bounds the status writes made after a job has ended.
const recordTimeout = 5 * time.Second

var exportDirs = map[models.ExportFormat]string{
	models.ExportFormatPDF:   "pdf",
	models.ExportFormatImage: "images",
}

// ObjectKey is the storage key of a story's export. Re-exporting overwrites it.
func ObjectKey(renderer render.Renderer, format models.ExportFormat, storyID uint64) string {
	return fmt.Sprintf("exports/%s/story_%d.%s", exportDirs[format], storyID, renderer.Extension())
}

// ExportWorker renders a story, stores the file and records the outcome on
// both the story and the export job.
type ExportWorker struct {
	stories repository.StoryRepository
	jobs    repository.ExportJobRepository
	backend storage.Backend
	logger  logging.Logger
}

func NewExportWorker(stories repository.StoryRepository, jobs repository.ExportJobRepository, backend storage.Backend, logger logging.Logger) *ExportWorker {
	return &ExportWorker{
		stories: stories,
		jobs:    jobs,
		backend: backend,
		logger:  logger,
	}
}

func (w *ExportWorker) Handle(ctx context.Context, msg JobMessage) error {
	key, err := w.export(ctx, msg)
	if err != nil {
		w.fail(ctx, msg, err)
		return err
	}

	// the job's deadline may be spent by now
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := w.stories.SetExportState(recordCtx, msg.StoryID, msg.Format, models.ExportStatusDone, &key); err != nil {
		err = fmt.Errorf("failed to record export on story: %w", err)
		w.fail(ctx, msg, err)
		return err
	}
	if err := w.jobs.Finish(recordCtx, msg.JobID, models.ExportStatusDone, key, ""); err != nil {
		return fmt.Errorf("failed to finish job: %w", err)
	}
	return nil
}

func (w *ExportWorker) export(ctx context.Context, msg JobMessage) (string, error) {
	renderer, ok := render.ForFormat(msg.Format)
	if !ok {
		return "", fmt.Errorf("unsupported export format %q", msg.Format)
	}

	story, err := w.stories.FindByID(ctx, msg.StoryID)
	if err != nil {
		return "", fmt.Errorf("failed to load story: %w", err)
	}
	contributions, err := w.stories.ListContributions(ctx, msg.StoryID)
	if err != nil {
		return "", fmt.Errorf("failed to load contributions: %w", err)
	}

	var buf bytes.Buffer
	if err := renderer.Render(&buf, render.NewDocument(story, contributions)); err != nil {
		return "", err
	}

	key := ObjectKey(renderer, msg.Format, msg.StoryID)
	if err := w.backend.Put(ctx, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), renderer.ContentType()); err != nil {
		return "", fmt.Errorf("failed to store export: %w", err)
	}
	return key, nil
}

// fail keeps the story's previous file reference; only the status changes.
// It writes on a fresh context because ctx may have expired.
func (w *ExportWorker) fail(ctx context.Context, msg JobMessage, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := w.stories.SetExportState(ctx, msg.StoryID, msg.Format, models.ExportStatusFailed, nil); err != nil {
		w.logger.Error(ctx, "failed to mark story export failed", "story_id", msg.StoryID, "error", err)
	}
	if err := w.jobs.Finish(ctx, msg.JobID, models.ExportStatusFailed, "", cause.Error()); err != nil {
		w.logger.Error(ctx, "failed to mark export job failed", "job_id", msg.JobID, "error", err)
	}
}
