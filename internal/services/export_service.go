package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/yukikurage/story-relay-api/internal/jobs"
	"github.com/yukikurage/story-relay-api/internal/logging"
	"github.com/yukikurage/story-relay-api/internal/models"
	"github.com/yukikurage/story-relay-api/internal/render"
	"github.com/yukikurage/story-relay-api/internal/repository"
	"github.com/yukikurage/story-relay-api/internal/storage"
	"gorm.io/gorm"
)

var (
	ErrInvalidExportFormat = errors.New("invalid export type. Choose 'pdf' or 'image'")
	ErrExportJobNotFound   = errors.New("export job not found")
	ErrQueueUnavailable    = errors.New("export queue is unavailable")
	ErrExportNotReady      = errors.New("export file is not available")
)

// ExportService records export jobs and hands them to the queue.
// Rendering happens in jobs.ExportWorker.
type ExportService struct {
	storyRepo repository.StoryRepository
	jobRepo   repository.ExportJobRepository
	queue     jobs.Queue
	backend   storage.Backend
	logger    logging.Logger
}

// NewExportService creates a new ExportService
func NewExportService(storyRepo repository.StoryRepository, jobRepo repository.ExportJobRepository, queue jobs.Queue, backend storage.Backend, logger logging.Logger) *ExportService {
	return &ExportService{
		storyRepo: storyRepo,
		jobRepo:   jobRepo,
		queue:     queue,
		backend:   backend,
		logger:    logger,
	}
}

// ExportFile is an open export ready to be streamed to a client.
type ExportFile struct {
	Body        io.ReadCloser
	ContentType string
	Name        string
}

// ExportStory validates the format, records a pending job and submits it.
// Any authenticated user may export any story, complete or not.
func (s *ExportService) ExportStory(ctx context.Context, storyID, requesterID uint64, format models.ExportFormat) (*models.ExportJob, error) {
	if !format.Valid() {
		return nil, ErrInvalidExportFormat
	}

	if _, err := s.storyRepo.FindByID(ctx, storyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoryNotFound
		}
		return nil, fmt.Errorf("failed to find story: %w", err)
	}

	job := &models.ExportJob{
		ID:            uuid.NewString(),
		StoryID:       storyID,
		RequestedByID: requesterID,
		Format:        format,
		Status:        models.ExportStatusPending,
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create export job: %w", err)
	}
	if err := s.storyRepo.SetExportState(ctx, storyID, format, models.ExportStatusPending, nil); err != nil {
		return nil, fmt.Errorf("failed to mark export pending: %w", err)
	}

	msg := jobs.JobMessage{JobID: job.ID, StoryID: storyID, Format: format}
	if err := s.queue.Submit(ctx, msg); err != nil {
		s.logger.Error(ctx, "failed to submit export job", "job_id", job.ID, "story_id", storyID, "error", err)
		s.abandon(job, err)
		return nil, errors.Join(ErrQueueUnavailable, err)
	}

	return job, nil
}

// GetExportJob returns a job of the given story
func (s *ExportService) GetExportJob(ctx context.Context, storyID uint64, jobID string) (*models.ExportJob, error) {
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExportJobNotFound
		}
		return nil, fmt.Errorf("failed to find export job: %w", err)
	}
	if job.StoryID != storyID {
		return nil, ErrExportJobNotFound
	}
	return job, nil
}

// OpenExport opens the file written by a finished job. The caller closes Body.
func (s *ExportService) OpenExport(ctx context.Context, storyID uint64, jobID string) (*ExportFile, error) {
	job, err := s.GetExportJob(ctx, storyID, jobID)
	if err != nil {
		return nil, err
	}
	renderer, ok := render.ForFormat(job.Format)
	if job.Status != models.ExportStatusDone || job.FileRef == "" || !ok {
		return nil, ErrExportNotReady
	}

	body, err := s.backend.Get(ctx, job.FileRef)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrExportNotReady
		}
		return nil, fmt.Errorf("failed to open export: %w", err)
	}
	return &ExportFile{
		Body:        body,
		ContentType: renderer.ContentType(),
		Name:        fmt.Sprintf("story_%d.%s", storyID, renderer.Extension()),
	}, nil
}

// removeExportFiles deletes stored export files once their rows are gone.
// Failures are logged and do not undo the delete.
func removeExportFiles(ctx context.Context, backend storage.Backend, logger logging.Logger, refs []string) {
	for _, ref := range refs {
		if err := backend.Delete(ctx, ref); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			logger.Warn(ctx, "failed to remove export file", "file", ref, "error", err)
		}
	}
}

// abandon marks a job that never reached the queue. The request context may
// already be expired, so bookkeeping uses a fresh one.
func (s *ExportService) abandon(job *models.ExportJob, cause error) {
	ctx := context.Background()
	if err := s.jobRepo.Finish(ctx, job.ID, models.ExportStatusFailed, "", cause.Error()); err != nil {
		s.logger.Error(ctx, "failed to mark export job failed", "job_id", job.ID, "error", err)
	}
	if err := s.storyRepo.SetExportState(ctx, job.StoryID, job.Format, models.ExportStatusFailed, nil); err != nil {
		s.logger.Error(ctx, "failed to mark story export failed", "story_id", job.StoryID, "error", err)
	}
	job.Status = models.ExportStatusFailed
}
