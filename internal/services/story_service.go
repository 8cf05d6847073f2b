package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/story-relay-api/internal/constants"
	"github.com/yukikurage/story-relay-api/internal/logging"
	"github.com/yukikurage/story-relay-api/internal/models"
	"github.com/yukikurage/story-relay-api/internal/repository"
	"github.com/yukikurage/story-relay-api/internal/storage"
	"github.com/yukikurage/story-relay-api/internal/validation"
	"gorm.io/gorm"
)

var (
	ErrStoryNotFound           = errors.New("story not found")
	ErrNotStoryEditor          = errors.New("you do not have permission to edit this story")
	ErrNotStoryDeleter         = errors.New("you do not have permission to delete this story")
	ErrStoryAlreadyComplete    = errors.New("this story is already complete")
	ErrMaxContributionsReached = errors.New("this story has reached the maximum number of contributions and is now complete")
	ErrInvalidContent          = errors.New("each contribution must be exactly two lines")
	ErrTitleRequired           = errors.New("title is required")
	ErrTitleTooLong            = fmt.Errorf("title must be at most %d characters", constants.MaxTitleLength)
)

// storyDetail is the preload set used whenever a story is returned to a client.
var storyDetail = []string{"CreatedBy", "Contributions", "Contributions.User"}

// StoryService implements the story lifecycle: creation, edits by the
// creator and the four-contribution relay.
type StoryService struct {
	storyRepo repository.StoryRepository
	exports   storage.Backend
	logger    logging.Logger
}

// NewStoryService creates a new StoryService
func NewStoryService(storyRepo repository.StoryRepository, exports storage.Backend, logger logging.Logger) *StoryService {
	return &StoryService{
		storyRepo: storyRepo,
		exports:   exports,
		logger:    logger,
	}
}

// ListStoriesInput represents pagination for listing stories
type ListStoriesInput struct {
	Page     int
	PageSize int
}

// CreateStoryInput represents input for creating a story
type CreateStoryInput struct {
	Title     string
	CreatorID uint64
}

// UpdateStoryInput represents input for updating a story. Only the title is mutable.
type UpdateStoryInput struct {
	Title *string
}

// AddContributionInput represents one submitted contribution
type AddContributionInput struct {
	StoryID  uint64
	AuthorID uint64
	Content  string
}

// ListStories returns stories newest first
func (s *StoryService) ListStories(ctx context.Context, input ListStoriesInput) ([]models.Story, int64, error) {
	stories, total, err := s.storyRepo.List(ctx, repository.StoryFilter{
		Page:     input.Page,
		PageSize: input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list stories: %w", err)
	}
	return stories, total, nil
}

// CreateStory creates an open story with no contributions
func (s *StoryService) CreateStory(ctx context.Context, input CreateStoryInput) (*models.Story, error) {
	title, err := checkTitle(input.Title)
	if err != nil {
		return nil, err
	}

	story := &models.Story{
		Title:       title,
		CreatedByID: input.CreatorID,
	}
	if err := s.storyRepo.Create(ctx, story); err != nil {
		return nil, fmt.Errorf("failed to create story: %w", err)
	}

	return s.GetStory(ctx, story.ID)
}

// GetStory returns a story with its creator and ordered contributions
func (s *StoryService) GetStory(ctx context.Context, storyID uint64) (*models.Story, error) {
	story, err := s.storyRepo.FindByID(ctx, storyID, storyDetail...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoryNotFound
		}
		return nil, fmt.Errorf("failed to find story: %w", err)
	}
	return story, nil
}

// UpdateStory changes the title if the requester created the story
func (s *StoryService) UpdateStory(ctx context.Context, storyID, requesterID uint64, input UpdateStoryInput) (*models.Story, error) {
	story, err := s.findStory(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if story.CreatedByID != requesterID {
		return nil, ErrNotStoryEditor
	}

	if input.Title != nil {
		title, err := checkTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		if err := s.storyRepo.UpdateTitle(ctx, storyID, title); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrStoryNotFound
			}
			return nil, fmt.Errorf("failed to update story: %w", err)
		}
	}

	return s.GetStory(ctx, storyID)
}

// DeleteStory deletes a story and its contributions if the requester created it
func (s *StoryService) DeleteStory(ctx context.Context, storyID, requesterID uint64) error {
	story, err := s.findStory(ctx, storyID)
	if err != nil {
		return err
	}
	if story.CreatedByID != requesterID {
		return ErrNotStoryDeleter
	}

	if err := s.storyRepo.Delete(ctx, storyID); err != nil {
		return fmt.Errorf("failed to delete story: %w", err)
	}
	removeExportFiles(ctx, s.exports, s.logger, story.ExportFiles())
	return nil
}

// AddContribution appends a two-line contribution. The fourth accepted
// contribution completes the story; later submissions are rejected.
func (s *StoryService) AddContribution(ctx context.Context, input AddContributionInput) (*models.Contribution, error) {
	story, err := s.findStory(ctx, input.StoryID)
	if err != nil {
		return nil, err
	}
	if story.Completed {
		return nil, ErrStoryAlreadyComplete
	}

	count, err := s.storyRepo.CountContributions(ctx, story.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count contributions: %w", err)
	}
	if count >= constants.MaxContributions {
		// repair a story whose flag was never set
		if err := s.storyRepo.MarkCompleted(ctx, story.ID); err != nil {
			return nil, fmt.Errorf("failed to complete story: %w", err)
		}
		return nil, ErrMaxContributionsReached
	}

	content, err := validation.NormalizeContribution(input.Content)
	if err != nil {
		return nil, ErrInvalidContent
	}

	contribution := &models.Contribution{
		StoryID: story.ID,
		UserID:  input.AuthorID,
		Content: content,
	}
	if _, err := s.storyRepo.AddContribution(ctx, contribution, constants.MaxContributions); err != nil {
		switch {
		case errors.Is(err, repository.ErrStoryNotFound):
			return nil, ErrStoryNotFound
		case errors.Is(err, repository.ErrStoryClosed):
			return nil, ErrStoryAlreadyComplete
		default:
			return nil, fmt.Errorf("failed to add contribution: %w", err)
		}
	}

	return contribution, nil
}

func (s *StoryService) findStory(ctx context.Context, storyID uint64) (*models.Story, error) {
	story, err := s.storyRepo.FindByID(ctx, storyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoryNotFound
		}
		return nil, fmt.Errorf("failed to find story: %w", err)
	}
	return story, nil
}

func checkTitle(title string) (string, error) {
	trimmed, err := validation.Title(title)
	switch {
	case errors.Is(err, validation.ErrTitleRequired):
		return "", ErrTitleRequired
	case errors.Is(err, validation.ErrTitleTooLong):
		return "", ErrTitleTooLong
	}
	return trimmed, nil
}
