package repository

import (
	"context"

	"github.com/yukikurage/story-relay-api/internal/models"
)

// StoryRepository defines the interface for story and contribution data access
type StoryRepository interface {
	// Create creates a new story
	Create(ctx context.Context, story *models.Story) error

	// FindByID finds a story by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Story, error)

	// List retrieves stories newest first with pagination
	List(ctx context.Context, filter StoryFilter) ([]models.Story, int64, error)

	// UpdateTitle changes only the title column
	UpdateTitle(ctx context.Context, id uint64, title string) error

	// Delete deletes a story with its contributions and export jobs
	Delete(ctx context.Context, id uint64) error

	// MarkCompleted sets the completed flag
	MarkCompleted(ctx context.Context, id uint64) error

	// CountContributions counts the stored contributions of a story
	CountContributions(ctx context.Context, storyID uint64) (int64, error)

	// ListContributions returns a story's contributions in creation order with authors
	ListContributions(ctx context.Context, storyID uint64) ([]models.Contribution, error)

	// AddContribution atomically claims a contribution slot and inserts the
	// contribution. It reports whether the story is completed afterwards.
	AddContribution(ctx context.Context, contribution *models.Contribution, maxContributions int) (bool, error)

	// SetExportState records the status and, when non-nil, the file reference of one export format
	SetExportState(ctx context.Context, storyID uint64, format models.ExportFormat, status models.ExportStatus, fileRef *string) error
}

// StoryFilter holds pagination options for listing stories
type StoryFilter struct {
	Page     int
	PageSize int
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// Delete removes a user and everything the user owns. It returns the
	// export file references of the deleted stories.
	Delete(ctx context.Context, id uint64) ([]string, error)
}

// RefreshTokenRepository defines the interface for refresh token storage
type RefreshTokenRepository interface {
	// Create stores a new refresh token
	Create(ctx context.Context, token *models.RefreshToken) error

	// FindByHash finds a token by the hash of its value
	FindByHash(ctx context.Context, hash string) (*models.RefreshToken, error)

	// Revoke blacklists a token. It returns false if the token was already revoked.
	Revoke(ctx context.Context, id string) (bool, error)
}

// ExportJobRepository defines the interface for export job bookkeeping
type ExportJobRepository interface {
	// Create creates a new export job
	Create(ctx context.Context, job *models.ExportJob) error

	// FindByID finds an export job by ID
	FindByID(ctx context.Context, id string) (*models.ExportJob, error)

	// Finish records the terminal state of a job
	Finish(ctx context.Context, id string, status models.ExportStatus, fileRef, errMsg string) error
}
