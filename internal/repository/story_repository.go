package repository

import (
	"context"
	"errors"

	"github.com/yukikurage/story-relay-api/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrStoryNotFound is returned when the story vanished before a contribution could be stored.
	ErrStoryNotFound = errors.New("story repository: story not found")
	// ErrStoryClosed is returned when no contribution slot is left.
	ErrStoryClosed = errors.New("story repository: story no longer accepts contributions")
)

// GormStoryRepository is a GORM implementation of StoryRepository
type GormStoryRepository struct {
	db *gorm.DB
}

// NewStoryRepository creates a new StoryRepository
func NewStoryRepository(db *gorm.DB) StoryRepository {
	return &GormStoryRepository{db: db}
}

// Create creates a new story
func (r *GormStoryRepository) Create(ctx context.Context, story *models.Story) error {
	return r.db.WithContext(ctx).Create(story).Error
}

// FindByID finds a story by ID with optional preloading
func (r *GormStoryRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Story, error) {
	var story models.Story
	query := r.db.WithContext(ctx)

	for _, p := range preload {
		if p == "Contributions" {
			query = query.Preload("Contributions", orderByCreation)
			continue
		}
		query = query.Preload(p)
	}

	if err := query.First(&story, id).Error; err != nil {
		return nil, err
	}

	return &story, nil
}

// List retrieves stories newest first with pagination
func (r *GormStoryRepository) List(ctx context.Context, filter StoryFilter) ([]models.Story, int64, error) {
	var stories []models.Story

	query := r.db.WithContext(ctx).Model(&models.Story{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Order("stories.created_at DESC").
		Order("stories.id DESC").
		Scopes(paginate(filter.Page, filter.PageSize)).
		Preload("CreatedBy").
		Find(&stories).Error; err != nil {
		return nil, 0, err
	}

	return stories, total, nil
}

// UpdateTitle changes only the title column so concurrent contribution
// bookkeeping on the same row is never overwritten.
func (r *GormStoryRepository) UpdateTitle(ctx context.Context, id uint64, title string) error {
	result := r.db.WithContext(ctx).Model(&models.Story{}).Where("id = ?", id).Update("title", title)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete deletes a story and all related data in a transaction
func (r *GormStoryRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("story_id = ?", id).Delete(&models.Contribution{}).Error; err != nil {
			return err
		}

		if err := tx.Where("story_id = ?", id).Delete(&models.ExportJob{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Story{}, id).Error
	})
}

// MarkCompleted sets the completed flag
func (r *GormStoryRepository) MarkCompleted(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Model(&models.Story{}).Where("id = ?", id).Update("completed", true).Error
}

// CountContributions counts the stored contributions of a story
func (r *GormStoryRepository) CountContributions(ctx context.Context, storyID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Contribution{}).Where("story_id = ?", storyID).Count(&count).Error
	return count, err
}

// ListContributions returns a story's contributions in creation order with authors
func (r *GormStoryRepository) ListContributions(ctx context.Context, storyID uint64) ([]models.Contribution, error) {
	var contributions []models.Contribution
	if err := r.db.WithContext(ctx).
		Scopes(orderByCreation).
		Preload("User").
		Where("story_id = ?", storyID).
		Find(&contributions).Error; err != nil {
		return nil, err
	}
	return contributions, nil
}

// AddContribution claims a slot with a guarded increment, inserts the
// contribution and closes the story when the last slot is taken, all in one
// transaction. The guarded UPDATE holds the row lock until commit, so two
// writers can never both take the final slot.
func (r *GormStoryRepository) AddContribution(ctx context.Context, contribution *models.Contribution, maxContributions int) (bool, error) {
	var completed bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Story{}).
			Where("id = ? AND completed = ? AND contribution_count < ?", contribution.StoryID, false, maxContributions).
			Update("contribution_count", gorm.Expr("contribution_count + 1"))
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			var exists int64
			if err := tx.Model(&models.Story{}).Where("id = ?", contribution.StoryID).Count(&exists).Error; err != nil {
				return err
			}
			if exists == 0 {
				return ErrStoryNotFound
			}
			return ErrStoryClosed
		}

		if err := tx.Create(contribution).Error; err != nil {
			return err
		}

		closed := tx.Model(&models.Story{}).
			Where("id = ? AND contribution_count >= ?", contribution.StoryID, maxContributions).
			Update("completed", true)
		if closed.Error != nil {
			return closed.Error
		}
		completed = closed.RowsAffected > 0

		return nil
	})

	return completed, err
}

// SetExportState records the status and, when non-nil, the file reference of one export format
func (r *GormStoryRepository) SetExportState(ctx context.Context, storyID uint64, format models.ExportFormat, status models.ExportStatus, fileRef *string) error {
	statusColumn, fileColumn := "pdf_status", "pdf_file"
	if format == models.ExportFormatImage {
		statusColumn, fileColumn = "image_status", "image_file"
	}

	updates := map[string]interface{}{statusColumn: status}
	if fileRef != nil {
		updates[fileColumn] = *fileRef
	}

	return r.db.WithContext(ctx).Model(&models.Story{}).Where("id = ?", storyID).Updates(updates).Error
}

func orderByCreation(db *gorm.DB) *gorm.DB {
	return db.Order("contributions.created_at ASC").Order("contributions.id ASC")
}

// paginate applies offset/limit for a 1-based page. A zero page or size disables it.
func paginate(page, pageSize int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page <= 0 || pageSize <= 0 {
			return db
		}
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}
