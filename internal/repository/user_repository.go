package repository

import (
	"context"

	"github.com/yukikurage/story-relay-api/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername finds a user by username
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete removes a user together with their stories, contributions, export
// jobs and refresh tokens in a single transaction. Stories owned by others
// that lose contributions get their counters recomputed; their completed
// flag is left as is.
func (r *GormUserRepository) Delete(ctx context.Context, id uint64) ([]string, error) {
	var exportFiles []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned []models.Story
		if err := tx.Select("id", "pdf_file", "image_file").Where("created_by_id = ?", id).Find(&owned).Error; err != nil {
			return err
		}
		storyIDs := make([]uint64, 0, len(owned))
		for i := range owned {
			storyIDs = append(storyIDs, owned[i].ID)
			exportFiles = append(exportFiles, owned[i].ExportFiles()...)
		}

		var touchedStoryIDs []uint64
		if err := tx.Model(&models.Contribution{}).
			Where("user_id = ?", id).
			Distinct("story_id").
			Pluck("story_id", &touchedStoryIDs).Error; err != nil {
			return err
		}

		contributions := tx.Where("user_id = ?", id)
		jobs := tx.Where("requested_by_id = ?", id)
		if len(storyIDs) > 0 {
			contributions = contributions.Or("story_id IN ?", storyIDs)
			jobs = jobs.Or("story_id IN ?", storyIDs)
		}
		if err := contributions.Delete(&models.Contribution{}).Error; err != nil {
			return err
		}
		if err := jobs.Delete(&models.ExportJob{}).Error; err != nil {
			return err
		}

		if len(storyIDs) > 0 {
			if err := tx.Where("id IN ?", storyIDs).Delete(&models.Story{}).Error; err != nil {
				return err
			}
		}

		if len(touchedStoryIDs) > 0 {
			recount := tx.Model(&models.Contribution{}).
				Select("COUNT(*)").
				Where("contributions.story_id = stories.id")
			if err := tx.Model(&models.Story{}).
				Where("id IN ?", touchedStoryIDs).
				Update("contribution_count", recount).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return exportFiles, nil
}
