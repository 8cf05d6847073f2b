package repository

import (
	"context"
	"time"

	"github.com/yukikurage/story-relay-api/internal/models"
	"gorm.io/gorm"
)

// GormExportJobRepository is a GORM implementation of ExportJobRepository
type GormExportJobRepository struct {
	db *gorm.DB
}

// NewExportJobRepository creates a new ExportJobRepository
func NewExportJobRepository(db *gorm.DB) ExportJobRepository {
	return &GormExportJobRepository{db: db}
}

// Create creates a new export job
func (r *GormExportJobRepository) Create(ctx context.Context, job *models.ExportJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// FindByID finds an export job by ID
func (r *GormExportJobRepository) FindByID(ctx context.Context, id string) (*models.ExportJob, error) {
	var job models.ExportJob
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// Finish records the terminal state of a job
func (r *GormExportJobRepository) Finish(ctx context.Context, id string, status models.ExportStatus, fileRef, errMsg string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&models.ExportJob{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":      status,
		"file_ref":    fileRef,
		"error":       errMsg,
		"finished_at": &now,
	}).Error
}
