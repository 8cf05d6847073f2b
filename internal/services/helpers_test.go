package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/story-relay-api/internal/database"
	"github.com/yukikurage/story-relay-api/internal/jobs"
	"github.com/yukikurage/story-relay-api/internal/models"
	"github.com/yukikurage/story-relay-api/internal/storage/fs"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.Migrate(db))
	return db
}

func newTestBackend(t *testing.T) *fs.FSBackend {
	t.Helper()
	backend, err := fs.NewFSBackend(t.TempDir())
	require.NoError(t, err)
	return backend
}

// storeExport writes a placeholder export file and records it on the story.
func storeExport(t *testing.T, db *gorm.DB, backend *fs.FSBackend, story *models.Story, format models.ExportFormat) string {
	t.Helper()
	column, ref := "pdf_file", fmt.Sprintf("exports/pdf/story_%d.pdf", story.ID)
	if format == models.ExportFormatImage {
		column, ref = "image_file", fmt.Sprintf("exports/images/story_%d.png", story.ID)
	}
	require.NoError(t, backend.Put(context.Background(), ref, strings.NewReader("data"), 4, "application/octet-stream"))
	require.NoError(t, db.Model(&models.Story{}).Where("id = ?", story.ID).Update(column, ref).Error)
	return ref
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com", PasswordHash: "hashedpassword"}
	require.NoError(t, db.Create(user).Error)
	return user
}

// fakeQueue records submitted jobs instead of running them.
type fakeQueue struct {
	mu        sync.Mutex
	submitted []jobs.JobMessage
	err       error
}

func (q *fakeQueue) Submit(ctx context.Context, msg jobs.JobMessage) error {
	if q.err != nil {
		return q.err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.submitted = append(q.submitted, msg)
	return nil
}

func (q *fakeQueue) Close() error { return nil }
