package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/story-relay-api/internal/models"
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

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Story{},
		&models.Contribution{},
		&models.RefreshToken{},
		&models.ExportJob{},
	))

	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com", PasswordHash: "hashedpassword"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createStory(t *testing.T, db *gorm.DB, title string, creatorID uint64) *models.Story {
	t.Helper()
	story := &models.Story{Title: title, CreatedByID: creatorID}
	require.NoError(t, db.Create(story).Error)
	return story
}
