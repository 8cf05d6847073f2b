package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/story-relay-api/internal/config"
	"github.com/yukikurage/story-relay-api/internal/models"
)

func sqliteConfig() *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{GinMode: "release"},
		DB:   config.DBConfig{Driver: "sqlite", DSN: "file::memory:"},
	}
}

func TestDialector_UnknownDriver(t *testing.T) {
	_, err := Dialector(config.DBConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestDialector_KnownDrivers(t *testing.T) {
	for _, driver := range []string{"postgres", "mysql", "sqlite"} {
		d, err := Dialector(config.DBConfig{Driver: driver, Name: "x"})
		require.NoError(t, err, driver)
		assert.NotNil(t, d)
	}
}

func TestConnectMigrateClose(t *testing.T) {
	db, err := Connect(sqliteConfig())
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, table := range []any{&models.User{}, &models.Story{}, &models.Contribution{}, &models.RefreshToken{}, &models.ExportJob{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}
	assert.True(t, db.Migrator().HasIndex(&models.Contribution{}, "idx_contributions_story_created"))

	require.NoError(t, Close(db))
}
