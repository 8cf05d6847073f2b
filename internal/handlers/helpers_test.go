package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/story-relay-api/internal/auth"
	"github.com/yukikurage/story-relay-api/internal/database"
	"github.com/yukikurage/story-relay-api/internal/jobs"
	"github.com/yukikurage/story-relay-api/internal/logging"
	"github.com/yukikurage/story-relay-api/internal/repository"
	"github.com/yukikurage/story-relay-api/internal/services"
	"github.com/yukikurage/story-relay-api/internal/storage/fs"
	"github.com/yukikurage/story-relay-api/internal/validation"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var registerValidatorsOnce sync.Once

// stubQueue records submissions without running them.
type stubQueue struct {
	mu        sync.Mutex
	submitted []jobs.JobMessage
	err       error
}

func (q *stubQueue) Submit(ctx context.Context, msg jobs.JobMessage) error {
	if q.err != nil {
		return q.err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.submitted = append(q.submitted, msg)
	return nil
}

func (q *stubQueue) Close() error { return nil }

type testEnv struct {
	db          *gorm.DB
	router      *gin.Engine
	queue       *stubQueue
	backend     *fs.FSBackend
	authService *services.AuthService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)
	registerValidatorsOnce.Do(func() {
		require.NoError(t, validation.RegisterGinValidators())
	})

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

	issuer := auth.NewTokenIssuer("test-secret", time.Minute)
	storyRepo := repository.NewStoryRepository(db)
	queue := &stubQueue{}
	backend, err := fs.NewFSBackend(t.TempDir())
	require.NoError(t, err)
	log := logging.Discard()

	authService := services.NewAuthService(repository.NewUserRepository(db), repository.NewRefreshTokenRepository(db), issuer, time.Hour, backend, log)
	storyService := services.NewStoryService(storyRepo, backend, log)
	exportService := services.NewExportService(storyRepo, repository.NewExportJobRepository(db), queue, backend, log)

	router := gin.New()
	RegisterRoutes(router, Handlers{
		Health: NewHealthHandler(db),
		Auth:   NewAuthHandler(authService),
		Story:  NewStoryHandler(storyService),
		Export: NewExportHandler(exportService),
	}, issuer, 5*time.Second)

	return &testEnv{db: db, router: router, queue: queue, backend: backend, authService: authService}
}

// do sends a JSON request. body may be nil, a string or any JSON-encodable value.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// signup registers a user and returns its access and refresh tokens.
func (e *testEnv) signup(t *testing.T, username string) (string, string) {
	t.Helper()

	w := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var tokens map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tokens))
	return tokens["access"], tokens["refresh"]
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}
