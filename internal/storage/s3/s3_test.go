package s3

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/story-relay-api/internal/storage"
)

// fakeS3 answers just enough of the S3 REST API for the error paths.
func fakeS3(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
		case http.MethodDelete:
			if !strings.HasPrefix(r.URL.Path, "/exports-bucket/") {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestBackend(t *testing.T, endpoint string) *S3Backend {
	t.Helper()
	backend, err := NewS3Backend(context.Background(), Config{
		Region:          "us-east-1",
		Bucket:          "exports-bucket",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		Endpoint:        endpoint,
	})
	require.NoError(t, err)
	return backend
}

func TestNewS3Backend_RequiresBucket(t *testing.T) {
	_, err := NewS3Backend(context.Background(), Config{Region: "us-east-1"})
	assert.Error(t, err)
}

func TestS3Backend_GetMissingObject(t *testing.T) {
	srv := fakeS3(t)
	backend := newTestBackend(t, srv.URL)

	_, err := backend.Get(context.Background(), "exports/pdf/story_1.pdf")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestS3Backend_DeleteUsesPathStyle(t *testing.T) {
	srv := fakeS3(t)
	backend := newTestBackend(t, srv.URL)

	assert.NoError(t, backend.Delete(context.Background(), "exports/pdf/story_1.pdf"))
}
