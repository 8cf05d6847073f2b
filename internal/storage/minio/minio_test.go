package minio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMinioBackend_InvalidEndpoint(t *testing.T) {
	_, err := NewMinioBackend(context.Background(), "localhost:9000/with/path", "key", "secret", "bucket", false)
	assert.Error(t, err)
}
