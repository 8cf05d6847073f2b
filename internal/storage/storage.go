package storage

import (
	"context"
	"errors"
	"io"
)

var ErrObjectNotFound = errors.New("object not found")

// Backend stores rendered export files under stable keys.
type Backend interface {
	// Put uploads content under objectKey, replacing any previous object.
	Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error

	// Get opens the object stored under objectKey.
	Get(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete removes the object stored under objectKey.
	Delete(ctx context.Context, objectKey string) error
}
