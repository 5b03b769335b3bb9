package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// TextContentType is set on every object written by SaveText.
const TextContentType = "text/plain; charset=utf-8"

// ObjectStore writes text objects to Cloud Storage.
type ObjectStore struct {
	client *storage.Client
}

// NewObjectStore creates a storage client. STORAGE_EMULATOR_HOST is honoured by the client itself.
func NewObjectStore(ctx context.Context, opts ...option.ClientOption) (*ObjectStore, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &ObjectStore{client: client}, nil
}

// SaveText writes content to gs://bucket/object, replacing any existing object.
func (s *ObjectStore) SaveText(ctx context.Context, bucket, object, content string) error {
	return SaveToGCS(ctx, s.client.Bucket(bucket), object, content)
}

// Close releases the underlying client.
func (s *ObjectStore) Close() error {
	return s.client.Close()
}

// SaveToGCS streams content into objectName. The write is unconditional, so an
// existing object of the same name is overwritten.
func SaveToGCS(ctx context.Context, bucket *storage.BucketHandle, objectName, content string) error {
	writer := bucket.Object(objectName).NewWriter(ctx)
	writer.ContentType = TextContentType

	if _, err := io.Copy(writer, strings.NewReader(content)); err != nil {
		_ = writer.Close()
		slog.Error("Failed to copy content to GCS object", "object", objectName, "error", err, "httpCode", httpCode(err))
		return fmt.Errorf("failed to write to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		slog.Error("Failed to close GCS writer", "object", objectName, "error", err, "httpCode", httpCode(err))
		return fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return nil
}

// httpCode extracts the status of a googleapi error, or 0.
func httpCode(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}
