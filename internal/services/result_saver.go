package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/imagetextflow/internal/config"
	"github.com/Lllllllleong/imagetextflow/internal/gcp"
	"github.com/Lllllllleong/imagetextflow/internal/models"
)

var (
	ErrTextNotProvided           = errors.New(`Text not provided. Make sure you have a "text" property in your request`)
	ErrResultFilenameNotProvided = errors.New(`Filename not provided. Make sure you have a "filename" property in your request`)
)

// ResultStore writes text objects to a bucket.
type ResultStore interface {
	SaveText(ctx context.Context, bucket, object, content string) error
}

// ResultSaverConfig holds configuration for the result saver.
type ResultSaverConfig struct {
	ResultBucket string
}

// ResultSaverFunction holds dependencies for the Pub/Sub-triggered function.
type ResultSaverFunction struct {
	store  ResultStore
	config ResultSaverConfig
	close  func() error
}

// NewResultSaver creates a storage client and validates RESULT_BUCKET.
func NewResultSaver(ctx context.Context, store *config.Store) (*ResultSaverFunction, error) {
	if err := store.Require(config.ResultBucket); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := ResultSaverConfig{ResultBucket: store.Get(config.ResultBucket, "")}

	objectStore, err := gcp.NewObjectStore(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("Result saver initialized.", "resultBucket", cfg.ResultBucket)
	return &ResultSaverFunction{store: objectStore, config: cfg, close: objectStore.Close}, nil
}

// NewResultSaverFromStore wraps an existing store writing to bucket.
func NewResultSaverFromStore(store ResultStore, bucket string) *ResultSaverFunction {
	return &ResultSaverFunction{store: store, config: ResultSaverConfig{ResultBucket: bucket}}
}

// Process decodes the delivered ResultMessage and saves its text as <filename>.txt.
func (f *ResultSaverFunction) Process(ctx context.Context, data models.MessagePublishedData) error {
	msg, err := DecodeResultMessage(data.Message.Data)
	if err != nil {
		slog.Error("Failed to decode result message", "error", err, "messageId", data.Message.MessageID)
		return err
	}

	// An empty text is rejected too, even though the detector emits "" for images without text.
	if msg.Text == "" {
		return ErrTextNotProvided
	}
	if msg.Filename == "" {
		return ErrResultFilenameNotProvided
	}

	logCtx := slog.With("filename", msg.Filename, "messageId", data.Message.MessageID)
	logCtx.Info("Received request to save file.")

	bucketName := f.config.ResultBucket
	newFilename := RenameImageForSave(msg.Filename)
	logCtx.Info("Saving result.", "gcsObject", newFilename, "gcsBucket", bucketName)

	if err := f.store.SaveText(ctx, bucketName, newFilename, msg.Text); err != nil {
		logCtx.Error("Failed to save result to GCS", "error", err, "gcsBucket", bucketName, "gcsObject", newFilename)
		return fmt.Errorf("failed to save %s: %w", GCSURI(bucketName, newFilename), err)
	}

	logCtx.Info("File saved.")
	return nil
}

// DecodeResultMessage base64-decodes and parses a Pub/Sub message body.
func DecodeResultMessage(encoded string) (*models.ResultMessage, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to base64-decode message data: %w", err)
	}
	var msg models.ResultMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message data as JSON: %w", err)
	}
	return &msg, nil
}

// RenameImageForSave appends the .txt suffix to filename.
func RenameImageForSave(filename string) string {
	return filename + ".txt"
}

// Close releases the client created by NewResultSaver.
func (f *ResultSaverFunction) Close() error {
	if f.close != nil {
		return f.close()
	}
	return nil
}
