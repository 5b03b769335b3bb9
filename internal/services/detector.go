package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/imagetextflow/internal/models"
)

// TextExtractor reads the text of the image stored at a gs:// URI.
// Implementations return "" when the image has no text.
type TextExtractor interface {
	ExtractText(ctx context.Context, gcsURI string) (string, error)
}

// MessagePublisher publishes a JSON-encoded payload to a named topic.
type MessagePublisher interface {
	Publish(ctx context.Context, topicName string, data any) error
}

// Detector runs text detection on a stored image.
type Detector interface {
	DetectText(ctx context.Context, bucketName, filename string) error
}

// TextDetector extracts text from an image and forwards it as a ResultMessage.
type TextDetector struct {
	extractor TextExtractor
	publisher MessagePublisher
	topic     string
}

// NewTextDetector creates a TextDetector that publishes to topic.
func NewTextDetector(extractor TextExtractor, publisher MessagePublisher, topic string) *TextDetector {
	return &TextDetector{extractor: extractor, publisher: publisher, topic: topic}
}

// DetectText scans gs://bucketName/filename and publishes the extracted text.
func (d *TextDetector) DetectText(ctx context.Context, bucketName, filename string) error {
	logCtx := slog.With("gcsBucket", bucketName, "gcsObject", filename)
	logCtx.Info("Looking for text in image.")

	text, err := d.extractor.ExtractText(ctx, GCSURI(bucketName, filename))
	if err != nil {
		logCtx.Error("Text detection failed", "error", err)
		return err
	}
	logCtx.Info("Extracted text from image.", "text", text)

	msg := models.ResultMessage{
		Text:     text,
		Filename: filename,
	}
	if err := d.publisher.Publish(ctx, d.topic, msg); err != nil {
		logCtx.Error("Failed to publish result", "error", err, "topic", d.topic)
		return fmt.Errorf("failed to publish result for %s: %w", filename, err)
	}
	return nil
}

// GCSURI formats a gs:// URI.
func GCSURI(bucket, object string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, object)
}
