package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/imagetextflow/internal/config"
	"github.com/Lllllllleong/imagetextflow/internal/gcp"
	"github.com/Lllllllleong/imagetextflow/internal/models"
)

var (
	ErrBucketNotProvided   = errors.New(`Bucket not provided. Make sure you have a "bucket" property in your request`)
	ErrFilenameNotProvided = errors.New(`Filename not provided. Make sure you have a "name" property in your request`)
)

// Supported TEXT_DETECTOR values.
const (
	DetectorVision = "vision"
	DetectorGemini = "gemini"
)

// ImageProcessorConfig holds configuration for the image processor.
type ImageProcessorConfig struct {
	ProjectID      string
	ResultTopic    string
	TextDetector   string
	VertexAIRegion string
	GeminiModel    string
	VisionEndpoint string
}

// ImageProcessorFunction holds dependencies for the upload-triggered function.
type ImageProcessorFunction struct {
	detector Detector
	closers  []func() error
}

// LoadImageProcessorConfig reads and validates the processor configuration.
func LoadImageProcessorConfig(store *config.Store) (*ImageProcessorConfig, error) {
	if err := store.Require(config.ResultTopic); err != nil {
		return nil, err
	}
	cfg := &ImageProcessorConfig{
		ProjectID:      store.ProjectID(),
		ResultTopic:    store.Get(config.ResultTopic, ""),
		TextDetector:   store.Get(config.TextDetector, DetectorVision),
		VertexAIRegion: store.Get(config.VertexAIRegion, "us-central1"),
		GeminiModel:    store.Get(config.GeminiModel, "gemini-1.5-pro"),
		VisionEndpoint: store.Get(config.VisionEndpoint, ""),
	}
	switch cfg.TextDetector {
	case DetectorVision:
	case DetectorGemini:
		if cfg.ProjectID == "" {
			return nil, fmt.Errorf("PROJECT_ID must be set when TEXT_DETECTOR=%s", DetectorGemini)
		}
	default:
		return nil, fmt.Errorf("unsupported TEXT_DETECTOR %q", cfg.TextDetector)
	}
	return cfg, nil
}

// NewImageProcessor creates the clients for the configured text detector and the result publisher.
func NewImageProcessor(ctx context.Context, store *config.Store) (*ImageProcessorFunction, error) {
	cfg, err := LoadImageProcessorConfig(store)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	f := &ImageProcessorFunction{}

	var extractor TextExtractor
	switch cfg.TextDetector {
	case DetectorGemini:
		gemini, err := gcp.NewGeminiExtractor(ctx, cfg.ProjectID, cfg.VertexAIRegion, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini extractor: %w", err)
		}
		extractor = gemini
		f.closers = append(f.closers, gemini.Close)
	default:
		visionExtractor, err := gcp.NewVisionExtractor(ctx, cfg.VisionEndpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to create vision extractor: %w", err)
		}
		extractor = visionExtractor
		f.closers = append(f.closers, visionExtractor.Close)
	}

	publisher, err := gcp.NewPublisher(ctx, cfg.ProjectID)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	f.closers = append(f.closers, publisher.Close)

	f.detector = NewTextDetector(extractor, publisher, cfg.ResultTopic)
	slog.Info("Image processor initialized.", "textDetector", cfg.TextDetector, "resultTopic", cfg.ResultTopic)
	return f, nil
}

// NewImageProcessorFromDetector wraps an existing detector.
func NewImageProcessorFromDetector(detector Detector) *ImageProcessorFunction {
	return &ImageProcessorFunction{detector: detector}
}

// Process validates the upload event and runs text detection on the object.
func (f *ImageProcessorFunction) Process(ctx context.Context, e models.UploadEvent) error {
	if e.Bucket == "" {
		return ErrBucketNotProvided
	}
	if e.Name == "" {
		return ErrFilenameNotProvided
	}

	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)
	logCtx.Debug("Processing new GCS object.", "contentType", e.ContentType, "size", e.Size, "generation", e.Generation)

	if err := f.detector.DetectText(ctx, e.Bucket, e.Name); err != nil {
		// Already logged with context by the detector.
		return err
	}

	logCtx.Info("File processed.")
	return nil
}

// Close releases the clients created by NewImageProcessor.
func (f *ImageProcessorFunction) Close() error {
	var errs []error
	for _, c := range f.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
