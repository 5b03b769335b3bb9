package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/Lllllllleong/imagetextflow/internal/config"
	"github.com/Lllllllleong/imagetextflow/internal/models"
	"github.com/Lllllllleong/imagetextflow/internal/services"
)

var (
	processorInstance *services.ImageProcessorFunction
	once              sync.Once
	initErr           error
	logLevel          = new(slog.LevelVar)
)

func init() {
	// --- Set up structured logging ---
	slog.SetDefault(config.NewLogger(os.Stdout, logLevel))

	// Register the CloudEvent function. "ProcessImage" is the entry point name configured in GCP.
	functions.CloudEvent("ProcessImage", processImage)
}

func main() {
	// Initialize up front so a missing RESULT_TOPIC stops the process before it serves.
	if _, err := instance(); err != nil {
		slog.Error("Critical error during function initialization", "error", err)
		os.Exit(1)
	}

	port := "8080"
	if envPort := os.Getenv("PORT"); envPort != "" {
		port = envPort
	}
	if err := funcframework.Start(port); err != nil {
		slog.Error("funcframework.Start failed", "error", err)
		os.Exit(1)
	}
}

// instance builds the processor once per process.
func instance() (*services.ImageProcessorFunction, error) {
	once.Do(func() {
		store, err := config.Load()
		if err != nil {
			initErr = err
			return
		}
		logLevel.Set(store.LogLevel())
		processorInstance, initErr = services.NewImageProcessor(context.Background(), store)
	})
	return processorInstance, initErr
}

// processImage is the entry point for google.cloud.storage.object.v1.finalized events.
func processImage(ctx context.Context, e cloudevents.Event) error {
	processor, err := instance()
	if err != nil {
		slog.Error("Critical error during function initialization", "error", err)
		return err
	}

	var upload models.UploadEvent
	if err := json.Unmarshal(e.Data(), &upload); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	if err := processor.Process(ctx, upload); err != nil {
		slog.Error("Image processing failed", "error", err, "eventId", e.ID(), "gcsBucket", upload.Bucket, "gcsObject", upload.Name)
		return err
	}
	return nil
}
