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
	saverInstance *services.ResultSaverFunction
	once          sync.Once
	initErr       error
	logLevel      = new(slog.LevelVar)
)

func init() {
	slog.SetDefault(config.NewLogger(os.Stdout, logLevel))

	// "SaveResult" is subscribed to RESULT_TOPIC.
	functions.CloudEvent("SaveResult", saveResult)
}

func main() {
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

func instance() (*services.ResultSaverFunction, error) {
	once.Do(func() {
		store, err := config.Load()
		if err != nil {
			initErr = err
			return
		}
		logLevel.Set(store.LogLevel())
		saverInstance, initErr = services.NewResultSaver(context.Background(), store)
	})
	return saverInstance, initErr
}

// saveResult is the entry point for google.cloud.pubsub.topic.v1.messagePublished events.
func saveResult(ctx context.Context, e cloudevents.Event) error {
	saver, err := instance()
	if err != nil {
		slog.Error("Critical error during function initialization", "error", err)
		return err
	}

	var delivery models.MessagePublishedData
	if err := json.Unmarshal(e.Data(), &delivery); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	if err := saver.Process(ctx, delivery); err != nil {
		slog.Error("Saving result failed", "error", err, "eventId", e.ID(), "subscription", delivery.Subscription)
		return err
	}
	return nil
}
