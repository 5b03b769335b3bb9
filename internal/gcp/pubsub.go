package gcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Publisher sends JSON payloads to Pub/Sub topics, creating topics on first use.
type Publisher struct {
	client *pubsub.Client
}

// NewPublisher creates a Pub/Sub client. An empty projectID falls back to
// project detection from the environment credentials.
func NewPublisher(ctx context.Context, projectID string, opts ...option.ClientOption) (*Publisher, error) {
	if projectID == "" {
		projectID = pubsub.DetectProjectID
	}
	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}
	return NewPublisherFromClient(client), nil
}

// NewPublisherFromClient wraps an existing client.
func NewPublisherFromClient(client *pubsub.Client) *Publisher {
	return &Publisher{client: client}
}

// Publish marshals data to JSON and publishes it to topicName, waiting for the
// server to acknowledge the message.
func (p *Publisher) Publish(ctx context.Context, topicName string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal message for topic %s: %w", topicName, err)
	}

	topic, err := p.topic(ctx, topicName)
	if err != nil {
		return err
	}
	defer topic.Stop()

	id, err := topic.Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topicName, err)
	}
	slog.Debug("Published message.", "topic", topicName, "messageId", id)
	return nil
}

// topic returns a handle to topicName, creating the topic if it does not exist.
func (p *Publisher) topic(ctx context.Context, topicName string) (*pubsub.Topic, error) {
	topic := p.client.Topic(topicName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check topic %s: %w", topicName, err)
	}
	if exists {
		return topic, nil
	}

	created, err := p.client.CreateTopic(ctx, topicName)
	if status.Code(err) == codes.AlreadyExists {
		return topic, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create topic %s: %w", topicName, err)
	}
	slog.Info("Created topic.", "topic", topicName)
	return created, nil
}

// Close releases the underlying client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
