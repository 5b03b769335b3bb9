package services

import (
	"context"
	"sync"
)

type fakeExtractor struct {
	text string
	err  error

	mu   sync.Mutex
	uris []string
}

func (f *fakeExtractor) ExtractText(ctx context.Context, gcsURI string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uris = append(f.uris, gcsURI)
	return f.text, f.err
}

type published struct {
	topic string
	data  any
}

type fakePublisher struct {
	err error

	mu       sync.Mutex
	messages []published
}

func (f *fakePublisher) Publish(ctx context.Context, topicName string, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, published{topic: topicName, data: data})
	return f.err
}

type detectCall struct {
	bucket, filename string
}

type fakeDetector struct {
	err   error
	calls []detectCall
}

func (f *fakeDetector) DetectText(ctx context.Context, bucketName, filename string) error {
	f.calls = append(f.calls, detectCall{bucket: bucketName, filename: filename})
	return f.err
}

type savedObject struct {
	bucket, object, content string
}

type fakeStore struct {
	err error

	mu    sync.Mutex
	saved []savedObject
}

func (f *fakeStore) SaveText(ctx context.Context, bucket, object, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, savedObject{bucket: bucket, object: object, content: content})
	return nil
}
