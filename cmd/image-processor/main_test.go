package main

import (
	"context"
	"errors"
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/Lllllllleong/imagetextflow/internal/models"
	"github.com/Lllllllleong/imagetextflow/internal/services"
)

type recordingDetector struct {
	calls [][2]string
}

func (r *recordingDetector) DetectText(ctx context.Context, bucketName, filename string) error {
	r.calls = append(r.calls, [2]string{bucketName, filename})
	return nil
}

func useDetector(t *testing.T, d services.Detector) {
	t.Helper()
	once.Do(func() {})
	processorInstance, initErr = services.NewImageProcessorFromDetector(d), nil
}

func storageEvent(t *testing.T, data any) cloudevents.Event {
	t.Helper()
	e := cloudevents.NewEvent()
	e.SetID("evt-1")
	e.SetSource("//storage.googleapis.com/projects/_/buckets/in-bucket")
	e.SetType("google.cloud.storage.object.v1.finalized")
	if err := e.SetData(cloudevents.ApplicationJSON, data); err != nil {
		t.Fatalf("SetData() error = %v", err)
	}
	return e
}

func TestProcessImageDecodesStorageEvent(t *testing.T) {
	detector := &recordingDetector{}
	useDetector(t, detector)

	e := storageEvent(t, map[string]string{
		"bucket":      "in-bucket",
		"name":        "photo1.jpg",
		"contentType": "image/jpeg",
	})
	if err := processImage(context.Background(), e); err != nil {
		t.Fatalf("processImage() error = %v", err)
	}
	if len(detector.calls) != 1 || detector.calls[0] != [2]string{"in-bucket", "photo1.jpg"} {
		t.Fatalf("unexpected detector calls: %v", detector.calls)
	}
}

func TestProcessImageRejectsMissingBucket(t *testing.T) {
	useDetector(t, &recordingDetector{})

	err := processImage(context.Background(), storageEvent(t, models.UploadEvent{Name: "photo1.jpg"}))
	if !errors.Is(err, services.ErrBucketNotProvided) {
		t.Fatalf("processImage() error = %v, want %v", err, services.ErrBucketNotProvided)
	}
}

func TestProcessImageRejectsMalformedData(t *testing.T) {
	useDetector(t, &recordingDetector{})

	e := cloudevents.NewEvent()
	e.SetID("evt-2")
	e.SetSource("test")
	e.SetType("google.cloud.storage.object.v1.finalized")
	if err := e.SetData(cloudevents.TextPlain, []byte("not json")); err != nil {
		t.Fatalf("SetData() error = %v", err)
	}
	if err := processImage(context.Background(), e); err == nil {
		t.Fatalf("expected unmarshal error")
	}
}
