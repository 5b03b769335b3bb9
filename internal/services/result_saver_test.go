package services

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/Lllllllleong/imagetextflow/internal/config"
	"github.com/Lllllllleong/imagetextflow/internal/models"
)

func delivery(payload string) models.MessagePublishedData {
	return models.MessagePublishedData{
		Message: models.PubSubMessage{
			Data:      base64.StdEncoding.EncodeToString([]byte(payload)),
			MessageID: "1",
		},
		Subscription: "projects/p/subscriptions/save-result",
	}
}

func TestRenameImageForSave(t *testing.T) {
	if got := RenameImageForSave("a.png"); got != "a.png.txt" {
		t.Fatalf("RenameImageForSave() = %q, want a.png.txt", got)
	}
	if got := RenameImageForSave(RenameImageForSave("a.png")); got != "a.png.txt.txt" {
		t.Fatalf("repeated rename = %q, want a.png.txt.txt", got)
	}
}

func TestSaveResultWritesText(t *testing.T) {
	store := &fakeStore{}
	f := NewResultSaverFromStore(store, "in-bucket-results")

	if err := f.Process(context.Background(), delivery(`{"text":"hi","filename":"img.jpg"}`)); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	want := savedObject{bucket: "in-bucket-results", object: "img.jpg.txt", content: "hi"}
	if len(store.saved) != 1 || store.saved[0] != want {
		t.Fatalf("saved %+v, want [%+v]", store.saved, want)
	}
}

func TestSaveResultValidation(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    error
	}{
		{"missing text", `{"filename":"img.jpg"}`, ErrTextNotProvided},
		{"empty text", `{"text":"","filename":"img.jpg"}`, ErrTextNotProvided},
		{"missing filename", `{"text":"hi"}`, ErrResultFilenameNotProvided},
		{"empty filename", `{"text":"hi","filename":""}`, ErrResultFilenameNotProvided},
		{"missing both", `{}`, ErrTextNotProvided},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			err := NewResultSaverFromStore(store, "out").Process(context.Background(), delivery(tt.payload))
			if !errors.Is(err, tt.want) {
				t.Fatalf("Process() error = %v, want %v", err, tt.want)
			}
			if len(store.saved) != 0 {
				t.Fatalf("nothing should be saved for an invalid message")
			}
		})
	}
}

func TestSaveResultDecodeErrors(t *testing.T) {
	store := &fakeStore{}
	f := NewResultSaverFromStore(store, "out")

	bad := models.MessagePublishedData{Message: models.PubSubMessage{Data: "not base64!!"}}
	if err := f.Process(context.Background(), bad); err == nil {
		t.Fatalf("expected base64 error")
	}
	if err := f.Process(context.Background(), delivery(`not json`)); err == nil {
		t.Fatalf("expected JSON error")
	}
	if len(store.saved) != 0 {
		t.Fatalf("nothing should be saved for undecodable data")
	}
}

func TestSaveResultStorageErrorPropagates(t *testing.T) {
	boom := errors.New("permission denied")
	f := NewResultSaverFromStore(&fakeStore{err: boom}, "out")

	if err := f.Process(context.Background(), delivery(`{"text":"hi","filename":"img.jpg"}`)); !errors.Is(err, boom) {
		t.Fatalf("Process() error = %v, want wrapped %v", err, boom)
	}
}

func TestNewResultSaverRequiresBucket(t *testing.T) {
	if _, err := NewResultSaver(context.Background(), config.FromMap(nil)); err == nil {
		t.Fatalf("expected error without RESULT_BUCKET")
	}
}
