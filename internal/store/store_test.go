package store

import (
	"errors"
	"os"
	"strings"
	"testing"
)

func TestVideoStoreRoundTrip(t *testing.T) {
	s := NewVideoStore(t.TempDir())

	video, err := s.Save("clip.mp4", "video/mp4", strings.NewReader("media-bytes"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if video.ID == "" {
		t.Fatal("expected an id")
	}
	if video.Size != int64(len("media-bytes")) {
		t.Fatalf("unexpected size: %d", video.Size)
	}

	got, err := s.Get(video.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	data, err := os.ReadFile(got.Path)
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "media-bytes" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestVideoStoreGetPreservesMetadata(t *testing.T) {
	s := NewVideoStore(t.TempDir())

	video, err := s.Save("clip.mp4", "video/mp4", strings.NewReader("media-bytes"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Get(video.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.DeclaredType != "video/mp4" {
		t.Fatalf("DeclaredType lost on Get: got %q, want %q", got.DeclaredType, "video/mp4")
	}
	if got.Filename != "clip.mp4" {
		t.Fatalf("Filename lost on Get: got %q", got.Filename)
	}
	if got.Size != int64(len("media-bytes")) {
		t.Fatalf("Size lost on Get: got %d", got.Size)
	}
	if got.UploadedAt.IsZero() {
		t.Fatal("UploadedAt lost on Get")
	}
	if got.Path != video.Path {
		t.Fatalf("Path mismatch: got %q, want %q", got.Path, video.Path)
	}
}

func TestVideoStoreGetUnknownID(t *testing.T) {
	s := NewVideoStore(t.TempDir())

	if _, err := s.Get("b4f9d9f2-0000-4000-8000-000000000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestVideoStoreRejectsNonUUIDID(t *testing.T) {
	s := NewVideoStore(t.TempDir())

	if _, err := s.Get("../escape"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
}

func TestVideoStoreDeleteRemovesFile(t *testing.T) {
	s := NewVideoStore(t.TempDir())
	video, err := s.Save("clip.mp4", "video/mp4", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := s.Delete(video.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(video.Path); !os.IsNotExist(err) {
		t.Fatalf("file still exists: %v", err)
	}
	if _, err := s.Get(video.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	// A second delete is a no-op, not an error.
	if err := s.Delete(video.ID); err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
}

func TestSummaryStoreRoundTrip(t *testing.T) {
	s := NewSummaryStore(t.TempDir())

	id, err := s.Put(SummaryRecord{
		VideoID:       "vid-1",
		Success:       true,
		Transcription: "spoken words",
		Summary:       "- summary",
		Provider:      "openai",
	})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	record, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !record.Success || record.Summary != "- summary" || record.Provider != "openai" {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}
}

func TestSummaryStoreFailureRecord(t *testing.T) {
	s := NewSummaryStore(t.TempDir())

	id, err := s.Put(SummaryRecord{
		VideoID:   "vid-2",
		Success:   false,
		Error:     `pipeline failed at stage "transcription"`,
		ErrorType: "TranscriptionError",
		Details:   "timeout",
	})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	record, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if record.Success || record.ErrorType != "TranscriptionError" {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestSummaryStoreGetUnknownID(t *testing.T) {
	s := NewSummaryStore(t.TempDir())

	if _, err := s.Get("b4f9d9f2-0000-4000-8000-000000000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Get("not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
}
