package media

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"clipbrief/internal/fault"
)

// minimal RIFF/WAVE header so content detection sees real WAV data.
func wavBytes(extra int) []byte {
	header := []byte("RIFF\x24\x00\x00\x00WAVEfmt \x10\x00\x00\x00\x01\x00\x01\x00\x80\x3e\x00\x00\x00\x7d\x00\x00\x02\x00\x10\x00data\x00\x00\x00\x00")
	return append(header, make([]byte, extra)...)
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestValidateAcceptsWAV(t *testing.T) {
	v := NewValidator(1<<20, nil)
	path := writeFile(t, "clip.wav", wavBytes(256))

	if err := v.Validate(path, "audio/wav"); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidateRejectsMissingFile(t *testing.T) {
	v := NewValidator(1<<20, nil)

	err := v.Validate(filepath.Join(t.TempDir(), "nope.wav"), "audio/wav")
	var fileErr *fault.FileError
	if !errors.As(err, &fileErr) {
		t.Fatalf("expected FileError, got %v", err)
	}
}

func TestValidateRejectsEmptyFile(t *testing.T) {
	v := NewValidator(1<<20, nil)
	path := writeFile(t, "empty.wav", nil)

	err := v.Validate(path, "audio/wav")
	var fileErr *fault.FileError
	if !errors.As(err, &fileErr) {
		t.Fatalf("expected FileError, got %v", err)
	}
	if fileErr.Reason != "file is empty" {
		t.Fatalf("unexpected reason: %q", fileErr.Reason)
	}
}

func TestValidateRejectsOversizeFile(t *testing.T) {
	v := NewValidator(64, nil)
	path := writeFile(t, "big.wav", wavBytes(256))

	err := v.Validate(path, "audio/wav")
	var fileErr *fault.FileError
	if !errors.As(err, &fileErr) {
		t.Fatalf("expected FileError, got %v", err)
	}
	if fileErr.MaxBytes != 64 {
		t.Fatalf("expected max bytes on error, got %d", fileErr.MaxBytes)
	}
}

func TestValidateRejectsSpoofedDeclaredType(t *testing.T) {
	v := NewValidator(1<<20, nil)
	// Plain text content declared as video: the detected type must win.
	path := writeFile(t, "fake.mp4", []byte("this is not a video at all, just text"))

	err := v.Validate(path, "video/mp4")
	var fileErr *fault.FileError
	if !errors.As(err, &fileErr) {
		t.Fatalf("expected FileError, got %v", err)
	}
	if fileErr.Detected != "text/plain" {
		t.Fatalf("expected detected text/plain, got %q", fileErr.Detected)
	}
	if fileErr.Declared != "video/mp4" {
		t.Fatalf("expected declared video/mp4, got %q", fileErr.Declared)
	}
}
