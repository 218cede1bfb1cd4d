// Package fault defines the typed errors the pipeline stages return and the
// HTTP layer maps to status codes.
package fault

import "fmt"

// Stage names recorded on failed pipeline results and metrics labels.
const (
	StageValidation    = "validation"
	StageConversion    = "conversion"
	StageTranscription = "transcription"
	StageSummarization = "summarization"
	StageStorage       = "storage"
)

// FileError reports an uploaded file that failed validation. Detected is the
// media type found by inspecting content, which may differ from what the
// client declared.
type FileError struct {
	Detected string
	Declared string
	MaxBytes int64
	Reason   string
}

func (e *FileError) Error() string {
	if e.Reason != "" {
		return "file rejected: " + e.Reason
	}
	return fmt.Sprintf("file rejected: unsupported media type %q", e.Detected)
}

// ProcessingError reports a conversion failure, tagged with the stage that
// produced it.
type ProcessingError struct {
	Stage  string
	Detail string
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Stage, e.Detail)
}

// TranscriptionError reports a speech-to-text provider failure.
type TranscriptionError struct {
	Provider string
	Detail   string
}

func (e *TranscriptionError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("transcription failed (provider %s): %s", e.Provider, e.Detail)
	}
	return "transcription failed: " + e.Detail
}

// SummarizationError reports a text-generation provider failure.
type SummarizationError struct {
	Detail string
}

func (e *SummarizationError) Error() string {
	return "summarization failed: " + e.Detail
}

// StorageError reports a filesystem operation failure. Op is the operation
// that failed, never a path.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ConfigurationError is fatal at startup; the process must not serve traffic
// with invalid configuration.
type ConfigurationError struct {
	Key    string
	Detail string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Detail)
}
