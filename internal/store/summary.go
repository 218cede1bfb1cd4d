package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"clipbrief/internal/fault"
)

// SummaryRecord is the persisted outcome of one pipeline invocation, shaped
// for the GET summary endpoint.
type SummaryRecord struct {
	ID            string    `json:"id"`
	VideoID       string    `json:"video_id"`
	Success       bool      `json:"success"`
	Transcription string    `json:"transcription"`
	Summary       string    `json:"summary"`
	Provider      string    `json:"provider,omitempty"`
	Error         string    `json:"error,omitempty"`
	ErrorType     string    `json:"error_type,omitempty"`
	Details       string    `json:"details,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// SummaryStore keeps one JSON file per summary record.
type SummaryStore struct {
	dir string
}

func NewSummaryStore(dir string) *SummaryStore {
	return &SummaryStore{dir: dir}
}

// Put assigns the record an id and persists it, returning the id.
func (s *SummaryStore) Put(record SummaryRecord) (string, error) {
	record.ID = uuid.NewString()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", &fault.StorageError{Op: "encode summary", Err: err}
	}
	if err := os.WriteFile(filepath.Join(s.dir, record.ID+".json"), data, 0o644); err != nil {
		return "", &fault.StorageError{Op: "write summary", Err: err}
	}
	return record.ID, nil
}

func (s *SummaryStore) Get(id string) (SummaryRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return SummaryRecord{}, ErrNotFound
	}
	data, err := os.ReadFile(filepath.Join(s.dir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return SummaryRecord{}, ErrNotFound
		}
		return SummaryRecord{}, &fault.StorageError{Op: "read summary", Err: err}
	}
	var record SummaryRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return SummaryRecord{}, &fault.StorageError{Op: "decode summary", Err: err}
	}
	return record, nil
}
