// Package store persists uploads and summary records on the filesystem.
package store

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"clipbrief/internal/fault"
)

// ErrNotFound reports a lookup for an id that does not exist.
var ErrNotFound = errors.New("not found")

// Video describes a stored upload. Path stays internal and is never exposed
// through the API.
type Video struct {
	ID           string
	Path         string
	Filename     string
	DeclaredType string
	Size         int64
	UploadedAt   time.Time
}

// videoMeta is the sidecar record written next to each upload so Get can
// return the metadata recorded at save time.
type videoMeta struct {
	ID           string    `json:"id"`
	MediaFile    string    `json:"media_file"`
	Filename     string    `json:"filename"`
	DeclaredType string    `json:"declared_type"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// VideoStore keeps uploaded media files under a single directory, one media
// file plus one metadata record per upload, named by id.
type VideoStore struct {
	dir string
}

func NewVideoStore(dir string) *VideoStore {
	return &VideoStore{dir: dir}
}

// Save streams the upload to disk under a fresh id and records its metadata
// in a sidecar file.
func (s *VideoStore) Save(filename, declaredType string, r io.Reader) (Video, error) {
	id := uuid.NewString()
	mediaFile := id + filepath.Ext(filename)
	path := filepath.Join(s.dir, mediaFile)

	f, err := os.Create(path)
	if err != nil {
		return Video{}, &fault.StorageError{Op: "create upload", Err: err}
	}

	size, err := io.Copy(f, r)
	closeErr := f.Close()
	if err != nil {
		_ = os.Remove(path)
		return Video{}, &fault.StorageError{Op: "write upload", Err: err}
	}
	if closeErr != nil {
		_ = os.Remove(path)
		return Video{}, &fault.StorageError{Op: "close upload", Err: closeErr}
	}

	meta := videoMeta{
		ID:           id,
		MediaFile:    mediaFile,
		Filename:     filename,
		DeclaredType: declaredType,
		Size:         size,
		UploadedAt:   time.Now().UTC(),
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		_ = os.Remove(path)
		return Video{}, &fault.StorageError{Op: "encode upload metadata", Err: err}
	}
	if err := os.WriteFile(s.metaPath(id), data, 0o644); err != nil {
		_ = os.Remove(path)
		return Video{}, &fault.StorageError{Op: "write upload metadata", Err: err}
	}

	return Video{
		ID:           id,
		Path:         path,
		Filename:     meta.Filename,
		DeclaredType: meta.DeclaredType,
		Size:         size,
		UploadedAt:   meta.UploadedAt,
	}, nil
}

// Get resolves an id to its stored file and the metadata recorded by Save.
func (s *VideoStore) Get(id string) (Video, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Video{}, ErrNotFound
	}
	data, err := os.ReadFile(s.metaPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return Video{}, ErrNotFound
		}
		return Video{}, &fault.StorageError{Op: "read upload metadata", Err: err}
	}
	var meta videoMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return Video{}, &fault.StorageError{Op: "decode upload metadata", Err: err}
	}

	path := filepath.Join(s.dir, meta.MediaFile)
	if _, err := os.Stat(path); err != nil {
		return Video{}, ErrNotFound
	}

	return Video{
		ID:           meta.ID,
		Path:         path,
		Filename:     meta.Filename,
		DeclaredType: meta.DeclaredType,
		Size:         meta.Size,
		UploadedAt:   meta.UploadedAt,
	}, nil
}

// Delete removes the stored upload and its metadata. Missing files are not
// an error: the goal is that the content is gone.
func (s *VideoStore) Delete(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	v, err := s.Get(id)
	if err == nil {
		if rmErr := os.Remove(v.Path); rmErr != nil && !os.IsNotExist(rmErr) {
			return &fault.StorageError{Op: "delete upload", Err: rmErr}
		}
	}
	if rmErr := os.Remove(s.metaPath(id)); rmErr != nil && !os.IsNotExist(rmErr) {
		return &fault.StorageError{Op: "delete upload metadata", Err: rmErr}
	}
	return nil
}

// metaPath names the sidecar record. The ".meta.json" suffix keeps it apart
// from a media file whose original extension was ".json".
func (s *VideoStore) metaPath(id string) string {
	return filepath.Join(s.dir, id+".meta.json")
}
