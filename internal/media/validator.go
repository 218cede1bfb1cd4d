// Package media validates uploaded files before the pipeline touches them.
// The media type is detected from file content, so a text file renamed to
// .mp4 is rejected for what it actually is.
package media

import (
	"fmt"
	"os"

	"github.com/gabriel-vasile/mimetype"

	"clipbrief/internal/fault"
)

// DefaultAllowedTypes covers the audio and video containers browsers produce.
var DefaultAllowedTypes = []string{
	"video/mp4",
	"video/webm",
	"video/quicktime",
	"video/ogg",
	"video/x-matroska",
	"audio/wav",
	"audio/x-wav",
	"audio/mpeg",
	"audio/mp4",
	"audio/ogg",
	"audio/webm",
	"audio/flac",
	"audio/aac",
}

type Validator struct {
	maxBytes int64
	allowed  map[string]struct{}
}

func NewValidator(maxBytes int64, allowedTypes []string) *Validator {
	if len(allowedTypes) == 0 {
		allowedTypes = DefaultAllowedTypes
	}
	allowed := make(map[string]struct{}, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[t] = struct{}{}
	}
	return &Validator{maxBytes: maxBytes, allowed: allowed}
}

// Validate checks that the file at path exists, is non-empty, fits the size
// limit, and holds content of an allowed media type. declaredType is what the
// client claimed; only the detected type decides acceptance.
func (v *Validator) Validate(path, declaredType string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &fault.FileError{Declared: declaredType, MaxBytes: v.maxBytes, Reason: "file does not exist"}
	}
	if info.Size() == 0 {
		return &fault.FileError{Declared: declaredType, MaxBytes: v.maxBytes, Reason: "file is empty"}
	}
	if info.Size() > v.maxBytes {
		return &fault.FileError{
			Declared: declaredType,
			MaxBytes: v.maxBytes,
			Reason:   fmt.Sprintf("file size %d exceeds maximum %d bytes", info.Size(), v.maxBytes),
		}
	}

	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return &fault.FileError{Declared: declaredType, MaxBytes: v.maxBytes, Reason: "could not read file header"}
	}

	for mt := detected; mt != nil; mt = mt.Parent() {
		if _, ok := v.allowed[baseType(mt.String())]; ok {
			return nil
		}
	}

	return &fault.FileError{
		Detected: baseType(detected.String()),
		Declared: declaredType,
		MaxBytes: v.maxBytes,
	}
}

// baseType strips parameters like "; charset=utf-8".
func baseType(mt string) string {
	for i := 0; i < len(mt); i++ {
		if mt[i] == ';' {
			return mt[:i]
		}
	}
	return mt
}
