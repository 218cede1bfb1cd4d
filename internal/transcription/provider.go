// Package transcription turns normalized audio into text through a
// configured speech-to-text provider. Providers declare their capabilities
// up front; selection happens once, at registry build time, and the provider
// that served a request is recorded on the result.
package transcription

import "context"

// Capabilities declares what operations a provider supports.
type Capabilities struct {
	Transcribe bool
}

// Result is a completed transcription. Provider names the backend that
// produced it.
type Result struct {
	Text     string
	Provider string
}

type Provider interface {
	Name() string
	Capabilities() Capabilities
	Transcribe(ctx context.Context, audioPath string) (Result, error)
}
