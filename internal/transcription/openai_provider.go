package transcription

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clipbrief/internal/fault"
)

// Client is the subset of the upstream API the OpenAI-backed provider needs.
type Client interface {
	Transcribe(ctx context.Context, file io.Reader, fileName, model string) (string, error)
}

// OpenAIProvider sends audio to an OpenAI-compatible speech-to-text endpoint.
type OpenAIProvider struct {
	client  Client
	model   string
	timeout time.Duration
}

func NewOpenAIProvider(client Client, model string, timeout time.Duration) *OpenAIProvider {
	return &OpenAIProvider{
		client:  client,
		model:   strings.TrimSpace(model),
		timeout: timeout,
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Capabilities() Capabilities {
	return Capabilities{Transcribe: true}
}

func (p *OpenAIProvider) Transcribe(ctx context.Context, audioPath string) (Result, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return Result{}, &fault.TranscriptionError{Provider: p.Name(), Detail: "could not open audio file"}
	}
	defer func() { _ = file.Close() }()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	text, err := p.client.Transcribe(ctx, file, filepath.Base(audioPath), p.model)
	if err != nil {
		return Result{}, &fault.TranscriptionError{Provider: p.Name(), Detail: err.Error()}
	}

	return Result{Text: strings.TrimSpace(text), Provider: p.Name()}, nil
}
