package transcription

import "context"

// FixtureProvider returns a canned transcript. It exists so deployments and
// tests can exercise the full pipeline without a speech-to-text backend, and
// is selected through configuration rather than any runtime toggle.
type FixtureProvider struct {
	text string
}

func NewFixtureProvider(text string) *FixtureProvider {
	return &FixtureProvider{text: text}
}

func (p *FixtureProvider) Name() string { return "fixture" }

func (p *FixtureProvider) Capabilities() Capabilities {
	return Capabilities{Transcribe: true}
}

func (p *FixtureProvider) Transcribe(_ context.Context, _ string) (Result, error) {
	return Result{Text: p.text, Provider: p.Name()}, nil
}
