package transcription

import (
	"log/slog"

	"clipbrief/internal/fault"
)

// Registry holds the configured providers in priority order and selects the
// one that will serve transcription requests. There is no runtime fallback:
// if the selected provider fails, the pipeline invocation fails.
type Registry struct {
	providers []Provider
	logger    *slog.Logger
}

func NewRegistry(logger *slog.Logger, providers ...Provider) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{providers: providers, logger: logger}
}

// Select returns the first provider capable of transcription. The choice is
// logged so operators can see which backend actually serves requests.
func (r *Registry) Select() (Provider, error) {
	for _, p := range r.providers {
		if !p.Capabilities().Transcribe {
			r.logger.Warn("provider lacks transcription capability, skipping", "provider", p.Name())
			continue
		}
		r.logger.Info("transcription provider selected", "provider", p.Name())
		return p, nil
	}
	return nil, &fault.TranscriptionError{Detail: "no configured provider supports transcription"}
}

// Names lists the registered providers in priority order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		names = append(names, p.Name())
	}
	return names
}
