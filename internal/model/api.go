package model

import "time"

type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error     APIError `json:"error"`
	RequestID string   `json:"request_id,omitempty"`
}

type HealthResponse struct {
	OK bool `json:"ok"`
}

type ReadyResponse struct {
	OK          bool   `json:"ok"`
	ServiceName string `json:"service_name,omitempty"`
}

type UploadResponse struct {
	VideoID string `json:"video_id"`
}

type SummaryOptionsPayload struct {
	Length string   `json:"length,omitempty"`
	Format string   `json:"format,omitempty"`
	Focus  []string `json:"focus,omitempty"`
}

type SummarizeRequest struct {
	Options SummaryOptionsPayload `json:"options"`
}

type SummarizeResponse struct {
	SummaryID string `json:"summary_id"`
}

type SummaryResponse struct {
	Success       bool      `json:"success"`
	Transcription string    `json:"transcription"`
	Summary       string    `json:"summary"`
	Provider      string    `json:"provider,omitempty"`
	Error         string    `json:"error,omitempty"`
	ErrorType     string    `json:"error_type,omitempty"`
	Details       string    `json:"details,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type ExtensionPingResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
}

type ExtensionStatusResponse struct {
	Ready     bool     `json:"ready"`
	Providers []string `json:"providers"`
}

type ExtensionConfigResponse struct {
	MaxUploadBytes int64    `json:"max_upload_bytes"`
	AllowedTypes   []string `json:"allowed_types"`
	SummaryLengths []string `json:"summary_lengths"`
	SummaryFormats []string `json:"summary_formats"`
}
