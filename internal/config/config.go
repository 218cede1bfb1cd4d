package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	cenv "github.com/caarlos0/env/v11"

	"clipbrief/internal/fault"
)

type Config struct {
	ListenAddr           string
	UpstreamBaseURL      string
	UpstreamAPIKey       string
	TranscriptionModel   string
	SummaryModel         string
	Providers            []string
	RequestTimeout       time.Duration
	ConvertTimeout       time.Duration
	TranscriptionTimeout time.Duration
	SummaryTimeout       time.Duration
	MaxUploadBytes       int64
	UploadDir            string
	SummaryDir           string
	ExtensionOrigin      string
	FFmpegPath           string
	FFprobePath          string
	LogLevel             string
}

type envConfig struct {
	ListenAddr                  string `env:"LISTEN_ADDR" envDefault:":8080"`
	UpstreamBaseURL             string `env:"UPSTREAM_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	UpstreamAPIKey              string `env:"UPSTREAM_API_KEY"`
	TranscriptionModel          string `env:"TRANSCRIPTION_MODEL" envDefault:"whisper-large-v3"`
	SummaryModel                string `env:"SUMMARY_MODEL" envDefault:"meta-llama/llama-4-scout-17b-16e-instruct"`
	Providers                   string `env:"TRANSCRIPTION_PROVIDERS" envDefault:"openai"`
	RequestTimeoutSeconds       int    `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"25"`
	ConvertTimeoutSeconds       int    `env:"CONVERT_TIMEOUT_SECONDS" envDefault:"120"`
	TranscriptionTimeoutSeconds int    `env:"TRANSCRIPTION_TIMEOUT_SECONDS" envDefault:"60"`
	SummaryTimeoutSeconds       int    `env:"SUMMARY_TIMEOUT_SECONDS" envDefault:"45"`
	MaxUploadBytes              int64  `env:"MAX_UPLOAD_BYTES" envDefault:"209715200"`
	UploadDir                   string `env:"UPLOAD_DIR" envDefault:"./data/uploads"`
	SummaryDir                  string `env:"SUMMARY_DIR" envDefault:"./data/summaries"`
	ExtensionOrigin             string `env:"EXTENSION_ORIGIN"`
	FFmpegPath                  string `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	FFprobePath                 string `env:"FFPROBE_PATH" envDefault:"ffprobe"`
	LogLevel                    string `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (Config, error) {
	var raw envConfig
	if err := cenv.Parse(&raw); err != nil {
		return Config{}, err
	}

	cfg := Config{
		ListenAddr:           strings.TrimSpace(raw.ListenAddr),
		UpstreamBaseURL:      strings.TrimRight(strings.TrimSpace(raw.UpstreamBaseURL), "/"),
		UpstreamAPIKey:       strings.TrimSpace(raw.UpstreamAPIKey),
		TranscriptionModel:   strings.TrimSpace(raw.TranscriptionModel),
		SummaryModel:         strings.TrimSpace(raw.SummaryModel),
		Providers:            splitList(raw.Providers),
		RequestTimeout:       time.Duration(raw.RequestTimeoutSeconds) * time.Second,
		ConvertTimeout:       time.Duration(raw.ConvertTimeoutSeconds) * time.Second,
		TranscriptionTimeout: time.Duration(raw.TranscriptionTimeoutSeconds) * time.Second,
		SummaryTimeout:       time.Duration(raw.SummaryTimeoutSeconds) * time.Second,
		MaxUploadBytes:       raw.MaxUploadBytes,
		UploadDir:            strings.TrimSpace(raw.UploadDir),
		SummaryDir:           strings.TrimSpace(raw.SummaryDir),
		ExtensionOrigin:      strings.TrimSpace(raw.ExtensionOrigin),
		FFmpegPath:           strings.TrimSpace(raw.FFmpegPath),
		FFprobePath:          strings.TrimSpace(raw.FFprobePath),
		LogLevel:             strings.ToLower(strings.TrimSpace(raw.LogLevel)),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return &fault.ConfigurationError{Key: "LISTEN_ADDR", Detail: "must not be empty"}
	}
	if c.UpstreamBaseURL == "" {
		return &fault.ConfigurationError{Key: "UPSTREAM_BASE_URL", Detail: "must not be empty"}
	}
	if c.TranscriptionModel == "" {
		return &fault.ConfigurationError{Key: "TRANSCRIPTION_MODEL", Detail: "must not be empty"}
	}
	if c.SummaryModel == "" {
		return &fault.ConfigurationError{Key: "SUMMARY_MODEL", Detail: "must not be empty"}
	}
	if len(c.Providers) == 0 {
		return &fault.ConfigurationError{Key: "TRANSCRIPTION_PROVIDERS", Detail: "must name at least one provider"}
	}
	if c.RequestTimeout <= 0 {
		return &fault.ConfigurationError{Key: "REQUEST_TIMEOUT_SECONDS", Detail: "must be > 0"}
	}
	if c.ConvertTimeout <= 0 {
		return &fault.ConfigurationError{Key: "CONVERT_TIMEOUT_SECONDS", Detail: "must be > 0"}
	}
	if c.TranscriptionTimeout <= 0 {
		return &fault.ConfigurationError{Key: "TRANSCRIPTION_TIMEOUT_SECONDS", Detail: "must be > 0"}
	}
	if c.SummaryTimeout <= 0 {
		return &fault.ConfigurationError{Key: "SUMMARY_TIMEOUT_SECONDS", Detail: "must be > 0"}
	}
	if c.MaxUploadBytes <= 0 {
		return &fault.ConfigurationError{Key: "MAX_UPLOAD_BYTES", Detail: "must be > 0"}
	}
	if c.FFmpegPath == "" {
		return &fault.ConfigurationError{Key: "FFMPEG_PATH", Detail: "must not be empty"}
	}
	if c.FFprobePath == "" {
		return &fault.ConfigurationError{Key: "FFPROBE_PATH", Detail: "must not be empty"}
	}
	dirs := []struct{ key, dir string }{
		{"UPLOAD_DIR", c.UploadDir},
		{"SUMMARY_DIR", c.SummaryDir},
	}
	for _, d := range dirs {
		if d.dir == "" {
			return &fault.ConfigurationError{Key: d.key, Detail: "must not be empty"}
		}
		info, err := os.Stat(d.dir)
		if err != nil {
			return &fault.ConfigurationError{Key: d.key, Detail: fmt.Sprintf("directory not accessible: %v", err)}
		}
		if !info.IsDir() {
			return &fault.ConfigurationError{Key: d.key, Detail: "not a directory"}
		}
	}
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
