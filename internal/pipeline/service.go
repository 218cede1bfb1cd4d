// Package pipeline sequences validation, conversion, transcription, and
// summarization for one uploaded media file. The stages are strictly
// sequential: each one consumes the previous stage's output, and the first
// failure ends the invocation.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"time"

	"clipbrief/internal/fault"
	"clipbrief/internal/summarize"
	"clipbrief/internal/transcription"
)

type Validator interface {
	Validate(path, declaredType string) error
}

type Converter interface {
	ToCanonicalWAV(ctx context.Context, inputPath, outDir string) (string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (transcription.Result, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, transcript string, opts summarize.Options) (string, error)
}

// StageObserver receives per-stage outcomes, typically for metrics.
type StageObserver func(stage string, success bool, duration time.Duration)

type Service struct {
	validator   Validator
	converter   Converter
	transcriber Transcriber
	summarizer  Summarizer
	workDir     string
	logger      *slog.Logger
	observe     StageObserver
}

type Input struct {
	MediaPath    string
	DeclaredType string
	Options      summarize.Options
}

type Timings struct {
	Validation    time.Duration
	Conversion    time.Duration
	Transcription time.Duration
	Summarization time.Duration
	Total         time.Duration
}

// Result is the terminal value of a pipeline invocation. On success, Err is
// nil and Transcription/Summary/Provider are populated. On failure, Stage
// names the stage that failed and Err carries the typed fault.
type Result struct {
	Transcription string
	Summary       string
	Provider      string
	Stage         string
	Err           error
	Timings       Timings
}

func (r Result) Success() bool { return r.Err == nil }

func New(validator Validator, converter Converter, transcriber Transcriber, summarizer Summarizer, workDir string, logger *slog.Logger, observe StageObserver) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		validator:   validator,
		converter:   converter,
		transcriber: transcriber,
		summarizer:  summarizer,
		workDir:     workDir,
		logger:      logger,
		observe:     observe,
	}
}

// Process runs the full pipeline for one media file. The normalized audio
// file created by the conversion stage is removed before Process returns, on
// every exit path. The input file is not touched; its owner deletes it.
func (s *Service) Process(ctx context.Context, in Input) Result {
	started := time.Now()
	result := Result{}

	// Validating.
	stageStart := time.Now()
	err := s.validator.Validate(in.MediaPath, in.DeclaredType)
	result.Timings.Validation = time.Since(stageStart)
	s.observeStage(fault.StageValidation, err == nil, result.Timings.Validation)
	if err != nil {
		return s.fail(result, fault.StageValidation, err, started)
	}

	// Converting.
	stageStart = time.Now()
	wavPath, err := s.converter.ToCanonicalWAV(ctx, in.MediaPath, s.workDir)
	result.Timings.Conversion = time.Since(stageStart)
	s.observeStage(fault.StageConversion, err == nil, result.Timings.Conversion)
	if err != nil {
		return s.fail(result, fault.StageConversion, err, started)
	}
	defer func() {
		if rmErr := os.Remove(wavPath); rmErr != nil {
			s.logger.Warn("failed to remove normalized audio", "error", rmErr)
		}
	}()

	// Transcribing.
	stageStart = time.Now()
	transcript, err := s.transcriber.Transcribe(ctx, wavPath)
	result.Timings.Transcription = time.Since(stageStart)
	s.observeStage(fault.StageTranscription, err == nil, result.Timings.Transcription)
	if err != nil {
		return s.fail(result, fault.StageTranscription, err, started)
	}
	result.Transcription = transcript.Text
	result.Provider = transcript.Provider

	// Summarizing.
	stageStart = time.Now()
	summary, err := s.summarizer.Summarize(ctx, transcript.Text, in.Options)
	result.Timings.Summarization = time.Since(stageStart)
	s.observeStage(fault.StageSummarization, err == nil, result.Timings.Summarization)
	if err != nil {
		return s.fail(result, fault.StageSummarization, err, started)
	}
	result.Summary = summary

	result.Timings.Total = time.Since(started)
	s.logger.Info("pipeline completed",
		"provider", result.Provider,
		"transcript_chars", len(result.Transcription),
		"summary_chars", len(result.Summary),
		"duration_ms", result.Timings.Total.Milliseconds(),
	)
	return result
}

func (s *Service) fail(result Result, stage string, err error, started time.Time) Result {
	result.Stage = stage
	result.Err = err
	result.Timings.Total = time.Since(started)
	s.logger.Error("pipeline stage failed", "stage", stage, "error", err)
	return result
}

func (s *Service) observeStage(stage string, success bool, duration time.Duration) {
	if s.observe != nil {
		s.observe(stage, success, duration)
	}
}
