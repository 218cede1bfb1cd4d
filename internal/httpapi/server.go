package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"clipbrief/internal/config"
	"clipbrief/internal/fault"
	"clipbrief/internal/media"
	"clipbrief/internal/model"
	"clipbrief/internal/pipeline"
	"clipbrief/internal/store"
	"clipbrief/internal/summarize"
	"clipbrief/internal/upstream/openai"
)

type PipelineService interface {
	Process(ctx context.Context, in pipeline.Input) pipeline.Result
}

type VideoStore interface {
	Save(filename, declaredType string, r io.Reader) (store.Video, error)
	Get(id string) (store.Video, error)
	Delete(id string) error
}

type SummaryStore interface {
	Put(record store.SummaryRecord) (string, error)
	Get(id string) (store.SummaryRecord, error)
}

type UpstreamChecker interface {
	CheckModels(ctx context.Context) error
}

type MetricsObserver interface {
	ObserveHTTP(route, method string, status int, duration time.Duration)
}

type Dependencies struct {
	Pipeline       PipelineService
	Videos         VideoStore
	Summaries      SummaryStore
	Upstream       UpstreamChecker
	Providers      []string
	Metrics        MetricsObserver
	MetricsHandler http.Handler
}

type server struct {
	cfg          config.Config
	logger       *slog.Logger
	pipeline     PipelineService
	videos       VideoStore
	summaries    SummaryStore
	upstream     UpstreamChecker
	providers    []string
	metrics      MetricsObserver
	metricsRoute http.Handler
}

type ctxKey string

const (
	requestIDHeader  = "X-Request-Id"
	requestIDContext = ctxKey("request_id")
	maxJSONBodyBytes = 1 << 20
)

func NewServer(cfg config.Config, logger *slog.Logger, deps Dependencies) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Pipeline == nil || deps.Videos == nil || deps.Summaries == nil || deps.Upstream == nil {
		panic("httpapi: all dependencies are required")
	}

	s := &server{
		cfg:          cfg,
		logger:       logger,
		pipeline:     deps.Pipeline,
		videos:       deps.Videos,
		summaries:    deps.Summaries,
		upstream:     deps.Upstream,
		providers:    deps.Providers,
		metrics:      deps.Metrics,
		metricsRoute: deps.MetricsHandler,
	}

	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusNotFound, "not_found", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	})

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	if s.metricsRoute != nil {
		r.Handle("/metrics", s.metricsRoute)
	}

	r.Post("/video/upload", s.handleUpload)
	r.Route("/summarizer", func(r chi.Router) {
		r.Post("/summarize/{videoID}", s.handleSummarize)
		r.Get("/summary/{summaryID}", s.handleGetSummary)
	})

	r.Route("/api/extension", func(r chi.Router) {
		r.Use(s.extensionOriginMiddleware)
		r.Get("/ping", s.handleExtensionPing)
		r.Get("/status", s.handleExtensionStatus)
		r.Get("/config", s.handleExtensionConfig)
	})

	return r
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.HealthResponse{OK: true})
}

func (s *server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.upstream.CheckModels(ctx); err != nil {
		s.writeError(w, r, http.StatusServiceUnavailable, "not_ready", "upstream check failed", detailsForError(err))
		return
	}
	writeJSON(w, http.StatusOK, model.ReadyResponse{OK: true, ServiceName: "clipbrief"})
}

func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, form, err := s.readMultipartFile(w, r)
	if err != nil {
		s.handleMultipartReadError(w, r, err)
		return
	}
	defer cleanupMultipartForm(form)
	defer func() { _ = file.Close() }()

	declaredType := header.Header.Get("Content-Type")
	video, err := s.videos.Save(header.Filename, declaredType, file)
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}

	s.logger.Info("upload stored", "video_id", video.ID, "bytes", video.Size, "declared_type", declaredType)
	writeJSON(w, http.StatusCreated, model.UploadResponse{VideoID: video.ID})
}

func (s *server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	video, err := s.videos.Get(videoID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, r, http.StatusNotFound, "not_found", "unknown video id", nil)
			return
		}
		s.writeMappedError(w, r, err)
		return
	}

	req, err := s.decodeSummarizeRequest(w, r)
	if err != nil {
		s.handleJSONDecodeError(w, r, err)
		return
	}

	// Options are validated before the pipeline starts.
	opts, err := summarize.ParseOptions(req.Options.Length, req.Options.Format, req.Options.Focus)
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}

	result := s.pipeline.Process(r.Context(), pipeline.Input{
		MediaPath:    video.Path,
		DeclaredType: video.DeclaredType,
		Options:      opts,
	})

	// The uploaded content is discarded once the pipeline has run, whether
	// it succeeded or not.
	if err := s.videos.Delete(videoID); err != nil {
		s.logger.Warn("failed to delete upload", "video_id", videoID, "error", err)
	}

	record := recordForResult(videoID, result)
	summaryID, err := s.summaries.Put(record)
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}

	if !result.Success() {
		details := detailsForError(result.Err)
		details["summary_id"] = summaryID
		details["error_type"] = faultType(result.Err)
		status, code, message := mapFault(result.Err)
		s.writeError(w, r, status, code, message, details)
		return
	}

	writeJSON(w, http.StatusOK, model.SummarizeResponse{SummaryID: summaryID})
}

func (s *server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	record, err := s.summaries.Get(chi.URLParam(r, "summaryID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, r, http.StatusNotFound, "not_found", "unknown summary id", nil)
			return
		}
		s.writeMappedError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.SummaryResponse{
		Success:       record.Success,
		Transcription: record.Transcription,
		Summary:       record.Summary,
		Provider:      record.Provider,
		Error:         record.Error,
		ErrorType:     record.ErrorType,
		Details:       record.Details,
		CreatedAt:     record.CreatedAt,
	})
}

func (s *server) handleExtensionPing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.ExtensionPingResponse{OK: true, Service: "clipbrief"})
}

func (s *server) handleExtensionStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.ExtensionStatusResponse{
		Ready:     true,
		Providers: s.providers,
	})
}

func (s *server) handleExtensionConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.ExtensionConfigResponse{
		MaxUploadBytes: s.cfg.MaxUploadBytes,
		AllowedTypes:   media.DefaultAllowedTypes,
		SummaryLengths: []string{string(summarize.LengthShort), string(summarize.LengthMedium), string(summarize.LengthLong)},
		SummaryFormats: []string{string(summarize.FormatParagraph), string(summarize.FormatBullets), string(summarize.FormatNumbered), string(summarize.FormatKeyPoints)},
	})
}

func (s *server) decodeSummarizeRequest(w http.ResponseWriter, r *http.Request) (model.SummarizeRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	defer func() { _ = r.Body.Close() }()

	var req model.SummarizeRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			// No body at all means default options.
			return model.SummarizeRequest{}, nil
		}
		return model.SummarizeRequest{}, err
	}
	if err := ensureBodyFullyConsumed(decoder); err != nil {
		return model.SummarizeRequest{}, err
	}
	return req, nil
}

func (s *server) readMultipartFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, *multipart.Form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(minInt64(s.cfg.MaxUploadBytes, 8<<20)); err != nil {
		return nil, nil, nil, err
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, r.MultipartForm, err
	}
	return file, header, r.MultipartForm, nil
}

func (s *server) handleMultipartReadError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		s.writeError(w, r, http.StatusRequestEntityTooLarge, "request_too_large", fmt.Sprintf("request exceeds %d bytes", s.cfg.MaxUploadBytes), nil)
		return
	}
	if strings.Contains(strings.ToLower(err.Error()), "no such file") || strings.Contains(strings.ToLower(err.Error()), "missing") {
		s.writeError(w, r, http.StatusBadRequest, "invalid_request", "multipart field 'file' is required", nil)
		return
	}
	s.writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid multipart form data", nil)
}

func (s *server) handleJSONDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		s.writeError(w, r, http.StatusRequestEntityTooLarge, "request_too_large", "JSON body too large", nil)
		return
	}
	s.writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
}

func (s *server) writeMappedError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := mapFault(err)
	s.writeError(w, r, status, code, message, detailsForError(err))
}

// mapFault translates the typed fault taxonomy to HTTP semantics: client
// mistakes are 4xx, upstream service failures 502, everything local 500.
func mapFault(err error) (status int, code, message string) {
	status = http.StatusInternalServerError
	code = "internal_error"
	message = "request failed"

	var fileErr *fault.FileError
	var optErr *summarize.InvalidOptionError
	var procErr *fault.ProcessingError
	var transcriptionErr *fault.TranscriptionError
	var summarizationErr *fault.SummarizationError
	var storageErr *fault.StorageError
	var upstreamErr *openai.Error

	switch {
	case errors.As(err, &fileErr):
		status = http.StatusBadRequest
		code = "invalid_file"
		message = fileErr.Error()
	case errors.As(err, &optErr):
		status = http.StatusBadRequest
		code = "invalid_options"
		message = optErr.Error()
	case errors.As(err, &transcriptionErr):
		status = http.StatusBadGateway
		code = "transcription_failed"
		message = "transcription service failed"
	case errors.As(err, &summarizationErr):
		status = http.StatusBadGateway
		code = "summarization_failed"
		message = "summarization service failed"
	case errors.As(err, &procErr):
		status = http.StatusInternalServerError
		code = "processing_failed"
		message = "media conversion failed"
	case errors.As(err, &storageErr):
		status = http.StatusInternalServerError
		code = "storage_failed"
		message = "storage operation failed"
	case errors.As(err, &upstreamErr):
		status = http.StatusBadGateway
		code = "upstream_request_failed"
		message = "upstream request failed"
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		code = "timeout"
		message = "request timed out"
	case errors.Is(err, context.Canceled):
		status = 499
		code = "canceled"
		message = "request canceled"
	}
	return status, code, message
}

// faultType names the taxonomy entry for a pipeline error, recorded on the
// stored summary and surfaced as error_type.
func faultType(err error) string {
	var fileErr *fault.FileError
	var procErr *fault.ProcessingError
	var transcriptionErr *fault.TranscriptionError
	var summarizationErr *fault.SummarizationError
	var storageErr *fault.StorageError

	switch {
	case errors.As(err, &fileErr):
		return "FileError"
	case errors.As(err, &procErr):
		return "ProcessingError"
	case errors.As(err, &transcriptionErr):
		return "TranscriptionError"
	case errors.As(err, &summarizationErr):
		return "SummarizationError"
	case errors.As(err, &storageErr):
		return "StorageError"
	default:
		return "InternalError"
	}
}

// recordForResult flattens a pipeline result into its persisted form. Detail
// strings stay free of filesystem paths: conversion failures are recorded
// generically and their diagnostics go to the log only.
func recordForResult(videoID string, result pipeline.Result) store.SummaryRecord {
	record := store.SummaryRecord{
		VideoID:       videoID,
		Success:       result.Success(),
		Transcription: result.Transcription,
		Summary:       result.Summary,
		Provider:      result.Provider,
	}
	if result.Err != nil {
		record.ErrorType = faultType(result.Err)
		record.Error = fmt.Sprintf("pipeline failed at stage %q", result.Stage)
		record.Details = safeDetail(result.Err)
	}
	return record
}

func safeDetail(err error) string {
	var procErr *fault.ProcessingError
	if errors.As(err, &procErr) {
		return "media conversion failed"
	}
	var storageErr *fault.StorageError
	if errors.As(err, &storageErr) {
		return "storage operation failed"
	}
	return err.Error()
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any) {
	if rid := requestIDFromContext(r.Context()); rid != "" {
		w.Header().Set(requestIDHeader, rid)
	}
	writeJSON(w, status, model.ErrorResponse{
		Error:     model.APIError{Code: code, Message: message, Details: details},
		RequestID: requestIDFromContext(r.Context()),
	})
}

func (s *server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = newRequestID()
		}
		w.Header().Set(requestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), requestIDContext, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		duration := time.Since(started)
		if s.metrics != nil {
			s.metrics.ObserveHTTP(route, r.Method, status, duration)
		}

		s.logger.Info("http_request",
			"request_id", requestIDFromContext(r.Context()),
			"method", r.Method,
			"route", route,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", duration.Milliseconds(),
		)
	})
}

func (s *server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "request_id", requestIDFromContext(r.Context()), "panic", rec)
				s.writeError(w, r, http.StatusInternalServerError, "internal_error", "internal server error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// extensionOriginMiddleware restricts the extension surface to the configured
// browser-extension origin.
func (s *server) extensionOriginMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if s.cfg.ExtensionOrigin == "" || origin != s.cfg.ExtensionOrigin {
			s.writeError(w, r, http.StatusForbidden, "forbidden", "origin not allowed", nil)
			return
		}
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.ExtensionOrigin)
		w.Header().Set("Vary", "Origin")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func ensureBodyFullyConsumed(decoder *json.Decoder) error {
	var extra any
	if err := decoder.Decode(&extra); err != io.EOF {
		if err == nil {
			return fmt.Errorf("multiple JSON values")
		}
		return err
	}
	return nil
}

func cleanupMultipartForm(form *multipart.Form) {
	if form != nil {
		_ = form.RemoveAll()
	}
}

func requestIDFromContext(ctx context.Context) string {
	value, _ := ctx.Value(requestIDContext).(string)
	return value
}

func newRequestID() string {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("req-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

// detailsForError never includes local filesystem paths; fault messages are
// built from stage names and upstream diagnostics only.
func detailsForError(err error) map[string]any {
	if err == nil {
		return nil
	}
	details := map[string]any{"error": safeDetail(err)}
	var upstreamErr *openai.Error
	if errors.As(err, &upstreamErr) {
		details["upstream_status"] = upstreamErr.StatusCode
	}
	var fileErr *fault.FileError
	if errors.As(err, &fileErr) {
		if fileErr.Detected != "" {
			details["detected_type"] = fileErr.Detected
		}
		if fileErr.Declared != "" {
			details["declared_type"] = fileErr.Declared
		}
		details["max_bytes"] = fileErr.MaxBytes
	}
	var optErr *summarize.InvalidOptionError
	if errors.As(err, &optErr) {
		details["field"] = optErr.Field
	}
	return details
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
