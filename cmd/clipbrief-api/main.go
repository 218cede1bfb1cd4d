package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"clipbrief/internal/config"
	"clipbrief/internal/convert"
	"clipbrief/internal/httpapi"
	"clipbrief/internal/media"
	"clipbrief/internal/observability"
	"clipbrief/internal/pipeline"
	"clipbrief/internal/store"
	"clipbrief/internal/summarize"
	"clipbrief/internal/transcription"
	"clipbrief/internal/upstream/openai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	metrics := observability.NewMetrics()

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	upstreamHTTPClient := &http.Client{Timeout: cfg.RequestTimeout, Transport: transport}
	upstreamClient := openai.New(cfg.UpstreamBaseURL, cfg.UpstreamAPIKey, upstreamHTTPClient, openai.WithObserver(metrics.ObserveUpstream))

	registry, err := buildProviderRegistry(cfg, logger, upstreamClient)
	if err != nil {
		fmt.Fprintf(os.Stderr, "provider error: %v\n", err)
		os.Exit(1)
	}
	transcriber, err := registry.Select()
	if err != nil {
		fmt.Fprintf(os.Stderr, "provider error: %v\n", err)
		os.Exit(1)
	}

	validator := media.NewValidator(cfg.MaxUploadBytes, nil)
	converter := convert.New(convert.NewRunner(), cfg.FFmpegPath, cfg.FFprobePath, cfg.ConvertTimeout)
	summarizer := summarize.New(upstreamClient, cfg.SummaryModel, cfg.SummaryTimeout)
	pipelineService := pipeline.New(validator, converter, transcriber, summarizer, os.TempDir(), logger, metrics.ObservePipelineStage)

	handler := httpapi.NewServer(cfg, logger, httpapi.Dependencies{
		Pipeline:       pipelineService,
		Videos:         store.NewVideoStore(cfg.UploadDir),
		Summaries:      store.NewSummaryStore(cfg.SummaryDir),
		Upstream:       upstreamClient,
		Providers:      registry.Names(),
		Metrics:        metrics,
		MetricsHandler: metrics.Handler(),
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("server exited", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func buildProviderRegistry(cfg config.Config, logger *slog.Logger, client *openai.Client) (*transcription.Registry, error) {
	providers := make([]transcription.Provider, 0, len(cfg.Providers))
	for _, name := range cfg.Providers {
		switch {
		case name == "openai":
			providers = append(providers, transcription.NewOpenAIProvider(client, cfg.TranscriptionModel, cfg.TranscriptionTimeout))
		case name == "fixture":
			providers = append(providers, transcription.NewFixtureProvider(""))
		case strings.HasPrefix(name, "fixture:"):
			providers = append(providers, transcription.NewFixtureProvider(strings.TrimPrefix(name, "fixture:")))
		default:
			return nil, fmt.Errorf("unknown transcription provider %q", name)
		}
	}
	return transcription.NewRegistry(logger, providers...), nil
}

func newLogger(level string) *slog.Logger {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn", "warning":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
}
