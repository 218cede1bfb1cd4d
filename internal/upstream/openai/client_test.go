package openai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTranscribeSendsMultipartAndParsesText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Fatalf("unexpected auth header: %q", auth)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if model := r.FormValue("model"); model != "whisper-large-v3" {
			t.Fatalf("unexpected model: %q", model)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"hello there"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key", srv.Client())
	text, err := c.Transcribe(context.Background(), strings.NewReader("audio-bytes"), "clip.wav", "whisper-large-v3")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "hello there" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestTranscribeUpstreamErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key", srv.Client())
	_, err := c.Transcribe(context.Background(), strings.NewReader("x"), "clip.wav", "whisper")

	var upstreamErr *Error
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if upstreamErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("unexpected status: %d", upstreamErr.StatusCode)
	}
}

func TestChatCompletionParsesContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"- point"}}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key", srv.Client())
	content, err := c.ChatCompletion(context.Background(), ChatCompletionRequest{
		Model:    "llama",
		Messages: []ChatMessage{{Role: "user", Content: "summarize"}},
	})
	if err != nil {
		t.Fatalf("ChatCompletion() error = %v", err)
	}
	if content != "- point" {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestChatCompletionMissingChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key", srv.Client())
	if _, err := c.ChatCompletion(context.Background(), ChatCompletionRequest{Model: "llama"}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestCheckModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key", srv.Client())
	if err := c.CheckModels(context.Background()); err != nil {
		t.Fatalf("CheckModels() error = %v", err)
	}
}

func TestObserverReceivesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	var endpoint string
	var status int
	c := New(srv.URL, "test-key", srv.Client(), WithObserver(func(e string, s int, _ time.Duration) {
		endpoint = e
		status = s
	}))
	if err := c.CheckModels(context.Background()); err != nil {
		t.Fatalf("CheckModels() error = %v", err)
	}
	if endpoint != "models" || status != http.StatusOK {
		t.Fatalf("observer not called correctly: %q %d", endpoint, status)
	}
}
