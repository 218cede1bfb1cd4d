package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"clipbrief/internal/fault"
	"clipbrief/internal/upstream/openai"
)

type stubChatClient struct {
	responses []string
	err       error
	requests  []openai.ChatCompletionRequest
}

func (s *stubChatClient) ChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (string, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return "", s.err
	}
	if len(s.responses) == 0 {
		return "summary", nil
	}
	resp := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return resp, nil
}

func userPrompt(req openai.ChatCompletionRequest) string {
	for _, msg := range req.Messages {
		if msg.Role == "user" {
			if text, ok := msg.Content.(string); ok {
				return text
			}
		}
	}
	return ""
}

func TestSummarizeEmptyTranscriptSkipsUpstream(t *testing.T) {
	client := &stubChatClient{}
	svc := New(client, "llama", time.Minute)

	summary, err := svc.Summarize(context.Background(), "   ", Options{Length: LengthMedium, Format: FormatBullets})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary != "" {
		t.Fatalf("expected empty summary, got %q", summary)
	}
	if len(client.requests) != 0 {
		t.Fatalf("expected no upstream calls, got %d", len(client.requests))
	}
}

func TestSummarizeSingleChunk(t *testing.T) {
	client := &stubChatClient{responses: []string{"- point one\n- point two"}}
	svc := New(client, "llama", time.Minute)

	summary, err := svc.Summarize(context.Background(), "We discussed the launch. It went well.", Options{Length: LengthShort, Format: FormatBullets, Focus: []string{"launch"}})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary != "- point one\n- point two" {
		t.Fatalf("unexpected summary: %q", summary)
	}
	if len(client.requests) != 1 {
		t.Fatalf("expected one upstream call, got %d", len(client.requests))
	}
	prompt := userPrompt(client.requests[0])
	if !strings.Contains(prompt, "launch") {
		t.Fatalf("expected focus term in prompt: %q", prompt)
	}
	if !strings.Contains(prompt, "2-3 sentences") {
		t.Fatalf("expected length instruction in prompt: %q", prompt)
	}
}

func TestSummarizeChunksLongTranscript(t *testing.T) {
	client := &stubChatClient{responses: []string{"partial"}}
	svc := New(client, "llama", time.Minute)
	svc.maxInputChars = 40

	transcript := "First sentence here. Second sentence here. Third sentence here. Fourth one too."
	if _, err := svc.Summarize(context.Background(), transcript, Options{Length: LengthMedium, Format: FormatParagraph}); err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	// Multiple chunk calls plus one combine call.
	if len(client.requests) < 3 {
		t.Fatalf("expected chunked calls plus combine, got %d", len(client.requests))
	}
	for _, req := range client.requests[:len(client.requests)-1] {
		if !strings.Contains(userPrompt(req), "PART") {
			t.Fatalf("expected partial marker in chunk prompt: %q", userPrompt(req))
		}
	}
	if strings.Contains(userPrompt(client.requests[len(client.requests)-1]), "PART") {
		t.Fatal("combine call must not be marked partial")
	}
}

func TestSplitSentenceChunksNeverSplitsWords(t *testing.T) {
	text := strings.Repeat("alpha bravo charlie delta ", 10)
	chunks := splitSentenceChunks(text, 30)
	for _, chunk := range chunks {
		for _, word := range strings.Fields(chunk) {
			switch word {
			case "alpha", "bravo", "charlie", "delta":
			default:
				t.Fatalf("word split mid-way: %q in chunk %q", word, chunk)
			}
		}
		if len(chunk) > 30 {
			t.Fatalf("chunk exceeds limit: %q", chunk)
		}
	}
}

func TestSplitSentenceChunksRespectsBoundaries(t *testing.T) {
	text := "One is short. Two is also short. Three rounds it out."
	chunks := splitSentenceChunks(text, 25)
	for _, chunk := range chunks {
		if !strings.HasSuffix(chunk, ".") {
			t.Fatalf("chunk does not end at sentence boundary: %q", chunk)
		}
	}
}

func TestSummarizeUpstreamFailure(t *testing.T) {
	client := &stubChatClient{err: errors.New("connection refused")}
	svc := New(client, "llama", time.Minute)

	_, err := svc.Summarize(context.Background(), "Something was said.", Options{Length: LengthMedium, Format: FormatBullets})
	var sumErr *fault.SummarizationError
	if !errors.As(err, &sumErr) {
		t.Fatalf("expected SummarizationError, got %v", err)
	}
}

func TestSummarizeEmptyResponseIsError(t *testing.T) {
	client := &stubChatClient{responses: []string{"   "}}
	svc := New(client, "llama", time.Minute)

	_, err := svc.Summarize(context.Background(), "Something was said.", Options{Length: LengthMedium, Format: FormatBullets})
	var sumErr *fault.SummarizationError
	if !errors.As(err, &sumErr) {
		t.Fatalf("expected SummarizationError, got %v", err)
	}
}

func TestSummarizeEmptySentinelMapsToEmptySummary(t *testing.T) {
	client := &stubChatClient{responses: []string{"EMPTY"}}
	svc := New(client, "llama", time.Minute)

	summary, err := svc.Summarize(context.Background(), "uh.", Options{Length: LengthMedium, Format: FormatBullets})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary != "" {
		t.Fatalf("expected empty summary, got %q", summary)
	}
}
