// Package summarize generates a text summary of a transcript through an
// external chat-completion service.
package summarize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clipbrief/internal/fault"
	"clipbrief/internal/upstream/openai"
)

const systemPrompt = `You are a video summarization assistant. You receive the transcript of a video and return a summary.

Rules:
- Base the summary only on the transcript. Do not invent content.
- Follow the requested length and format exactly.
- If the transcript is empty or contains no usable speech, return exactly: EMPTY`

// DefaultMaxInputChars bounds how much transcript goes into a single
// upstream request. Longer transcripts are chunked on sentence boundaries.
const DefaultMaxInputChars = 24000

type ChatClient interface {
	ChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (string, error)
}

type Service struct {
	client        ChatClient
	model         string
	timeout       time.Duration
	maxInputChars int
}

func New(client ChatClient, model string, timeout time.Duration) *Service {
	return &Service{
		client:        client,
		model:         strings.TrimSpace(model),
		timeout:       timeout,
		maxInputChars: DefaultMaxInputChars,
	}
}

// Summarize produces a summary of the transcript per the given options. An
// empty transcript yields an empty summary without calling upstream.
func (s *Service) Summarize(ctx context.Context, transcript string, opts Options) (string, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return "", nil
	}

	chunks := splitSentenceChunks(transcript, s.maxInputChars)
	if len(chunks) == 1 {
		return s.summarizeOne(ctx, chunks[0], opts, false)
	}

	// Map-reduce: summarize each chunk, then combine the partials.
	partials := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		partial, err := s.summarizeOne(ctx, chunk, opts, true)
		if err != nil {
			return "", err
		}
		if partial != "" {
			partials = append(partials, partial)
		}
	}
	if len(partials) == 0 {
		return "", nil
	}
	return s.summarizeOne(ctx, strings.Join(partials, "\n\n"), opts, false)
}

func (s *Service) summarizeOne(ctx context.Context, text string, opts Options, partial bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.ChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0.2,
		Messages: []openai.ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(text, opts, partial)},
		},
	})
	if err != nil {
		return "", &fault.SummarizationError{Detail: err.Error()}
	}

	summary := sanitizeSummary(resp)
	if summary == "" && strings.TrimSpace(resp) != "EMPTY" {
		return "", &fault.SummarizationError{Detail: "empty response from summarization service"}
	}
	return summary, nil
}

func buildUserPrompt(text string, opts Options, partial bool) string {
	var b strings.Builder

	if partial {
		b.WriteString("Summarize this PART of a longer transcript as plain prose. It will be combined with other parts later.\n")
	} else {
		fmt.Fprintf(&b, "Summarize the transcript. Target length: %s. %s\n", lengthInstruction(opts.Length), formatInstruction(opts.Format))
	}
	if len(opts.Focus) > 0 {
		fmt.Fprintf(&b, "Pay particular attention to: %s.\n", strings.Join(opts.Focus, ", "))
	}
	fmt.Fprintf(&b, "\nTRANSCRIPT: %q", text)
	return b.String()
}

func lengthInstruction(length Length) string {
	switch length {
	case LengthShort:
		return "2-3 sentences"
	case LengthLong:
		return "several detailed paragraphs"
	default:
		return "one solid paragraph worth of content"
	}
}

func formatInstruction(format Format) string {
	switch format {
	case FormatParagraph:
		return "Write flowing prose paragraphs."
	case FormatNumbered:
		return "Write a numbered list, one point per line."
	case FormatKeyPoints:
		return "Write the key takeaways, each prefixed with 'Key point:'."
	default:
		return "Write bullet points, one per line, each starting with '- '."
	}
}

func sanitizeSummary(value string) string {
	result := strings.TrimSpace(value)
	if result == "" {
		return ""
	}
	if strings.HasPrefix(result, "\"") && strings.HasSuffix(result, "\"") && len(result) > 1 {
		result = strings.TrimSpace(strings.TrimPrefix(strings.TrimSuffix(result, "\""), "\""))
	}
	if result == "EMPTY" {
		return ""
	}
	return result
}

// splitSentenceChunks breaks text into chunks of at most maxChars, cutting
// only at sentence boundaries. A single sentence longer than maxChars is
// split at word boundaries, never mid-word.
func splitSentenceChunks(text string, maxChars int) []string {
	if len(text) <= maxChars {
		return []string{text}
	}

	sentences := splitSentences(text)

	var chunks []string
	var current strings.Builder
	for _, sentence := range sentences {
		if len(sentence) > maxChars {
			if current.Len() > 0 {
				chunks = append(chunks, strings.TrimSpace(current.String()))
				current.Reset()
			}
			chunks = append(chunks, splitWords(sentence, maxChars)...)
			continue
		}
		if current.Len() > 0 && current.Len()+len(sentence)+1 > maxChars {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}
	return chunks
}

func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			// Consume trailing punctuation runs like "?!" or "...".
			end := i + 1
			for end < len(text) && (text[end] == '.' || text[end] == '!' || text[end] == '?') {
				end++
			}
			sentence := strings.TrimSpace(text[start:end])
			if sentence != "" {
				sentences = append(sentences, sentence)
			}
			start = end
			i = end - 1
		}
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

func splitWords(sentence string, maxChars int) []string {
	words := strings.Fields(sentence)
	var chunks []string
	var current strings.Builder
	for _, word := range words {
		if current.Len() > 0 && current.Len()+len(word)+1 > maxChars {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
