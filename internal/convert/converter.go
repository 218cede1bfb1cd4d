// Package convert normalizes uploaded audio and video into the canonical
// profile the speech models expect: 16 kHz mono PCM WAV.
package convert

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"clipbrief/internal/fault"
)

const (
	CanonicalSampleRate = 16000
	CanonicalChannels   = 1
	canonicalCodec      = "pcm_s16le"
)

// Profile describes the audio characteristics of a file as reported by
// ffprobe.
type Profile struct {
	Channels   int
	SampleRate int
	Codec      string
}

func (p Profile) Canonical() bool {
	return p.Channels == CanonicalChannels && p.SampleRate == CanonicalSampleRate
}

type Converter struct {
	runner      Runner
	ffmpegPath  string
	ffprobePath string
	timeout     time.Duration
}

func New(runner Runner, ffmpegPath, ffprobePath string, timeout time.Duration) *Converter {
	if runner == nil {
		runner = NewRunner()
	}
	return &Converter{
		runner:      runner,
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		timeout:     timeout,
	}
}

// ToCanonicalWAV decodes whatever is at inputPath and writes a mono 16 kHz
// PCM WAV under outDir. The output name is collision-resistant so concurrent
// invocations never clash. The caller owns the returned file and must remove
// it.
func (c *Converter) ToCanonicalWAV(ctx context.Context, inputPath, outDir string) (string, error) {
	outPath := filepath.Join(outDir, uuid.NewString()+".wav")

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := []string{
		"-i", inputPath,
		"-vn",
		"-ac", strconv.Itoa(CanonicalChannels),
		"-ar", strconv.Itoa(CanonicalSampleRate),
		"-c:a", canonicalCodec,
		"-y",
		outPath,
	}
	if _, err := c.runner.Run(ctx, c.ffmpegPath, args...); err != nil {
		_ = os.Remove(outPath)
		return "", &fault.ProcessingError{Stage: fault.StageConversion, Detail: truncateDetail(err.Error())}
	}

	info, err := os.Stat(outPath)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(outPath)
		return "", &fault.ProcessingError{Stage: fault.StageConversion, Detail: "converter produced no output"}
	}

	profile, err := c.Probe(ctx, outPath)
	if err != nil {
		_ = os.Remove(outPath)
		return "", err
	}
	if !profile.Canonical() {
		_ = os.Remove(outPath)
		return "", &fault.ProcessingError{
			Stage:  fault.StageConversion,
			Detail: fmt.Sprintf("output is %d channel(s) at %d Hz, not the canonical profile", profile.Channels, profile.SampleRate),
		}
	}

	return outPath, nil
}

// Probe reports the audio profile of the first audio stream in the file.
func (c *Converter) Probe(ctx context.Context, path string) (Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.runner.Run(ctx, c.ffprobePath,
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=channels,sample_rate,codec_name",
		"-of", "json",
		path,
	)
	if err != nil {
		return Profile{}, &fault.ProcessingError{Stage: fault.StageConversion, Detail: truncateDetail(err.Error())}
	}

	var parsed struct {
		Streams []struct {
			Channels   int    `json:"channels"`
			SampleRate string `json:"sample_rate"`
			CodecName  string `json:"codec_name"`
		} `json:"streams"`
	}
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		return Profile{}, &fault.ProcessingError{Stage: fault.StageConversion, Detail: "invalid ffprobe output"}
	}
	if len(parsed.Streams) == 0 {
		return Profile{}, &fault.ProcessingError{Stage: fault.StageConversion, Detail: "no audio stream found"}
	}

	rate, err := strconv.Atoi(parsed.Streams[0].SampleRate)
	if err != nil {
		return Profile{}, &fault.ProcessingError{Stage: fault.StageConversion, Detail: fmt.Sprintf("unparseable sample rate %q", parsed.Streams[0].SampleRate)}
	}

	return Profile{
		Channels:   parsed.Streams[0].Channels,
		SampleRate: rate,
		Codec:      parsed.Streams[0].CodecName,
	}, nil
}

func truncateDetail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 1024 {
		return s
	}
	return s[:1024] + "..."
}
