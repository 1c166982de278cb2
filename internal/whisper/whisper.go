// Package whisper adapts the whisper.cpp Go bindings into the transcription
// collaborator: one blocking call per completed recording buffer.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/rs/zerolog"

	"github.com/petems/vibetotext/internal/config"
)

// Transcriber converts a recorded sample buffer into text. An empty string
// means no speech was detected.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32, sampleRate int) (string, error)
	Close() error
}

type nativeTranscriber struct {
	model    whisperlib.Model
	language string
	threads  int
	log      zerolog.Logger
}

// New loads (downloading on first use) the configured model.
func New(cfg config.WhisperConfig, log zerolog.Logger) (Transcriber, error) {
	modelPath := filepath.Join(config.ModelsPath(), cfg.Model+".bin")

	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		if err := downloadModel(cfg.Model, modelPath, log); err != nil {
			return nil, fmt.Errorf("failed to download model: %w", err)
		}
	}

	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}

	return &nativeTranscriber{
		model:    model,
		language: cfg.Language,
		threads:  cfg.Threads,
		log:      log,
	}, nil
}

func (t *nativeTranscriber) Transcribe(ctx context.Context, samples []float32, sampleRate int) (string, error) {
	if len(samples) == 0 {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	wctx, err := t.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("failed to create whisper context: %w", err)
	}
	if t.language != "" && t.language != "auto" {
		if err := wctx.SetLanguage(t.language); err != nil {
			t.log.Warn().Err(err).Str("language", t.language).Msg("Failed to set language, using default")
		}
	}
	if t.threads > 0 {
		wctx.SetThreads(uint(t.threads))
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("failed to process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read segment: %w", err)
		}
		text := strings.TrimSpace(segment.Text)
		if text != "" {
			parts = append(parts, text)
		}
	}

	return FilterBlankAudio(strings.Join(parts, " ")), nil
}

func (t *nativeTranscriber) Close() error {
	if t.model != nil {
		return t.model.Close()
	}
	return nil
}

// FilterBlankAudio collapses whisper's no-speech markers to the empty string
// so callers only need one "no speech" check.
func FilterBlankAudio(text string) string {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "[blank_audio]", "[blank audio]", "[ blank_audio ]", "[ blank audio ]":
		return ""
	}
	return strings.TrimSpace(text)
}
