package whisper

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

const modelBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-"

var knownModels = map[string]bool{
	"tiny": true, "tiny.en": true,
	"base": true, "base.en": true,
	"small": true, "small.en": true,
	"medium": true, "medium.en": true,
	"large-v3": true, "large-v3-turbo": true,
}

// downloadModel fetches a model into destPath via a temp file, so an
// interrupted download never leaves a truncated model behind.
func downloadModel(model, destPath string, log zerolog.Logger) error {
	if !knownModels[model] {
		return fmt.Errorf("unknown model: %s", model)
	}
	url := modelBaseURL + model + ".bin"

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}

	tmpPath := destPath + ".tmp"
	defer os.Remove(tmpPath)

	log.Info().Str("model", model).Str("url", url).Msg("Downloading whisper model")

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to download model: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download model: HTTP %d", resp.StatusCode)
	}

	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer out.Close()

	var w io.Writer = out
	if resp.ContentLength > 0 {
		w = io.MultiWriter(out, &downloadProgress{
			total: resp.ContentLength,
			model: model,
			log:   log,
		})
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to finalize model file: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to move model file: %w", err)
	}

	log.Info().Str("model", model).Str("path", destPath).Msg("Model downloaded")
	return nil
}

// downloadProgress logs progress at most every 2 seconds.
type downloadProgress struct {
	total   int64
	written int64
	lastLog time.Time
	model   string
	log     zerolog.Logger
}

func (p *downloadProgress) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if now := time.Now(); now.Sub(p.lastLog) >= 2*time.Second || p.written >= p.total {
		p.lastLog = now
		p.log.Info().
			Str("model", p.model).
			Float64("percent", float64(p.written)/float64(p.total)*100).
			Float64("downloaded_mb", float64(p.written)/1024/1024).
			Msg("Downloading model")
	}
	return len(b), nil
}
