package audio

import (
	"fmt"
	"os"
	"path/filepath"

	wav "github.com/youpy/go-wav"
)

// WriteWAV saves a captured session buffer as a 16-bit mono PCM WAV file.
// Used by the optional save_recordings config for debugging transcription
// quality against the raw audio.
func WriteWAV(path string, samples []float32, sampleRate int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create recordings dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create wav file: %w", err)
	}
	defer f.Close()

	w := wav.NewWriter(f, uint32(len(samples)), 1, uint32(sampleRate), 16)

	wavSamples := make([]wav.Sample, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		wavSamples[i].Values[0] = int(s * 32767)
	}

	if err := w.WriteSamples(wavSamples); err != nil {
		return fmt.Errorf("failed to write wav samples: %w", err)
	}
	return nil
}
