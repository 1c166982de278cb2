package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/petems/vibetotext/internal/audio"
	"github.com/petems/vibetotext/internal/config"
	"github.com/petems/vibetotext/internal/inject"
	"github.com/petems/vibetotext/internal/refine"
	"github.com/petems/vibetotext/internal/search"
	"github.com/petems/vibetotext/internal/session"
	"github.com/petems/vibetotext/internal/whisper"
)

// StatusUpdater is an interface for updating status (e.g., tray icon)
type StatusUpdater interface {
	SetIdle()
	SetRecording()
	SetProcessing()
	SetError()
}

// History is the persistence boundary: non-blocking writes, drained on Close.
type History interface {
	AddEntry(text, mode string, durationSeconds *float64)
	Close() error
}

// HistoryView toggles the history window. Rendering lives outside the core.
type HistoryView interface {
	Toggle()
}

type Config struct {
	Audio       audio.Capture
	Transcriber whisper.Transcriber
	Injector    inject.Injector
	Refiner     refine.Refiner // optional - nil disables cleanup/plan refinement
	Searcher    search.Searcher
	History     History
	HistoryView HistoryView // optional
	Config      *config.Config
	Logger      zerolog.Logger
	Status      StatusUpdater // optional
}

// App is the process-lifetime owner of the dictation pipeline. The session
// controller drives OnStart/OnStop; everything slow happens in a background
// goroutine per completed session.
type App struct {
	audio   audio.Capture
	stt     whisper.Transcriber
	inj     inject.Injector
	refiner refine.Refiner
	search  search.Searcher
	history History
	histUI  HistoryView
	cfg     *config.Config
	log     zerolog.Logger
	status  StatusUpdater

	wg    sync.WaitGroup
	cfgMu sync.RWMutex
}

func New(cfg Config) *App {
	return &App{
		audio:   cfg.Audio,
		stt:     cfg.Transcriber,
		inj:     cfg.Injector,
		refiner: cfg.Refiner,
		search:  cfg.Searcher,
		history: cfg.History,
		histUI:  cfg.HistoryView,
		cfg:     cfg.Config,
		log:     cfg.Logger,
		status:  cfg.Status,
	}
}

// OnStart is the session controller's start callback. Opening the capture
// stream is the only work done here; a failure aborts the session.
func (a *App) OnStart(mode session.Mode) error {
	if mode == session.ModeHistoryToggle {
		if a.histUI != nil {
			a.histUI.Toggle()
		}
		return nil
	}

	if a.status != nil {
		a.status.SetRecording()
	}
	if err := a.audio.Start(); err != nil {
		if a.status != nil {
			a.status.SetError()
		}
		return fmt.Errorf("start capture: %w", err)
	}
	return nil
}

// OnStop is the session controller's stop callback. It claims the audio
// buffer synchronously and defers everything else to a worker goroutine so
// the controller returns to Idle immediately.
func (a *App) OnStop(mode session.Mode) {
	if mode == session.ModeHistoryToggle {
		if a.status != nil {
			a.status.SetIdle()
		}
		return
	}

	samples, err := a.audio.Stop()
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to stop capture")
	}

	if a.status != nil {
		a.status.SetProcessing()
	}

	sampleRate := a.sampleRate()
	durSecs := float64(len(samples)) / float64(sampleRate)

	a.wg.Add(1)
	go a.process(mode, samples, sampleRate, durSecs)
}

func (a *App) process(mode session.Mode, samples []float32, sampleRate int, durSecs float64) {
	defer a.wg.Done()

	id := uuid.New()
	log := a.log.With().Str("session", id.String()).Str("mode", mode.String()).Logger()

	a.cfgMu.RLock()
	saveRecordings := a.cfg.SaveRecordings
	appendSpace := a.cfg.AppendSpace
	a.cfgMu.RUnlock()

	if saveRecordings && len(samples) > 0 {
		path := filepath.Join(config.DataPath(), "recordings", id.String()+".wav")
		if err := audio.WriteWAV(path, samples, sampleRate); err != nil {
			log.Warn().Err(err).Msg("Failed to save recording")
		}
	}

	if len(samples) == 0 {
		log.Info().Msg("No audio recorded")
		a.setIdle()
		return
	}

	ctx := context.Background()
	text, err := a.stt.Transcribe(ctx, samples, sampleRate)
	if err != nil {
		log.Error().Err(err).Msg("Transcription failed")
		a.setError()
		return
	}
	if text == "" {
		log.Info().Msg("No speech detected")
		a.setIdle()
		return
	}
	log.Info().Str("text", text).Msg("Transcribed")

	output := a.route(ctx, mode, text, log)

	// History records the raw transcript, not the refined output, so the
	// wpm math reflects what was actually spoken.
	a.history.AddEntry(text, mode.String(), &durSecs)

	output = applyFilters(output, appendSpace)

	pasteCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.inj.PasteOrType(pasteCtx, output); err != nil {
		log.Error().Err(err).Msg("Inject error")
		a.setError()
		return
	}
	log.Info().Msg("Pasted at cursor")
	a.setIdle()
}

// route produces the final paste payload for a transcript in a given mode.
func (a *App) route(ctx context.Context, mode session.Mode, text string, log zerolog.Logger) string {
	switch mode {
	case session.ModeSearch:
		if a.search == nil {
			return text
		}
		matches, err := a.search.Search(ctx, text)
		if err != nil {
			log.Warn().Err(err).Msg("Code search failed, pasting transcript only")
			return text
		}
		log.Info().Int("files", len(matches)).Msg("Code search completed")
		return text + search.FormatMatches(matches)

	case session.ModeCleanup:
		return a.refined(ctx, text, log, func(ctx context.Context, t string) (string, error) {
			return a.refiner.Cleanup(ctx, t)
		})

	case session.ModePlan:
		return a.refined(ctx, text, log, func(ctx context.Context, t string) (string, error) {
			return a.refiner.Plan(ctx, t)
		})

	default:
		return text
	}
}

func (a *App) refined(ctx context.Context, text string, log zerolog.Logger, f func(context.Context, string) (string, error)) string {
	if a.refiner == nil {
		log.Warn().Msg("Refinement not configured, pasting raw transcript")
		return text
	}
	out, err := f(ctx, text)
	if err != nil || out == "" {
		log.Warn().Err(err).Msg("Refinement failed, pasting raw transcript")
		return text
	}
	return out
}

func applyFilters(text string, appendSpace bool) string {
	if len(text) == 0 {
		return text
	}

	// Auto-capitalize first letter
	if text[0] >= 'a' && text[0] <= 'z' {
		text = string(text[0]-32) + text[1:]
	}

	if appendSpace {
		text += " "
	}

	return text
}

// ApplyConfig picks up settings that may change at runtime (device
// selection from the history window, recording archival).
func (a *App) ApplyConfig(cfg *config.Config) {
	a.cfgMu.Lock()
	a.cfg.Audio = cfg.Audio
	a.cfg.SaveRecordings = cfg.SaveRecordings
	a.cfg.AppendSpace = cfg.AppendSpace
	a.cfgMu.Unlock()

	if err := a.audio.SetDevice(cfg.Audio.DeviceID); err != nil {
		a.log.Warn().Err(err).Msg("Device change deferred until recording ends")
	}
}

func (a *App) sampleRate() int {
	a.cfgMu.RLock()
	defer a.cfgMu.RUnlock()
	if a.cfg.Audio.SampleRate > 0 {
		return a.cfg.Audio.SampleRate
	}
	return 16000
}

func (a *App) setIdle() {
	if a.status != nil {
		a.status.SetIdle()
	}
}

func (a *App) setError() {
	if a.status != nil {
		a.status.SetError()
	}
}

// Shutdown waits for in-flight session processing (bounded by ctx), then
// closes the capture device and drains the history queue.
func (a *App) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.log.Warn().Msg("Shutdown timed out waiting for in-flight sessions")
	}

	var g errgroup.Group
	g.Go(a.audio.Close)
	g.Go(a.history.Close)
	return g.Wait()
}
