package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/petems/vibetotext/internal/app"
	"github.com/petems/vibetotext/internal/audio"
	"github.com/petems/vibetotext/internal/config"
	"github.com/petems/vibetotext/internal/history"
	"github.com/petems/vibetotext/internal/hotkey"
	"github.com/petems/vibetotext/internal/inject"
	"github.com/petems/vibetotext/internal/logging"
	"github.com/petems/vibetotext/internal/refine"
	"github.com/petems/vibetotext/internal/search"
	"github.com/petems/vibetotext/internal/session"
	"github.com/petems/vibetotext/internal/tray"
	"github.com/petems/vibetotext/internal/viz"
	"github.com/petems/vibetotext/internal/whisper"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

func main() {
	// Load config from XDG/Library/AppData
	cfg, err := config.Load()
	if err != nil {
		log := logging.New()
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	log := logging.NewWithLevel(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open history first so the migration runs before anything records
	store, err := history.Open(history.DefaultPath(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history")
	}
	view := history.NewView(store, log)

	// Initialize whisper
	transcriber, err := whisper.New(cfg.Whisper, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize whisper")
	}
	defer transcriber.Close()

	// Refinement is optional: cleanup/plan modes fall back to the raw
	// transcript when the API key is absent
	refiner, err := refine.New(cfg.Refine, log)
	if err != nil {
		log.Warn().Err(err).Msg("Refinement disabled")
		refiner = nil
	}

	searcher := search.New(cfg.Search, log)
	injector := inject.New(true)

	// Tray UI doubles as the status surface and the level renderer; the
	// capture stream is created pointing its frames at the tray
	trayUI := tray.New(nil, store, view, cfg, Version, Commit, log)

	sink := viz.NewSink(audio.NumBands, trayUI.RenderLevels)
	capture, err := audio.New(cfg.Audio.DeviceID, cfg.Audio.SampleRate, sink, nil, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize audio")
	}
	trayUI.SetDevices(capture)

	application := app.New(app.Config{
		Audio:       capture,
		Transcriber: transcriber,
		Injector:    injector,
		Refiner:     refiner,
		Searcher:    searcher,
		History:     store,
		HistoryView: view,
		Config:      cfg,
		Logger:      log,
		Status:      trayUI,
	})

	// Registration order fixes the tie-break when two combinations match
	// the same held keys
	bindings := []session.Binding{
		{Keys: hotkey.ParseCombo(cfg.Hotkeys.Transcribe), Mode: session.ModeTranscribe},
		{Keys: hotkey.ParseCombo(cfg.Hotkeys.Search), Mode: session.ModeSearch},
		{Keys: hotkey.ParseCombo(cfg.Hotkeys.Cleanup), Mode: session.ModeCleanup},
		{Keys: hotkey.ParseCombo(cfg.Hotkeys.Plan), Mode: session.ModePlan},
		{Keys: hotkey.ParseCombo(cfg.Hotkeys.History), Mode: session.ModeHistoryToggle},
	}

	controller := session.New(session.Config{
		Bindings: bindings,
		Watchdog: time.Duration(cfg.WatchdogSecs) * time.Second,
		OnStart:  application.OnStart,
		OnStop:   application.OnStop,
		Logger:   log,
	})

	listener, err := hotkey.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize keyboard listener")
	}
	defer listener.Close()

	if err := listener.Start(func(ev hotkey.Event) {
		if ev.Pressed {
			if err := controller.KeyDown(ev.Key); err != nil {
				log.Error().Err(err).Msg("Failed to start session")
			}
		} else {
			controller.KeyUp(ev.Key)
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to start keyboard listener")
	}

	// Pick up external edits to the config file
	watcher, err := config.Watch(application.ApplyConfig, log)
	if err != nil {
		log.Warn().Err(err).Msg("Config watching disabled")
	} else {
		defer watcher.Close()
	}

	log.Info().Str("version", Version).Msg("vibetotext starting...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := application.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Shutdown error")
		}
		os.Exit(0)
	}()

	// Start tray UI - MUST run on main thread
	if err := trayUI.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Tray error")
	}
}
