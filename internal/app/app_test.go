package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/petems/vibetotext/internal/audio"
	"github.com/petems/vibetotext/internal/config"
	"github.com/petems/vibetotext/internal/session"
)

// Mock implementations for testing

type mockCapture struct {
	mu      sync.Mutex
	started bool
	starts  int
	stops   int
	buffer  []float32
	failOn  error
}

func (m *mockCapture) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		return m.failOn
	}
	m.started = true
	m.starts++
	return nil
}

func (m *mockCapture) Stop() ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = false
	m.stops++
	return m.buffer, nil
}

func (m *mockCapture) SetDevice(id string) error { return nil }

func (m *mockCapture) ListDevices() ([]audio.Device, error) {
	return []audio.Device{{ID: "default", Name: "Default", Default: true}}, nil
}

func (m *mockCapture) Close() error { return nil }

type mockTranscriber struct {
	text string
	err  error
}

func (m *mockTranscriber) Transcribe(ctx context.Context, samples []float32, sampleRate int) (string, error) {
	return m.text, m.err
}

func (m *mockTranscriber) Close() error { return nil }

type mockInjector struct {
	mu     sync.Mutex
	pasted []string
}

func (m *mockInjector) Paste(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pasted = append(m.pasted, text)
	return nil
}

func (m *mockInjector) Type(ctx context.Context, text string) error { return m.Paste(ctx, text) }

func (m *mockInjector) PasteOrType(ctx context.Context, text string) error {
	return m.Paste(ctx, text)
}

func (m *mockInjector) lastPasted() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pasted) == 0 {
		return "", false
	}
	return m.pasted[len(m.pasted)-1], true
}

type mockHistory struct {
	mu      sync.Mutex
	entries []mockHistoryEntry
}

type mockHistoryEntry struct {
	text string
	mode string
	dur  *float64
}

func (m *mockHistory) AddEntry(text, mode string, durationSeconds *float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, mockHistoryEntry{text: text, mode: mode, dur: durationSeconds})
}

func (m *mockHistory) Close() error { return nil }

func (m *mockHistory) snapshot() []mockHistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mockHistoryEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

type mockHistoryView struct {
	mu      sync.Mutex
	toggles int
}

func (m *mockHistoryView) Toggle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toggles++
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Audio.SampleRate = 16000
	cfg.AppendSpace = false
	return cfg
}

func newTestApp(cap *mockCapture, stt *mockTranscriber, inj *mockInjector, hist *mockHistory) *App {
	return New(Config{
		Audio:       cap,
		Transcriber: stt,
		Injector:    inj,
		History:     hist,
		Config:      testConfig(),
		Logger:      zerolog.Nop(),
	})
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	for i := 0; i < 100; i++ {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestSessionPipelinePastesTranscript(t *testing.T) {
	t.Parallel()

	cap := &mockCapture{buffer: make([]float32, 16000)} // one second of audio
	inj := &mockInjector{}
	hist := &mockHistory{}
	a := newTestApp(cap, &mockTranscriber{text: "hello world"}, inj, hist)

	if err := a.OnStart(session.ModeTranscribe); err != nil {
		t.Fatalf("OnStart: %v", err)
	}
	a.OnStop(session.ModeTranscribe)

	waitFor(t, func() bool { _, ok := inj.lastPasted(); return ok }, "nothing was pasted")

	got, _ := inj.lastPasted()
	if got != "Hello world" {
		t.Errorf("pasted %q, want %q (auto-capitalized)", got, "Hello world")
	}

	entries := hist.snapshot()
	if len(entries) != 1 {
		t.Fatalf("history entries = %d, want 1", len(entries))
	}
	if entries[0].text != "hello world" || entries[0].mode != "transcribe" {
		t.Errorf("history entry = %+v, want raw transcript in transcribe mode", entries[0])
	}
	if entries[0].dur == nil || *entries[0].dur != 1.0 {
		t.Errorf("duration = %v, want 1.0s derived from sample count", entries[0].dur)
	}
}

func TestStartFailurePropagates(t *testing.T) {
	t.Parallel()

	devErr := errors.New("device unavailable")
	cap := &mockCapture{failOn: devErr}
	a := newTestApp(cap, &mockTranscriber{}, &mockInjector{}, &mockHistory{})

	if err := a.OnStart(session.ModeTranscribe); !errors.Is(err, devErr) {
		t.Errorf("OnStart error = %v, want %v", err, devErr)
	}
}

func TestEmptyBufferSkipsPipeline(t *testing.T) {
	t.Parallel()

	cap := &mockCapture{buffer: nil}
	inj := &mockInjector{}
	hist := &mockHistory{}
	a := newTestApp(cap, &mockTranscriber{text: "should never run"}, inj, hist)

	if err := a.OnStart(session.ModeTranscribe); err != nil {
		t.Fatalf("OnStart: %v", err)
	}
	a.OnStop(session.ModeTranscribe)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := a.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	if _, ok := inj.lastPasted(); ok {
		t.Error("nothing should be pasted for an empty buffer")
	}
	if len(hist.snapshot()) != 0 {
		t.Error("no history entry should be written for an empty buffer")
	}
}

func TestNoSpeechDetectedSkipsPaste(t *testing.T) {
	t.Parallel()

	cap := &mockCapture{buffer: make([]float32, 8000)}
	inj := &mockInjector{}
	a := newTestApp(cap, &mockTranscriber{text: ""}, inj, &mockHistory{})

	if err := a.OnStart(session.ModeTranscribe); err != nil {
		t.Fatalf("OnStart: %v", err)
	}
	a.OnStop(session.ModeTranscribe)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	a.Shutdown(ctx)

	if _, ok := inj.lastPasted(); ok {
		t.Error("empty transcription must not be pasted")
	}
}

func TestHistoryToggleModeSkipsCapture(t *testing.T) {
	t.Parallel()

	cap := &mockCapture{}
	view := &mockHistoryView{}
	a := New(Config{
		Audio:       cap,
		Transcriber: &mockTranscriber{},
		Injector:    &mockInjector{},
		History:     &mockHistory{},
		HistoryView: view,
		Config:      testConfig(),
		Logger:      zerolog.Nop(),
	})

	if err := a.OnStart(session.ModeHistoryToggle); err != nil {
		t.Fatalf("OnStart: %v", err)
	}
	a.OnStop(session.ModeHistoryToggle)

	if view.toggles != 1 {
		t.Errorf("toggles = %d, want 1", view.toggles)
	}
	cap.mu.Lock()
	defer cap.mu.Unlock()
	if cap.starts != 0 || cap.stops != 0 {
		t.Error("history toggle must not touch the audio stream")
	}
}

func TestCleanupModeFallsBackWithoutRefiner(t *testing.T) {
	t.Parallel()

	cap := &mockCapture{buffer: make([]float32, 8000)}
	inj := &mockInjector{}
	a := newTestApp(cap, &mockTranscriber{text: "tidy me up"}, inj, &mockHistory{})

	if err := a.OnStart(session.ModeCleanup); err != nil {
		t.Fatalf("OnStart: %v", err)
	}
	a.OnStop(session.ModeCleanup)

	waitFor(t, func() bool { _, ok := inj.lastPasted(); return ok }, "nothing was pasted")
	got, _ := inj.lastPasted()
	if got != "Tidy me up" {
		t.Errorf("pasted %q, want raw transcript fallback", got)
	}
}

func TestApplyFilters(t *testing.T) {
	t.Parallel()

	if got := applyFilters("hello", false); got != "Hello" {
		t.Errorf("applyFilters = %q, want Hello", got)
	}
	if got := applyFilters("hello", true); got != "Hello " {
		t.Errorf("applyFilters = %q, want trailing space", got)
	}
	if got := applyFilters("", true); got != "" {
		t.Errorf("applyFilters(\"\") = %q, want empty", got)
	}
}
