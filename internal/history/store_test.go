package history

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// waitForEntries polls until the async writer has landed n rows.
func waitForEntries(t *testing.T, s *Store, n int) []Entry {
	t.Helper()
	var entries []Entry
	var err error
	for i := 0; i < 200; i++ {
		entries, err = s.Entries(0)
		if err != nil {
			t.Fatalf("Entries: %v", err)
		}
		if len(entries) >= n {
			return entries
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d entries, have %d", n, len(entries))
	return nil
}

func f64(v float64) *float64 { return &v }

func TestAddEntryRoundTrip(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	s.AddEntry("hello brave new world", "transcribe", f64(30))

	entries := waitForEntries(t, s, 1)
	e := entries[0]

	if e.Text != "hello brave new world" {
		t.Errorf("Text = %q", e.Text)
	}
	if e.Mode != "transcribe" {
		t.Errorf("Mode = %q, want transcribe", e.Mode)
	}
	if e.WordCount != 4 {
		t.Errorf("WordCount = %d, want 4", e.WordCount)
	}
	if e.DurationSeconds == nil || *e.DurationSeconds != 30 {
		t.Errorf("DurationSeconds = %v, want 30", e.DurationSeconds)
	}
	// 4 words in half a minute = 8 wpm.
	if e.WPM == nil || *e.WPM != 8 {
		t.Errorf("WPM = %v, want 8", e.WPM)
	}
}

func TestAddEntryWithoutDuration(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	s.AddEntry("no duration here", "cleanup", nil)

	e := waitForEntries(t, s, 1)[0]
	if e.DurationSeconds != nil {
		t.Errorf("DurationSeconds = %v, want nil", e.DurationSeconds)
	}
	if e.WPM != nil {
		t.Errorf("WPM = %v, want nil without duration", e.WPM)
	}
}

func TestAddEntryZeroDurationHasNoWPM(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	s.AddEntry("instant", "transcribe", f64(0))

	e := waitForEntries(t, s, 1)[0]
	if e.WPM != nil {
		t.Errorf("WPM = %v, want nil for zero duration", e.WPM)
	}
}

func TestEntriesNewestFirst(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	s.AddEntry("first", "transcribe", nil)
	waitForEntries(t, s, 1)
	s.AddEntry("second", "transcribe", nil)
	entries := waitForEntries(t, s, 2)

	if entries[0].Text != "second" || entries[1].Text != "first" {
		t.Errorf("order = [%q %q], want newest first", entries[0].Text, entries[1].Text)
	}

	limited, err := s.Entries(1)
	if err != nil {
		t.Fatalf("Entries(1): %v", err)
	}
	if len(limited) != 1 || limited[0].Text != "second" {
		t.Errorf("Entries(1) = %+v, want just the newest", limited)
	}
}

func TestConcurrentAddEntryLosesNothing(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddEntry("concurrent session", "transcribe", f64(5))
		}()
	}
	wg.Wait()

	entries := waitForEntries(t, s, n)
	if len(entries) != n {
		t.Errorf("entries = %d, want exactly %d (no loss, no duplication)", len(entries), n)
	}
}

func TestCloseDrainsQueue(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for i := 0; i < 20; i++ {
		s.AddEntry("queued before close", "transcribe", nil)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	entries, err := s2.Entries(0)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 20 {
		t.Errorf("entries after Close = %d, want 20 (queue drained)", len(entries))
	}
}

func TestStatisticsFormulas(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	s.AddEntry("a b c", "transcribe", f64(60))
	s.AddEntry("d e", "transcribe", nil)
	waitForEntries(t, s, 2)

	st, err := s.Statistics()
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}

	if st.TotalSessions != 2 {
		t.Errorf("TotalSessions = %d, want 2", st.TotalSessions)
	}
	if st.TotalWords != 5 {
		t.Errorf("TotalWords = %d, want 5", st.TotalWords)
	}
	// Only the first entry has a wpm (3 words per minute).
	if st.AverageWPM != 3 {
		t.Errorf("AverageWPM = %d, want 3", st.AverageWPM)
	}
	// Time saved counts only the 3 words with known duration:
	// 3/40 minutes typing minus 1 minute dictating, floored at zero.
	if st.TimeSavedMinutes != 0 {
		t.Errorf("TimeSavedMinutes = %f, want 0", st.TimeSavedMinutes)
	}
}

func TestStatisticsTimeSaved(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	// 200 words dictated in 60 seconds: typing would take 5 minutes,
	// dictating took 1, so 4 minutes saved.
	words := make([]byte, 0, 400)
	for i := 0; i < 200; i++ {
		words = append(words, 'w', ' ')
	}
	s.AddEntry(string(words), "transcribe", f64(60))
	waitForEntries(t, s, 1)

	st, err := s.Statistics()
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if math.Abs(st.TimeSavedMinutes-4) > 1e-9 {
		t.Errorf("TimeSavedMinutes = %f, want 4", st.TimeSavedMinutes)
	}
}

func TestStatisticsEmptyStore(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	st, err := s.Statistics()
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if st.TotalSessions != 0 || st.TotalWords != 0 || st.AverageWPM != 0 {
		t.Errorf("empty stats = %+v, want zero values", st)
	}
	if len(st.CommonWords) != 0 {
		t.Errorf("CommonWords = %v, want empty", st.CommonWords)
	}
}

func TestStatisticsLexicalFrequency(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	s.AddEntry("Deploy the deploy! pipeline, deploy...", "transcribe", nil)
	s.AddEntry("pipeline is the answer", "transcribe", nil)
	waitForEntries(t, s, 2)

	st, err := s.Statistics()
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if len(st.CommonWords) == 0 {
		t.Fatal("expected common words")
	}
	if st.CommonWords[0].Word != "deploy" || st.CommonWords[0].Count != 3 {
		t.Errorf("top word = %+v, want deploy x3 (case-folded, punctuation-stripped)", st.CommonWords[0])
	}
	for _, wc := range st.CommonWords {
		if wc.Word == "the" || wc.Word == "is" {
			t.Errorf("stopword %q leaked into frequency list", wc.Word)
		}
	}
}

func TestClear(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	s.AddEntry("soon gone", "transcribe", nil)
	waitForEntries(t, s, 1)

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	entries, err := s.Entries(0)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries after Clear = %d, want 0", len(entries))
	}
}

func TestJSONMigrationRunsOnce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "history.db")
	jsonPath := filepath.Join(dir, "history.json")

	legacy := jsonHistory{Entries: []jsonEntry{
		{Text: "migrated one", Mode: "transcribe", Timestamp: time.Now().Format(time.RFC3339Nano)},
		{Text: "migrated two", Mode: "cleanup", Timestamp: time.Now().Format(time.RFC3339Nano), DurationSeconds: f64(12)},
	}}
	data, err := json.Marshal(legacy)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		t.Fatalf("write legacy file: %v", err)
	}

	s, err := Open(dbPath, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	entries, err := s.Entries(0)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("migrated entries = %d, want count-for-count 2", len(entries))
	}
	s.Close()

	if _, err := os.Stat(jsonPath); !os.IsNotExist(err) {
		t.Error("legacy file should have been renamed after migration")
	}
	if _, err := os.Stat(jsonPath + ".migrated"); err != nil {
		t.Errorf("backup file missing: %v", err)
	}

	// Second startup: the renamed file is gone, and even if it were not,
	// the non-empty table blocks a reimport.
	s2, err := Open(dbPath, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	entries, err = s2.Entries(0)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("entries after reopen = %d, want 2 (no reimport)", len(entries))
	}
}

func TestJSONMigrationSkippedWhenTablePopulated(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "history.db")

	s, err := Open(dbPath, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.AddEntry("existing row", "transcribe", nil)
	waitForEntries(t, s, 1)
	s.Close()

	legacy, _ := json.Marshal(jsonHistory{Entries: []jsonEntry{{Text: "late arrival"}}})
	if err := os.WriteFile(filepath.Join(dir, "history.json"), legacy, 0644); err != nil {
		t.Fatalf("write legacy file: %v", err)
	}

	s2, err := Open(dbPath, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	entries, err := s2.Entries(0)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("entries = %d, want 1 (populated table blocks import)", len(entries))
	}
}
