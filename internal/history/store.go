// Package history is the durable, append-only record of completed dictation
// sessions, with derived per-entry metrics and aggregate statistics.
package history

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// writeQueueSize bounds the async writer. Sessions complete at human speed,
// so the queue only fills if the disk has stalled for a long time.
const writeQueueSize = 64

// Entry is one immutable history row. WordCount and WPM are derived once at
// write time and never recomputed, so old rows stay reproducible even if the
// derivation changes later.
type Entry struct {
	ID              int64
	Text            string
	Mode            string
	Timestamp       time.Time
	WordCount       int
	DurationSeconds *float64
	WPM             *int
}

// Store persists entries to SQLite through a bounded single-consumer write
// queue. AddEntry never blocks the caller; Close drains the queue.
type Store struct {
	db   *sql.DB
	path string
	log  zerolog.Logger

	queue chan Entry
	wg    sync.WaitGroup

	closeOnce sync.Once
}

// DefaultPath returns the history database location.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".vibetotext", "history.db")
}

// Open opens (creating if needed) the history database at path, runs the
// one-time JSON migration, and starts the background writer.
func Open(path string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(30000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}

	s := &Store{
		db:    db,
		path:  path,
		log:   log,
		queue: make(chan Entry, writeQueueSize),
	}

	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.migrateFromJSON(); err != nil {
		// Migration failure is logged, not fatal: the store still works,
		// the old file stays in place for a retry on next startup.
		log.Error().Err(err).Msg("History migration failed")
	}

	s.wg.Add(1)
	go s.writer()

	return s, nil
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			text TEXT NOT NULL,
			mode TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			word_count INTEGER NOT NULL,
			duration_seconds REAL,
			wpm INTEGER
		);
		CREATE INDEX IF NOT EXISTS idx_timestamp ON entries(timestamp DESC);
	`)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// AddEntry queues one completed session for durable append and returns
// immediately; it runs on the hot path right before the paste action.
// durationSeconds may be nil when the recording length is unknown.
func (s *Store) AddEntry(text, mode string, durationSeconds *float64) {
	e := Entry{
		Text:            text,
		Mode:            mode,
		Timestamp:       time.Now(),
		WordCount:       len(strings.Fields(text)),
		DurationSeconds: durationSeconds,
	}
	if durationSeconds != nil && *durationSeconds > 0 {
		wpm := int(math.Round(float64(e.WordCount) / (*durationSeconds / 60)))
		e.WPM = &wpm
	}

	select {
	case s.queue <- e:
	default:
		// Queue full means the writer has been stuck for dozens of
		// sessions. Dropping is preferable to blocking the paste.
		s.log.Error().Str("mode", mode).Msg("History write queue full, dropping entry")
	}
}

func (s *Store) writer() {
	defer s.wg.Done()
	for e := range s.queue {
		if err := s.insert(e); err != nil {
			s.log.Error().Err(err).Msg("Failed to save history entry")
		}
	}
}

func (s *Store) insert(e Entry) error {
	var dur sql.NullFloat64
	if e.DurationSeconds != nil {
		dur = sql.NullFloat64{Float64: *e.DurationSeconds, Valid: true}
	}
	var wpm sql.NullInt64
	if e.WPM != nil {
		wpm = sql.NullInt64{Int64: int64(*e.WPM), Valid: true}
	}

	_, err := s.db.Exec(`
		INSERT INTO entries (text, mode, timestamp, word_count, duration_seconds, wpm)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.Text, e.Mode, e.Timestamp.Format(time.RFC3339Nano), e.WordCount, dur, wpm)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// Entries returns history rows newest-first. limit <= 0 returns everything.
func (s *Store) Entries(limit int) ([]Entry, error) {
	q := `
		SELECT id, text, mode, timestamp, word_count, duration_seconds, wpm
		FROM entries
		ORDER BY timestamp DESC, id DESC
	`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.Query(q+" LIMIT ?", limit)
	} else {
		rows, err = s.db.Query(q)
	}
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts string
		var dur sql.NullFloat64
		var wpm sql.NullInt64
		if err := rows.Scan(&e.ID, &e.Text, &e.Mode, &ts, &e.WordCount, &dur, &wpm); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		if dur.Valid {
			d := dur.Float64
			e.DurationSeconds = &d
		}
		if wpm.Valid {
			w := int(wpm.Int64)
			e.WPM = &w
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear deletes all history. Irreversible.
func (s *Store) Clear() error {
	if _, err := s.db.Exec("DELETE FROM entries"); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Close drains the write queue and closes the database. Entries already
// accepted by AddEntry are written before Close returns.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.queue)
	})
	s.wg.Wait()
	return s.db.Close()
}
