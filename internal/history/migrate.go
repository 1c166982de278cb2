package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// jsonEntry mirrors the flat-file format the store replaced.
type jsonEntry struct {
	Text            string   `json:"text"`
	Mode            string   `json:"mode"`
	Timestamp       string   `json:"timestamp"`
	WordCount       *int     `json:"word_count"`
	DurationSeconds *float64 `json:"duration_seconds"`
	WPM             *int     `json:"wpm"`
}

type jsonHistory struct {
	Entries []jsonEntry `json:"entries"`
}

// migrateFromJSON imports a prior flat-file history exactly once. The guard
// is the entries table itself: a non-empty table means migration (or real
// use) has already happened, so repeated startups never reimport. On success
// the old file is renamed, keeping it as a backup.
func (s *Store) migrateFromJSON() error {
	jsonPath := strings.TrimSuffix(s.path, ".db") + ".json"
	if _, err := os.Stat(jsonPath); err != nil {
		return nil
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&count); err != nil {
		return fmt.Errorf("count entries: %w", err)
	}
	if count > 0 {
		return nil
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("read legacy history: %w", err)
	}
	var legacy jsonHistory
	if err := json.Unmarshal(data, &legacy); err != nil {
		return fmt.Errorf("parse legacy history: %w", err)
	}
	if len(legacy.Entries) == 0 {
		return nil
	}

	s.log.Info().Int("entries", len(legacy.Entries)).Msg("Migrating JSON history to SQLite")

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	for _, je := range legacy.Entries {
		e := Entry{
			Text:            je.Text,
			Mode:            je.Mode,
			DurationSeconds: je.DurationSeconds,
			WPM:             je.WPM,
		}
		if e.Mode == "" {
			e.Mode = "transcribe"
		}
		if je.WordCount != nil {
			e.WordCount = *je.WordCount
		} else {
			e.WordCount = len(strings.Fields(je.Text))
		}
		if ts, err := time.Parse(time.RFC3339Nano, je.Timestamp); err == nil {
			e.Timestamp = ts
		} else {
			e.Timestamp = time.Now()
		}
		if err := insertTx(tx, e); err != nil {
			tx.Rollback()
			return fmt.Errorf("migrate entry: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}

	if err := os.Rename(jsonPath, jsonPath+".migrated"); err != nil {
		// The count guard still prevents a reimport next startup.
		s.log.Warn().Err(err).Msg("Could not rename migrated history file")
	}
	return nil
}

func insertTx(tx *sql.Tx, e Entry) error {
	var dur sql.NullFloat64
	if e.DurationSeconds != nil {
		dur = sql.NullFloat64{Float64: *e.DurationSeconds, Valid: true}
	}
	var wpm sql.NullInt64
	if e.WPM != nil {
		wpm = sql.NullInt64{Int64: int64(*e.WPM), Valid: true}
	}
	_, err := tx.Exec(`
		INSERT INTO entries (text, mode, timestamp, word_count, duration_seconds, wpm)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.Text, e.Mode, e.Timestamp.Format(time.RFC3339Nano), e.WordCount, dur, wpm)
	return err
}
