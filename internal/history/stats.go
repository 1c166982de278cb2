package history

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strings"
)

// typingWPM is the assumed keyboard typing speed used for the time-saved
// estimate.
const typingWPM = 40.0

// topWords is how many lexical-frequency entries Statistics reports.
const topWords = 20

// WordCount is one lexical-frequency result.
type WordCount struct {
	Word  string
	Count int
}

// Stats is the aggregate view over the whole history. Derived on demand by a
// full scan; cheap enough for interactive use, never on the recording path.
type Stats struct {
	TotalSessions        int
	TotalWords           int
	AverageWPM           int
	TotalDurationSeconds float64
	TimeSavedMinutes     float64
	CommonWords          []WordCount
}

// Statistics computes the aggregate view over all entries.
func (s *Store) Statistics() (Stats, error) {
	var st Stats

	row := s.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(word_count), 0),
			COALESCE(SUM(duration_seconds), 0)
		FROM entries
	`)
	if err := row.Scan(&st.TotalSessions, &st.TotalWords, &st.TotalDurationSeconds); err != nil {
		return Stats{}, fmt.Errorf("aggregate stats: %w", err)
	}
	if st.TotalSessions == 0 {
		return st, nil
	}

	var avg sql.NullFloat64
	row = s.db.QueryRow("SELECT AVG(wpm) FROM entries WHERE wpm IS NOT NULL")
	if err := row.Scan(&avg); err != nil {
		return Stats{}, fmt.Errorf("average wpm: %w", err)
	}
	if avg.Valid {
		st.AverageWPM = int(math.Round(avg.Float64))
	}

	// Time saved only counts words whose recording duration is known;
	// speaking is compared against typing those same words at typingWPM.
	var wordsWithDuration int
	row = s.db.QueryRow(`
		SELECT COALESCE(SUM(word_count), 0)
		FROM entries WHERE duration_seconds IS NOT NULL
	`)
	if err := row.Scan(&wordsWithDuration); err != nil {
		return Stats{}, fmt.Errorf("words with duration: %w", err)
	}
	saved := float64(wordsWithDuration)/typingWPM - st.TotalDurationSeconds/60
	st.TimeSavedMinutes = math.Max(0, saved)

	common, err := s.lexicalFrequency()
	if err != nil {
		return Stats{}, err
	}
	st.CommonWords = common

	return st, nil
}

func (s *Store) lexicalFrequency() ([]WordCount, error) {
	rows, err := s.db.Query("SELECT text FROM entries")
	if err != nil {
		return nil, fmt.Errorf("query texts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scan text: %w", err)
		}
		for _, w := range tokenize(text) {
			counts[w]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]WordCount, 0, len(counts))
	for w, c := range counts {
		out = append(out, WordCount{Word: w, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	if len(out) > topWords {
		out = out[:topWords]
	}
	return out, nil
}

// tokenize lowercases, strips surrounding punctuation, and drops stopwords
// and tokens of one or two runes.
func tokenize(text string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?;:'\"()[]{}")
		if len([]rune(w)) <= 2 {
			continue
		}
		if _, skip := stopwords[w]; skip {
			continue
		}
		out = append(out, w)
	}
	return out
}
