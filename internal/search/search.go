// Package search implements the code-search mode: transcript keywords are
// matched against a codebase with ripgrep and the hits are appended to the
// pasted output.
package search

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/petems/vibetotext/internal/config"
)

// Match is one file hit with the line of its first keyword occurrence.
type Match struct {
	Path string
	Line int
}

// Searcher finds files in the configured codebase relevant to a transcript.
type Searcher interface {
	Search(ctx context.Context, transcript string) ([]Match, error)
}

type rgSearcher struct {
	codebase string
	limit    int
	log      zerolog.Logger
}

func New(cfg config.SearchConfig, log zerolog.Logger) Searcher {
	limit := cfg.Limit
	if limit <= 0 {
		limit = 10
	}
	return &rgSearcher{codebase: cfg.Codebase, limit: limit, log: log}
}

func (s *rgSearcher) Search(ctx context.Context, transcript string) ([]Match, error) {
	pattern := keywordPattern(transcript)
	if pattern == "" {
		return nil, nil
	}

	cmd := exec.CommandContext(ctx, "rg",
		"--ignore-case",
		"--line-number",
		"--max-count", "1",
		"--no-heading",
		pattern,
		s.codebase,
	)
	out, err := cmd.Output()
	if err != nil {
		// Exit status 1 is rg's "no matches", not a failure.
		if ee, ok := err.(*exec.ExitError); ok && ee.ExitCode() == 1 {
			return nil, nil
		}
		return nil, fmt.Errorf("ripgrep: %w", err)
	}

	var matches []Match
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() && len(matches) < s.limit {
		// path:line:content
		parts := strings.SplitN(scanner.Text(), ":", 3)
		if len(parts) < 3 {
			continue
		}
		line, err := strconv.Atoi(parts[1])
		if err != nil {
			continue
		}
		matches = append(matches, Match{Path: parts[0], Line: line})
	}
	return matches, scanner.Err()
}

// keywordPattern builds an alternation of the transcript's distinctive
// words. Short words match too much code to be useful.
func keywordPattern(transcript string) string {
	seen := make(map[string]struct{})
	var words []string
	for _, w := range strings.Fields(strings.ToLower(transcript)) {
		w = strings.Trim(w, ".,!?;:'\"()[]{}")
		if len(w) < 4 {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, escapeRegex(w))
	}
	return strings.Join(words, "|")
}

func escapeRegex(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\.+*?()|[]{}^$`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatMatches renders the hit list appended to the transcript in Search
// mode.
func FormatMatches(matches []Match) string {
	if len(matches) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nRelevant files:\n")
	for _, m := range matches {
		fmt.Fprintf(&b, "- %s:%d\n", m.Path, m.Line)
	}
	return b.String()
}
