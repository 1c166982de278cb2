package history

import (
	"fmt"
	"html/template"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// viewLimit caps how many entries the rendered page shows.
const viewLimit = 200

// View renders the history and statistics to a local HTML page and opens it
// in the default browser. A tray-only process has no window toolkit, so
// "toggling" the history regenerates the page and hands it to the OS.
type View struct {
	store *Store
	log   zerolog.Logger

	mu       sync.Mutex
	lastOpen time.Time
}

func NewView(store *Store, log zerolog.Logger) *View {
	return &View{store: store, log: log}
}

// Toggle regenerates and opens the history page. Rapid repeat presses
// within a second are collapsed into one open.
func (v *View) Toggle() {
	v.mu.Lock()
	if time.Since(v.lastOpen) < time.Second {
		v.mu.Unlock()
		return
	}
	v.lastOpen = time.Now()
	v.mu.Unlock()

	path, err := v.render()
	if err != nil {
		v.log.Error().Err(err).Msg("Failed to render history page")
		return
	}
	if err := openInBrowser(path); err != nil {
		v.log.Error().Err(err).Str("path", path).Msg("Failed to open history page")
	}
}

func (v *View) render() (string, error) {
	entries, err := v.store.Entries(viewLimit)
	if err != nil {
		return "", err
	}
	stats, err := v.store.Statistics()
	if err != nil {
		return "", err
	}

	path := filepath.Join(filepath.Dir(v.store.path), "history.html")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create history page: %w", err)
	}
	defer f.Close()

	data := struct {
		Entries []Entry
		Stats   Stats
	}{entries, stats}
	if err := viewTemplate.Execute(f, data); err != nil {
		return "", fmt.Errorf("render history page: %w", err)
	}
	return path, nil
}

func openInBrowser(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	return cmd.Start()
}

var viewTemplate = template.Must(template.New("history").Funcs(template.FuncMap{
	"fmtTime": func(t time.Time) string { return t.Local().Format("Jan 2 15:04") },
	"fmtDur": func(d *float64) string {
		if d == nil {
			return "-"
		}
		return fmt.Sprintf("%.1fs", *d)
	},
	"fmtWPM": func(w *int) string {
		if w == nil {
			return "-"
		}
		return fmt.Sprintf("%d", *w)
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Dictation History</title>
<style>
body { font-family: -apple-system, sans-serif; margin: 2em auto; max-width: 56em; color: #222; }
table { border-collapse: collapse; width: 100%; }
th, td { text-align: left; padding: 0.4em 0.8em; border-bottom: 1px solid #ddd; }
th { color: #666; font-weight: 600; }
.stats { display: flex; gap: 2em; margin-bottom: 2em; }
.stat b { display: block; font-size: 1.5em; }
.mode { color: #888; font-size: 0.85em; }
.words span { background: #eef; border-radius: 3px; padding: 0.1em 0.4em; margin-right: 0.3em; }
</style>
</head>
<body>
<h1>Dictation History</h1>
<div class="stats">
<div class="stat"><b>{{.Stats.TotalSessions}}</b>sessions</div>
<div class="stat"><b>{{.Stats.TotalWords}}</b>words</div>
<div class="stat"><b>{{.Stats.AverageWPM}}</b>avg wpm</div>
<div class="stat"><b>{{printf "%.0f" .Stats.TimeSavedMinutes}}</b>min saved vs typing</div>
</div>
{{if .Stats.CommonWords}}<p class="words">{{range .Stats.CommonWords}}<span>{{.Word}} ({{.Count}})</span>{{end}}</p>{{end}}
<table>
<tr><th>When</th><th>Text</th><th>Mode</th><th>Words</th><th>Duration</th><th>WPM</th></tr>
{{range .Entries}}
<tr><td>{{fmtTime .Timestamp}}</td><td>{{.Text}}</td><td class="mode">{{.Mode}}</td><td>{{.WordCount}}</td><td>{{fmtDur .DurationSeconds}}</td><td>{{fmtWPM .WPM}}</td></tr>
{{end}}
</table>
</body>
</html>
`))
