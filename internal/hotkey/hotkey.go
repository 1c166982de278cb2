package hotkey

import "strings"

// Event is a single raw key transition from the OS keyboard listener.
type Event struct {
	Key     string // normalized name: "ctrl", "shift", "cmd", "alt", or a character
	Pressed bool
}

// Listener delivers raw key events on a background goroutine. Unlike a
// classic global-hotkey registration this reports every transition of the
// keys it tracks, which the session controller needs for hold-to-record.
type Listener interface {
	Start(handler func(Event)) error
	Close() error
}

// ParseCombo splits a config combination string ("cmd+alt+p") into
// normalized key names.
func ParseCombo(s string) []string {
	var keys []string
	for _, part := range strings.Split(s, "+") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		// "super" and "win" are aliases users reach for on Linux.
		if part == "super" || part == "win" {
			part = "cmd"
		}
		keys = append(keys, part)
	}
	return keys
}
