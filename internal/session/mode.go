package session

import "fmt"

// Mode identifies the downstream pipeline a completed recording is routed to.
type Mode int

const (
	ModeTranscribe Mode = iota
	ModeSearch
	ModeCleanup
	ModePlan
	ModeHistoryToggle
)

func (m Mode) String() string {
	switch m {
	case ModeTranscribe:
		return "transcribe"
	case ModeSearch:
		return "search"
	case ModeCleanup:
		return "cleanup"
	case ModePlan:
		return "plan"
	case ModeHistoryToggle:
		return "history-toggle"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode converts a config-file mode label into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "transcribe":
		return ModeTranscribe, nil
	case "search":
		return ModeSearch, nil
	case "cleanup":
		return ModeCleanup, nil
	case "plan":
		return ModePlan, nil
	case "history-toggle":
		return ModeHistoryToggle, nil
	default:
		return 0, fmt.Errorf("unknown mode: %q", s)
	}
}
