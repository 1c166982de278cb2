package tray

import "testing"

func TestEmojiForStatus(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{"recording", "🔴"},
		{"processing", "🟡"},
		{"idle", "🟢"},
		{"error", "⚪️"},
		{"bogus", "🟢"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := emojiForStatus(tt.status); got != tt.want {
				t.Errorf("emojiForStatus(%q) = %q, want %q", tt.status, got, tt.want)
			}
		})
	}
}

func TestLevelBars(t *testing.T) {
	got := levelBars([]float32{0, 0.5, 1})
	want := "▁▄█"
	if got != want {
		t.Errorf("levelBars = %q, want %q", got, want)
	}
}

func TestLevelBarsClampsOutOfRange(t *testing.T) {
	got := levelBars([]float32{-0.5, 2.0})
	want := "▁█"
	if got != want {
		t.Errorf("levelBars = %q, want %q", got, want)
	}
}
