package whisper

import "testing"

func TestFilterBlankAudio(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"hello world", "hello world"},
		{"  hello world  ", "hello world"},
		{"[BLANK_AUDIO]", ""},
		{"[blank audio]", ""},
		{"[ BLANK_AUDIO ]", ""},
		{"", ""},
		{"   ", ""},
	}

	for _, tc := range cases {
		if got := FilterBlankAudio(tc.in); got != tc.want {
			t.Errorf("FilterBlankAudio(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
