package hotkey

import "testing"

func TestParseCombo(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want []string
	}{
		{"ctrl+shift", []string{"ctrl", "shift"}},
		{"Cmd+Alt+P", []string{"cmd", "alt", "p"}},
		{"super+shift", []string{"cmd", "shift"}},
		{" alt + shift ", []string{"alt", "shift"}},
		{"", nil},
	}

	for _, tc := range cases {
		got := ParseCombo(tc.in)
		if len(got) != len(tc.want) {
			t.Errorf("ParseCombo(%q) = %v, want %v", tc.in, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("ParseCombo(%q)[%d] = %q, want %q", tc.in, i, got[i], tc.want[i])
			}
		}
	}
}
