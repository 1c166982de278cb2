//go:build linux

package inject

import (
	"context"
	"fmt"
	"os/exec"
)

// platformPaste sends ctrl+v to the focused window via xdotool.
func platformPaste(ctx context.Context) error {
	if err := exec.CommandContext(ctx, "xdotool", "key", "--clearmodifiers", "ctrl+v").Run(); err != nil {
		return fmt.Errorf("xdotool paste: %w", err)
	}
	return nil
}

// platformType types text directly via xdotool, for targets that ignore the
// paste keystroke (terminals with ctrl+shift+v, for example).
func platformType(ctx context.Context, text string) error {
	if err := exec.CommandContext(ctx, "xdotool", "type", "--clearmodifiers", "--", text).Run(); err != nil {
		return fmt.Errorf("xdotool type: %w", err)
	}
	return nil
}
