//go:build darwin

package inject

import (
	"context"
	"fmt"
	"os/exec"
)

// platformPaste sends cmd+v through System Events.
func platformPaste(ctx context.Context) error {
	script := `tell application "System Events" to keystroke "v" using command down`
	if err := exec.CommandContext(ctx, "osascript", "-e", script).Run(); err != nil {
		return fmt.Errorf("osascript paste: %w", err)
	}
	return nil
}

// platformType types the text one keystroke at a time through System Events.
func platformType(ctx context.Context, text string) error {
	script := fmt.Sprintf(`tell application "System Events" to keystroke %q`, text)
	if err := exec.CommandContext(ctx, "osascript", "-e", script).Run(); err != nil {
		return fmt.Errorf("osascript type: %w", err)
	}
	return nil
}
