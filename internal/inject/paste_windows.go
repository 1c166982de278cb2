//go:build windows

package inject

import (
	"context"
	"fmt"
)

// platformPaste is not implemented on Windows yet.
func platformPaste(ctx context.Context) error {
	return fmt.Errorf("paste not yet implemented on Windows")
}

// platformType is not implemented on Windows yet.
func platformType(ctx context.Context, text string) error {
	return fmt.Errorf("type not yet implemented on Windows")
}
