//go:build !linux && !darwin

package hotkey

import "fmt"

// New is a stub for platforms without a key listener implementation.
func New() (Listener, error) {
	return nil, fmt.Errorf("global key listening is not supported on this platform")
}
