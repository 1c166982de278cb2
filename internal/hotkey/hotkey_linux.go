//go:build linux

package hotkey

/*
#cgo pkg-config: x11
#include <X11/Xlib.h>
#include <X11/XKBlib.h>
#include <stdlib.h>

static Display* displayPtr = NULL;

int openDisplay() {
    if (displayPtr == NULL) {
        displayPtr = XOpenDisplay(NULL);
    }
    return displayPtr != NULL;
}

void closeDisplay() {
    if (displayPtr != NULL) {
        XCloseDisplay(displayPtr);
        displayPtr = NULL;
    }
}

// queryKeymap fills a 32-byte bitmask of currently pressed keycodes.
void queryKeymap(char* keys) {
    XQueryKeymap(displayPtr, keys);
}

unsigned long keycodeToKeysym(int keycode) {
    return XkbKeycodeToKeysym(displayPtr, keycode, 0, 0);
}
*/
import "C"

import (
	"fmt"
	"time"
	"unsafe"
)

// linuxListener polls the X11 keymap and diffs it against the previous
// snapshot to synthesize per-key press/release events. Polling at 10ms
// comfortably beats human key travel time and needs no XInput2 grabs.
type linuxListener struct {
	prev [256]bool
	stop chan struct{}
	done chan struct{}
}

// New creates the platform key listener.
func New() (Listener, error) {
	if C.openDisplay() == 0 {
		return nil, fmt.Errorf("failed to open X11 display")
	}
	return &linuxListener{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}, nil
}

func (l *linuxListener) Start(handler func(Event)) error {
	go l.pollLoop(handler)
	return nil
}

func (l *linuxListener) pollLoop(handler func(Event)) {
	defer close(l.done)

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	var keymap [32]C.char
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			C.queryKeymap((*C.char)(unsafe.Pointer(&keymap[0])))
			for code := 8; code < 256; code++ {
				pressed := keymap[code/8]&(1<<(code%8)) != 0
				if pressed == l.prev[code] {
					continue
				}
				l.prev[code] = pressed
				name := keysymName(uint64(C.keycodeToKeysym(C.int(code))))
				if name == "" {
					continue
				}
				handler(Event{Key: name, Pressed: pressed})
			}
		}
	}
}

func (l *linuxListener) Close() error {
	close(l.stop)
	<-l.done
	C.closeDisplay()
	return nil
}

// X11 keysym values for the modifier keys we care about.
const (
	xkShiftL   = 0xffe1
	xkShiftR   = 0xffe2
	xkControlL = 0xffe3
	xkControlR = 0xffe4
	xkAltL     = 0xffe9
	xkAltR     = 0xffea
	xkSuperL   = 0xffeb
	xkSuperR   = 0xffec
)

func keysymName(sym uint64) string {
	switch sym {
	case xkShiftL, xkShiftR:
		return "shift"
	case xkControlL, xkControlR:
		return "ctrl"
	case xkAltL, xkAltR:
		return "alt"
	case xkSuperL, xkSuperR:
		// The Super/Windows key plays the role of "cmd" in combos.
		return "cmd"
	}
	// Latin-1 printable keysyms map directly to their character.
	if sym >= 0x20 && sym <= 0x7e {
		return string(rune(sym))
	}
	return ""
}
