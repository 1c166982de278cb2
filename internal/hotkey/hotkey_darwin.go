//go:build darwin

package hotkey

/*
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation
#include <ApplicationServices/ApplicationServices.h>

extern void goKeyEventCallback(long keycode, int pressed, unsigned long flags);

static CFMachPortRef tapRef = NULL;
static CFRunLoopSourceRef sourceRef = NULL;
static CFRunLoopRef tapRunLoop = NULL;

static CGEventRef eventCallback(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void* userInfo) {
    if (type == kCGEventKeyDown || type == kCGEventKeyUp || type == kCGEventFlagsChanged) {
        long keycode = (long)CGEventGetIntegerValueField(event, kCGKeyboardEventKeycode);
        unsigned long flags = (unsigned long)CGEventGetFlags(event);
        int pressed = (type == kCGEventKeyDown) ? 1 : 0;
        if (type == kCGEventFlagsChanged) {
            pressed = -1; // modifier transition, direction derived from flags
        }
        goKeyEventCallback(keycode, pressed, flags);
    }
    return event;
}

// startTap installs a listen-only event tap and runs its loop on the calling
// thread. Returns 0 if the tap could not be created (missing Accessibility
// approval).
static int startTap() {
    CGEventMask mask = CGEventMaskBit(kCGEventKeyDown) |
                       CGEventMaskBit(kCGEventKeyUp) |
                       CGEventMaskBit(kCGEventFlagsChanged);
    tapRef = CGEventTapCreate(kCGSessionEventTap, kCGHeadInsertEventTap,
                              kCGEventTapOptionListenOnly, mask, eventCallback, NULL);
    if (tapRef == NULL) return 0;

    sourceRef = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, tapRef, 0);
    tapRunLoop = CFRunLoopGetCurrent();
    CFRunLoopAddSource(tapRunLoop, sourceRef, kCFRunLoopCommonModes);
    CGEventTapEnable(tapRef, true);
    CFRunLoopRun();
    return 1;
}

static void stopTap() {
    if (tapRef != NULL) {
        CGEventTapEnable(tapRef, false);
    }
    if (tapRunLoop != NULL) {
        CFRunLoopStop(tapRunLoop);
    }
}
*/
import "C"

import (
	"fmt"
	"sync"
)

const (
	flagShift   = 0x20000  // kCGEventFlagMaskShift
	flagControl = 0x40000  // kCGEventFlagMaskControl
	flagAlt     = 0x80000  // kCGEventFlagMaskAlternate
	flagCommand = 0x100000 // kCGEventFlagMaskCommand
)

type darwinListener struct {
	mu      sync.Mutex
	handler func(Event)
	mods    map[string]bool
}

var activeListener *darwinListener

// New creates the platform key listener. Requires Accessibility approval;
// without it the event tap cannot be created.
func New() (Listener, error) {
	l := &darwinListener{mods: make(map[string]bool)}
	activeListener = l
	return l, nil
}

func (l *darwinListener) Start(handler func(Event)) error {
	l.mu.Lock()
	l.handler = handler
	l.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		if C.startTap() == 0 {
			errCh <- fmt.Errorf("failed to create event tap (is Accessibility access granted?)")
		}
	}()

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

func (l *darwinListener) Close() error {
	C.stopTap()
	return nil
}

//export goKeyEventCallback
func goKeyEventCallback(keycode C.long, pressed C.int, flags C.ulong) {
	l := activeListener
	if l == nil {
		return
	}
	l.mu.Lock()
	handler := l.handler
	l.mu.Unlock()
	if handler == nil {
		return
	}

	if pressed == -1 {
		// Modifier transition: compare current flag state to the last seen
		// state to get the direction of each modifier.
		l.dispatchModifiers(uint64(flags), handler)
		return
	}

	name := darwinKeyName(int(keycode))
	if name == "" {
		return
	}
	handler(Event{Key: name, Pressed: pressed == 1})
}

func (l *darwinListener) dispatchModifiers(flags uint64, handler func(Event)) {
	current := map[string]bool{
		"shift": flags&flagShift != 0,
		"ctrl":  flags&flagControl != 0,
		"alt":   flags&flagAlt != 0,
		"cmd":   flags&flagCommand != 0,
	}
	l.mu.Lock()
	for name, down := range current {
		if l.mods[name] != down {
			l.mods[name] = down
			l.mu.Unlock()
			handler(Event{Key: name, Pressed: down})
			l.mu.Lock()
		}
	}
	l.mu.Unlock()
}

// darwinKeyName maps ANSI virtual keycodes to characters. Only letter keys
// are needed for combinations like cmd+alt+p.
func darwinKeyName(keycode int) string {
	names := map[int]string{
		0: "a", 1: "s", 2: "d", 3: "f", 4: "h", 5: "g", 6: "z", 7: "x",
		8: "c", 9: "v", 11: "b", 12: "q", 13: "w", 14: "e", 15: "r",
		16: "y", 17: "t", 31: "o", 32: "u", 34: "i", 35: "p", 37: "l",
		38: "j", 40: "k", 45: "n", 46: "m",
	}
	return names[keycode]
}
