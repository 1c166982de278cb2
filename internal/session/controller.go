package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State is the controller's lifecycle phase.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateFinalizing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateFinalizing:
		return "finalizing"
	default:
		return "unknown"
	}
}

// DefaultWatchdog force-stops a session held longer than this.
const DefaultWatchdog = 60 * time.Second

// Config wires a Controller. OnStart and OnStop are invoked synchronously
// from whichever goroutine won the state transition (key-event or watchdog)
// and must return quickly; slow work belongs in the owner, off these paths.
type Config struct {
	Bindings []Binding
	Watchdog time.Duration
	OnStart  func(mode Mode) error
	OnStop   func(mode Mode)
	Logger   zerolog.Logger
}

// Controller owns the Idle -> Recording -> Finalizing state machine. Key
// events arrive on the OS listener goroutine while the watchdog fires on a
// timer goroutine; a single mutex guards the transition out of Recording so
// a release racing a timeout produces exactly one OnStop.
type Controller struct {
	matcher  *Matcher
	watchdog time.Duration
	onStart  func(Mode) error
	onStop   func(Mode)
	log      zerolog.Logger

	mu        sync.Mutex
	state     State
	mode      Mode
	session   uuid.UUID
	startedAt time.Time
	trigger   map[string]struct{}
	timer     *time.Timer
	gen       uint64
}

type stopReason int

const (
	stopReleased stopReason = iota
	stopTimeout
)

func (r stopReason) String() string {
	if r == stopTimeout {
		return "timeout"
	}
	return "released"
}

func New(cfg Config) *Controller {
	wd := cfg.Watchdog
	if wd <= 0 {
		wd = DefaultWatchdog
	}
	return &Controller{
		matcher:  NewMatcher(cfg.Bindings),
		watchdog: wd,
		onStart:  cfg.OnStart,
		onStop:   cfg.OnStop,
		log:      cfg.Logger,
	}
}

// KeyDown feeds a key press. If the controller is Idle and the held set now
// satisfies a binding, the session starts and OnStart runs before KeyDown
// returns. A failed OnStart aborts the session back to Idle and its error is
// returned; the controller is never left stuck in Recording.
func (c *Controller) KeyDown(key string) error {
	c.mu.Lock()
	c.matcher.KeyDown(key)
	if c.state != StateIdle {
		c.mu.Unlock()
		return nil
	}

	b, ok := c.matcher.Evaluate()
	if !ok {
		c.mu.Unlock()
		return nil
	}

	c.state = StateRecording
	c.mode = b.Mode
	c.session = uuid.New()
	c.startedAt = time.Now()
	// Only the triggering subset matters for release detection, not the
	// full held set.
	c.trigger = make(map[string]struct{}, len(b.Keys))
	for _, k := range b.Keys {
		c.trigger[k] = struct{}{}
	}
	c.gen++
	gen := c.gen
	c.timer = time.AfterFunc(c.watchdog, func() { c.watchdogFired(gen) })

	mode := c.mode
	id := c.session
	c.mu.Unlock()

	c.log.Info().
		Str("session", id.String()).
		Str("mode", mode.String()).
		Msg("Recording started")

	if err := c.onStart(mode); err != nil {
		c.abort(gen)
		return err
	}
	return nil
}

// KeyUp feeds a key release. Releasing any member of the active triggering
// set ends the session regardless of what other keys remain held.
func (c *Controller) KeyUp(key string) {
	k := NormalizeKey(key)

	c.mu.Lock()
	if c.state == StateRecording {
		if _, member := c.trigger[k]; member {
			mode, id, dur := c.stopLocked()
			c.mu.Unlock()
			c.finish(mode, id, dur, stopReleased)
			return
		}
	}
	c.matcher.KeyUp(k)
	c.mu.Unlock()
}

// State reports the current lifecycle phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) watchdogFired(gen uint64) {
	c.mu.Lock()
	// A release may have won the race and already ended this session (or a
	// newer one may be running); the generation check makes this a no-op.
	if c.gen != gen || c.state != StateRecording {
		c.mu.Unlock()
		return
	}
	mode, id, dur := c.stopLocked()
	c.mu.Unlock()
	c.finish(mode, id, dur, stopTimeout)
}

// stopLocked performs the Recording -> Finalizing transition. Caller holds
// the mutex; nothing here blocks.
func (c *Controller) stopLocked() (Mode, uuid.UUID, time.Duration) {
	c.state = StateFinalizing
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.trigger = nil
	c.matcher.Reset()
	return c.mode, c.session, time.Since(c.startedAt)
}

// finish invokes OnStop outside the lock and returns the controller to Idle.
func (c *Controller) finish(mode Mode, id uuid.UUID, dur time.Duration, reason stopReason) {
	c.log.Info().
		Str("session", id.String()).
		Str("mode", mode.String()).
		Str("reason", reason.String()).
		Dur("duration", dur).
		Msg("Recording stopped")

	c.onStop(mode)

	c.mu.Lock()
	if c.state == StateFinalizing {
		c.state = StateIdle
	}
	c.mu.Unlock()
}

// abort undoes a start whose OnStart failed: back to Idle, no OnStop.
func (c *Controller) abort(gen uint64) {
	c.mu.Lock()
	if c.gen == gen && c.state == StateRecording {
		if c.timer != nil {
			c.timer.Stop()
			c.timer = nil
		}
		c.trigger = nil
		c.matcher.Reset()
		c.state = StateIdle
	}
	c.mu.Unlock()
}
