package tray

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/getlantern/systray"
	"github.com/rs/zerolog"

	"github.com/petems/vibetotext/internal/audio"
	"github.com/petems/vibetotext/internal/config"
)

// renderInterval throttles level frames so the tray title is rewritten at
// most ~10x per second regardless of capture callback cadence.
const renderInterval = 100 * time.Millisecond

// Devices is the slice of the capture API the device menu needs.
type Devices interface {
	ListDevices() ([]audio.Device, error)
	SetDevice(id string) error
}

// HistoryStore is what the Clear History menu item needs.
type HistoryStore interface {
	Clear() error
}

// HistoryWindow shows or hides the session history view.
type HistoryWindow interface {
	Toggle()
}

type UI struct {
	devices Devices
	store   HistoryStore
	window  HistoryWindow
	cfg     *config.Config
	version string
	commit  string
	log     zerolog.Logger

	mu         sync.Mutex
	status     string
	lastRender time.Time

	// Menu items
	mHistory *systray.MenuItem
	mClear   *systray.MenuItem
	mDevices *systray.MenuItem
	mSaveRec *systray.MenuItem
}

func New(devices Devices, store HistoryStore, window HistoryWindow, cfg *config.Config, version, commit string, log zerolog.Logger) *UI {
	return &UI{
		devices: devices,
		store:   store,
		window:  window,
		cfg:     cfg,
		version: version,
		commit:  commit,
		log:     log,
		status:  "idle",
	}
}

// SetDevices sets the capture reference. The capture stream is constructed
// after the tray because its level sink renders into the tray.
func (u *UI) SetDevices(d Devices) {
	u.devices = d
}

// Status update methods for the app to call
func (u *UI) SetIdle() {
	u.updateStatus("idle")
}

func (u *UI) SetRecording() {
	u.updateStatus("recording")
}

func (u *UI) SetProcessing() {
	u.updateStatus("processing")
}

func (u *UI) SetError() {
	u.updateStatus("error")
}

// RenderLevels draws the smoothed visualization bands into the tray title
// while a recording is live. Called on the capture goroutine, so it only
// takes the lock and formats a short string.
func (u *UI) RenderLevels(levels []float32) {
	u.mu.Lock()
	if u.status != "recording" || time.Since(u.lastRender) < renderInterval {
		u.mu.Unlock()
		return
	}
	u.lastRender = time.Now()
	u.mu.Unlock()

	systray.SetTitle(fmt.Sprintf("🎤 %s", levelBars(levels)))
}

func (u *UI) Run(ctx context.Context) error {
	systray.Run(u.onReady, u.onExit)
	return nil
}

func (u *UI) onReady() {
	u.updateStatus("idle")
	systray.SetTooltip("Hold a hotkey to dictate")

	u.mHistory = systray.AddMenuItem("Show History", "Toggle the session history window")
	u.mClear = systray.AddMenuItem("Clear History", "Delete all saved sessions")
	systray.AddSeparator()

	u.mDevices = systray.AddMenuItem("Microphone", "Select audio device")
	u.buildDeviceMenu()

	systray.AddSeparator()
	u.mSaveRec = systray.AddMenuItemCheckbox("Save Recordings", "Keep WAV files of each session", u.cfg.SaveRecordings)

	systray.AddSeparator()
	mAbout := systray.AddMenuItem("About", "About vibetotext")
	mQuit := systray.AddMenuItem("Quit", "Exit application")

	go u.handleEvents(mAbout, mQuit)
}

func (u *UI) handleEvents(mAbout, mQuit *systray.MenuItem) {
	for {
		select {
		case <-u.mHistory.ClickedCh:
			if u.window != nil {
				u.window.Toggle()
			}
		case <-u.mClear.ClickedCh:
			if err := u.store.Clear(); err != nil {
				u.log.Error().Err(err).Msg("Failed to clear history")
			} else {
				u.log.Info().Msg("History cleared")
			}
		case <-u.mSaveRec.ClickedCh:
			u.toggleSaveRecordings()
		case <-mAbout.ClickedCh:
			u.showAbout()
		case <-mQuit.ClickedCh:
			systray.Quit()
			return
		}
	}
}

func (u *UI) buildDeviceMenu() {
	devices, err := u.devices.ListDevices()
	if err != nil {
		u.log.Error().Err(err).Msg("Failed to list audio devices")
		return
	}

	deviceItems := make(map[string]*systray.MenuItem)

	for _, dev := range devices {
		item := u.mDevices.AddSubMenuItem(dev.Name, "")
		if dev.ID == u.cfg.Audio.DeviceID || (u.cfg.Audio.DeviceID == "" && dev.Default) {
			item.Check()
		}
		deviceItems[dev.ID] = item

		go func(deviceID, deviceName string, menuItem *systray.MenuItem) {
			for {
				<-menuItem.ClickedCh
				for id, itm := range deviceItems {
					if id != deviceID {
						itm.Uncheck()
					}
				}
				menuItem.Check()
				u.cfg.Audio.DeviceID = deviceID
				if err := u.cfg.Save(); err != nil {
					u.log.Error().Err(err).Msg("Failed to save config")
				}
				u.log.Info().Str("device", deviceName).Msg("Changed audio device")
				if err := u.devices.SetDevice(deviceID); err != nil {
					u.log.Warn().Err(err).Msg("Device change deferred")
				}
			}
		}(dev.ID, dev.Name, item)
	}
}

func (u *UI) toggleSaveRecordings() {
	u.cfg.SaveRecordings = !u.cfg.SaveRecordings
	if u.cfg.SaveRecordings {
		u.mSaveRec.Check()
		u.log.Info().Msg("Enabled recording archival")
	} else {
		u.mSaveRec.Uncheck()
		u.log.Info().Msg("Disabled recording archival")
	}
	if err := u.cfg.Save(); err != nil {
		u.log.Error().Err(err).Msg("Failed to save config")
	}
}

func (u *UI) showAbout() {
	fmt.Printf("vibetotext %s (%s)\nPush-to-talk voice dictation\n", u.version, u.commit)
}

func (u *UI) onExit() {
	// Cleanup
}

// updateStatus sets the tray title with microphone emoji and status indicator
func (u *UI) updateStatus(status string) {
	u.mu.Lock()
	u.status = status
	u.mu.Unlock()
	systray.SetTitle(fmt.Sprintf("🎤 %s", emojiForStatus(status)))
}

// emojiForStatus returns the appropriate status emoji
func emojiForStatus(status string) string {
	switch status {
	case "recording":
		return "🔴" // Red - recording
	case "processing":
		return "🟡" // Yellow - processing transcription
	case "idle":
		return "🟢" // Green - ready/idle
	case "error":
		return "⚪️" // White - error
	default:
		return "🟢" // Green - default to ready
	}
}

var barRunes = []rune("▁▂▃▄▅▆▇█")

// levelBars renders one block glyph per band, scaled to the 0..1 range.
func levelBars(levels []float32) string {
	var b strings.Builder
	for _, v := range levels {
		if v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		idx := int(v * float32(len(barRunes)-1))
		b.WriteRune(barRunes[idx])
	}
	return b.String()
}
