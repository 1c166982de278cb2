package audio

// Capture owns the lifetime of one open input stream per recording session.
// Start while already started is a programming error and panics; Stop returns
// the full buffer accumulated since Start (empty if no frames arrived).
type Capture interface {
	Start() error
	Stop() ([]float32, error)
	SetDevice(id string) error
	ListDevices() ([]Device, error)
	Close() error
}

// LevelSink receives one visualization frame per delivered audio batch,
// at capture-callback cadence. Implementations must return quickly; the
// capture read loop calls them inline.
type LevelSink interface {
	OnLevels(bands []float32)
}

// Metrics summarizes one capture session.
type Metrics struct {
	Batches int
	Samples int
}

// Observer is an optional hook for per-session capture metrics.
type Observer interface {
	CaptureStopped(m Metrics)
}

// Device represents an audio input device.
type Device struct {
	ID      string
	Name    string
	Default bool
}
