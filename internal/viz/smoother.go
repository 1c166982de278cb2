// Package viz carries visualization frames from the capture callback to the
// presentation layer, applying the sink-side smoothing the raw RMS-blend
// frames need to look stable.
package viz

// Decay is the exponential blend constant for falling bands. 0.86 is the
// gentle end of the usable range and is fixed so smoothing stays testable.
const Decay = 0.86

// Smoother holds per-band state between frames: bands rise instantly and
// fall via exponential decay. Not safe for concurrent use; each capture
// stream drives its sink from a single goroutine.
type Smoother struct {
	levels []float32
}

func NewSmoother(bands int) *Smoother {
	return &Smoother{levels: make([]float32, bands)}
}

// Apply folds a new frame into the smoothed state and returns it. The
// returned slice is owned by the Smoother and valid until the next call.
func (s *Smoother) Apply(frame []float32) []float32 {
	n := len(s.levels)
	if len(frame) < n {
		n = len(frame)
	}
	for i := 0; i < n; i++ {
		v := frame[i]
		if v > s.levels[i] {
			s.levels[i] = v
		} else {
			s.levels[i] = s.levels[i]*Decay + v*(1-Decay)
		}
	}
	return s.levels
}

// Sink adapts a render function into an audio.LevelSink, smoothing each
// frame before it reaches the renderer.
type Sink struct {
	sm     *Smoother
	render func([]float32)
}

// NewSink wraps render with a Smoother of the given width. render is called
// once per delivered frame, on the capture goroutine, and must be cheap.
func NewSink(bands int, render func([]float32)) *Sink {
	return &Sink{sm: NewSmoother(bands), render: render}
}

func (s *Sink) OnLevels(bands []float32) {
	s.render(s.sm.Apply(bands))
}
