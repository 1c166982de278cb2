package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog"
)

const framesPerBuffer = 512

type portAudioCapture struct {
	deviceID   string
	sampleRate int
	sink       LevelSink
	obs        Observer
	log        zerolog.Logger

	mu      sync.Mutex
	stream  *portaudio.Stream
	buf     []float32
	batches [][]float32
	done    chan struct{}
}

// New initializes PortAudio and returns a Capture bound to the configured
// device. sink and obs may be nil.
func New(deviceID string, sampleRate int, sink LevelSink, obs Observer, log zerolog.Logger) (Capture, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return &portAudioCapture{
		deviceID:   deviceID,
		sampleRate: sampleRate,
		sink:       sink,
		obs:        obs,
		log:        log,
	}, nil
}

// SetDevice changes the input device used by the next Start. Returns an
// error while a stream is open.
func (p *portAudioCapture) SetDevice(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream != nil {
		return fmt.Errorf("cannot change device while recording")
	}
	p.deviceID = id
	return nil
}

func (p *portAudioCapture) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream != nil {
		// Indicates a caller bug in the session state machine, not a
		// recoverable condition.
		panic("audio: Start called on an already-started capture stream")
	}

	device, err := p.findDevice()
	if err != nil {
		return err
	}

	p.buf = make([]float32, framesPerBuffer)
	p.batches = nil
	p.done = make(chan struct{})

	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: 1,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(p.sampleRate),
		FramesPerBuffer: len(p.buf),
	}, p.buf)
	if err != nil {
		return fmt.Errorf("failed to open audio stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start audio stream: %w", err)
	}

	p.stream = stream
	go p.readLoop(stream, p.done)
	return nil
}

// readLoop accumulates batches and derives the visualization frame for each.
// It exits when the stream is stopped and Read starts failing.
func (p *portAudioCapture) readLoop(stream *portaudio.Stream, done chan struct{}) {
	defer close(done)
	for {
		if err := stream.Read(); err != nil {
			return
		}

		samples := make([]float32, len(p.buf))
		copy(samples, p.buf)

		p.mu.Lock()
		if p.stream != stream {
			p.mu.Unlock()
			return
		}
		p.batches = append(p.batches, samples)
		p.mu.Unlock()

		if p.sink != nil {
			p.sink.OnLevels(DeriveBands(samples, NumBands))
		}
	}
}

func (p *portAudioCapture) Stop() ([]float32, error) {
	p.mu.Lock()
	stream := p.stream
	done := p.done
	p.mu.Unlock()

	if stream == nil {
		panic("audio: Stop called on a capture stream that is not started")
	}

	// Stopping the stream makes the blocked Read in the loop return an
	// error, which ends the loop. A failed close must not wedge the caller.
	if err := stream.Stop(); err != nil {
		p.log.Error().Err(err).Msg("Failed to stop audio stream")
	}
	<-done
	if err := stream.Close(); err != nil {
		p.log.Error().Err(err).Msg("Failed to close audio stream")
	}

	p.mu.Lock()
	batches := p.batches
	p.stream = nil
	p.batches = nil
	p.done = nil
	p.mu.Unlock()

	total := 0
	for _, b := range batches {
		total += len(b)
	}
	out := make([]float32, 0, total)
	for _, b := range batches {
		out = append(out, b...)
	}

	if p.obs != nil {
		p.obs.CaptureStopped(Metrics{Batches: len(batches), Samples: total})
	}
	return out, nil
}

func (p *portAudioCapture) findDevice() (*portaudio.DeviceInfo, error) {
	if p.deviceID == "" {
		device, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("failed to get default input device: %w", err)
		}
		return device, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}
	for _, d := range devices {
		if d.Name == p.deviceID {
			return d, nil
		}
	}
	return nil, fmt.Errorf("device not found: %s", p.deviceID)
}

func (p *portAudioCapture) ListDevices() ([]Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	result := make([]Device, 0, len(devices))
	defaultDevice, _ := portaudio.DefaultInputDevice()

	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			result = append(result, Device{
				ID:      d.Name,
				Name:    d.Name,
				Default: d == defaultDevice,
			})
		}
	}
	return result, nil
}

func (p *portAudioCapture) Close() error {
	p.mu.Lock()
	if p.stream != nil {
		p.stream.Close()
		p.stream = nil
	}
	p.mu.Unlock()
	portaudio.Terminate()
	return nil
}
