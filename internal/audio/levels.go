package audio

import "math"

// NumBands is the width of every visualization frame.
const NumBands = 25

// silenceRMS is the batch RMS below which the frame is considered silent.
const silenceRMS = 0.01

// levelFloor: band values below this are forced to exactly zero so idle
// bars do not flicker.
const levelFloor = 0.02

// rmsBoost and sampleBoost scale raw magnitudes into a visible [0,1] range
// for typical speech levels.
const (
	rmsBoost    = 8.0
	sampleBoost = 6.0
)

// DeriveBands turns one captured batch into NumBands normalized magnitudes.
//
// This is deliberately not a spectral analysis: it samples the batch at N
// evenly spaced offsets and blends each sample's magnitude with the batch RMS
// base level. The output looks lively at speech onsets and settles fast,
// which is what the waveform overlay needs, and it costs no allocation-heavy
// work inside the capture callback. An FFT into N bins would be a valid
// higher-fidelity substitute at the same cadence.
func DeriveBands(batch []float32, n int) []float32 {
	out := make([]float32, n)
	if len(batch) == 0 {
		return out
	}

	var sum float64
	for _, s := range batch {
		sum += float64(s) * float64(s)
	}
	rms := math.Sqrt(sum / float64(len(batch)))
	if rms < silenceRMS {
		return out
	}

	base := math.Min(1, rms*rmsBoost)
	for i := 0; i < n; i++ {
		s := math.Abs(float64(batch[i*len(batch)/n]))
		v := 0.5*math.Min(1, s*sampleBoost) + 0.5*base
		if v < levelFloor {
			v = 0
		}
		out[i] = float32(v)
	}
	return out
}
