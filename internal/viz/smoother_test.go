package viz

import (
	"math"
	"testing"
)

func TestSmootherRisesInstantly(t *testing.T) {
	t.Parallel()

	s := NewSmoother(3)
	got := s.Apply([]float32{0.8, 0.5, 1.0})

	want := []float32{0.8, 0.5, 1.0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("band %d = %f, want %f (rise is instant)", i, got[i], want[i])
		}
	}
}

func TestSmootherDecaysExponentially(t *testing.T) {
	t.Parallel()

	s := NewSmoother(1)
	s.Apply([]float32{1.0})
	got := s.Apply([]float32{0.0})

	want := float32(Decay) // 1.0*decay + 0.0*(1-decay)
	if math.Abs(float64(got[0]-want)) > 1e-6 {
		t.Errorf("after one silent frame = %f, want %f", got[0], want)
	}

	got = s.Apply([]float32{0.0})
	want = Decay * Decay
	if math.Abs(float64(got[0]-want)) > 1e-6 {
		t.Errorf("after two silent frames = %f, want %f", got[0], want)
	}
}

func TestSmootherStaysInRange(t *testing.T) {
	t.Parallel()

	s := NewSmoother(2)
	frames := [][]float32{
		{1.0, 0.0},
		{0.0, 1.0},
		{0.5, 0.5},
		{0.0, 0.0},
	}
	for _, f := range frames {
		for i, v := range s.Apply(f) {
			if v < 0 || v > 1 {
				t.Fatalf("band %d = %f, out of [0,1]", i, v)
			}
		}
	}
}

func TestSinkForwardsSmoothedFrames(t *testing.T) {
	t.Parallel()

	var last []float32
	sink := NewSink(2, func(levels []float32) {
		last = append(last[:0], levels...)
	})

	sink.OnLevels([]float32{1.0, 0.2})
	sink.OnLevels([]float32{0.0, 0.2})

	if len(last) != 2 {
		t.Fatalf("render received %d bands, want 2", len(last))
	}
	if last[0] >= 1.0 || last[0] <= 0 {
		t.Errorf("band 0 = %f, want decayed value between 0 and 1", last[0])
	}
	if math.Abs(float64(last[1])-0.2) > 1e-6 {
		t.Errorf("band 1 = %f, want steady 0.2", last[1])
	}
}
