package audio

import "testing"

func TestDeriveBandsSilenceIsAllZero(t *testing.T) {
	t.Parallel()

	batch := make([]float32, 512) // digital silence
	bands := DeriveBands(batch, NumBands)

	if len(bands) != NumBands {
		t.Fatalf("len(bands) = %d, want %d", len(bands), NumBands)
	}
	for i, v := range bands {
		if v != 0 {
			t.Errorf("band %d = %f, want exactly 0 for silence", i, v)
		}
	}
}

func TestDeriveBandsEmptyBatch(t *testing.T) {
	t.Parallel()

	bands := DeriveBands(nil, NumBands)
	if len(bands) != NumBands {
		t.Fatalf("len(bands) = %d, want %d", len(bands), NumBands)
	}
	for i, v := range bands {
		if v != 0 {
			t.Errorf("band %d = %f, want 0 for empty batch", i, v)
		}
	}
}

func TestDeriveBandsSpeechLevelsInRange(t *testing.T) {
	t.Parallel()

	// Alternating signal well above the silence threshold.
	batch := make([]float32, 512)
	for i := range batch {
		if i%2 == 0 {
			batch[i] = 0.3
		} else {
			batch[i] = -0.3
		}
	}

	bands := DeriveBands(batch, NumBands)
	var nonzero int
	for i, v := range bands {
		if v < 0 || v > 1 {
			t.Errorf("band %d = %f, out of [0,1]", i, v)
		}
		if v > 0 {
			nonzero++
		}
	}
	if nonzero == 0 {
		t.Error("expected nonzero bands for a loud batch")
	}
}

func TestDeriveBandsQuietSignalBelowThreshold(t *testing.T) {
	t.Parallel()

	batch := make([]float32, 512)
	for i := range batch {
		batch[i] = 0.001
	}

	for i, v := range DeriveBands(batch, NumBands) {
		if v != 0 {
			t.Errorf("band %d = %f, want 0 below the silence threshold", i, v)
		}
	}
}
