package golivereverb

import (
	"math"
	"testing"
)

// sampleTolerance absorbs float32 rounding in expected sample values
const sampleTolerance = 1e-6

// newTestDelayLine creates a delay line or fails the test
func newTestDelayLine(t *testing.T, length int) *DelayLine {
	t.Helper()
	line, err := NewDelayLine(length)
	if err != nil {
		t.Fatalf("Failed to create delay line: %v", err)
	}
	return line
}

// newTestEngine creates a reverb engine or fails the test
func newTestEngine(t *testing.T, delayLength int) *ReverbEngine {
	t.Helper()
	engine, err := NewReverbEngine(delayLength)
	if err != nil {
		t.Fatalf("Failed to create reverb engine: %v", err)
	}
	return engine
}

// newTestBridge creates a bridge with the given parameters and delay
// length, bypassing the store's range clamp so short lines can be tested
func newTestBridge(t *testing.T, params ReverbParameters, delayLength, blockSize int) *AudioBridge {
	t.Helper()
	store := NewParameterStore(params, MinDelayLength)
	bridge, err := NewAudioBridge(store, blockSize)
	if err != nil {
		t.Fatalf("Failed to create audio bridge: %v", err)
	}
	if delayLength != MinDelayLength {
		if err := bridge.engine.line.Resize(delayLength); err != nil {
			t.Fatalf("Failed to resize delay line: %v", err)
		}
	}
	return bridge
}

// assertSamples checks two sample slices for equality within sampleTolerance
func assertSamples(t *testing.T, got, want []float32) {
	t.Helper()
	assertSamplesNear(t, got, want, sampleTolerance)
}

// assertSamplesNear checks two sample slices for equality within tolerance
func assertSamplesNear(t *testing.T, got, want []float32, tolerance float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Expected %d samples, got %d", len(want), len(got))
	}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > tolerance {
			t.Errorf("Sample %d: expected %.6f, got %.6f", i, want[i], got[i])
		}
	}
}

// assertInRange checks that every sample lies in [-1, 1]
func assertInRange(t *testing.T, samples []float32) {
	t.Helper()
	for i, s := range samples {
		if s < -1 || s > 1 || s != s {
			t.Fatalf("Sample %d out of range: %v", i, s)
		}
	}
}

// sineBlock creates n samples of a sine wave at freq Hz and the given amplitude
func sineBlock(n int, freq, amplitude float64, sampleRate int) []float32 {
	block := make([]float32, n)
	for i := range block {
		block[i] = float32(amplitude * math.Sin(2.0*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return block
}

// impulse creates n samples with a single 1.0 at position 0
func impulse(n int) []float32 {
	block := make([]float32, n)
	if n > 0 {
		block[0] = 1
	}
	return block
}

// peak returns the largest absolute sample value
func peak(samples []float32) float32 {
	var p float32
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > p {
			p = s
		}
	}
	return p
}

// referenceProcess computes one block the way a whole-array implementation
// would: every read sees the buffer as it was at block start and, for indices
// visited more than once, the last write wins
func referenceProcess(buffer []float32, cursor int, in []float32, p ReverbParameters) ([]float32, []float32) {
	n := len(buffer)
	old := append([]float32(nil), buffer...)
	next := append([]float32(nil), buffer...)
	out := make([]float32, len(in))
	wet, dry := float32(p.WetDry), float32(1-p.WetDry)
	decay, gain := float32(p.Decay), float32(p.Gain)
	for i, x := range in {
		idx := (cursor + i) % n
		out[i] = x*dry + old[idx]*wet
		next[idx] = x + old[idx]*decay
	}
	for i := range out {
		out[i] = clipSample(out[i] * gain)
	}
	return out, next
}
