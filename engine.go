package golivereverb

import (
	"fmt"
	"math"

	"github.com/GeoffreyPlitt/debuggo"
)

var engineDebug = debuggo.Debug("livereverb:engine")

// ReverbEngine is a single-tap comb-filter reverb. The wet signal and the feedback
// path share one circular delay line, so each pass through the line adds another
// decayed reflection.
type ReverbEngine struct {
	line *DelayLine
}

// NewReverbEngine creates an engine with a zeroed delay line of delayLength samples
func NewReverbEngine(delayLength int) (*ReverbEngine, error) {
	line, err := NewDelayLine(delayLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create reverb engine: %w", err)
	}
	engineDebug("Reverb engine initialized: delay=%d samples", delayLength)
	return &ReverbEngine{line: line}, nil
}

// DelayLine exposes the engine's delay line
func (e *ReverbEngine) DelayLine() *DelayLine {
	return e.line
}

// Process runs one block through the reverb, writing len(in) samples into out.
// If out is shorter than in, only len(out) samples are processed. in and out may
// be the same slice. Returns the number of samples processed.
//
// Every read of the delay line sees the buffer as it was at the start of the
// block. When the block is longer than the line, an index is visited more than
// once and only the feedback from the last visit is kept.
//
// Process never allocates and never fails: parameters are clamped into range and
// the output is clipped to [-1, 1].
func (e *ReverbEngine) Process(out, in []float32, params ReverbParameters) int {
	n := min(len(in), len(out))
	if n == 0 {
		return 0
	}

	p := params.Clamped()
	wet := float32(p.WetDry)
	dry := float32(1 - p.WetDry)
	decay := float32(p.Decay)
	gain := float32(p.Gain)

	buf := e.line.buffer
	size := len(buf)

	// Samples before start revisit indices that a later sample in this block
	// will overwrite, so they only read.
	start := 0
	if n > size {
		start = n - size
	}

	idx := e.line.cursor
	for i := 0; i < start; i++ {
		out[i] = finiteOrZero(in[i])*dry + buf[idx]*wet
		idx++
		if idx == size {
			idx = 0
		}
	}

	// From here on each index is visited exactly once
	for i := start; i < n; i++ {
		x := finiteOrZero(in[i])
		delayed := buf[idx]
		out[i] = x*dry + delayed*wet
		buf[idx] = finiteOrZero(x + delayed*decay)
		idx++
		if idx == size {
			idx = 0
		}
	}

	for i := 0; i < n; i++ {
		out[i] = clipSample(out[i] * gain)
	}

	e.line.Advance(n)
	return n
}

// Render processes a block into a freshly allocated output slice.
// Use it for offline work; the audio thread calls Process with its own buffers.
func (e *ReverbEngine) Render(in []float32, params ReverbParameters) []float32 {
	out := make([]float32, len(in))
	e.Process(out, in, params)
	return out
}

// Reset silences the delay line
func (e *ReverbEngine) Reset() {
	e.line.Reset()
}

// clipSample clamps a sample to [-1, 1]; NaN becomes silence
func clipSample(x float32) float32 {
	if x != x {
		return 0
	}
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}

// finiteOrZero keeps NaN and Inf out of the feedback loop
func finiteOrZero(x float32) float32 {
	if x != x || x > math.MaxFloat32 || x < -math.MaxFloat32 {
		return 0
	}
	return x
}
