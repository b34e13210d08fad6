package golivereverb

import (
	"fmt"

	"github.com/GeoffreyPlitt/debuggo"
)

var delayDebug = debuggo.Debug("livereverb:delay")

// DelayLine is a fixed-capacity circular sample buffer.
// The cursor always points at the next sample to be read or written and all
// indexing is taken modulo the buffer length.
type DelayLine struct {
	buffer []float32
	cursor int
}

// NewDelayLine creates a zero-filled delay line of the given length
func NewDelayLine(length int) (*DelayLine, error) {
	if length < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDelayLength, length)
	}
	return &DelayLine{buffer: make([]float32, length)}, nil
}

// Len returns the number of samples held by the line
func (d *DelayLine) Len() int {
	return len(d.buffer)
}

// Cursor returns the current read/write position
func (d *DelayLine) Cursor() int {
	return d.cursor
}

// index maps an offset from the cursor onto the buffer
func (d *DelayLine) index(offset int) int {
	return (d.cursor + offset) % len(d.buffer)
}

// At returns the sample offset positions ahead of the cursor
func (d *DelayLine) At(offset int) float32 {
	return d.buffer[d.index(offset)]
}

// Write stores values[i] at (cursor + i) mod N. The cursor does not move.
// When len(values) exceeds the line length, later values overwrite earlier ones.
func (d *DelayLine) Write(values []float32) {
	n := len(d.buffer)
	idx := d.cursor
	for _, v := range values {
		d.buffer[idx] = v
		idx++
		if idx == n {
			idx = 0
		}
	}
}

// Read fills dst[i] with the sample at (cursor + i) mod N
func (d *DelayLine) Read(dst []float32) {
	n := len(d.buffer)
	idx := d.cursor
	for i := range dst {
		dst[i] = d.buffer[idx]
		idx++
		if idx == n {
			idx = 0
		}
	}
}

// Advance moves the cursor forward by count samples
func (d *DelayLine) Advance(count int) {
	n := len(d.buffer)
	step := count % n
	if step < 0 {
		step += n
	}
	d.cursor = (d.cursor + step) % n
}

// Resize replaces the buffer with a new zero-filled one and rewinds the cursor.
// It allocates, so callers on the audio thread use Swap instead.
func (d *DelayLine) Resize(length int) error {
	if length < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidDelayLength, length)
	}
	delayDebug("Resizing delay line: %d -> %d samples", len(d.buffer), length)
	d.buffer = make([]float32, length)
	d.cursor = 0
	return nil
}

// Swap installs a ready-made buffer and rewinds the cursor without allocating.
// The buffer is expected to be zeroed; empty buffers are ignored.
func (d *DelayLine) Swap(buffer []float32) bool {
	if len(buffer) == 0 {
		return false
	}
	d.buffer = buffer
	d.cursor = 0
	return true
}

// Reset clears the line and rewinds the cursor
func (d *DelayLine) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.cursor = 0
}
