package golivereverb

import (
	"math"
	"sync/atomic"
)

// WaveformSnapshot holds the most recently produced output block for display.
// There is one writer (the audio thread) and any number of readers polling on a
// timer. The writer fills the back buffer and flips an atomic index; a reader that
// is slower than two blocks may see a torn block, which is fine for a display.
// Samples are stored as float32 bit patterns in atomic words so the display side
// never races with the audio thread.
type WaveformSnapshot struct {
	buffers [2][]atomic.Uint32
	lengths [2]atomic.Int32
	front   atomic.Int32
	seq     atomic.Uint64
}

// NewWaveformSnapshot creates a snapshot able to hold blocks of up to capacity samples
func NewWaveformSnapshot(capacity int) *WaveformSnapshot {
	capacity = max(capacity, 1)
	return &WaveformSnapshot{
		buffers: [2][]atomic.Uint32{
			make([]atomic.Uint32, capacity),
			make([]atomic.Uint32, capacity),
		},
	}
}

// Capacity returns the largest block the snapshot keeps in full
func (w *WaveformSnapshot) Capacity() int {
	return len(w.buffers[0])
}

// Publish replaces the snapshot with block. Samples beyond Capacity are dropped.
// It does not allocate.
func (w *WaveformSnapshot) Publish(block []float32) {
	back := 1 - w.front.Load()
	dst := w.buffers[back]
	n := min(len(block), len(dst))
	for i := 0; i < n; i++ {
		dst[i].Store(math.Float32bits(block[i]))
	}
	w.lengths[back].Store(int32(n))
	w.front.Store(back)
	w.seq.Add(1)
}

// Load copies the latest block into dst and returns the number of samples copied
// together with the publish sequence number. A sequence of 0 means nothing has been
// published yet.
func (w *WaveformSnapshot) Load(dst []float32) (int, uint64) {
	seq := w.seq.Load()
	front := w.front.Load()
	n := min(int(w.lengths[front].Load()), len(dst))
	src := w.buffers[front]
	for i := 0; i < n; i++ {
		dst[i] = math.Float32frombits(src[i].Load())
	}
	return n, seq
}

// Latest returns a copy of the latest block
func (w *WaveformSnapshot) Latest() []float32 {
	dst := make([]float32, w.Capacity())
	n, _ := w.Load(dst)
	return dst[:n]
}

// Peak returns the largest absolute sample value of the latest block
func (w *WaveformSnapshot) Peak() float32 {
	front := w.front.Load()
	n := int(w.lengths[front].Load())
	var peak float32
	for i := 0; i < n; i++ {
		s := math.Float32frombits(w.buffers[front][i].Load())
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}
