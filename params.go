package golivereverb

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/GeoffreyPlitt/debuggo"
)

var paramsDebug = debuggo.Debug("livereverb:params")

// Parameter ranges accepted by the store
const (
	MinGain        = 0.1
	MaxGain        = 5.0
	MinWetDry      = 0.0
	MaxWetDry      = 1.0
	MinDecay       = 0.0
	MaxDecay       = 0.95
	MinDelayLength = 515
	MaxDelayLength = 44100

	DefaultGain        = 1.0
	DefaultWetDry      = 0.3
	DefaultDecay       = 0.5
	DefaultDelayLength = 22050 // 0.5 sec at 44.1kHz
)

// Param names a live-tunable parameter
type Param int

const (
	ParamGain Param = iota
	ParamWetDry
	ParamDecay
	ParamDelayLength
)

var paramNames = map[Param]string{
	ParamGain:        "gain",
	ParamWetDry:      "wetdry",
	ParamDecay:       "decay",
	ParamDelayLength: "delay",
}

func (p Param) String() string {
	if name, ok := paramNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Param(%d)", int(p))
}

// ParseParam resolves a parameter name as typed on a control surface
func ParseParam(name string) (Param, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gain":
		return ParamGain, nil
	case "wetdry", "wet", "mix":
		return ParamWetDry, nil
	case "decay", "feedback":
		return ParamDecay, nil
	case "delay", "delaylength", "size":
		return ParamDelayLength, nil
	}
	return 0, fmt.Errorf("unknown parameter %q", name)
}

// ReverbParameters is an immutable snapshot of the mix parameters
type ReverbParameters struct {
	Gain   float64
	WetDry float64
	Decay  float64
}

// DefaultParameters returns the power-on parameter set
func DefaultParameters() ReverbParameters {
	return ReverbParameters{
		Gain:   DefaultGain,
		WetDry: DefaultWetDry,
		Decay:  DefaultDecay,
	}
}

// Clamped returns a copy with every field forced into its valid range.
// NaN values fall to the lower bound.
func (p ReverbParameters) Clamped() ReverbParameters {
	return ReverbParameters{
		Gain:   clampParam(p.Gain, MinGain, MaxGain),
		WetDry: clampParam(p.WetDry, MinWetDry, MaxWetDry),
		Decay:  clampParam(p.Decay, MinDecay, MaxDecay),
	}
}

func clampParam(value, lo, hi float64) float64 {
	if math.IsNaN(value) || value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// ClampDelayLength forces a requested delay length into [MinDelayLength, MaxDelayLength]
func ClampDelayLength(n int) int {
	return min(max(n, MinDelayLength), MaxDelayLength)
}

// pendingDelay is a zeroed buffer waiting to be swapped in by the audio thread
type pendingDelay struct {
	buffer []float32
}

// ParameterStore holds the live parameters shared between a control surface and
// the audio thread. Readers never lock: snapshots are published through an atomic
// pointer to an immutable value, so a reader sees either the old or the new tuple.
type ParameterStore struct {
	current     atomic.Pointer[ReverbParameters]
	pending     atomic.Pointer[pendingDelay]
	delayLength atomic.Int64
}

// NewParameterStore creates a store holding the given parameters and delay length,
// both clamped into range
func NewParameterStore(params ReverbParameters, delayLength int) *ParameterStore {
	ps := &ParameterStore{}
	clamped := params.Clamped()
	ps.current.Store(&clamped)
	ps.delayLength.Store(int64(ClampDelayLength(delayLength)))
	return ps
}

// Snapshot returns the current parameter tuple
func (ps *ParameterStore) Snapshot() ReverbParameters {
	return *ps.current.Load()
}

// Set updates one parameter, clamping it into range. Setting ParamDelayLength
// behaves like SetDelayLength with the value truncated to whole samples.
func (ps *ParameterStore) Set(param Param, value float64) {
	if param == ParamDelayLength {
		if math.IsNaN(value) {
			value = MinDelayLength
		}
		ps.SetDelayLength(int(math.Max(math.Min(value, MaxDelayLength), MinDelayLength)))
		return
	}
	ps.update(func(p *ReverbParameters) {
		switch param {
		case ParamGain:
			p.Gain = value
		case ParamWetDry:
			p.WetDry = value
		case ParamDecay:
			p.Decay = value
		}
	})
}

// Get returns the current value of one parameter
func (ps *ParameterStore) Get(param Param) float64 {
	p := ps.Snapshot()
	switch param {
	case ParamGain:
		return p.Gain
	case ParamWetDry:
		return p.WetDry
	case ParamDecay:
		return p.Decay
	case ParamDelayLength:
		return float64(ps.DelayLength())
	}
	return 0
}

// Nudge moves a parameter by delta relative to its current value
func (ps *ParameterStore) Nudge(param Param, delta float64) {
	ps.Set(param, ps.Get(param)+delta)
}

// SetGain sets the output gain
func (ps *ParameterStore) SetGain(gain float64) { ps.Set(ParamGain, gain) }

// SetWetDry sets the wet/dry mix ratio
func (ps *ParameterStore) SetWetDry(wetDry float64) { ps.Set(ParamWetDry, wetDry) }

// SetDecay sets the feedback decay
func (ps *ParameterStore) SetDecay(decay float64) { ps.Set(ParamDecay, decay) }

// update applies fn to a copy of the current tuple and publishes it.
// Concurrent writers retry until their compare-and-swap wins.
func (ps *ParameterStore) update(fn func(p *ReverbParameters)) {
	for {
		old := ps.current.Load()
		next := *old
		fn(&next)
		next = next.Clamped()
		if ps.current.CompareAndSwap(old, &next) {
			paramsDebug("Parameters updated: gain=%.2f wetdry=%.2f decay=%.2f", next.Gain, next.WetDry, next.Decay)
			return
		}
	}
}

// SetDelayLength requests a new delay length. The zeroed buffer is allocated here,
// on the caller's goroutine, and handed to the audio thread at its next block
// boundary. A newer request replaces one that has not been picked up yet.
func (ps *ParameterStore) SetDelayLength(n int) {
	n = ClampDelayLength(n)
	ps.delayLength.Store(int64(n))
	ps.pending.Store(&pendingDelay{buffer: make([]float32, n)})
	paramsDebug("Delay length change requested: %d samples", n)
}

// DelayLength returns the most recently requested delay length
func (ps *ParameterStore) DelayLength() int {
	return int(ps.delayLength.Load())
}

// takePendingDelay hands over a pending delay buffer, if any
func (ps *ParameterStore) takePendingDelay() []float32 {
	p := ps.pending.Swap(nil)
	if p == nil {
		return nil
	}
	return p.buffer
}
