package golivereverb

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/GeoffreyPlitt/debuggo"
)

var bridgeDebug = debuggo.Debug("livereverb:bridge")

// statusQueueSize bounds the driver status events waiting to be logged
const statusQueueSize = 64

// StatusFlags are side-channel conditions reported by the audio driver
type StatusFlags uint8

const (
	StatusInputUnderflow StatusFlags = 1 << iota
	StatusInputOverflow
	StatusOutputUnderflow
	StatusOutputOverflow
	StatusXRun
)

func (s StatusFlags) String() string {
	if s == 0 {
		return "ok"
	}
	var parts []string
	if s&StatusInputUnderflow != 0 {
		parts = append(parts, "input underflow")
	}
	if s&StatusInputOverflow != 0 {
		parts = append(parts, "input overflow")
	}
	if s&StatusOutputUnderflow != 0 {
		parts = append(parts, "output underflow")
	}
	if s&StatusOutputOverflow != 0 {
		parts = append(parts, "output overflow")
	}
	if s&StatusXRun != 0 {
		parts = append(parts, "xrun")
	}
	return strings.Join(parts, ", ")
}

// StatusEvent is a driver status report tagged with the block count at the time
type StatusEvent struct {
	Flags StatusFlags
	Block uint64
}

// BridgeStats are running counters kept by an AudioBridge
type BridgeStats struct {
	Blocks        uint64
	StatusEvents  uint64
	DroppedStatus uint64
	DelaySwaps    uint64
}

// AudioBridge is the per-block entry point called by an audio driver.
// OnBlock runs on the driver's real-time thread: it takes no locks, performs no
// I/O and does not allocate. Everything it shares with other goroutines goes
// through the ParameterStore, the WaveformSnapshot or atomic counters.
type AudioBridge struct {
	params    *ParameterStore
	engine    *ReverbEngine
	waveform  *WaveformSnapshot
	blockSize int

	status chan StatusEvent

	blocks        atomic.Uint64
	statusEvents  atomic.Uint64
	droppedStatus atomic.Uint64
	delaySwaps    atomic.Uint64
}

// NewAudioBridge creates a bridge processing blocks of blockSize samples with the
// parameters held in params. The delay line starts at params.DelayLength().
func NewAudioBridge(params *ParameterStore, blockSize int) (*AudioBridge, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: nil parameter store", ErrInvalidConfig)
	}
	if blockSize < 1 {
		return nil, fmt.Errorf("%w: block size must be positive, got %d", ErrInvalidConfig, blockSize)
	}

	engine, err := NewReverbEngine(params.DelayLength())
	if err != nil {
		return nil, fmt.Errorf("failed to create audio bridge: %w", err)
	}
	// The engine already has a buffer of the current length
	params.takePendingDelay()

	bridgeDebug("Audio bridge created (block size: %d, delay: %d samples)", blockSize, params.DelayLength())

	return &AudioBridge{
		params:    params,
		engine:    engine,
		waveform:  NewWaveformSnapshot(blockSize),
		blockSize: blockSize,
		status:    make(chan StatusEvent, statusQueueSize),
	}, nil
}

// OnBlock processes one block of input into out and returns the filled output.
// A pending delay length change is applied before the block starts, never in the
// middle of it. If out is longer than in, the remainder is silenced.
func (b *AudioBridge) OnBlock(in, out []float32) []float32 {
	if buf := b.params.takePendingDelay(); buf != nil {
		if b.engine.line.Swap(buf) {
			b.delaySwaps.Add(1)
		}
	}

	params := b.params.Snapshot()
	n := b.engine.Process(out, in, params)
	clear(out[n:])

	b.waveform.Publish(out)
	b.blocks.Add(1)
	return out
}

// ReportStatus records a driver status condition. It never blocks: when the log
// queue is full the event is counted as dropped.
func (b *AudioBridge) ReportStatus(flags StatusFlags) {
	if flags == 0 {
		return
	}
	b.statusEvents.Add(1)
	select {
	case b.status <- StatusEvent{Flags: flags, Block: b.blocks.Load()}:
	default:
		b.droppedStatus.Add(1)
	}
}

// LogStatus logs driver status events until ctx is done. Run it on its own
// goroutine so that logging I/O stays off the audio thread.
func (b *AudioBridge) LogStatus(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			if dropped := b.droppedStatus.Load(); dropped > 0 {
				bridgeDebug("Status logger stopping, %d events dropped", dropped)
			}
			return ctx.Err()
		case ev := <-b.status:
			bridgeDebug("Audio status: %s (block %d)", ev.Flags, ev.Block)
		}
	}
}

// Stats returns a copy of the bridge counters
func (b *AudioBridge) Stats() BridgeStats {
	return BridgeStats{
		Blocks:        b.blocks.Load(),
		StatusEvents:  b.statusEvents.Load(),
		DroppedStatus: b.droppedStatus.Load(),
		DelaySwaps:    b.delaySwaps.Load(),
	}
}

// BlockSize returns the block size the bridge was configured with
func (b *AudioBridge) BlockSize() int {
	return b.blockSize
}

// Params returns the parameter store feeding the bridge
func (b *AudioBridge) Params() *ParameterStore {
	return b.params
}

// Waveform returns the snapshot of the latest output block
func (b *AudioBridge) Waveform() *WaveformSnapshot {
	return b.waveform
}

// Engine returns the reverb engine. It must not be touched while a stream is
// invoking OnBlock.
func (b *AudioBridge) Engine() *ReverbEngine {
	return b.engine
}
