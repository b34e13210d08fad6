//go:build oto
// +build oto

package golivereverb

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/GeoffreyPlitt/debuggo"
	"github.com/ebitengine/oto/v3"
)

var otoDebug = debuggo.Debug("livereverb:oto")

// OtoStream plays a clip through an AudioBridge on the default output device.
// oto pulls bytes through Read; each pull is served from whole bridge blocks so
// parameter changes still land on block boundaries.
type OtoStream struct {
	ctx    *oto.Context
	player *oto.Player
	bridge *AudioBridge

	source []float32
	loop   bool
	pos    int // next source sample
	tail   int // silent samples still to run after the source ends
	inTail bool

	in, out        []float32
	outPos, outLen int

	mu       sync.Mutex // Only for start/stop/close
	closed   bool
	done     chan struct{}
	doneOnce sync.Once
}

// NewOtoStream opens the output device at the clip's sample rate. With loop set the
// clip repeats until the stream is stopped; otherwise playback ends after the
// reverb tail has died away and Done is closed.
func NewOtoStream(bridge *AudioBridge, clip *Clip, loop bool) (*OtoStream, error) {
	if clip == nil || len(clip.Samples) == 0 {
		return nil, ErrEmptyClip
	}

	otoDebug("Opening oto context (sample rate: %d Hz, block size: %d)", clip.SampleRate, bridge.BlockSize())

	blockDuration := time.Duration(bridge.BlockSize()) * time.Second / time.Duration(clip.SampleRate)
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   clip.SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   2 * blockDuration,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open audio output: %w", err)
	}
	<-ready

	stream := &OtoStream{
		ctx:    ctx,
		bridge: bridge,
		source: clip.Samples,
		loop:   loop,
		in:     make([]float32, bridge.BlockSize()),
		out:    make([]float32, bridge.BlockSize()),
		done:   make(chan struct{}),
	}
	stream.player = ctx.NewPlayer(stream)

	otoDebug("oto stream ready (%d samples, loop: %v)", len(clip.Samples), loop)
	return stream, nil
}

// Read serves float32 little-endian samples to oto
func (s *OtoStream) Read(p []byte) (int, error) {
	n := 0
	for n+4 <= len(p) {
		if s.outPos == s.outLen {
			if !s.nextBlock() {
				s.doneOnce.Do(func() { close(s.done) })
				if n == 0 {
					return 0, io.EOF
				}
				return n, nil
			}
		}
		binary.LittleEndian.PutUint32(p[n:], math.Float32bits(s.out[s.outPos]))
		s.outPos++
		n += 4
	}
	return n, nil
}

// nextBlock fills the input block from the source and runs it through the bridge.
// It returns false once the source and its tail are used up.
func (s *OtoStream) nextBlock() bool {
	filled := 0
	for filled < len(s.in) {
		if s.pos < len(s.source) {
			c := copy(s.in[filled:], s.source[s.pos:])
			filled += c
			s.pos += c
			continue
		}
		if s.loop {
			s.pos = 0
			continue
		}
		break
	}

	if filled == 0 {
		// Sized from the parameters in effect when the source runs dry
		if !s.inTail {
			s.inTail = true
			s.tail = ReverbTail(s.bridge.Params().Snapshot(), s.bridge.Params().DelayLength())
		}
		if s.tail <= 0 {
			return false
		}
		s.tail -= len(s.in)
	}
	clear(s.in[filled:])

	s.bridge.OnBlock(s.in, s.out)
	s.outPos = 0
	s.outLen = len(s.out)
	return true
}

// Done is closed when a non-looping stream has played its clip and tail
func (s *OtoStream) Done() <-chan struct{} {
	return s.done
}

// Start begins playback
func (s *OtoStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStreamClosed
	}
	otoDebug("Starting playback")
	s.player.Play()
	return nil
}

// Stop pauses playback; Read is no longer called once it returns
func (s *OtoStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStreamClosed
	}
	otoDebug("Stopping playback")
	s.player.Pause()
	return nil
}

// Close stops playback and releases the player
func (s *OtoStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	otoDebug("Closing player")
	if err := s.player.Close(); err != nil {
		return fmt.Errorf("failed to close player: %w", err)
	}
	return nil
}
