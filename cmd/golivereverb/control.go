package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"golivereverb"
)

// Step sizes for one key press
const (
	gainStep   = 0.1
	wetDryStep = 0.05
	decayStep  = 0.05
	delayStep  = 1000
)

// meterInterval is how often the level meter redraws
const meterInterval = 30 * time.Millisecond

// keyBinding maps a key to a relative parameter change
type keyBinding struct {
	param golivereverb.Param
	delta float64
}

var keyBindings = map[byte]keyBinding{
	'g': {golivereverb.ParamGain, -gainStep},
	'G': {golivereverb.ParamGain, gainStep},
	'w': {golivereverb.ParamWetDry, -wetDryStep},
	'W': {golivereverb.ParamWetDry, wetDryStep},
	'd': {golivereverb.ParamDecay, -decayStep},
	'D': {golivereverb.ParamDecay, decayStep},
	'l': {golivereverb.ParamDelayLength, -delayStep},
	'L': {golivereverb.ParamDelayLength, delayStep},
}

// controlSurface turns key presses on a terminal into parameter changes
type controlSurface struct {
	params *golivereverb.ParameterStore
	input  *os.File
}

func newControlSurface(params *golivereverb.ParameterStore, input *os.File) *controlSurface {
	return &controlSurface{params: params, input: input}
}

// handleKey applies the binding for b and reports whether the session should go on
func (c *controlSurface) handleKey(b byte) bool {
	switch b {
	case 'q', 'Q', 0x03, 0x1b: // q, Ctrl-C, Esc
		return false
	}
	if binding, ok := keyBindings[b]; ok {
		c.params.Nudge(binding.param, binding.delta)
		debug("Key %q: %s -> %.2f", b, binding.param, c.params.Get(binding.param))
	}
	return true
}

// Run reads keys until the user stops the session or ctx is done. When the input
// is not a terminal it only waits for ctx.
func (c *controlSurface) Run(ctx context.Context) error {
	fd := int(c.input.Fd())
	if !term.IsTerminal(fd) {
		<-ctx.Done()
		return ctx.Err()
	}

	// Raw mode so single key presses arrive without Enter and without echo
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to set raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	stop := make(chan struct{})
	defer close(stop)
	keys := readKeys(c.input, stop)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case b, ok := <-keys:
			if !ok {
				<-ctx.Done()
				return ctx.Err()
			}
			if !c.handleKey(b) {
				return errStopped
			}
		}
	}
}

// readKeys delivers bytes from r until a read fails or stop is closed, then
// closes the returned channel. A read already blocked on a terminal only
// returns with the next key press or at process exit.
func readKeys(r io.Reader, stop <-chan struct{}) <-chan byte {
	keys := make(chan byte)
	go func() {
		defer close(keys)
		buf := make([]byte, 1)
		for {
			n, err := r.Read(buf)
			if err != nil {
				return
			}
			if n == 0 {
				continue
			}
			select {
			case keys <- buf[0]:
			case <-stop:
				return
			}
		}
	}()
	return keys
}

// levelMeter polls the waveform snapshot and draws a one-line status display
type levelMeter struct {
	bridge *golivereverb.AudioBridge
	out    io.Writer
	fd     int
}

func newLevelMeter(bridge *golivereverb.AudioBridge, out *os.File) *levelMeter {
	return &levelMeter{bridge: bridge, out: out, fd: int(out.Fd())}
}

// Run redraws the meter until ctx is done. Nothing is drawn when the output is not
// a terminal.
func (m *levelMeter) Run(ctx context.Context) error {
	if !term.IsTerminal(m.fd) {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(meterInterval)
	defer ticker.Stop()

	width := 30
	if w, _, err := term.GetSize(m.fd); err == nil {
		width = max(10, w-60)
	}

	for {
		select {
		case <-ctx.Done():
			fmt.Fprint(m.out, "\r\n")
			return ctx.Err()
		case <-ticker.C:
			fmt.Fprint(m.out, "\r"+m.line(width))
		}
	}
}

// line renders the parameters and the peak of the latest block
func (m *levelMeter) line(width int) string {
	params := m.bridge.Params()
	p := params.Snapshot()
	filled := int(m.bridge.Waveform().Peak() * float32(width))
	filled = min(max(filled, 0), width)
	return fmt.Sprintf("gain %.2f  wet %.2f  decay %.2f  delay %5d  [%s%s]",
		p.Gain, p.WetDry, p.Decay, params.DelayLength(),
		strings.Repeat("#", filled), strings.Repeat(".", width-filled))
}
