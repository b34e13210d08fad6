//go:build jack
// +build jack

package golivereverb

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/GeoffreyPlitt/debuggo"
	"github.com/xthexder/go-jack"
)

var jackDebug = debuggo.Debug("livereverb:jack")

// JackStream is a duplex JACK client: it reads a mono input port, runs each period
// through an AudioBridge and writes the result to a mono output port
type JackStream struct {
	client       *jack.Client
	bridge       *AudioBridge
	audioInPort  *jack.Port
	audioOutPort *jack.Port
	sampleRate   uint32
	bufferSize   uint32

	// The client stays activated from the first Start until Close; Stop gates
	// the process callback instead
	running  atomic.Bool
	inFlight atomic.Int32

	mu        sync.Mutex // Only for start/stop/close
	activated bool
	closed    bool
}

// NewJackStream opens a JACK client and registers its audio ports. The bridge's
// block size should match the JACK period; a mismatch is logged and processing
// still follows the period JACK asks for.
func NewJackStream(bridge *AudioBridge, clientName string) (*JackStream, error) {
	jackDebug("Creating JACK client: %s", clientName)

	client, status := jack.ClientOpen(clientName, jack.NoStartServer)
	if status != 0 {
		return nil, fmt.Errorf("failed to open JACK client: %w", jack.StrError(status))
	}

	js := &JackStream{
		client:     client,
		bridge:     bridge,
		sampleRate: client.GetSampleRate(),
		bufferSize: client.GetBufferSize(),
	}

	if int(js.bufferSize) != bridge.BlockSize() {
		jackDebug("JACK period %d differs from bridge block size %d", js.bufferSize, bridge.BlockSize())
	}

	if code := client.SetProcessCallback(js.processCallback); code != 0 {
		client.Close()
		return nil, fmt.Errorf("failed to set JACK process callback: %w", jack.StrError(code))
	}
	if code := client.SetXRunCallback(js.xrunCallback); code != 0 {
		jackDebug("Failed to set xrun callback: %v", jack.StrError(code))
	}
	client.OnShutdown(func() {
		jackDebug("JACK server shut down")
	})

	js.audioInPort = client.PortRegister("audio_in", jack.DEFAULT_AUDIO_TYPE, jack.PortIsInput, 0)
	if js.audioInPort == nil {
		client.Close()
		return nil, fmt.Errorf("failed to register audio input port")
	}
	js.audioOutPort = client.PortRegister("audio_out", jack.DEFAULT_AUDIO_TYPE, jack.PortIsOutput, 0)
	if js.audioOutPort == nil {
		client.Close()
		return nil, fmt.Errorf("failed to register audio output port")
	}

	jackDebug("JACK client created successfully (sample rate: %d Hz, buffer size: %d)",
		js.sampleRate, js.bufferSize)

	return js, nil
}

// SampleRate returns the JACK server sample rate
func (js *JackStream) SampleRate() int {
	return int(js.sampleRate)
}

// Start activates the JACK client on first use and lets periods through to the bridge
func (js *JackStream) Start() error {
	js.mu.Lock()
	defer js.mu.Unlock()

	if js.closed {
		return ErrStreamClosed
	}
	jackDebug("Starting JACK client")

	if !js.activated {
		if code := js.client.Activate(); code != 0 {
			return fmt.Errorf("failed to activate JACK client: %w", jack.StrError(code))
		}
		js.activated = true
	}
	js.running.Store(true)

	jackDebug("JACK client activated successfully")
	return nil
}

// Stop halts processing. Once it returns the bridge is no longer called and the
// output port carries silence.
func (js *JackStream) Stop() error {
	js.mu.Lock()
	defer js.mu.Unlock()

	if js.closed {
		return ErrStreamClosed
	}
	if !js.running.Swap(false) {
		return nil
	}
	jackDebug("Stopping JACK client")
	js.waitIdle()
	jackDebug("JACK client stopped")
	return nil
}

// waitIdle waits for a period that was already inside the bridge to finish
func (js *JackStream) waitIdle() {
	for js.inFlight.Load() != 0 {
		runtime.Gosched()
	}
}

// Close stops the stream if needed and closes the JACK client connection
func (js *JackStream) Close() error {
	if err := js.Stop(); err != nil && err != ErrStreamClosed {
		return err
	}

	js.mu.Lock()
	defer js.mu.Unlock()

	if js.closed {
		return nil
	}
	jackDebug("Closing JACK client")

	if code := js.client.Close(); code != 0 {
		return fmt.Errorf("failed to close JACK client: %w", jack.StrError(code))
	}
	js.closed = true

	jackDebug("JACK client closed")
	return nil
}

// processCallback is called by JACK on its real-time thread for each period
func (js *JackStream) processCallback(nframes uint32) int {
	in := audioSamples(js.audioInPort.GetBuffer(nframes))
	out := audioSamples(js.audioOutPort.GetBuffer(nframes))
	js.process(in, out)
	return 0
}

// process runs one period through the bridge, or writes silence while stopped.
// inFlight is raised before running is checked so that Stop never misses a
// period that got past the check.
func (js *JackStream) process(in, out []float32) {
	js.inFlight.Add(1)
	defer js.inFlight.Add(-1)

	if !js.running.Load() {
		clear(out)
		return
	}
	js.bridge.OnBlock(in, out)
}

// xrunCallback reports an over- or underrun to the bridge
func (js *JackStream) xrunCallback() int {
	js.bridge.ReportStatus(StatusXRun)
	return 0
}

// audioSamples views a JACK port buffer as float32 samples without copying
func audioSamples(buf []jack.AudioSample) []float32 {
	if len(buf) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&buf[0])), len(buf))
}
