//go:build jack
// +build jack

package golivereverb

import (
	"testing"

	"github.com/xthexder/go-jack"
)

func TestAudioSamplesSharesPortBuffer(t *testing.T) {
	port := []jack.AudioSample{0.1, -0.2, 0.3}

	samples := audioSamples(port)
	if len(samples) != len(port) {
		t.Fatalf("Expected %d samples, got %d", len(port), len(samples))
	}

	samples[1] = 0.5
	if port[1] != 0.5 {
		t.Errorf("Expected writes to reach the port buffer, got %v", port[1])
	}

	if audioSamples(nil) != nil {
		t.Error("Expected an empty port buffer to map to nil")
	}
}

func TestJackProcessCallbackUsesBridge(t *testing.T) {
	bridge := newTestBridge(t, ReverbParameters{Gain: 2, WetDry: 0, Decay: 0}, 515, 4)

	js := &JackStream{bridge: bridge}
	js.running.Store(true)

	in := []jack.AudioSample{0.1, 0.2, 0.3, 0.4}
	out := make([]jack.AudioSample, 4)
	js.process(audioSamples(in), audioSamples(out))

	want := []float32{0.2, 0.4, 0.6, 0.8}
	for i := range want {
		if diff := float32(out[i]) - want[i]; diff > sampleTolerance || diff < -sampleTolerance {
			t.Errorf("Sample %d: expected %v, got %v", i, want[i], out[i])
		}
	}

	js.xrunCallback()
	if bridge.Stats().StatusEvents != 1 {
		t.Errorf("Expected the xrun to be reported, got %d events", bridge.Stats().StatusEvents)
	}
}

func TestJackStopSilencesOutput(t *testing.T) {
	bridge := newTestBridge(t, ReverbParameters{Gain: 1, WetDry: 0, Decay: 0}, 515, 4)
	js := &JackStream{bridge: bridge}
	js.running.Store(true)

	in := []float32{0.5, 0.5, 0.5, 0.5}
	out := make([]float32, 4)
	js.process(in, out)
	if bridge.Stats().Blocks != 1 {
		t.Fatalf("Expected 1 block while running, got %d", bridge.Stats().Blocks)
	}

	if err := js.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := js.Stop(); err != nil {
		t.Errorf("Expected a second Stop to be a no-op, got %v", err)
	}

	out = []float32{9, 9, 9, 9}
	js.process(in, out)
	assertSamples(t, out, []float32{0, 0, 0, 0})
	if bridge.Stats().Blocks != 1 {
		t.Errorf("Expected no blocks to reach the bridge after Stop, got %d", bridge.Stats().Blocks)
	}
	if js.inFlight.Load() != 0 {
		t.Errorf("Expected no period in flight, got %d", js.inFlight.Load())
	}
}
