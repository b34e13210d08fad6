package golivereverb

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// pcm16Tolerance covers 16-bit quantization and the asymmetric full scale
const pcm16Tolerance = 2.0 / 32768.0

func TestLoadClipWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.wav")
	samples := []float32{0, 0.5, -0.5, 0.25, -1, 1}
	if err := WriteWAVFile(path, samples, 22050); err != nil {
		t.Fatalf("Failed to write WAV file: %v", err)
	}

	clip, err := LoadClip(path)
	if err != nil {
		t.Fatalf("Failed to load clip: %v", err)
	}
	if clip.SampleRate != 22050 || clip.SourceChannels != 1 {
		t.Errorf("Expected 22050 Hz mono, got %d Hz with %d channels", clip.SampleRate, clip.SourceChannels)
	}
	if clip.FilePath != path {
		t.Errorf("Expected file path %s, got %s", path, clip.FilePath)
	}
	assertSamplesNear(t, clip.Samples, samples, pcm16Tolerance)
}

func TestLoadClipStereoWAVIsDownmixed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create WAV file: %v", err)
	}

	encoder := wav.NewEncoder(file, 44100, 16, 2, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: 44100},
		Data:           []int{16384, 0, -16384, -16384, 8192, 24576},
		SourceBitDepth: 16,
	}
	if err := encoder.Write(buf); err != nil {
		t.Fatalf("Failed to encode stereo data: %v", err)
	}
	if err := encoder.Close(); err != nil {
		t.Fatalf("Failed to finish WAV file: %v", err)
	}
	file.Close()

	clip, err := LoadClip(path)
	if err != nil {
		t.Fatalf("Failed to load clip: %v", err)
	}
	if clip.SourceChannels != 2 {
		t.Errorf("Expected 2 source channels, got %d", clip.SourceChannels)
	}
	assertSamplesNear(t, clip.Samples, []float32{0.25, -0.5, 0.5}, pcm16Tolerance)
	if d := clip.Duration(); d <= 0 {
		t.Errorf("Expected a positive duration, got %v", d)
	}
}

func TestLoadClipErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadClip(filepath.Join(dir, "missing.wav")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected a not-exist error, got %v", err)
	}

	txt := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txt, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadClip(txt); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}

	for _, name := range []string{"bad.wav", "bad.flac", "bad.ogg"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("definitely not audio data"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadClip(path); err == nil {
			t.Errorf("Expected an error decoding %s", name)
		}
	}
}

func TestDownmix(t *testing.T) {
	mono := []float32{0.1, 0.2}
	if got := downmix(mono, 1); &got[0] != &mono[0] {
		t.Error("Expected mono input to pass through unchanged")
	}

	got := downmix([]float32{1, 0, 0.5, 0.5, -1, 1, 0.3}, 2)
	assertSamples(t, got, []float32{0.5, 0.5, 0})

	got = downmix([]float32{0.3, 0.3, 0.3, 0.9, 0, 0}, 3)
	assertSamples(t, got, []float32{0.3, 0.3})
}

func TestFullScale(t *testing.T) {
	tests := map[int]float64{
		16: 32768,
		24: 8388608,
		32: 2147483648,
		12: 32768,
	}
	for depth, want := range tests {
		if got := fullScale(depth); got != want {
			t.Errorf("fullScale(%d): expected %v, got %v", depth, want, got)
		}
	}
}
