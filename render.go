package golivereverb

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/GeoffreyPlitt/debuggo"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var renderDebug = debuggo.Debug("livereverb:render")

const (
	// tailFloor is the reflection level (-60 dB) below which a tail is cut
	tailFloor = 0.001
	// maxTailReflections caps the tail for decays close to the maximum
	maxTailReflections = 64
)

// ReverbTail returns how many samples of silence it takes for the reflections of
// the last input to fall below -60 dB
func ReverbTail(params ReverbParameters, delayLength int) int {
	p := params.Clamped()
	if p.WetDry == 0 {
		return 0
	}
	reflections := 1
	if p.Decay > 0 {
		extra := math.Ceil(math.Log(tailFloor/p.WetDry) / math.Log(p.Decay))
		if extra > 0 {
			reflections += int(math.Min(extra, maxTailReflections-1))
		}
	}
	return reflections * ClampDelayLength(delayLength)
}

// Render feeds samples through the bridge block by block, followed by tail samples
// of silence, and returns exactly len(samples)+tail output samples. It drives
// OnBlock the same way a device driver would, so pending parameter changes apply
// at block boundaries.
func (b *AudioBridge) Render(samples []float32, tail int) []float32 {
	total := len(samples) + max(tail, 0)
	rendered := make([]float32, 0, total)

	in := make([]float32, b.blockSize)
	out := make([]float32, b.blockSize)
	for pos := 0; pos < total; pos += b.blockSize {
		n := 0
		if pos < len(samples) {
			n = copy(in, samples[pos:])
		}
		clear(in[n:])

		b.OnBlock(in, out)
		rendered = append(rendered, out[:min(b.blockSize, total-pos)]...)
	}

	renderDebug("Rendered %d samples in %d blocks", len(rendered), b.Stats().Blocks)
	return rendered
}

// RenderFile decodes inPath, runs it through a bridge built from cfg and writes
// the result to outPath as a 16-bit mono WAV file. The sample rate of the input
// file overrides cfg.SampleRate.
func RenderFile(inPath, outPath string, cfg Config) (*Clip, error) {
	clip, err := LoadClip(inPath)
	if err != nil {
		return nil, err
	}

	cfg.SampleRate = clip.SampleRate
	bridge, err := cfg.NewBridge()
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", inPath, err)
	}

	tail := ReverbTail(cfg.Parameters(), cfg.DelayLength)
	rendered := bridge.Render(clip.Samples, tail)

	if err := WriteWAVFile(outPath, rendered, clip.SampleRate); err != nil {
		return nil, err
	}

	renderDebug("Rendered %s -> %s (%d samples, tail %d)", inPath, outPath, len(rendered), tail)
	return &Clip{
		FilePath:       outPath,
		Samples:        rendered,
		SampleRate:     clip.SampleRate,
		SourceChannels: 1,
	}, nil
}

// WriteWAVFile writes mono samples to a 16-bit PCM WAV file
func WriteWAVFile(filePath string, samples []float32, sampleRate int) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create WAV file %s: %w", filePath, err)
	}
	if err := WriteWAV(file, samples, sampleRate); err != nil {
		file.Close()
		return fmt.Errorf("failed to write WAV file %s: %w", filePath, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close WAV file %s: %w", filePath, err)
	}
	return nil
}

// WriteWAV encodes mono samples as 16-bit PCM WAV. Samples are clipped to [-1, 1].
func WriteWAV(w io.WriteSeeker, samples []float32, sampleRate int) error {
	encoder := wav.NewEncoder(w, sampleRate, 16, 1, 1)

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(math.Round(float64(clipSample(s)) * 32767.0))
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := encoder.Write(buf); err != nil {
		return fmt.Errorf("failed to encode samples: %w", err)
	}
	return encoder.Close()
}
