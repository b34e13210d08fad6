package golivereverb

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/GeoffreyPlitt/debuggo"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

var clipDebug = debuggo.Debug("livereverb:clip")

// Clip is a decoded audio file downmixed to mono
type Clip struct {
	FilePath       string    // Original file path
	Samples        []float32 // Mono samples in [-1, 1]
	SampleRate     int       // Sample rate in Hz
	SourceChannels int       // Channel count of the file before downmixing
}

// Duration returns the clip length in seconds
func (c *Clip) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// LoadClip decodes a WAV, FLAC, MP3 or Ogg Vorbis file into a mono clip
func LoadClip(filePath string) (*Clip, error) {
	clipDebug("Loading clip: %s", filePath)

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file %s: %w", filePath, err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(filePath))

	var clip *Clip
	switch ext {
	case ".wav":
		clip, err = decodeWAV(file)
	case ".flac":
		clip, err = decodeFLAC(file)
	case ".mp3":
		clip, err = decodeMP3(file)
	case ".ogg", ".oga":
		clip, err = decodeVorbis(file)
	default:
		return nil, fmt.Errorf("%w: %s (supported: .wav, .flac, .mp3, .ogg)", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filePath, err)
	}
	if len(clip.Samples) == 0 {
		return nil, fmt.Errorf("%s: %w", filePath, ErrEmptyClip)
	}

	clip.FilePath = filePath
	clipDebug("Loaded clip: %s (rate: %d Hz, channels: %d, length: %d samples)",
		filePath, clip.SampleRate, clip.SourceChannels, len(clip.Samples))

	return clip, nil
}

// decodeWAV decodes PCM WAV data
func decodeWAV(r io.ReadSeeker) (*Clip, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	scale := fullScale(int(decoder.BitDepth))
	interleaved := make([]float32, len(buf.Data))
	for i, s := range buf.Data {
		interleaved[i] = float32(float64(s) / scale)
	}

	channels := buf.Format.NumChannels
	return &Clip{
		Samples:        downmix(interleaved, channels),
		SampleRate:     buf.Format.SampleRate,
		SourceChannels: channels,
	}, nil
}

// decodeFLAC decodes a FLAC stream frame by frame
func decodeFLAC(r io.Reader) (*Clip, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create FLAC decoder: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	if info == nil {
		return nil, errors.New("no stream info available")
	}

	channels := int(info.NChannels)
	scale := fullScale(int(info.BitsPerSample))

	var samples []float32
	for {
		frame, err := stream.ParseNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read FLAC frame: %w", err)
		}

		// Average the subframes of each sample position
		for i := range frame.Subframes[0].Samples {
			var sum float64
			for ch := 0; ch < channels; ch++ {
				sum += float64(frame.Subframes[ch].Samples[i]) / scale
			}
			samples = append(samples, float32(sum/float64(channels)))
		}
	}

	return &Clip{
		Samples:        samples,
		SampleRate:     int(info.SampleRate),
		SourceChannels: channels,
	}, nil
}

// decodeMP3 decodes MP3 data. The decoder always produces 16-bit little-endian stereo.
func decodeMP3(r io.Reader) (*Clip, error) {
	decoder, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create MP3 decoder: %w", err)
	}

	raw, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("failed to read MP3 data: %w", err)
	}

	const channels = 2
	interleaved := make([]float32, len(raw)/2)
	for i := range interleaved {
		v := int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
		interleaved[i] = float32(v) / 32768.0
	}

	return &Clip{
		Samples:        downmix(interleaved, channels),
		SampleRate:     decoder.SampleRate(),
		SourceChannels: channels,
	}, nil
}

// decodeVorbis decodes an Ogg Vorbis stream
func decodeVorbis(r io.Reader) (*Clip, error) {
	interleaved, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read Ogg Vorbis data: %w", err)
	}
	if format == nil {
		return nil, errors.New("no Ogg Vorbis format information")
	}

	return &Clip{
		Samples:        downmix(interleaved, format.Channels),
		SampleRate:     format.SampleRate,
		SourceChannels: format.Channels,
	}, nil
}

// fullScale returns the magnitude of full-scale for a PCM bit depth
func fullScale(bitDepth int) float64 {
	switch bitDepth {
	case 8:
		return 128.0
	case 16:
		return 32768.0
	case 24:
		return 8388608.0
	case 32:
		return 2147483648.0
	default:
		return 32768.0 // Default to 16-bit
	}
}

// downmix averages interleaved frames into a single channel
func downmix(interleaved []float32, channels int) []float32 {
	if channels <= 1 {
		return interleaved
	}
	frames := len(interleaved) / channels
	mono := make([]float32, frames)
	for f := 0; f < frames; f++ {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += interleaved[f*channels+ch]
		}
		mono[f] = sum / float32(channels)
	}
	return mono
}
