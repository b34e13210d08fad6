package golivereverb

import (
	"fmt"
	"time"
)

const (
	DefaultSampleRate = 44100
	DefaultBlockSize  = 1024
)

// Config describes a stream and the effect settings it starts with
type Config struct {
	SampleRate  int     // Sample rate in Hz
	BlockSize   int     // Samples per callback block
	Gain        float64 // Output gain, 0.1 to 5.0
	WetDry      float64 // Wet/dry mix, 0.0 to 1.0
	Decay       float64 // Feedback decay, 0.0 to 0.95
	DelayLength int     // Delay line length in samples, 515 to 44100
}

// DefaultConfig returns the settings the processor starts with when nothing is specified
func DefaultConfig() Config {
	return Config{
		SampleRate:  DefaultSampleRate,
		BlockSize:   DefaultBlockSize,
		Gain:        DefaultGain,
		WetDry:      DefaultWetDry,
		Decay:       DefaultDecay,
		DelayLength: DefaultDelayLength,
	}
}

// Validate checks the parts of the configuration that cannot be clamped.
// Effect parameters are clamped later and never fail validation.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidConfig, c.SampleRate)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("%w: block size must be positive, got %d", ErrInvalidConfig, c.BlockSize)
	}
	return nil
}

// Parameters returns the effect settings as a clamped snapshot
func (c Config) Parameters() ReverbParameters {
	return ReverbParameters{Gain: c.Gain, WetDry: c.WetDry, Decay: c.Decay}.Clamped()
}

// BlockDuration is the real-time deadline for processing one block
func (c Config) BlockDuration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(c.BlockSize) * time.Second / time.Duration(c.SampleRate)
}

// NewBridge validates the configuration and builds a parameter store and an
// audio bridge from it
func (c Config) NewBridge() (*AudioBridge, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return NewAudioBridge(NewParameterStore(c.Parameters(), c.DelayLength), c.BlockSize)
}
