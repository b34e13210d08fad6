package golivereverb

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should validate: %v", err)
	}
	if cfg.SampleRate != 44100 || cfg.BlockSize != 1024 {
		t.Errorf("Unexpected stream defaults: %d Hz, %d samples", cfg.SampleRate, cfg.BlockSize)
	}

	// 1024 samples at 44.1kHz is a ~23ms deadline
	if d := cfg.BlockDuration(); d < 23*time.Millisecond || d > 24*time.Millisecond {
		t.Errorf("Expected a block duration of ~23ms, got %v", d)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }},
		{"negative block size", func(c *Config) { c.BlockSize = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
			if _, err := cfg.NewBridge(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected NewBridge to fail with ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestConfigNewBridgeClampsEffectSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gain = 100
	cfg.Decay = 1
	cfg.DelayLength = 10

	bridge, err := cfg.NewBridge()
	if err != nil {
		t.Fatalf("Out of range effect settings must not fail: %v", err)
	}
	p := bridge.Params().Snapshot()
	if p.Gain != MaxGain || p.Decay != MaxDecay {
		t.Errorf("Expected clamped parameters, got %+v", p)
	}
	if bridge.Engine().DelayLine().Len() != MinDelayLength {
		t.Errorf("Expected delay line of %d samples, got %d", MinDelayLength, bridge.Engine().DelayLine().Len())
	}
	if bridge.BlockSize() != cfg.BlockSize {
		t.Errorf("Expected block size %d, got %d", cfg.BlockSize, bridge.BlockSize())
	}
}
