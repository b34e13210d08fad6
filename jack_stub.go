//go:build !jack
// +build !jack

package golivereverb

// JackStream stub for builds without JACK support
type JackStream struct{}

// NewJackStream returns ErrJackDisabled
func NewJackStream(bridge *AudioBridge, clientName string) (*JackStream, error) {
	return nil, ErrJackDisabled
}

// SampleRate returns 0 for the stub stream
func (js *JackStream) SampleRate() int {
	return 0
}

// Start returns an error for the stub stream
func (js *JackStream) Start() error {
	return ErrJackDisabled
}

// Stop returns an error for the stub stream
func (js *JackStream) Stop() error {
	return ErrJackDisabled
}

// Close returns an error for the stub stream
func (js *JackStream) Close() error {
	return ErrJackDisabled
}
