//go:build !oto
// +build !oto

package golivereverb

// OtoStream stub for builds without oto playback
type OtoStream struct{}

// NewOtoStream returns ErrOtoDisabled
func NewOtoStream(bridge *AudioBridge, clip *Clip, loop bool) (*OtoStream, error) {
	return nil, ErrOtoDisabled
}

// Done returns a closed channel for the stub stream
func (s *OtoStream) Done() <-chan struct{} {
	done := make(chan struct{})
	close(done)
	return done
}

// Start returns an error for the stub stream
func (s *OtoStream) Start() error {
	return ErrOtoDisabled
}

// Stop returns an error for the stub stream
func (s *OtoStream) Stop() error {
	return ErrOtoDisabled
}

// Close returns an error for the stub stream
func (s *OtoStream) Close() error {
	return ErrOtoDisabled
}
