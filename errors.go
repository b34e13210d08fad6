package golivereverb

import "errors"

var (
	ErrInvalidDelayLength = errors.New("delay length must be at least 1 sample")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrUnsupportedFormat  = errors.New("unsupported audio format")
	ErrEmptyClip          = errors.New("clip contains no samples")
	ErrStreamClosed       = errors.New("stream already closed")
	ErrJackDisabled       = errors.New("JACK support not enabled - rebuild with '-tags jack' and ensure JACK development headers are installed")
	ErrOtoDisabled        = errors.New("oto playback not enabled - rebuild with '-tags oto'")
)
