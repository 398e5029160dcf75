// ABOUTME: Sentinel errors for audio synthesis and encoding
// ABOUTME: Callers match them with errors.Is
package audio

import "errors"

var (
	// ErrInvalidBuffer is returned when a buffer has mismatched channel
	// lengths or a non-positive channel count or sample rate.
	ErrInvalidBuffer = errors.New("invalid audio buffer")

	// ErrEncoderUnavailable is returned when no rendering context can be
	// acquired to synthesize audio.
	ErrEncoderUnavailable = errors.New("audio encoder unavailable")
)
