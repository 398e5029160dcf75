// ABOUTME: Audio encoder package for serializing float PCM buffers
// ABOUTME: Provides Encoder interface and implementations for raw PCM and WAV
// Package encode provides audio encoders.
//
// Supports: raw 16-bit little-endian PCM, 16-bit PCM RIFF/WAVE.
//
// Every encoder converts samples with audio.FloatToInt16 (clamp to [-1, 1],
// scale by 32767, truncate toward zero) and interleaves frames channel 0
// first.
//
// Example:
//
//	data, err := encode.EncodeWAV(buf)
//	if errors.Is(err, audio.ErrInvalidBuffer) {
//	    // mismatched channels or bad sample rate
//	}
package encode
