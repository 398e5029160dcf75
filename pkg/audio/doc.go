// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Buffer types, sentinel errors and sample conversion
// Package audio provides the fundamental audio types shared by the synth,
// encode, decode and output packages.
//
// This package defines:
//   - Format: describes an audio stream (codec, sample rate, channels, bit depth)
//   - Buffer: channel-planar floating point PCM in the range [-1, 1]
//   - ErrInvalidBuffer / ErrEncoderUnavailable: the two encoder failure kinds
//
// It also provides conversions between float samples and 16-bit PCM:
//
//	buf, err := audio.NewBuffer(2, 44100, 44100)
//	buf.Data[0][0] = 0.5
//	s := audio.FloatToInt16(buf.Data[0][0]) // 16383
package audio
