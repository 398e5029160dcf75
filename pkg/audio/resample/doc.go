// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts float buffers between sample rates
// Package resample provides audio sample rate conversion.
//
// Uses linear interpolation for converting between sample rates.
// Handles both upsampling and downsampling.
//
// Example:
//
//	r := resample.New(48000, 44100)
//	out, err := r.Buffer(buf)
package resample
