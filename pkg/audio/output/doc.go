// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides Output interface, the oto backend and a bounded Play loop
// Package output provides audio playback.
//
// Oto is the only backend; it plays interleaved 16-bit PCM through the
// platform audio device.
//
// Example:
//
//	out := output.NewOto()
//	err := output.Play(ctx, out, synth.NewChordSource(synth.DefaultParams()), 5*time.Second)
package output
