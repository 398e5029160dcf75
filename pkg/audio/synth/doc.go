// ABOUTME: Tone synthesis package for placeholder audio
// ABOUTME: Provides the chord Synthesizer, rendering Context and streaming ChordSource
// Package synth renders deterministic multi-tone PCM.
//
// The default chord is an A major triad (440 Hz, 554.37 Hz, 659.25 Hz) at
// 0.1 amplitude per tone, 44.1 kHz stereo, five seconds long. Every channel
// receives the same samples.
//
// Example:
//
//	buf, err := synth.NewDefault().Synthesize()
//	if errors.Is(err, audio.ErrEncoderUnavailable) {
//	    // no rendering context in this environment
//	}
package synth
