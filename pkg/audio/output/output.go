// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for playback backends and the Play loop feeding them
package output

import (
	"context"
	"fmt"
	"time"
)

// framesPerWrite is 20ms at 48 kHz
const framesPerWrite = 960

// Output represents an audio output device
type Output interface {
	// Open initializes the output device
	Open(sampleRate, channels int) error

	// Write outputs interleaved samples (blocks until accepted)
	Write(samples []int16) error

	// Drain blocks until everything written has been played
	Drain() error

	// Close releases output resources
	Close() error
}

// Source provides interleaved 16-bit samples
type Source interface {
	Read(samples []int16) (int, error)
	SampleRate() int
	Channels() int
}

// Play opens out for src and writes duration worth of audio, stopping early
// when ctx is cancelled. The output is drained but not closed.
func Play(ctx context.Context, out Output, src Source, duration time.Duration) error {
	sampleRate, channels := src.SampleRate(), src.Channels()
	if err := out.Open(sampleRate, channels); err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}

	totalFrames := int(int64(sampleRate) * int64(duration) / int64(time.Second))
	chunk := make([]int16, framesPerWrite*channels)

	for played := 0; played < totalFrames; {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		frames := min(framesPerWrite, totalFrames-played)
		n, err := src.Read(chunk[:frames*channels])
		if err != nil {
			return fmt.Errorf("source read failed: %w", err)
		}
		if n == 0 {
			break
		}

		if err := out.Write(chunk[:n]); err != nil {
			return err
		}
		played += n / channels
	}

	return out.Drain()
}
