// ABOUTME: Rendering context used to allocate synthesis buffers
// ABOUTME: MemoryContext allocates on the heap with an upper size bound
package synth

import (
	"fmt"

	"github.com/ion-space/spaceconvert/pkg/audio"
)

// DefaultMaxSamples bounds a single channel at ten minutes of 48 kHz audio
const DefaultMaxSamples = 48000 * 60 * 10

// Context allocates the buffers a Synthesizer renders into
type Context interface {
	NewBuffer(channels, length, sampleRate int) (*audio.Buffer, error)
}

// MemoryContext allocates buffers in process memory
type MemoryContext struct {
	// MaxSamples is the per-channel allocation limit. Zero means DefaultMaxSamples.
	MaxSamples int
}

// NewMemoryContext creates a context with the default allocation limit
func NewMemoryContext() *MemoryContext {
	return &MemoryContext{MaxSamples: DefaultMaxSamples}
}

// NewBuffer allocates a zeroed buffer, refusing requests over the limit
func (c *MemoryContext) NewBuffer(channels, length, sampleRate int) (*audio.Buffer, error) {
	limit := c.MaxSamples
	if limit == 0 {
		limit = DefaultMaxSamples
	}
	if length > limit {
		return nil, fmt.Errorf("%w: %d samples per channel exceeds limit of %d",
			audio.ErrEncoderUnavailable, length, limit)
	}

	return audio.NewBuffer(channels, length, sampleRate)
}
