// ABOUTME: Streaming chord source for live playback
// ABOUTME: Produces interleaved 16-bit samples continuing from the last read
package synth

import (
	"sync"

	"github.com/ion-space/spaceconvert/pkg/audio"
)

// ChordSource streams Params as interleaved int16 frames
type ChordSource struct {
	sampleIndex uint64
	sampleMu    sync.Mutex
	params      Params
}

// NewChordSource creates a streaming source. Zero rate or channels use the defaults.
func NewChordSource(params Params) *ChordSource {
	if params.SampleRate == 0 {
		params.SampleRate = DefaultSampleRate
	}
	if params.Channels == 0 {
		params.Channels = DefaultChannels
	}

	return &ChordSource{params: params}
}

// Read fills samples with whole interleaved frames and returns the number written
func (s *ChordSource) Read(samples []int16) (int, error) {
	s.sampleMu.Lock()
	defer s.sampleMu.Unlock()

	channels := s.params.Channels
	numFrames := len(samples) / channels

	for i := 0; i < numFrames; i++ {
		t := float64(s.sampleIndex+uint64(i)) / float64(s.params.SampleRate)
		pcmValue := audio.FloatToInt16(s.params.Sample(t))

		for ch := 0; ch < channels; ch++ {
			samples[i*channels+ch] = pcmValue
		}
	}

	s.sampleIndex += uint64(numFrames)

	return numFrames * channels, nil
}

func (s *ChordSource) SampleRate() int { return s.params.SampleRate }
func (s *ChordSource) Channels() int   { return s.params.Channels }
func (s *ChordSource) Close() error    { return nil }
