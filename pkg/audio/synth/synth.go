// ABOUTME: Chord synthesizer producing fixed-length float PCM buffers
// ABOUTME: Sums sine tones and duplicates the result to every channel
package synth

import (
	"fmt"
	"math"
	"time"

	"github.com/ion-space/spaceconvert/pkg/audio"
)

const (
	DefaultSampleRate = 44100
	DefaultChannels   = 2
	DefaultDuration   = 5 * time.Second
	DefaultAmplitude  = 0.1
)

// Tone is one sine component of a chord
type Tone struct {
	Frequency float64
	Amplitude float64
}

// DefaultChord is A4, C#5 and E5
var DefaultChord = []Tone{
	{Frequency: 440, Amplitude: DefaultAmplitude},
	{Frequency: 554.37, Amplitude: DefaultAmplitude},
	{Frequency: 659.25, Amplitude: DefaultAmplitude},
}

// Params describes what a Synthesizer renders
type Params struct {
	SampleRate int
	Channels   int
	Duration   time.Duration
	Tones      []Tone
}

// DefaultParams returns the 5 second, 44.1 kHz stereo chord
func DefaultParams() Params {
	tones := make([]Tone, len(DefaultChord))
	copy(tones, DefaultChord)

	return Params{
		SampleRate: DefaultSampleRate,
		Channels:   DefaultChannels,
		Duration:   DefaultDuration,
		Tones:      tones,
	}
}

// NumSamples returns the per-channel sample count for these params
func (p Params) NumSamples() int {
	if p.SampleRate <= 0 || p.Duration <= 0 {
		return 0
	}
	return int(int64(p.SampleRate) * int64(p.Duration) / int64(time.Second))
}

// Sample returns the chord value at t seconds
func (p Params) Sample(t float64) float64 {
	var sample float64
	for _, tone := range p.Tones {
		// explicit conversion keeps the product from being fused into the sum
		sample += float64(math.Sin(2*math.Pi*tone.Frequency*t) * tone.Amplitude)
	}
	return sample
}

// Synthesizer renders Params into buffers obtained from a Context
type Synthesizer struct {
	ctx    Context
	params Params
}

// New creates a synthesizer. A nil ctx makes Synthesize report ErrEncoderUnavailable.
func New(ctx Context, params Params) *Synthesizer {
	return &Synthesizer{
		ctx:    ctx,
		params: params,
	}
}

// NewDefault creates a synthesizer for DefaultParams backed by process memory
func NewDefault() *Synthesizer {
	return New(NewMemoryContext(), DefaultParams())
}

// Params returns the synthesizer parameters
func (s *Synthesizer) Params() Params {
	return s.params
}

// Synthesize renders the chord into a new buffer
func (s *Synthesizer) Synthesize() (*audio.Buffer, error) {
	if s.ctx == nil {
		return nil, fmt.Errorf("%w: no rendering context", audio.ErrEncoderUnavailable)
	}

	numSamples := s.params.NumSamples()
	buf, err := s.ctx.NewBuffer(s.params.Channels, numSamples, s.params.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate buffer: %w", err)
	}

	rate := float64(s.params.SampleRate)
	for ch := range buf.Data {
		channelData := buf.Data[ch]
		// samples stay float64; rounding to float32 would move a few frames by one LSB
		for i := range channelData {
			channelData[i] = s.params.Sample(float64(i) / rate)
		}
	}

	return buf, nil
}
