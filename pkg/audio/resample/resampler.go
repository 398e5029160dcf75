// ABOUTME: Simple linear resampler for converting audio sample rates
// ABOUTME: Used to normalize decoded files before WAV encoding
package resample

import (
	"fmt"

	"github.com/ion-space/spaceconvert/pkg/audio"
)

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	ratio      float64
}

// New creates a new resampler
func New(inputRate, outputRate int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		ratio:      float64(inputRate) / float64(outputRate),
	}
}

// Resample converts one channel using linear interpolation.
// output must hold OutputSamplesNeeded(len(input)) samples; the count written is returned.
func (r *Resampler) Resample(input []float64, output []float64) int {
	if len(input) == 0 {
		return 0
	}

	outIdx := 0
	for outIdx < len(output) {
		// Calculate which input sample we need
		inputPos := float64(outIdx) * r.ratio
		inputIdx := int(inputPos)

		if inputIdx >= len(input) {
			break
		}

		if inputIdx == len(input)-1 {
			// Hold the last sample instead of reading past the end
			output[outIdx] = input[inputIdx]
		} else {
			frac := inputPos - float64(inputIdx)
			output[outIdx] = input[inputIdx]*(1.0-frac) + input[inputIdx+1]*frac
		}

		outIdx++
	}

	return outIdx
}

// OutputSamplesNeeded calculates how many output samples will be produced from input samples
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	return int(int64(inputSamples) * int64(r.outputRate) / int64(r.inputRate))
}

// Buffer resamples every channel of buf to the output rate
func (r *Resampler) Buffer(buf *audio.Buffer) (*audio.Buffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	if buf.SampleRate != r.inputRate {
		return nil, fmt.Errorf("resampler expects %d Hz input, got %d Hz", r.inputRate, buf.SampleRate)
	}
	if r.outputRate <= 0 {
		return nil, fmt.Errorf("invalid output rate: %d", r.outputRate)
	}
	if r.inputRate == r.outputRate {
		return buf, nil
	}

	out, err := audio.NewBuffer(buf.Channels(), r.OutputSamplesNeeded(buf.Length()), r.outputRate)
	if err != nil {
		return nil, err
	}

	for ch := range buf.Data {
		n := r.Resample(buf.Data[ch], out.Data[ch])
		out.Data[ch] = out.Data[ch][:n]
	}

	return out, nil
}
