// ABOUTME: Audio type definitions
// ABOUTME: Defines audio formats, float PCM buffers and sample conversion
package audio

import (
	"fmt"
	"math"
	"time"
)

const (
	// Int16Scale is the factor between a float sample and 16-bit PCM.
	// Positive and negative full scale both map to ±32767.
	Int16Scale = 32767
)

// Format describes audio stream format
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// Buffer holds channel-planar float PCM, one slice per channel
type Buffer struct {
	SampleRate int
	Data       [][]float64
}

// NewBuffer allocates a zeroed buffer of length samples per channel
func NewBuffer(channels, length, sampleRate int) (*Buffer, error) {
	if channels < 1 || sampleRate <= 0 || length < 0 {
		return nil, fmt.Errorf("%w: channels=%d length=%d sampleRate=%d",
			ErrInvalidBuffer, channels, length, sampleRate)
	}

	data := make([][]float64, channels)
	for ch := range data {
		data[ch] = make([]float64, length)
	}

	return &Buffer{SampleRate: sampleRate, Data: data}, nil
}

// Channels returns the number of channels
func (b *Buffer) Channels() int {
	return len(b.Data)
}

// Length returns the number of samples per channel (channel 0)
func (b *Buffer) Length() int {
	if len(b.Data) == 0 {
		return 0
	}
	return len(b.Data[0])
}

// Duration returns the playback length of the buffer
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Length()) * time.Second / time.Duration(b.SampleRate)
}

// Validate checks the invariants every encoder relies on
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil buffer", ErrInvalidBuffer)
	}
	if len(b.Data) < 1 {
		return fmt.Errorf("%w: channel count must be positive", ErrInvalidBuffer)
	}
	if b.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidBuffer, b.SampleRate)
	}

	length := len(b.Data[0])
	for ch, samples := range b.Data[1:] {
		if len(samples) != length {
			return fmt.Errorf("%w: channel %d has %d samples, channel 0 has %d",
				ErrInvalidBuffer, ch+1, len(samples), length)
		}
	}

	return nil
}

// Format returns the 16-bit PCM format describing this buffer
func (b *Buffer) Format(codec string) Format {
	return Format{
		Codec:      codec,
		SampleRate: b.SampleRate,
		Channels:   b.Channels(),
		BitDepth:   16,
	}
}

// Clamp limits a float sample to [-1, 1]. NaN maps to silence.
func Clamp(sample float64) float64 {
	if math.IsNaN(sample) {
		return 0
	}
	return math.Max(-1, math.Min(1, sample))
}

// FloatToInt16 converts a float sample to 16-bit PCM, truncating toward zero
func FloatToInt16(sample float64) int16 {
	return int16(Clamp(sample) * Int16Scale)
}

// Int16ToFloat converts a 16-bit PCM sample to float
func Int16ToFloat(sample int16) float64 {
	return float64(sample) / Int16Scale
}

// IntToFloat converts a signed sample of the given bit depth to float
func IntToFloat(sample int32, bitDepth int) float64 {
	if bitDepth <= 1 {
		return 0
	}
	full := float64(int64(1)<<(bitDepth-1) - 1)
	return Clamp(float64(sample) / full)
}
