// ABOUTME: Tests for audio types
// ABOUTME: Tests buffer validation and sample conversion functions
package audio

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestFloatToInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected int16
	}{
		{"zero", 0, 0},
		{"full scale", 1, 32767},
		{"negative full scale", -1, -32767},
		{"clamped positive", 1.5, 32767},
		{"clamped negative", -1.5, -32767},
		{"half", 0.5, 16383},
		{"negative half truncates toward zero", -0.5, -16383},
		{"tiny positive", 0.00001, 0},
		{"nan", math.NaN(), 0},
		{"positive infinity", math.Inf(1), 32767},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FloatToInt16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestIntToFloat(t *testing.T) {
	tests := []struct {
		name     string
		sample   int32
		bitDepth int
		expected float64
	}{
		{"16-bit max", 32767, 16, 1},
		{"16-bit zero", 0, 16, 0},
		{"24-bit max", 8388607, 24, 1},
		{"24-bit min clamps", -8388608, 24, -1},
		{"8-bit half", 64, 8, 64.0 / 127.0},
		{"invalid depth", 1, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IntToFloat(tt.sample, tt.bitDepth)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestRoundTripInt16(t *testing.T) {
	samples := []int16{0, 100, -100, 1000, -1000, 32767, -32767}

	for _, original := range samples {
		// truncation may lose at most one step
		result := FloatToInt16(Int16ToFloat(original))
		if diff := int(result) - int(original); diff > 1 || diff < -1 {
			t.Errorf("round-trip failed: %d -> %d", original, result)
		}
	}
}

func TestNewBuffer(t *testing.T) {
	buf, err := NewBuffer(2, 100, 44100)
	if err != nil {
		t.Fatalf("NewBuffer() failed: %v", err)
	}
	if buf.Channels() != 2 {
		t.Errorf("expected 2 channels, got %d", buf.Channels())
	}
	if buf.Length() != 100 {
		t.Errorf("expected length 100, got %d", buf.Length())
	}
	if err := buf.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}

	if _, err := NewBuffer(0, 100, 44100); !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("expected ErrInvalidBuffer for zero channels, got %v", err)
	}
	if _, err := NewBuffer(2, 100, 0); !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("expected ErrInvalidBuffer for zero sample rate, got %v", err)
	}
}

func TestBufferValidate(t *testing.T) {
	tests := []struct {
		name    string
		buf     *Buffer
		wantErr bool
	}{
		{"nil", nil, true},
		{"no channels", &Buffer{SampleRate: 44100}, true},
		{"zero rate", &Buffer{Data: [][]float64{{0}}}, true},
		{"negative rate", &Buffer{SampleRate: -1, Data: [][]float64{{0}}}, true},
		{"length mismatch", &Buffer{SampleRate: 44100, Data: [][]float64{make([]float64, 100), make([]float64, 99)}}, true},
		{"empty channels", &Buffer{SampleRate: 44100, Data: [][]float64{{}, {}}}, false},
		{"mono", &Buffer{SampleRate: 8000, Data: [][]float64{{0.1, 0.2}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.buf.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidBuffer) {
					t.Errorf("expected ErrInvalidBuffer, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestBufferDuration(t *testing.T) {
	buf, err := NewBuffer(1, 22050, 44100)
	if err != nil {
		t.Fatalf("NewBuffer() failed: %v", err)
	}
	if buf.Duration() != 500*time.Millisecond {
		t.Errorf("expected 500ms, got %v", buf.Duration())
	}

	format := buf.Format("wav")
	if format.Channels != 1 || format.SampleRate != 44100 || format.BitDepth != 16 || format.Codec != "wav" {
		t.Errorf("unexpected format: %+v", format)
	}
}
