// ABOUTME: WAV audio decoder
// ABOUTME: Decodes canonical 16-bit PCM WAV files to float buffers
package decode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ion-space/spaceconvert/pkg/audio"
	"github.com/ion-space/spaceconvert/pkg/audio/encode"
)

// WAVDecoder decodes canonical PCM WAV files
type WAVDecoder struct{}

// NewWAV creates a new WAV decoder
func NewWAV(format audio.Format) (Decoder, error) {
	if format.Codec != "wav" {
		return nil, fmt.Errorf("invalid codec for WAV decoder: %s", format.Codec)
	}

	return &WAVDecoder{}, nil
}

// Decode converts a WAV stream to a buffer. A data chunk shorter than its
// declared size is decoded up to the last whole frame.
func (d *WAVDecoder) Decode(r io.Reader) (*audio.Buffer, error) {
	headerBytes := make([]byte, encode.HeaderSize)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, fmt.Errorf("failed to read WAV header: %w", err)
	}

	header, err := encode.ParseHeader(headerBytes)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, int64(header.DataSize)))
	if err != nil {
		return nil, fmt.Errorf("failed to read WAV data: %w", err)
	}

	channels := int(header.NumChannels)
	frameBytes := channels * encode.BytesPerSample
	numFrames := len(data) / frameBytes

	buf, err := audio.NewBuffer(channels, numFrames, int(header.SampleRate))
	if err != nil {
		return nil, err
	}

	for i := 0; i < numFrames; i++ {
		for ch := 0; ch < channels; ch++ {
			sample16 := int16(binary.LittleEndian.Uint16(data[i*frameBytes+ch*encode.BytesPerSample:]))
			buf.Data[ch][i] = audio.Int16ToFloat(sample16)
		}
	}

	return buf, nil
}

// Close releases decoder resources
func (d *WAVDecoder) Close() error {
	return nil
}
