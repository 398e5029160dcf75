// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes FLAC streams frame by frame with mewkiz/flac
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/ion-space/spaceconvert/pkg/audio"
	"github.com/mewkiz/flac"
)

// FLACDecoder decodes FLAC audio
type FLACDecoder struct{}

// NewFLAC creates a new FLAC decoder
func NewFLAC(format audio.Format) (Decoder, error) {
	if format.Codec != "flac" {
		return nil, fmt.Errorf("invalid codec for FLAC decoder: %s", format.Codec)
	}

	return &FLACDecoder{}, nil
}

// Decode converts a FLAC stream to a buffer at its native rate and channel count
func (d *FLACDecoder) Decode(r io.Reader) (*audio.Buffer, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	bitDepth := int(info.BitsPerSample)

	// NSamples is zero when the encoder did not know the length up front
	buf, err := audio.NewBuffer(channels, 0, int(info.SampleRate))
	if err != nil {
		return nil, err
	}
	if info.NSamples > 0 {
		for ch := range buf.Data {
			buf.Data[ch] = make([]float64, 0, info.NSamples)
		}
	}

	for {
		frame, err := stream.ParseNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("flac decode error: %w", err)
		}

		for ch := 0; ch < channels; ch++ {
			samples := frame.Subframes[ch].Samples
			for i := 0; i < int(frame.BlockSize); i++ {
				buf.Data[ch] = append(buf.Data[ch], audio.IntToFloat(samples[i], bitDepth))
			}
		}
	}

	return buf, nil
}

// Close releases decoder resources
func (d *FLACDecoder) Close() error {
	return nil
}
