// ABOUTME: MP3 audio decoder
// ABOUTME: Decodes MP3 streams to float buffers with go-mp3
package decode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
	"github.com/ion-space/spaceconvert/pkg/audio"
)

// go-mp3 always produces 16-bit little-endian stereo
const (
	mp3Channels   = 2
	mp3FrameBytes = mp3Channels * 2
)

// MP3Decoder decodes MP3 audio
type MP3Decoder struct{}

// NewMP3 creates a new MP3 decoder
func NewMP3(format audio.Format) (Decoder, error) {
	if format.Codec != "mp3" {
		return nil, fmt.Errorf("invalid codec for MP3 decoder: %s", format.Codec)
	}

	return &MP3Decoder{}, nil
}

// Decode converts an MP3 stream to a stereo buffer
func (d *MP3Decoder) Decode(r io.Reader) (*audio.Buffer, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode error: %w", err)
	}

	numFrames := len(pcm) / mp3FrameBytes
	buf, err := audio.NewBuffer(mp3Channels, numFrames, decoder.SampleRate())
	if err != nil {
		return nil, err
	}

	for i := 0; i < numFrames; i++ {
		for ch := 0; ch < mp3Channels; ch++ {
			sample16 := int16(binary.LittleEndian.Uint16(pcm[i*mp3FrameBytes+ch*2:]))
			buf.Data[ch][i] = audio.Int16ToFloat(sample16)
		}
	}

	return buf, nil
}

// Close releases decoder resources
func (d *MP3Decoder) Close() error {
	return nil
}
