// ABOUTME: PCM audio encoder
// ABOUTME: Encodes float buffers to interleaved 16-bit little-endian PCM
package encode

import (
	"encoding/binary"
	"fmt"

	"github.com/ion-space/spaceconvert/pkg/audio"
)

// BytesPerSample is the size of one 16-bit PCM sample
const BytesPerSample = 2

// PCMEncoder encodes raw PCM audio
type PCMEncoder struct {
	bitDepth int
}

// NewPCM creates a new PCM encoder
func NewPCM(format audio.Format) (Encoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM encoder: %s", format.Codec)
	}

	if format.BitDepth != 0 && format.BitDepth != 16 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16)", format.BitDepth)
	}

	return &PCMEncoder{
		bitDepth: 16,
	}, nil
}

// Encode converts the buffer to interleaved PCM bytes
func (e *PCMEncoder) Encode(buf *audio.Buffer) ([]byte, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	output := make([]byte, PCMSize(buf))
	putPCM16(output, buf, 0, buf.Length())
	return output, nil
}

// ContentType returns the MIME type for raw 16-bit PCM
func (e *PCMEncoder) ContentType() string {
	return "audio/L16"
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return nil
}

// PCMSize returns the byte length of buf as interleaved 16-bit PCM
func PCMSize(buf *audio.Buffer) int {
	return buf.Length() * buf.Channels() * BytesPerSample
}

// Int16ToBytes converts interleaved int16 samples to little-endian bytes
func Int16ToBytes(samples []int16) []byte {
	output := make([]byte, len(samples)*BytesPerSample)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(output[i*BytesPerSample:], uint16(sample))
	}
	return output
}

// putPCM16 writes frames [from, to) of buf into dst, which must hold them exactly
func putPCM16(dst []byte, buf *audio.Buffer, from, to int) {
	channels := buf.Channels()
	offset := 0
	for i := from; i < to; i++ {
		for ch := 0; ch < channels; ch++ {
			sample := audio.FloatToInt16(buf.Data[ch][i])
			binary.LittleEndian.PutUint16(dst[offset:], uint16(sample))
			offset += BytesPerSample
		}
	}
}
