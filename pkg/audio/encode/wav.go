// ABOUTME: WAV audio encoder
// ABOUTME: Serializes float buffers as 16-bit PCM RIFF/WAVE files
package encode

import (
	"fmt"
	"io"

	"github.com/ion-space/spaceconvert/pkg/audio"
)

// writeChunkFrames is how many frames WriteWAV converts per write
const writeChunkFrames = 4096

// WAVEncoder encodes buffers as WAV files
type WAVEncoder struct{}

// NewWAV creates a new WAV encoder
func NewWAV(format audio.Format) (Encoder, error) {
	if format.Codec != "wav" {
		return nil, fmt.Errorf("invalid codec for WAV encoder: %s", format.Codec)
	}

	if format.BitDepth != 0 && format.BitDepth != 16 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16)", format.BitDepth)
	}

	return &WAVEncoder{}, nil
}

// Encode converts the buffer to a complete WAV file
func (e *WAVEncoder) Encode(buf *audio.Buffer) ([]byte, error) {
	return EncodeWAV(buf)
}

// ContentType returns the MIME type for WAV
func (e *WAVEncoder) ContentType() string {
	return "audio/wav"
}

// Close releases resources
func (e *WAVEncoder) Close() error {
	return nil
}

// WAVSize returns the encoded file size for buf
func WAVSize(buf *audio.Buffer) int {
	return HeaderSize + PCMSize(buf)
}

// EncodeWAV serializes buf as a 44-byte header followed by interleaved int16 frames
func EncodeWAV(buf *audio.Buffer) ([]byte, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	output := make([]byte, WAVSize(buf))
	NewHeader(buf.Channels(), buf.SampleRate, buf.Length()).put(output)
	putPCM16(output[HeaderSize:], buf, 0, buf.Length())

	return output, nil
}

// WriteWAV streams the WAV encoding of buf to w and returns the bytes written
func WriteWAV(w io.Writer, buf *audio.Buffer) (int64, error) {
	if err := buf.Validate(); err != nil {
		return 0, err
	}

	var written int64
	n, err := w.Write(NewHeader(buf.Channels(), buf.SampleRate, buf.Length()).Bytes())
	written += int64(n)
	if err != nil {
		return written, fmt.Errorf("failed to write WAV header: %w", err)
	}

	frameBytes := buf.Channels() * BytesPerSample
	chunk := make([]byte, writeChunkFrames*frameBytes)
	length := buf.Length()

	for from := 0; from < length; from += writeChunkFrames {
		to := min(from+writeChunkFrames, length)
		data := chunk[:(to-from)*frameBytes]
		putPCM16(data, buf, from, to)

		n, err := w.Write(data)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("failed to write WAV data: %w", err)
		}
	}

	return written, nil
}
