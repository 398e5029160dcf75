// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for all audio encoders
package encode

import (
	"fmt"

	"github.com/ion-space/spaceconvert/pkg/audio"
)

// Encoder encodes float PCM buffers to bytes
type Encoder interface {
	// Encode converts a buffer to encoded audio data
	Encode(buf *audio.Buffer) ([]byte, error)

	// ContentType returns the MIME type of the encoded data
	ContentType() string

	// Close releases encoder resources
	Close() error
}

// New returns the encoder registered for format.Codec
func New(format audio.Format) (Encoder, error) {
	switch format.Codec {
	case "pcm":
		return NewPCM(format)
	case "wav":
		return NewWAV(format)
	default:
		return nil, fmt.Errorf("unsupported codec: %s (supported: pcm, wav)", format.Codec)
	}
}
