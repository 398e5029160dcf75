// ABOUTME: Decoder interface definition
// ABOUTME: Common interface and codec lookup for all audio decoders
package decode

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ion-space/spaceconvert/pkg/audio"
)

// Decoder decodes a complete audio stream to a float PCM buffer
type Decoder interface {
	// Decode reads r to the end and returns the decoded audio
	Decode(r io.Reader) (*audio.Buffer, error)

	// Close releases decoder resources
	Close() error
}

// New returns the decoder for format.Codec
func New(format audio.Format) (Decoder, error) {
	switch format.Codec {
	case "mp3":
		return NewMP3(format)
	case "flac":
		return NewFLAC(format)
	case "wav":
		return NewWAV(format)
	default:
		return nil, fmt.Errorf("unsupported codec: %s (supported: mp3, flac, wav)", format.Codec)
	}
}

// CodecFromPath guesses the codec from a file name or URL path
func CodecFromPath(path string) (string, error) {
	// Remove query string
	path = strings.Split(path, "?")[0]

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3":
		return "mp3", nil
	case ".flac":
		return "flac", nil
	case ".wav", ".wave":
		return "wav", nil
	default:
		return "", fmt.Errorf("unsupported audio format: %q (supported: .mp3, .flac, .wav)", ext)
	}
}
