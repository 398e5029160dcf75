// ABOUTME: Source reading from a decoded buffer
// ABOUTME: Lets decoded files be previewed through any Output
package output

import (
	"sync"

	"github.com/ion-space/spaceconvert/pkg/audio"
)

// BufferSource plays a buffer once. Read returns 0 when it is exhausted.
type BufferSource struct {
	buf *audio.Buffer

	mu  sync.Mutex
	pos int
}

// NewBufferSource wraps buf, which must be valid
func NewBufferSource(buf *audio.Buffer) (*BufferSource, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	return &BufferSource{buf: buf}, nil
}

// Read fills samples with whole interleaved frames
func (s *BufferSource) Read(samples []int16) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	channels := s.buf.Channels()
	frames := min(len(samples)/channels, s.buf.Length()-s.pos)

	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			samples[i*channels+ch] = audio.FloatToInt16(s.buf.Data[ch][s.pos+i])
		}
	}
	s.pos += frames

	return frames * channels, nil
}

func (s *BufferSource) SampleRate() int { return s.buf.SampleRate }
func (s *BufferSource) Channels() int   { return s.buf.Channels() }
